package shade

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/arloliu/dshade/errs"
)

// Resample rescales a shaded image to the given pixel dimensions with
// bilinear filtering, for matching a client's device pixel ratio without
// re-aggregating.
func Resample(img *image.NRGBA, width, height int) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%dx%d: %w", width, height, errs.ErrInvalidCanvasSize)
	}

	out := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(out, out.Bounds(), img, img.Bounds(), draw.Src, nil)

	return out, nil
}
