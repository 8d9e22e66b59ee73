package shade

import (
	"errors"
	"fmt"
	"image"

	"github.com/arloliu/dshade/errs"
)

// Stack composites shaded layers with source-over blending, first image at
// the bottom. All images must share the same dimensions.
func Stack(imgs ...*image.NRGBA) (*image.NRGBA, error) {
	if len(imgs) == 0 {
		return nil, errors.New("stack needs at least one image")
	}

	base := imgs[0]
	w, h := base.Rect.Dx(), base.Rect.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		copy(out.Pix[y*out.Stride:y*out.Stride+4*w], base.Pix[y*base.Stride:y*base.Stride+4*w])
	}

	for i, img := range imgs[1:] {
		if img.Rect.Dx() != w || img.Rect.Dy() != h {
			return nil, fmt.Errorf("layer %d is %dx%d, base is %dx%d: %w",
				i+1, img.Rect.Dx(), img.Rect.Dy(), w, h, errs.ErrImageSizeMismatch)
		}
		for y := range h {
			srcRow := img.Pix[y*img.Stride:]
			dstRow := out.Pix[y*out.Stride:]
			for x := range w {
				o := x * 4
				if srcRow[o+3] == 0 {
					continue
				}
				compositePixel(dstRow[o:o+4:o+4], srcRow[o:o+4:o+4], OpOver)
			}
		}
	}

	return out, nil
}
