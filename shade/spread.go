package shade

import (
	"fmt"
	"image"

	"github.com/arloliu/dshade/errs"
	"github.com/arloliu/dshade/internal/options"
)

// Shape selects the spread mask.
type Shape uint8

const (
	// ShapeCircle spreads into a disk of the given radius.
	ShapeCircle Shape = iota
	// ShapeSquare spreads into a full square of side 2*px+1.
	ShapeSquare
	// ShapeCross spreads along the horizontal and vertical arms only.
	ShapeCross
)

var shapeNames = map[Shape]string{
	ShapeCircle: "circle",
	ShapeSquare: "square",
	ShapeCross:  "cross",
}

// String returns the shape name.
func (s Shape) String() string {
	if name, ok := shapeNames[s]; ok {
		return name
	}

	return "unknown"
}

// ParseShape returns the spread shape for a config name.
func ParseShape(s string) (Shape, error) {
	switch s {
	case "circle":
		return ShapeCircle, nil
	case "square":
		return ShapeSquare, nil
	case "cross":
		return ShapeCross, nil
	default:
		return 0, fmt.Errorf("unknown spread shape %q", s)
	}
}

// CompositeOp selects how overlapping spread copies merge.
type CompositeOp uint8

const (
	// OpOver stacks copies with source-over alpha compositing.
	OpOver CompositeOp = iota
	// OpAdd sums premultiplied channels, saturating at full intensity.
	OpAdd
	// OpMax keeps the larger premultiplied channel values.
	OpMax
)

var compositeOpNames = map[CompositeOp]string{
	OpOver: "over",
	OpAdd:  "add",
	OpMax:  "max",
}

// String returns the operator name.
func (op CompositeOp) String() string {
	if name, ok := compositeOpNames[op]; ok {
		return name
	}

	return "unknown"
}

// ParseCompositeOp returns the compositing operator for a config name.
func ParseCompositeOp(s string) (CompositeOp, error) {
	switch s {
	case "over":
		return OpOver, nil
	case "add":
		return OpAdd, nil
	case "max":
		return OpMax, nil
	default:
		return 0, fmt.Errorf("unknown composite operator %q", s)
	}
}

type spreadConfig struct {
	shape Shape
	op    CompositeOp
}

func defaultSpreadConfig() spreadConfig {
	return spreadConfig{shape: ShapeCircle, op: OpOver}
}

// SpreadOption configures Spread and Dynspread.
type SpreadOption = options.Option[*spreadConfig]

// WithShape sets the spread mask shape.
func WithShape(shape Shape) SpreadOption {
	return options.New(func(cfg *spreadConfig) error {
		if _, ok := shapeNames[shape]; !ok {
			return fmt.Errorf("invalid spread shape: %v", shape)
		}
		cfg.shape = shape

		return nil
	})
}

// WithCompositeOp sets how overlapping spread copies merge.
func WithCompositeOp(op CompositeOp) SpreadOption {
	return options.New(func(cfg *spreadConfig) error {
		if _, ok := compositeOpNames[op]; !ok {
			return fmt.Errorf("invalid composite operator: %v", op)
		}
		cfg.op = op

		return nil
	})
}

// Spread enlarges every non-empty pixel by px pixels in all directions,
// merging overlaps with the configured compositing operator. Isolated points
// that rasterize to single pixels become visible blobs.
//
// px of zero returns img unchanged. Defaults: circle mask, over compositing.
func Spread(img *image.NRGBA, px int, opts ...SpreadOption) (*image.NRGBA, error) {
	if px < 0 {
		return nil, fmt.Errorf("px %d: %w", px, errs.ErrInvalidSpreadPx)
	}

	cfg := defaultSpreadConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}
	if px == 0 {
		return img, nil
	}

	w, h := img.Rect.Dx(), img.Rect.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))

	// Composite one shifted copy of the source per mask offset. The offset
	// order fixes the stacking for OpOver; add and max are order-free.
	for _, off := range maskOffsets(cfg.shape, px) {
		for y := range h {
			ty := y + off.dy
			if ty < 0 || ty >= h {
				continue
			}
			srcRow := img.Pix[y*img.Stride:]
			dstRow := out.Pix[ty*out.Stride:]
			for x := range w {
				tx := x + off.dx
				if tx < 0 || tx >= w {
					continue
				}
				so := x * 4
				if srcRow[so+3] == 0 {
					continue
				}
				compositePixel(dstRow[tx*4:tx*4+4:tx*4+4], srcRow[so:so+4:so+4], cfg.op)
			}
		}
	}

	return out, nil
}

// Dynspread spreads an image just enough to make sparse plots readable.
//
// The spread radius grows from zero until the fraction of non-empty pixels
// with at least one non-empty neighbor reaches threshold, or until maxPx.
// Dense images come back unchanged, so the same call works across zoom
// levels: zoomed-out views stay sharp and zoomed-in scatters stay visible.
func Dynspread(img *image.NRGBA, threshold float64, maxPx int, opts ...SpreadOption) (*image.NRGBA, error) {
	if threshold <= 0 || threshold > 1 {
		return nil, fmt.Errorf("dynspread threshold %g not in (0, 1]", threshold)
	}
	if maxPx < 0 {
		return nil, fmt.Errorf("max px %d: %w", maxPx, errs.ErrInvalidSpreadPx)
	}

	cur := img
	for px := 1; px <= maxPx && pixelDensity(cur) < threshold; px++ {
		var err error
		cur, err = Spread(img, px, opts...)
		if err != nil {
			return nil, err
		}
	}

	return cur, nil
}

type maskOffset struct {
	dx, dy int
}

// maskOffsets lists the pixel offsets covered by a shape of radius px.
func maskOffsets(shape Shape, px int) []maskOffset {
	offs := make([]maskOffset, 0, (2*px+1)*(2*px+1))
	for dy := -px; dy <= px; dy++ {
		for dx := -px; dx <= px; dx++ {
			switch shape {
			case ShapeCircle:
				r := float64(px) + 0.5
				if float64(dx*dx+dy*dy) > r*r {
					continue
				}
			case ShapeCross:
				if dx != 0 && dy != 0 {
					continue
				}
			case ShapeSquare:
			}
			offs = append(offs, maskOffset{dx: dx, dy: dy})
		}
	}

	return offs
}

// compositePixel merges src into dst in premultiplied space. Both slices are
// 4 bytes of straight-alpha RGBA.
func compositePixel(dst, src []byte, op CompositeOp) {
	sa := float64(src[3]) / 255
	sr := float64(src[0]) / 255 * sa
	sg := float64(src[1]) / 255 * sa
	sb := float64(src[2]) / 255 * sa

	da := float64(dst[3]) / 255
	dr := float64(dst[0]) / 255 * da
	dg := float64(dst[1]) / 255 * da
	db := float64(dst[2]) / 255 * da

	var r, g, b, a float64
	switch op {
	case OpOver:
		k := 1 - sa
		r, g, b, a = sr+dr*k, sg+dg*k, sb+db*k, sa+da*k
	case OpAdd:
		r, g, b, a = min(sr+dr, 1), min(sg+dg, 1), min(sb+db, 1), min(sa+da, 1)
	case OpMax:
		r, g, b, a = max(sr, dr), max(sg, dg), max(sb, db), max(sa, da)
	}

	if a <= 0 {
		dst[0], dst[1], dst[2], dst[3] = 0, 0, 0, 0
		return
	}

	// Back to straight alpha.
	dst[0] = uint8(min(r/a, 1)*255 + 0.5)
	dst[1] = uint8(min(g/a, 1)*255 + 0.5)
	dst[2] = uint8(min(b/a, 1)*255 + 0.5)
	dst[3] = uint8(a*255 + 0.5)
}

// pixelDensity returns the fraction of non-empty pixels with a non-empty
// pixel among their eight neighbors. An empty image counts as dense.
func pixelDensity(img *image.NRGBA) float64 {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	total, withNeighbor := 0, 0
	for y := range h {
		for x := range w {
			if img.Pix[y*img.Stride+x*4+3] == 0 {
				continue
			}
			total++
			if hasNeighbor(img, x, y, w, h) {
				withNeighbor++
			}
		}
	}
	if total == 0 {
		return 1
	}

	return float64(withNeighbor) / float64(total)
}

func hasNeighbor(img *image.NRGBA, x, y, w, h int) bool {
	for dy := -1; dy <= 1; dy++ {
		ny := y + dy
		if ny < 0 || ny >= h {
			continue
		}
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx := x + dx
			if nx < 0 || nx >= w {
				continue
			}
			if img.Pix[ny*img.Stride+nx*4+3] != 0 {
				return true
			}
		}
	}

	return false
}
