package canvas

import (
	"fmt"
	"math"

	"github.com/arloliu/dshade/agg"
	"github.com/arloliu/dshade/errs"
)

// InterpMethod selects how Regrid resamples cells.
type InterpMethod uint8

const (
	// InterpNearest copies the nearest source cell. Fast, blocky.
	InterpNearest InterpMethod = iota + 1
	// InterpLinear blends the four surrounding cells bilinearly. Cells with
	// NaN neighbors fall back to the nearest cell so empty regions do not
	// bleed into filled ones.
	InterpLinear
	// InterpMean averages the source cells covered by each target cell,
	// skipping NaN. Meant for downsampling.
	InterpMean
)

// String returns the method name.
func (m InterpMethod) String() string {
	switch m {
	case InterpNearest:
		return "nearest"
	case InterpLinear:
		return "linear"
	case InterpMean:
		return "mean"
	default:
		return "unknown"
	}
}

// Regrid resamples a grid to a new resolution over the same data ranges.
// Categorical grids are resampled plane by plane.
func Regrid(src *agg.Grid, width, height int, method InterpMethod) (*agg.Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%dx%d: %w", width, height, errs.ErrInvalidCanvasSize)
	}
	if method != InterpNearest && method != InterpLinear && method != InterpMean {
		return nil, fmt.Errorf("method %d: %w", method, errs.ErrUnknownInterpMethod)
	}

	if width == src.Width && height == src.Height {
		return src.Clone(), nil
	}

	dst := &agg.Grid{
		Width:  width,
		Height: height,
		X:      src.X,
		Y:      src.Y,
	}
	if src.IsCategorical() {
		dst.Cats = append([]string{}, src.Cats...)
		dst.Data = make([]float64, width*height*src.NumCats())
		for c := range src.Cats {
			regridPlane(src.Plane(c), src.Width, src.Height, dst.Data[c*width*height:(c+1)*width*height], width, height, method)
		}
	} else {
		dst.Data = make([]float64, width*height)
		regridPlane(src.Data, src.Width, src.Height, dst.Data, width, height, method)
	}

	return dst, nil
}

func regridPlane(src []float64, sw, sh int, dst []float64, dw, dh int, method InterpMethod) {
	switch method {
	case InterpNearest:
		for j := 0; j < dh; j++ {
			sy := nearestIndex(j, dh, sh)
			for i := 0; i < dw; i++ {
				dst[j*dw+i] = src[sy*sw+nearestIndex(i, dw, sw)]
			}
		}
	case InterpLinear:
		for j := 0; j < dh; j++ {
			y0, y1, fy := linearWeights(j, dh, sh)
			for i := 0; i < dw; i++ {
				x0, x1, fx := linearWeights(i, dw, sw)
				dst[j*dw+i] = bilinear(src, sw, x0, x1, y0, y1, fx, fy)
			}
		}
	case InterpMean:
		for j := 0; j < dh; j++ {
			ys, ye := poolSpan(j, dh, sh)
			for i := 0; i < dw; i++ {
				xs, xe := poolSpan(i, dw, sw)
				dst[j*dw+i] = blockMean(src, sw, xs, xe, ys, ye)
			}
		}
	}
}

// nearestIndex maps target cell i of dn cells to the nearest of sn source
// cells.
func nearestIndex(i, dn, sn int) int {
	s := int((float64(i) + 0.5) * float64(sn) / float64(dn))
	if s >= sn {
		s = sn - 1
	}

	return s
}

// linearWeights returns the two source cells bracketing target cell i and
// the fractional weight of the second one.
func linearWeights(i, dn, sn int) (lo, hi int, frac float64) {
	u := (float64(i)+0.5)*float64(sn)/float64(dn) - 0.5
	if u <= 0 {
		return 0, 0, 0
	}
	lo = int(u)
	if lo >= sn-1 {
		return sn - 1, sn - 1, 0
	}

	return lo, lo + 1, u - float64(lo)
}

func bilinear(src []float64, sw, x0, x1, y0, y1 int, fx, fy float64) float64 {
	c00 := src[y0*sw+x0]
	c10 := src[y0*sw+x1]
	c01 := src[y1*sw+x0]
	c11 := src[y1*sw+x1]

	if math.IsNaN(c00) || math.IsNaN(c10) || math.IsNaN(c01) || math.IsNaN(c11) {
		// Snap to the closest corner instead of propagating NaN across
		// the whole neighborhood.
		nx, ny := x0, y0
		if fx > 0.5 {
			nx = x1
		}
		if fy > 0.5 {
			ny = y1
		}

		return src[ny*sw+nx]
	}

	top := c00 + (c10-c00)*fx
	bottom := c01 + (c11-c01)*fx

	return top + (bottom-top)*fy
}

// poolSpan returns the half-open source cell span covered by target cell i.
func poolSpan(i, dn, sn int) (start, end int) {
	start = i * sn / dn
	end = (i + 1) * sn / dn
	if end <= start {
		end = start + 1
	}

	return start, end
}

func blockMean(src []float64, sw, xs, xe, ys, ye int) float64 {
	sum := 0.0
	n := 0
	for y := ys; y < ye; y++ {
		for x := xs; x < xe; x++ {
			v := src[y*sw+x]
			if math.IsNaN(v) {
				continue
			}
			sum += v
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}

	return sum / float64(n)
}
