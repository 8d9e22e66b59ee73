package server

import (
	"math"

	"github.com/aclements/go-moremath/scale"

	"github.com/arloliu/dshade/geom"
)

// axisTicks returns at most max major tick positions for an axis range,
// placed at multiples of a power of ten. Tick level l means spacing 10^l;
// FindLevel picks the lowest level whose tick count fits.
func axisTicks(r geom.Range, max int) []float64 {
	if !r.IsValid() || max < 1 {
		return nil
	}

	bounds := func(level int) (lo, hi int64) {
		spacing := math.Pow(10, float64(level))
		return int64(math.Ceil(r.Min / spacing)), int64(math.Floor(r.Max / spacing))
	}
	count := func(level int) int {
		lo, hi := bounds(level)
		if hi < lo {
			return 0
		}

		return int(hi - lo + 1)
	}
	ticks := func(level int) []float64 {
		lo, hi := bounds(level)
		if hi < lo {
			return nil
		}
		spacing := math.Pow(10, float64(level))
		out := make([]float64, 0, hi-lo+1)
		for i := lo; i <= hi; i++ {
			out = append(out, float64(i)*spacing)
		}

		return out
	}

	opts := scale.TickOptions{Max: max}
	guess := int(math.Round(math.Log10(r.Span())))
	level, ok := opts.FindLevel(funcTicker{count, ticks}, guess)
	if !ok {
		return []float64{r.Min, r.Max}
	}

	return ticks(level)
}

// funcTicker adapts axisTicks' count and ticks closures to the
// scale.Ticker interface required by TickOptions.FindLevel.
type funcTicker struct {
	count func(level int) int
	ticks func(level int) []float64
}

func (t funcTicker) CountTicks(level int) int           { return t.count(level) }
func (t funcTicker) TicksAtLevel(level int) interface{} { return t.ticks(level) }
