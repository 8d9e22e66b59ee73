package shade

import (
	"fmt"
	"math"
	"testing"

	"github.com/arloliu/dshade/agg"
	"github.com/arloliu/dshade/geom"
)

func benchGrid(width, height int) *agg.Grid {
	g := agg.NewGrid(width, height, geom.NewRange(0, 1), geom.NewRange(0, 1), 0)
	cx, cy := float64(width)/2, float64(height)/2
	for iy := range height {
		for ix := range width {
			dx, dy := float64(ix)-cx, float64(iy)-cy
			d := math.Sqrt(dx*dx+dy*dy) / float64(width)
			if d < 0.4 {
				g.Data[iy*width+ix] = math.Exp(-d * 12)
			}
		}
	}

	return g
}

func BenchmarkShade(b *testing.B) {
	grid := benchGrid(600, 400)

	hows := []How{HowEqHist, HowLinear, HowLog}
	for _, how := range hows {
		b.Run(how.String(), func(b *testing.B) {
			b.ResetTimer()
			for b.Loop() {
				if _, err := Shade(grid, WithHow(how)); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkSpread(b *testing.B) {
	grid := benchGrid(600, 400)
	img, err := Shade(grid)
	if err != nil {
		b.Fatal(err)
	}

	for _, px := range []int{1, 2, 3} {
		b.Run(fmt.Sprintf("px%d", px), func(b *testing.B) {
			b.ResetTimer()
			for b.Loop() {
				if _, err := Spread(img, px); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
