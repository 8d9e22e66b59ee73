package agg

import (
	"math"

	"github.com/arloliu/dshade/geom"
)

// Grid is a rectangular aggregate produced by rasterization.
//
// Cells are stored row-major in Data, with cell (0, 0) at the minimum corner
// of the X and Y ranges. Categorical grids store one full plane per category,
// plane-major: Data[c*Width*Height : (c+1)*Width*Height] is the plane for
// Cats[c].
//
// A Grid is immutable once produced. Shading and spreading operate on it
// without copying; callers that need to mutate cells should Clone first.
type Grid struct {
	Width  int
	Height int
	X      geom.Range
	Y      geom.Range
	// Cats is nil for scalar grids. For categorical grids it lists category
	// names in code order, possibly empty when the source had no rows.
	Cats []string
	Data []float64
}

// NewGrid creates a scalar grid with all cells set to fill.
func NewGrid(width, height int, x, y geom.Range, fill float64) *Grid {
	g := &Grid{
		Width:  width,
		Height: height,
		X:      x,
		Y:      y,
		Data:   make([]float64, width*height),
	}
	if fill != 0 {
		for i := range g.Data {
			g.Data[i] = fill
		}
	}

	return g
}

// NewCategoricalGrid creates a categorical grid with one plane per category,
// all cells set to fill.
func NewCategoricalGrid(width, height int, x, y geom.Range, cats []string, fill float64) *Grid {
	g := &Grid{
		Width:  width,
		Height: height,
		X:      x,
		Y:      y,
		Cats:   append([]string(nil), cats...),
		Data:   make([]float64, width*height*len(cats)),
	}
	if g.Cats == nil {
		g.Cats = []string{}
	}
	if fill != 0 {
		for i := range g.Data {
			g.Data[i] = fill
		}
	}

	return g
}

// IsCategorical reports whether the grid carries per-category planes.
func (g *Grid) IsCategorical() bool {
	return g.Cats != nil
}

// NumCats returns the number of category planes, zero for scalar grids.
func (g *Grid) NumCats() int {
	return len(g.Cats)
}

// NumCells returns the number of cells in one plane.
func (g *Grid) NumCells() int {
	return g.Width * g.Height
}

// At returns the scalar value at column ix, row iy.
// Panics if the grid is categorical or the indices are out of bounds.
func (g *Grid) At(ix, iy int) float64 {
	if g.IsCategorical() {
		panic("agg: At called on categorical grid")
	}

	return g.Data[iy*g.Width+ix]
}

// CatAt returns the value for category plane c at column ix, row iy.
func (g *Grid) CatAt(ix, iy, c int) float64 {
	return g.Data[c*g.Width*g.Height+iy*g.Width+ix]
}

// Plane returns the backing slice for category plane c. The slice aliases
// Data; treat it as read-only.
func (g *Grid) Plane(c int) []float64 {
	n := g.Width * g.Height
	return g.Data[c*n : (c+1)*n]
}

// Total returns the NaN-skipping sum across category planes at column ix,
// row iy. For scalar grids it is the cell value itself.
func (g *Grid) Total(ix, iy int) float64 {
	if !g.IsCategorical() {
		return g.Data[iy*g.Width+ix]
	}

	total := math.NaN()
	n := g.Width * g.Height
	for c := range g.Cats {
		v := g.Data[c*n+iy*g.Width+ix]
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(total) {
			total = v
		} else {
			total += v
		}
	}

	return total
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	dup := *g
	dup.Data = append([]float64(nil), g.Data...)
	if g.Cats != nil {
		dup.Cats = append([]string{}, g.Cats...)
	}

	return &dup
}
