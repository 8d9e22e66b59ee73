package agg

import (
	"fmt"
	"math"

	"github.com/arloliu/dshade/errs"
	"github.com/arloliu/dshade/geom"
)

// Reduction describes how rows landing in the same canvas cell collapse
// into one aggregate value.
//
// Implementations are small immutable descriptors; the mutable accumulation
// buffers live in the State values they create. A single Reduction may back
// any number of concurrent rasterizations.
type Reduction interface {
	// Name returns a stable, human-readable identifier such as "count" or
	// "mean(value)". Names are used in log fields and render cache keys.
	Name() string
	// ValueColumn returns the source column the reduction reads, or "" when
	// it only counts rows. Rows whose value is NaN are skipped before
	// Accumulate is called.
	ValueColumn() string
	// CatColumn returns the category column for categorical reductions,
	// or "" for scalar ones.
	CatColumn() string
	// NewState creates an empty accumulation state for a width x height
	// canvas.
	NewState(width, height int) State
}

// State is the mutable accumulation buffer for one reduction over one
// canvas. States are not safe for concurrent use; parallel aggregation
// gives each chunk its own State and merges them afterwards.
type State interface {
	// SetCategories informs the state of the category table in effect for
	// subsequently accumulated rows. Snapshots from one source are
	// cumulative, so each call either extends the previous table or
	// repeats it. Scalar states ignore the call.
	SetCategories(names []string) error
	// Accumulate folds one row into the given cell. The cat code is -1
	// for rows without a category column.
	Accumulate(cell int, value float64, cat int32)
	// Merge folds other into the receiver. For order sensitive reductions
	// the receiver must hold earlier rows than other; the canvas merges
	// per-chunk states in chunk order to guarantee this.
	Merge(other State) error
	// Finalize converts the accumulated cells into a Grid spanning the
	// given data ranges. The state must not be reused afterwards.
	Finalize(x, y geom.Range) *Grid
}

// plane is the shared dense buffer embedded by scalar states.
type plane struct {
	width  int
	height int
	cells  []float64
}

func newPlane(width, height int, fill float64) plane {
	p := plane{
		width:  width,
		height: height,
		cells:  make([]float64, width*height),
	}
	if fill != 0 || math.IsNaN(fill) {
		for i := range p.cells {
			p.cells[i] = fill
		}
	}

	return p
}

func (p *plane) checkShape(o *plane) error {
	if p.width != o.width || p.height != o.height {
		return fmt.Errorf("merge %dx%d into %dx%d: %w", o.width, o.height, p.width, p.height, errs.ErrGridSizeMismatch)
	}

	return nil
}

func (p *plane) intoGrid(x, y geom.Range) *Grid {
	return &Grid{
		Width:  p.width,
		Height: p.height,
		X:      x,
		Y:      y,
		Data:   p.cells,
	}
}

// Count returns a reduction that counts the rows landing in each cell.
// Empty cells finalize to zero.
func Count() Reduction {
	return countReduction{}
}

type countReduction struct{}

func (countReduction) Name() string        { return "count" }
func (countReduction) ValueColumn() string { return "" }
func (countReduction) CatColumn() string   { return "" }

func (countReduction) NewState(width, height int) State {
	return &countState{plane: newPlane(width, height, 0)}
}

type countState struct {
	plane
}

func (s *countState) SetCategories([]string) error { return nil }

func (s *countState) Accumulate(cell int, _ float64, _ int32) {
	s.cells[cell]++
}

func (s *countState) Merge(other State) error {
	o, ok := other.(*countState)
	if !ok {
		return errs.ErrReductionMismatch
	}
	if err := s.checkShape(&o.plane); err != nil {
		return err
	}

	for i, v := range o.cells {
		s.cells[i] += v
	}

	return nil
}

func (s *countState) Finalize(x, y geom.Range) *Grid {
	return s.intoGrid(x, y)
}

// Any returns a reduction that marks cells hit by at least one row with 1.
// Empty cells finalize to zero.
func Any() Reduction {
	return anyReduction{}
}

type anyReduction struct{}

func (anyReduction) Name() string        { return "any" }
func (anyReduction) ValueColumn() string { return "" }
func (anyReduction) CatColumn() string   { return "" }

func (anyReduction) NewState(width, height int) State {
	return &anyState{plane: newPlane(width, height, 0)}
}

type anyState struct {
	plane
}

func (s *anyState) SetCategories([]string) error { return nil }

func (s *anyState) Accumulate(cell int, _ float64, _ int32) {
	s.cells[cell] = 1
}

func (s *anyState) Merge(other State) error {
	o, ok := other.(*anyState)
	if !ok {
		return errs.ErrReductionMismatch
	}
	if err := s.checkShape(&o.plane); err != nil {
		return err
	}

	for i, v := range o.cells {
		if v != 0 {
			s.cells[i] = 1
		}
	}

	return nil
}

func (s *anyState) Finalize(x, y geom.Range) *Grid {
	return s.intoGrid(x, y)
}
