package agg

import (
	"math"

	"github.com/arloliu/dshade/errs"
	"github.com/arloliu/dshade/geom"
)

// First returns a reduction that keeps the first column value, in row
// order, landing in each cell. Empty cells finalize to NaN.
//
// First and Last depend on row order, so their per-chunk states must be
// merged in chunk order. The canvas guarantees that.
func First(column string) Reduction {
	return firstReduction{valueColumn(column)}
}

type firstReduction struct{ valueColumn }

func (r firstReduction) Name() string { return "first(" + string(r.valueColumn) + ")" }

func (r firstReduction) NewState(width, height int) State {
	return &firstState{plane: newPlane(width, height, math.NaN())}
}

type firstState struct {
	plane
}

func (s *firstState) SetCategories([]string) error { return nil }

func (s *firstState) Accumulate(cell int, value float64, _ int32) {
	if math.IsNaN(s.cells[cell]) {
		s.cells[cell] = value
	}
}

func (s *firstState) Merge(other State) error {
	o, ok := other.(*firstState)
	if !ok {
		return errs.ErrReductionMismatch
	}
	if err := s.checkShape(&o.plane); err != nil {
		return err
	}

	// The receiver holds earlier rows; only fill cells it never touched.
	for i, v := range o.cells {
		if math.IsNaN(s.cells[i]) {
			s.cells[i] = v
		}
	}

	return nil
}

func (s *firstState) Finalize(x, y geom.Range) *Grid {
	return s.intoGrid(x, y)
}

// Last returns a reduction that keeps the last column value, in row order,
// landing in each cell. Empty cells finalize to NaN.
func Last(column string) Reduction {
	return lastReduction{valueColumn(column)}
}

type lastReduction struct{ valueColumn }

func (r lastReduction) Name() string { return "last(" + string(r.valueColumn) + ")" }

func (r lastReduction) NewState(width, height int) State {
	return &lastState{plane: newPlane(width, height, math.NaN())}
}

type lastState struct {
	plane
}

func (s *lastState) SetCategories([]string) error { return nil }

func (s *lastState) Accumulate(cell int, value float64, _ int32) {
	s.cells[cell] = value
}

func (s *lastState) Merge(other State) error {
	o, ok := other.(*lastState)
	if !ok {
		return errs.ErrReductionMismatch
	}
	if err := s.checkShape(&o.plane); err != nil {
		return err
	}

	// The other state holds later rows; its cells win wherever set.
	for i, v := range o.cells {
		if !math.IsNaN(v) {
			s.cells[i] = v
		}
	}

	return nil
}

func (s *lastState) Finalize(x, y geom.Range) *Grid {
	return s.intoGrid(x, y)
}
