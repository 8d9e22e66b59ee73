package agg

import (
	"math"

	"github.com/arloliu/dshade/errs"
	"github.com/arloliu/dshade/geom"
)

// valueColumn provides the shared column plumbing for scalar value
// reductions.
type valueColumn string

func (c valueColumn) ValueColumn() string { return string(c) }
func (c valueColumn) CatColumn() string   { return "" }

// nanAdd adds two cell values treating NaN as "empty".
func nanAdd(a, b float64) float64 {
	switch {
	case math.IsNaN(b):
		return a
	case math.IsNaN(a):
		return b
	default:
		return a + b
	}
}

// Sum returns a reduction that sums column over the rows in each cell.
// Empty cells finalize to NaN.
func Sum(column string) Reduction {
	return sumReduction{valueColumn(column)}
}

type sumReduction struct{ valueColumn }

func (r sumReduction) Name() string { return "sum(" + string(r.valueColumn) + ")" }

func (r sumReduction) NewState(width, height int) State {
	return &sumState{plane: newPlane(width, height, math.NaN())}
}

type sumState struct {
	plane
}

func (s *sumState) SetCategories([]string) error { return nil }

func (s *sumState) Accumulate(cell int, value float64, _ int32) {
	s.cells[cell] = nanAdd(s.cells[cell], value)
}

func (s *sumState) Merge(other State) error {
	o, ok := other.(*sumState)
	if !ok {
		return errs.ErrReductionMismatch
	}
	if err := s.checkShape(&o.plane); err != nil {
		return err
	}

	for i, v := range o.cells {
		s.cells[i] = nanAdd(s.cells[i], v)
	}

	return nil
}

func (s *sumState) Finalize(x, y geom.Range) *Grid {
	return s.intoGrid(x, y)
}

// Min returns a reduction that keeps the smallest column value in each cell.
// Empty cells finalize to NaN.
func Min(column string) Reduction {
	return minReduction{valueColumn(column)}
}

type minReduction struct{ valueColumn }

func (r minReduction) Name() string { return "min(" + string(r.valueColumn) + ")" }

func (r minReduction) NewState(width, height int) State {
	return &minState{plane: newPlane(width, height, math.NaN())}
}

type minState struct {
	plane
}

func (s *minState) SetCategories([]string) error { return nil }

func (s *minState) Accumulate(cell int, value float64, _ int32) {
	if cur := s.cells[cell]; math.IsNaN(cur) || value < cur {
		s.cells[cell] = value
	}
}

func (s *minState) Merge(other State) error {
	o, ok := other.(*minState)
	if !ok {
		return errs.ErrReductionMismatch
	}
	if err := s.checkShape(&o.plane); err != nil {
		return err
	}

	for i, v := range o.cells {
		if math.IsNaN(v) {
			continue
		}
		if cur := s.cells[i]; math.IsNaN(cur) || v < cur {
			s.cells[i] = v
		}
	}

	return nil
}

func (s *minState) Finalize(x, y geom.Range) *Grid {
	return s.intoGrid(x, y)
}

// Max returns a reduction that keeps the largest column value in each cell.
// Empty cells finalize to NaN.
func Max(column string) Reduction {
	return maxReduction{valueColumn(column)}
}

type maxReduction struct{ valueColumn }

func (r maxReduction) Name() string { return "max(" + string(r.valueColumn) + ")" }

func (r maxReduction) NewState(width, height int) State {
	return &maxState{plane: newPlane(width, height, math.NaN())}
}

type maxState struct {
	plane
}

func (s *maxState) SetCategories([]string) error { return nil }

func (s *maxState) Accumulate(cell int, value float64, _ int32) {
	if cur := s.cells[cell]; math.IsNaN(cur) || value > cur {
		s.cells[cell] = value
	}
}

func (s *maxState) Merge(other State) error {
	o, ok := other.(*maxState)
	if !ok {
		return errs.ErrReductionMismatch
	}
	if err := s.checkShape(&o.plane); err != nil {
		return err
	}

	for i, v := range o.cells {
		if math.IsNaN(v) {
			continue
		}
		if cur := s.cells[i]; math.IsNaN(cur) || v > cur {
			s.cells[i] = v
		}
	}

	return nil
}

func (s *maxState) Finalize(x, y geom.Range) *Grid {
	return s.intoGrid(x, y)
}

// Mean returns a reduction that averages column over the rows in each cell.
// Empty cells finalize to NaN.
func Mean(column string) Reduction {
	return meanReduction{valueColumn(column)}
}

type meanReduction struct{ valueColumn }

func (r meanReduction) Name() string { return "mean(" + string(r.valueColumn) + ")" }

func (r meanReduction) NewState(width, height int) State {
	return &meanState{
		plane:  newPlane(width, height, 0),
		counts: make([]float64, width*height),
	}
}

// meanState keeps sums in the embedded plane and row counts alongside, so
// partial states merge exactly regardless of how rows were split across
// chunks.
type meanState struct {
	plane
	counts []float64
}

func (s *meanState) SetCategories([]string) error { return nil }

func (s *meanState) Accumulate(cell int, value float64, _ int32) {
	s.cells[cell] += value
	s.counts[cell]++
}

func (s *meanState) Merge(other State) error {
	o, ok := other.(*meanState)
	if !ok {
		return errs.ErrReductionMismatch
	}
	if err := s.checkShape(&o.plane); err != nil {
		return err
	}

	for i, v := range o.cells {
		s.cells[i] += v
		s.counts[i] += o.counts[i]
	}

	return nil
}

func (s *meanState) Finalize(x, y geom.Range) *Grid {
	for i, n := range s.counts {
		if n > 0 {
			s.cells[i] /= n
		} else {
			s.cells[i] = math.NaN()
		}
	}

	return s.intoGrid(x, y)
}

// Var returns a reduction that computes the population variance of column
// over the rows in each cell. Empty cells finalize to NaN.
func Var(column string) Reduction {
	return varReduction{valueColumn: valueColumn(column)}
}

// Std returns a reduction that computes the population standard deviation
// of column over the rows in each cell. Empty cells finalize to NaN.
func Std(column string) Reduction {
	return varReduction{valueColumn: valueColumn(column), std: true}
}

type varReduction struct {
	valueColumn
	std bool
}

func (r varReduction) Name() string {
	if r.std {
		return "std(" + string(r.valueColumn) + ")"
	}

	return "var(" + string(r.valueColumn) + ")"
}

func (r varReduction) NewState(width, height int) State {
	n := width * height
	return &varState{
		plane:  newPlane(width, height, 0),
		counts: make([]float64, n),
		m2s:    make([]float64, n),
		std:    r.std,
	}
}

// varState runs Welford's algorithm per cell, keeping the running mean in
// the embedded plane and the sum of squared deviations in m2s. Merge uses
// the parallel combination rule, so chunked aggregation matches a single
// sequential pass up to floating-point rounding.
type varState struct {
	plane
	counts []float64
	m2s    []float64
	std    bool
}

func (s *varState) SetCategories([]string) error { return nil }

func (s *varState) Accumulate(cell int, value float64, _ int32) {
	s.counts[cell]++
	delta := value - s.cells[cell]
	s.cells[cell] += delta / s.counts[cell]
	s.m2s[cell] += delta * (value - s.cells[cell])
}

func (s *varState) Merge(other State) error {
	o, ok := other.(*varState)
	if !ok {
		return errs.ErrReductionMismatch
	}
	if err := s.checkShape(&o.plane); err != nil {
		return err
	}

	for i := range o.counts {
		nb := o.counts[i]
		if nb == 0 {
			continue
		}
		na := s.counts[i]
		if na == 0 {
			s.counts[i] = nb
			s.cells[i] = o.cells[i]
			s.m2s[i] = o.m2s[i]

			continue
		}

		n := na + nb
		delta := o.cells[i] - s.cells[i]
		s.cells[i] += delta * nb / n
		s.m2s[i] += o.m2s[i] + delta*delta*na*nb/n
		s.counts[i] = n
	}

	return nil
}

func (s *varState) Finalize(x, y geom.Range) *Grid {
	for i, n := range s.counts {
		if n == 0 {
			s.cells[i] = math.NaN()
			continue
		}
		v := s.m2s[i] / n
		if s.std {
			v = math.Sqrt(v)
		}
		s.cells[i] = v
	}

	return s.intoGrid(x, y)
}
