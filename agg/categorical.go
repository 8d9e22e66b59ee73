package agg

import (
	"fmt"

	"github.com/arloliu/dshade/errs"
	"github.com/arloliu/dshade/geom"
	"github.com/arloliu/dshade/internal/catmap"
)

// By returns a reduction that partitions each cell by a category column and
// applies inner to every partition, producing a categorical grid with one
// plane per category.
//
// The inner reduction must be scalar; nesting By inside By is not
// supported. Rows whose category is missing are dropped.
func By(column string, inner Reduction) Reduction {
	return byReduction{column: column, inner: inner}
}

// CountCat returns a reduction that counts rows per category in each cell.
// It is shorthand for By(column, Count()).
func CountCat(column string) Reduction {
	return By(column, Count())
}

type byReduction struct {
	column string
	inner  Reduction
}

func (r byReduction) Name() string {
	return "by(" + r.column + "," + r.inner.Name() + ")"
}

func (r byReduction) ValueColumn() string { return r.inner.ValueColumn() }
func (r byReduction) CatColumn() string   { return r.column }

func (r byReduction) NewState(width, height int) State {
	return &byState{
		width:  width,
		height: height,
		inner:  r.inner,
	}
}

// byState holds one inner state per category seen so far. Category tables
// from a single source are cumulative, so states only ever grow; merging
// validates the prefix property before aligning the two sides.
type byState struct {
	width  int
	height int
	inner  Reduction
	cats   []string
	states []State
}

func (s *byState) SetCategories(names []string) error {
	return s.grow(names)
}

func (s *byState) grow(names []string) error {
	if len(names) <= len(s.cats) {
		if !catmap.IsPrefix(names, s.cats) {
			return errs.ErrCategoryMismatch
		}

		return nil
	}
	if !catmap.IsPrefix(s.cats, names) {
		return errs.ErrCategoryMismatch
	}

	for i := len(s.cats); i < len(names); i++ {
		s.cats = append(s.cats, names[i])
		s.states = append(s.states, s.inner.NewState(s.width, s.height))
	}

	return nil
}

func (s *byState) Accumulate(cell int, value float64, cat int32) {
	// Rows with no category, or a code beyond the announced table, are
	// dropped rather than misattributed.
	if cat < 0 || int(cat) >= len(s.states) {
		return
	}
	s.states[cat].Accumulate(cell, value, -1)
}

func (s *byState) Merge(other State) error {
	o, ok := other.(*byState)
	if !ok {
		return errs.ErrReductionMismatch
	}
	if s.width != o.width || s.height != o.height {
		return fmt.Errorf("merge %dx%d into %dx%d: %w", o.width, o.height, s.width, s.height, errs.ErrGridSizeMismatch)
	}
	if err := s.grow(o.cats); err != nil {
		return err
	}

	for i, os := range o.states {
		if err := s.states[i].Merge(os); err != nil {
			return err
		}
	}

	return nil
}

func (s *byState) Finalize(x, y geom.Range) *Grid {
	n := s.width * s.height
	g := &Grid{
		Width:  s.width,
		Height: s.height,
		X:      x,
		Y:      y,
		Cats:   append([]string{}, s.cats...),
		Data:   make([]float64, n*len(s.cats)),
	}

	for c, st := range s.states {
		part := st.Finalize(x, y)
		copy(g.Data[c*n:(c+1)*n], part.Data)
	}

	return g
}
