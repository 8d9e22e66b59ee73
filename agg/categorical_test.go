package agg

import (
	"math"
	"testing"

	"github.com/arloliu/dshade/errs"
	"github.com/stretchr/testify/require"
)

func TestCountCat(t *testing.T) {
	x, y := testRanges()
	st := CountCat("c").NewState(2, 1)
	require.NoError(t, st.SetCategories([]string{"a", "b"}))

	st.Accumulate(0, 0, 0) // a
	st.Accumulate(0, 0, 1) // b
	st.Accumulate(1, 0, 1) // b
	st.Accumulate(1, 0, -1)

	g := st.Finalize(x, y)
	require.True(t, g.IsCategorical())
	require.Equal(t, []string{"a", "b"}, g.Cats)
	require.Equal(t, []float64{1, 0}, g.Plane(0))
	require.Equal(t, []float64{1, 1}, g.Plane(1))
	require.Equal(t, 2.0, g.Total(0, 0))
}

func TestBy_Sum(t *testing.T) {
	x, y := testRanges()
	st := By("c", Sum("v")).NewState(1, 1)
	require.NoError(t, st.SetCategories([]string{"a", "b"}))

	st.Accumulate(0, 1.5, 0)
	st.Accumulate(0, 2.5, 0)
	st.Accumulate(0, 10, 1)

	g := st.Finalize(x, y)
	require.Equal(t, 4.0, g.CatAt(0, 0, 0))
	require.Equal(t, 10.0, g.CatAt(0, 0, 1))
}

func TestBy_GrowingSnapshots(t *testing.T) {
	x, y := testRanges()
	st := CountCat("c").NewState(1, 1)

	// First chunk only knows one category.
	require.NoError(t, st.SetCategories([]string{"a"}))
	st.Accumulate(0, 0, 0)

	// Later chunk extends the table; earlier codes stay valid.
	require.NoError(t, st.SetCategories([]string{"a", "b"}))
	st.Accumulate(0, 0, 1)

	// A repeat of an older, shorter snapshot is fine.
	require.NoError(t, st.SetCategories([]string{"a"}))

	g := st.Finalize(x, y)
	require.Equal(t, []string{"a", "b"}, g.Cats)
	require.Equal(t, 1.0, g.CatAt(0, 0, 0))
	require.Equal(t, 1.0, g.CatAt(0, 0, 1))
}

func TestBy_SnapshotMismatch(t *testing.T) {
	st := CountCat("c").NewState(1, 1)
	require.NoError(t, st.SetCategories([]string{"a", "b"}))

	require.ErrorIs(t, st.SetCategories([]string{"a", "z"}), errs.ErrCategoryMismatch)
	require.ErrorIs(t, st.SetCategories([]string{"z"}), errs.ErrCategoryMismatch)
}

func TestBy_Merge(t *testing.T) {
	x, y := testRanges()

	// Chunk states may have seen different prefixes of the category table.
	a := CountCat("c").NewState(1, 1)
	require.NoError(t, a.SetCategories([]string{"a"}))
	a.Accumulate(0, 0, 0)

	b := CountCat("c").NewState(1, 1)
	require.NoError(t, b.SetCategories([]string{"a", "b"}))
	b.Accumulate(0, 0, 0)
	b.Accumulate(0, 0, 1)

	require.NoError(t, a.Merge(b))
	g := a.Finalize(x, y)
	require.Equal(t, []string{"a", "b"}, g.Cats)
	require.Equal(t, 2.0, g.CatAt(0, 0, 0))
	require.Equal(t, 1.0, g.CatAt(0, 0, 1))
}

func TestBy_MergeLongerIntoShorter(t *testing.T) {
	x, y := testRanges()

	a := CountCat("c").NewState(1, 1)
	require.NoError(t, a.SetCategories([]string{"a", "b"}))
	a.Accumulate(0, 0, 1)

	b := CountCat("c").NewState(1, 1)
	require.NoError(t, b.SetCategories([]string{"a"}))
	b.Accumulate(0, 0, 0)

	require.NoError(t, a.Merge(b))
	g := a.Finalize(x, y)
	require.Equal(t, []string{"a", "b"}, g.Cats)
	require.Equal(t, 1.0, g.CatAt(0, 0, 0))
	require.Equal(t, 1.0, g.CatAt(0, 0, 1))
}

func TestBy_MergeMismatch(t *testing.T) {
	a := CountCat("c").NewState(1, 1)
	require.NoError(t, a.SetCategories([]string{"a", "b"}))

	b := CountCat("c").NewState(1, 1)
	require.NoError(t, b.SetCategories([]string{"a", "z"}))

	require.ErrorIs(t, a.Merge(b), errs.ErrCategoryMismatch)
}

func TestBy_DropsOutOfRangeCodes(t *testing.T) {
	x, y := testRanges()
	st := CountCat("c").NewState(1, 1)
	require.NoError(t, st.SetCategories([]string{"a"}))

	st.Accumulate(0, 0, -1)
	st.Accumulate(0, 0, 5)
	st.Accumulate(0, 0, 0)

	g := st.Finalize(x, y)
	require.Equal(t, 1.0, g.CatAt(0, 0, 0))
}

func TestBy_EmptyFinalize(t *testing.T) {
	x, y := testRanges()
	g := CountCat("c").NewState(2, 2).Finalize(x, y)

	require.True(t, g.IsCategorical())
	require.Equal(t, 0, g.NumCats())
	require.Empty(t, g.Data)
	require.True(t, math.IsNaN(g.Total(0, 0)))
}

func TestBy_MeanPerCategory(t *testing.T) {
	x, y := testRanges()
	st := By("c", Mean("v")).NewState(1, 1)
	require.NoError(t, st.SetCategories([]string{"a", "b"}))

	st.Accumulate(0, 2, 0)
	st.Accumulate(0, 4, 0)
	st.Accumulate(0, 10, 1)

	g := st.Finalize(x, y)
	require.Equal(t, 3.0, g.CatAt(0, 0, 0))
	require.Equal(t, 10.0, g.CatAt(0, 0, 1))
}
