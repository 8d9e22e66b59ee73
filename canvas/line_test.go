package canvas

import (
	"context"
	"math"
	"testing"

	"github.com/arloliu/dshade/agg"
	"github.com/arloliu/dshade/source"
	"github.com/stretchr/testify/require"
)

func gridSum(data []float64) float64 {
	total := 0.0
	for _, v := range data {
		if !math.IsNaN(v) {
			total += v
		}
	}

	return total
}

func TestCanvas_Line_Horizontal(t *testing.T) {
	c := createTestCanvas(t, 5, 5)
	tbl := createTestTable(t, map[string][]float64{
		"x": {0.5, 4.5},
		"y": {0.5, 0.5},
	})

	g, err := c.Line(context.Background(), tbl, "x", "y", agg.Count())
	require.NoError(t, err)

	for ix := range 5 {
		require.Equal(t, 1.0, g.At(ix, 0), "cell %d", ix)
	}
	require.Equal(t, 5.0, gridSum(g.Data))
}

func TestCanvas_Line_Diagonal(t *testing.T) {
	c := createTestCanvas(t, 4, 4)
	tbl := createTestTable(t, map[string][]float64{
		"x": {0.5, 3.5},
		"y": {0.5, 3.5},
	})

	g, err := c.Line(context.Background(), tbl, "x", "y", agg.Count())
	require.NoError(t, err)

	for i := range 4 {
		require.Equal(t, 1.0, g.At(i, i))
	}
	require.Equal(t, 4.0, gridSum(g.Data))
}

func TestCanvas_Line_JointCountedOnce(t *testing.T) {
	c := createTestCanvas(t, 5, 5)

	// Two segments sharing the vertex at cell (2, 0).
	tbl := createTestTable(t, map[string][]float64{
		"x": {0.5, 2.5, 2.5},
		"y": {0.5, 0.5, 2.5},
	})

	g, err := c.Line(context.Background(), tbl, "x", "y", agg.Count())
	require.NoError(t, err)

	require.Equal(t, 1.0, g.At(2, 0), "joint cell aggregated once")
	require.Equal(t, 5.0, gridSum(g.Data), "cells (0,0) (1,0) (2,0) (2,1) (2,2)")
}

func TestCanvas_Line_NaNBreaksPen(t *testing.T) {
	c := createTestCanvas(t, 5, 5)
	tbl := createTestTable(t, map[string][]float64{
		"x": {0.5, math.NaN(), 2.5, 4.5},
		"y": {0.5, 1.0, 2.5, 2.5},
	})

	g, err := c.Line(context.Background(), tbl, "x", "y", agg.Count())
	require.NoError(t, err)

	// The isolated first vertex draws nothing; the run after the break
	// draws cells (2,2) (3,2) (4,2).
	require.Equal(t, 0.0, g.At(0, 0))
	require.Equal(t, 3.0, gridSum(g.Data))
	require.Equal(t, 1.0, g.At(2, 2))
	require.Equal(t, 1.0, g.At(3, 2))
	require.Equal(t, 1.0, g.At(4, 2))
}

func TestCanvas_Line_ClipsToCanvas(t *testing.T) {
	c := createTestCanvas(t, 4, 4)

	t.Run("segment entering from the left", func(t *testing.T) {
		tbl := createTestTable(t, map[string][]float64{
			"x": {-2.0, 2.5},
			"y": {2.5, 2.5},
		})

		g, err := c.Line(context.Background(), tbl, "x", "y", agg.Count())
		require.NoError(t, err)
		require.Equal(t, 3.0, gridSum(g.Data), "cells (0,2) (1,2) (2,2)")
		require.Equal(t, 1.0, g.At(0, 2))
	})

	t.Run("segment fully outside", func(t *testing.T) {
		tbl := createTestTable(t, map[string][]float64{
			"x": {-3, -1},
			"y": {-3, -1},
		})

		g, err := c.Line(context.Background(), tbl, "x", "y", agg.Count())
		require.NoError(t, err)
		require.Equal(t, 0.0, gridSum(g.Data))
	})
}

func TestCanvas_Line_ContinuesAcrossChunks(t *testing.T) {
	c := createTestCanvas(t, 5, 5)

	// Chunk size 1 puts every vertex in its own chunk; the polyline must
	// still connect across the boundaries.
	tbl := source.NewTable().SetChunkSize(1)
	require.NoError(t, tbl.AddFloats("x", []float64{0.5, 2.5, 4.5}))
	require.NoError(t, tbl.AddFloats("y", []float64{0.5, 0.5, 0.5}))

	g, err := c.Line(context.Background(), tbl, "x", "y", agg.Count())
	require.NoError(t, err)
	require.Equal(t, 5.0, gridSum(g.Data))
}

func TestCanvas_Line_SegmentValueFromEndingRow(t *testing.T) {
	c := createTestCanvas(t, 3, 1)
	tbl := createTestTable(t, map[string][]float64{
		"x": {0.5, 2.5},
		"y": {0.5, 0.5},
		"v": {100, 7},
	})

	g, err := c.Line(context.Background(), tbl, "x", "y", agg.Last("v"))
	require.NoError(t, err)

	for ix := range 3 {
		require.Equal(t, 7.0, g.At(ix, 0))
	}
}
