package canvas

import (
	"math"
	"testing"

	"github.com/arloliu/dshade/agg"
	"github.com/arloliu/dshade/errs"
	"github.com/arloliu/dshade/geom"
	"github.com/stretchr/testify/require"
)

func createScalarGrid(t *testing.T, width, height int, data []float64) *agg.Grid {
	t.Helper()
	require.Len(t, data, width*height)

	return &agg.Grid{
		Width:  width,
		Height: height,
		X:      geom.NewRange(0, float64(width)),
		Y:      geom.NewRange(0, float64(height)),
		Data:   data,
	}
}

func TestRegrid_Validation(t *testing.T) {
	g := createScalarGrid(t, 2, 2, []float64{1, 2, 3, 4})

	_, err := Regrid(g, 0, 4, InterpNearest)
	require.ErrorIs(t, err, errs.ErrInvalidCanvasSize)

	_, err = Regrid(g, 4, 4, InterpMethod(99))
	require.ErrorIs(t, err, errs.ErrUnknownInterpMethod)
}

func TestRegrid_SameSizeClones(t *testing.T) {
	g := createScalarGrid(t, 2, 2, []float64{1, 2, 3, 4})

	out, err := Regrid(g, 2, 2, InterpNearest)
	require.NoError(t, err)
	require.Equal(t, g.Data, out.Data)

	out.Data[0] = 99
	require.Equal(t, 1.0, g.Data[0])
}

func TestRegrid_NearestUpsample(t *testing.T) {
	g := createScalarGrid(t, 2, 1, []float64{1, 2})

	out, err := Regrid(g, 4, 1, InterpNearest)
	require.NoError(t, err)
	require.Equal(t, []float64{1, 1, 2, 2}, out.Data)
	require.Equal(t, g.X, out.X)
	require.Equal(t, g.Y, out.Y)
}

func TestRegrid_LinearUpsample(t *testing.T) {
	g := createScalarGrid(t, 2, 1, []float64{0, 10})

	out, err := Regrid(g, 4, 1, InterpLinear)
	require.NoError(t, err)

	// Edge cells clamp, interior cells interpolate between the two source
	// cell centers.
	require.Equal(t, 0.0, out.Data[0])
	require.InDelta(t, 2.5, out.Data[1], 1e-9)
	require.InDelta(t, 7.5, out.Data[2], 1e-9)
	require.Equal(t, 10.0, out.Data[3])
}

func TestRegrid_LinearWithNaNFallsBackToNearest(t *testing.T) {
	g := createScalarGrid(t, 2, 1, []float64{5, math.NaN()})

	out, err := Regrid(g, 4, 1, InterpLinear)
	require.NoError(t, err)
	require.Equal(t, 5.0, out.Data[0])
	require.Equal(t, 5.0, out.Data[1])
	require.True(t, math.IsNaN(out.Data[2]))
	require.True(t, math.IsNaN(out.Data[3]))
}

func TestRegrid_MeanDownsample(t *testing.T) {
	g := createScalarGrid(t, 4, 2, []float64{
		1, 3, 5, 7,
		1, 3, math.NaN(), 7,
	})

	out, err := Regrid(g, 2, 1, InterpMean)
	require.NoError(t, err)

	require.Equal(t, 2.0, out.Data[0], "mean of 1,3,1,3")
	require.InDelta(t, 19.0/3.0, out.Data[1], 1e-9, "NaN cells are skipped")
}

func TestRegrid_MeanAllNaN(t *testing.T) {
	g := createScalarGrid(t, 2, 2, []float64{
		math.NaN(), math.NaN(),
		math.NaN(), math.NaN(),
	})

	out, err := Regrid(g, 1, 1, InterpMean)
	require.NoError(t, err)
	require.True(t, math.IsNaN(out.Data[0]))
}

func TestRegrid_Categorical(t *testing.T) {
	g := &agg.Grid{
		Width:  2,
		Height: 1,
		X:      geom.NewRange(0, 2),
		Y:      geom.NewRange(0, 1),
		Cats:   []string{"a", "b"},
		Data: []float64{
			1, 2, // plane a
			10, 20, // plane b
		},
	}

	out, err := Regrid(g, 4, 1, InterpNearest)
	require.NoError(t, err)
	require.True(t, out.IsCategorical())
	require.Equal(t, []string{"a", "b"}, out.Cats)
	require.Equal(t, []float64{1, 1, 2, 2}, out.Plane(0))
	require.Equal(t, []float64{10, 10, 20, 20}, out.Plane(1))
}
