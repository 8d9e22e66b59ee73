package sizing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/dshade/agg"
	"github.com/arloliu/dshade/format"
	"github.com/arloliu/dshade/geom"
	"github.com/arloliu/dshade/gridfile"
)

// ladderGrids bins one fixed point set into count grids at a ladder of
// resolutions, mimicking the same dataset rasterized for different canvases.
func ladderGrids(resolutions []int) []*agg.Grid {
	const points = 5000

	// Deterministic LCG keeps the dataset identical across runs.
	xs := make([]float64, points)
	ys := make([]float64, points)
	state := uint64(42)
	next := func() float64 {
		state = state*6364136223846793005 + 1442695040888963407
		return float64(state>>11) / float64(1<<53)
	}
	for i := range points {
		xs[i] = next()
		ys[i] = next()
	}

	unit := geom.Range{Min: 0, Max: 1}
	grids := make([]*agg.Grid, 0, len(resolutions))
	for _, res := range resolutions {
		g := agg.NewGrid(res, res, unit, unit, 0)
		for i := range points {
			ix := min(int(xs[i]*float64(res)), res-1)
			iy := min(int(ys[i]*float64(res)), res-1)
			g.Data[iy*res+ix]++
		}
		grids = append(grids, g)
	}

	return grids
}

func TestMeasureGrids(t *testing.T) {
	grids := ladderGrids([]int{32, 64, 128, 256})

	samples, err := MeasureGrids(grids)
	require.NoError(t, err)
	require.Len(t, samples, 4)

	for i, s := range samples {
		require.Equal(t, grids[i].Width, s.Width)
		require.Equal(t, grids[i].Height, s.Height)
		require.Zero(t, s.Cats)
		require.Equal(t, s.Width*s.Height, s.Cells())
		require.Greater(t, s.Bytes, gridfile.HeaderSize)
	}

	// The same points spread over more cells must cost less per cell.
	for i := 1; i < len(samples); i++ {
		require.Less(t, samples[i].BytesPerCell(), samples[i-1].BytesPerCell())
	}
}

func TestMeasureGrids_CategoricalCells(t *testing.T) {
	cats := []string{"a", "b", "c"}
	g := agg.NewCategoricalGrid(16, 16, geom.Range{Min: 0, Max: 1}, geom.Range{Min: 0, Max: 1}, cats, 0)

	samples, err := MeasureGrids([]*agg.Grid{g})
	require.NoError(t, err)
	require.Equal(t, 3, samples[0].Cats)
	require.Equal(t, 16*16*3, samples[0].Cells())
}

func TestMeasureGrids_SettingsChangeSizes(t *testing.T) {
	grids := ladderGrids([]int{128})

	compact, err := MeasureGrids(grids)
	require.NoError(t, err)

	bulky, err := MeasureGrids(grids,
		WithEncoding(format.TypeRaw),
		WithCompression(format.CompressionNone),
	)
	require.NoError(t, err)

	require.Less(t, compact[0].Bytes, bulky[0].Bytes)
}

func TestAnalyze_EndToEnd(t *testing.T) {
	grids := ladderGrids([]int{32, 64, 128, 256, 512})

	result, err := Analyze(grids)
	require.NoError(t, err)
	require.NotNil(t, result.BestFit)
	require.Greater(t, result.BestFit.RSquared, 0.9)
	require.Len(t, result.SampleCells, 5)
	require.Equal(t, 32*32, result.SampleCells[0])

	// Predicting at a measured resolution should land near the actual size.
	blob, err := gridfile.Encode(grids[2])
	require.NoError(t, err)

	predicted := EstimateBlobSize(result.BestFit.Estimator, 128, 128, 0)
	require.InEpsilon(t, len(blob), predicted, 0.5)
}

func TestAnalyze_NoGrids(t *testing.T) {
	_, err := Analyze(nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no grids provided")
}

func TestAnalyze_EncodeFailure(t *testing.T) {
	bad := ladderGrids([]int{32})[0]
	bad.Data = bad.Data[:10]

	_, err := Analyze(ladderGrids([]int{32, 64, 128})[:2])
	require.NoError(t, err, "sanity: two good grids fit fine")

	_, err = Analyze([]*agg.Grid{bad})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to measure grids")
}

func TestEstimateBlobSize(t *testing.T) {
	est := NewHyperbolicEstimator(1.0, 1000.0)

	// BPC at 100x100 = 1 + 1000/10000 = 1.1
	require.Equal(t, 11000, EstimateBlobSize(est, 100, 100, 0))

	// Three category planes triple the cell count.
	// BPC at 30000 cells = 1 + 1000/30000
	require.Equal(t, 30001, EstimateBlobSize(est, 100, 100, 3))

	// Non-finite estimates degrade to zero instead of garbage.
	blowUp := NewExponentialEstimator(1, 1)
	require.Zero(t, EstimateBlobSize(blowUp, 10000, 10000, 0))
}
