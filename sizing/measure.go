package sizing

import (
	"errors"
	"fmt"
	"math"

	"github.com/arloliu/dshade/agg"
	"github.com/arloliu/dshade/gridfile"
	"github.com/arloliu/dshade/internal/options"
)

// Sample records the measured encoded size of one grid.
type Sample struct {
	// Width and Height are the grid dimensions in cells.
	Width  int
	Height int
	// Cats is the number of category planes, 0 for scalar grids.
	Cats int
	// Bytes is the encoded gridfile blob size.
	Bytes int
}

// Cells returns the total number of encoded cell values, counting every
// category plane.
func (s Sample) Cells() int {
	planes := max(s.Cats, 1)

	return s.Width * s.Height * planes
}

// BytesPerCell returns the blob size amortized over all encoded cells.
func (s Sample) BytesPerCell() float64 {
	cells := s.Cells()
	if cells == 0 {
		return 0
	}

	return float64(s.Bytes) / float64(cells)
}

// MeasureGrids encodes each grid with the configured gridfile settings and
// records its blob size.
//
// The grids should cover a spread of resolutions over the same dataset, for
// example the same points aggregated at 64x64 up to 1024x1024, so the
// resulting samples trace how per-cell cost falls as grids grow sparser.
func MeasureGrids(grids []*agg.Grid, opts ...AnalyzeOption) ([]Sample, error) {
	cfg := defaultAnalyzeConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	return measureGrids(grids, cfg)
}

func measureGrids(grids []*agg.Grid, cfg AnalyzeConfig) ([]Sample, error) {
	samples := make([]Sample, 0, len(grids))
	for i, g := range grids {
		blob, err := gridfile.Encode(g,
			gridfile.WithEncoding(cfg.Encoding),
			gridfile.WithCompression(cfg.Compression),
		)
		if err != nil {
			return nil, fmt.Errorf("encode grid %d: %w", i, err)
		}

		samples = append(samples, Sample{
			Width:  g.Width,
			Height: g.Height,
			Cats:   g.NumCats(),
			Bytes:  len(blob),
		})
	}

	return samples, nil
}

// Analyze measures the grids and fits all candidate size models.
//
// This is the one-call entry point for cache planning: hand it the same
// dataset aggregated at several resolutions and it returns a ranked set of
// fitted models predicting bytes per cell from cell count.
//
// Parameters:
//   - grids: Grids over the same dataset at different resolutions
//   - opts: Optional gridfile settings to measure with (encoding, compression)
//
// Returns:
//   - *Result: Analysis result with best-fit model and all candidate models
//   - error: Measurement or fitting error if any
//
// Example:
//
//	result, err := sizing.Analyze(grids)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	blobSize := sizing.EstimateBlobSize(result.BestFit.Estimator, 800, 600, 0)
func Analyze(grids []*agg.Grid, opts ...AnalyzeOption) (*Result, error) {
	if len(grids) == 0 {
		return nil, errors.New("no grids provided")
	}

	cfg := defaultAnalyzeConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	samples, err := measureGrids(grids, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to measure grids: %w", err)
	}

	cells := make([]float64, len(samples))
	bpc := make([]float64, len(samples))
	sampleCells := make([]int, len(samples))
	for i, s := range samples {
		cells[i] = float64(s.Cells())
		bpc[i] = s.BytesPerCell()
		sampleCells[i] = s.Cells()
	}

	result, err := Fit(cells, bpc)
	if err != nil {
		return nil, err
	}
	result.SampleCells = sampleCells

	return result, nil
}

// EstimateBlobSize predicts the encoded blob size in bytes for a grid of the
// given dimensions using a fitted estimator.
//
// Pass cats as 0 for scalar grids. The per-cell estimate already amortizes
// header and framing overhead, so the result is the whole-blob size.
func EstimateBlobSize(e Estimator, width, height, cats int) int {
	planes := max(cats, 1)
	cells := float64(width) * float64(height) * float64(planes)

	bpc := e.Estimate(cells)
	if math.IsNaN(bpc) || math.IsInf(bpc, 0) || bpc < 0 {
		return 0
	}

	return int(math.Ceil(bpc * cells))
}
