// Package sizing provides encoded grid size estimation through curve fitting
// of measured gridfile blobs.
//
// A render server keeps encoded aggregates in a bounded cache, so it needs to
// predict how many bytes a grid of a given resolution will take before it
// renders one. This package measures the relationship between cell count and
// bytes-per-cell (BPC) on real data and derives a formula for blob size
// estimation.
//
// # Key Features
//
//   - Five candidate model shapes: hyperbolic, logarithmic, power,
//     exponential and quadratic polynomial
//   - Automatic model selection based on the R² coefficient
//   - Measures actual gridfile encodings, so the fit tracks the configured
//     encoding and compression
//   - Estimators can be rebuilt from persisted coefficients with NewEstimator
//
// # Usage
//
// Aggregate the same dataset at a ladder of resolutions, then analyze:
//
//	grids := []*agg.Grid{g64, g128, g256, g512, g1024}
//	result, err := sizing.Analyze(grids)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Use the best-fit estimator for predictions
//	estimator := result.BestFit.Estimator
//	bytes := sizing.EstimateBlobSize(estimator, 800, 600, 0)
//
// Compare all candidate models to understand their performance:
//
//	for _, model := range result.AllModels {
//	    fmt.Printf("%s: R²=%.4f, Formula=%s\n", model.Type, model.RSquared, model.Formula)
//	}
//
// Fit pre-measured points directly, for example from production cache
// statistics:
//
//	result, err := sizing.Fit(cellCounts, bytesPerCell)
//
// # Why Hyperbolic Usually Wins
//
// For a fixed dataset the number of occupied cells saturates at the point
// count: past that resolution, extra cells are empty and cost a near-constant
// amount under the XOR encoding and compression. Per-cell cost therefore
// falls off as roughly BPC = floor + occupied_bytes / cells, which is the
// hyperbolic shape. The other models are fitted anyway and win on datasets
// that break the assumption, such as space-filling line traces.
//
// # Model Validity
//
// A fitted curve is only valid for the gridfile settings it was measured
// with. Re-run Analyze when switching encoding or compression, and prefer
// samples spanning the resolution range the server actually serves.
package sizing
