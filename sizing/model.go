package sizing

import "fmt"

// Model represents a fitted size model with metadata and the concrete estimator.
//
// A Model carries everything needed to understand and reuse a fitted curve:
// the mathematical form, the fitted coefficients, goodness-of-fit metrics and
// a ready-to-use Estimator.
type Model struct {
	// Type is the model type (hyperbolic, logarithmic, power, ...).
	Type ModelType
	// Coefficients contains the fitted model coefficients.
	Coefficients []float64
	// RSquared is the coefficient of determination (goodness of fit, 0-1).
	RSquared float64
	// RMSE is the root mean square error in bytes per cell.
	RMSE float64
	// Formula is a human-readable representation of the model.
	Formula string
	// Estimator is the concrete estimator implementation.
	Estimator Estimator
}

// String returns a string representation of the model.
func (m *Model) String() string {
	return fmt.Sprintf("Model{Type: %s, R²: %.4f, RMSE: %.4f, Formula: %s}",
		m.Type, m.RSquared, m.RMSE, m.Formula)
}

// Result represents the result of a size analysis.
//
// The best-fit model is selected by the highest R² value; all candidate
// models are kept, ranked, so callers can inspect how close the runner-ups
// came or pick a different shape deliberately.
type Result struct {
	// BestFit is the best-fit model (highest R²).
	BestFit *Model
	// AllModels contains all candidate models ranked by R² (best first).
	AllModels []*Model
	// SampleCells holds the per-grid cell counts the fit was computed from.
	// This provides transparency into how the data points were constructed.
	SampleCells []int
}

// String returns a string representation of the result.
func (r *Result) String() string {
	if r.BestFit == nil {
		return "Result{BestFit: nil}"
	}

	return fmt.Sprintf("Result{BestFit: %s, TotalModels: %d}",
		r.BestFit, len(r.AllModels))
}
