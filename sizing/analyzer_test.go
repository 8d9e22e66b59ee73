package sizing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// genPoints evaluates f at each x to produce a noise-free dataset.
func genPoints(xs []float64, f func(x float64) float64) (x, y []float64) {
	y = make([]float64, len(xs))
	for i, xi := range xs {
		y[i] = f(xi)
	}

	return xs, y
}

func gridCells() []float64 {
	return []float64{1024, 4096, 16384, 65536, 262144, 1048576}
}

func TestFit_PerfectHyperbolic(t *testing.T) {
	x, y := genPoints(gridCells(), func(x float64) float64 {
		return 0.4 + 52000.0/x
	})

	result, err := Fit(x, y)
	require.NoError(t, err)
	require.Equal(t, ModelTypeHyperbolic, result.BestFit.Type)
	require.Greater(t, result.BestFit.RSquared, 0.9999)
	require.InDelta(t, 0.4, result.BestFit.Coefficients[0], 1e-6)
	require.InDelta(t, 52000.0, result.BestFit.Coefficients[1], 1e-3)
}

func TestFit_PerfectLogarithmic(t *testing.T) {
	x, y := genPoints(gridCells(), func(x float64) float64 {
		return 20.0 - 1.2*math.Log(x)
	})

	result, err := Fit(x, y)
	require.NoError(t, err)
	require.Equal(t, ModelTypeLogarithmic, result.BestFit.Type)
	require.Greater(t, result.BestFit.RSquared, 0.9999)
	require.InDelta(t, 20.0, result.BestFit.Coefficients[0], 1e-6)
	require.InDelta(t, -1.2, result.BestFit.Coefficients[1], 1e-6)
}

func TestFit_PerfectPower(t *testing.T) {
	x, y := genPoints(gridCells(), func(x float64) float64 {
		return 150.0 * math.Pow(x, -0.6)
	})

	result, err := Fit(x, y)
	require.NoError(t, err)
	require.Equal(t, ModelTypePower, result.BestFit.Type)
	require.Greater(t, result.BestFit.RSquared, 0.9999)
	require.InDelta(t, 150.0, result.BestFit.Coefficients[0], 1e-3)
	require.InDelta(t, -0.6, result.BestFit.Coefficients[1], 1e-6)
}

func TestFit_PerfectExponential(t *testing.T) {
	// Small cell counts keep e^(b*x) in a sane range.
	xs := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	x, y := genPoints(xs, func(x float64) float64 {
		return 3.0 * math.Exp(-0.25*x)
	})

	result, err := Fit(x, y)
	require.NoError(t, err)
	require.Equal(t, ModelTypeExponential, result.BestFit.Type)
	require.Greater(t, result.BestFit.RSquared, 0.9999)
	require.InDelta(t, 3.0, result.BestFit.Coefficients[0], 1e-6)
	require.InDelta(t, -0.25, result.BestFit.Coefficients[1], 1e-6)
}

func TestFit_PerfectQuadratic(t *testing.T) {
	// Modest x values keep the normal equations well conditioned.
	xs := []float64{10, 20, 30, 40, 50, 60, 70, 80}
	x, y := genPoints(xs, func(x float64) float64 {
		return 5.0 + 0.3*x + 0.01*x*x
	})

	result, err := Fit(x, y)
	require.NoError(t, err)
	require.Equal(t, ModelTypePolynomial, result.BestFit.Type)
	require.Greater(t, result.BestFit.RSquared, 0.9999)
	require.InDelta(t, 5.0, result.BestFit.Coefficients[0], 1e-3)
	require.InDelta(t, 0.3, result.BestFit.Coefficients[1], 1e-4)
	require.InDelta(t, 0.01, result.BestFit.Coefficients[2], 1e-6)
}

func TestFit_RanksAllModels(t *testing.T) {
	x, y := genPoints(gridCells(), func(x float64) float64 {
		return 0.4 + 52000.0/x
	})

	result, err := Fit(x, y)
	require.NoError(t, err)
	require.Len(t, result.AllModels, 5)
	require.Same(t, result.BestFit, result.AllModels[0])

	// NaN ranks last, otherwise descending R².
	rank := func(r float64) float64 {
		if math.IsNaN(r) {
			return math.Inf(-1)
		}
		return r
	}
	for i := 1; i < len(result.AllModels); i++ {
		require.GreaterOrEqual(t,
			rank(result.AllModels[i-1].RSquared),
			rank(result.AllModels[i].RSquared))
	}

	for _, m := range result.AllModels {
		require.NotNil(t, m.Estimator)
		require.NotEmpty(t, m.Formula)
		require.Equal(t, m.Type, m.Estimator.Type())
	}
}

func TestFit_InputValidation(t *testing.T) {
	_, err := Fit([]float64{1, 2}, []float64{1})
	require.Error(t, err)
	require.Contains(t, err.Error(), "mismatched data lengths")

	_, err = Fit([]float64{1}, []float64{1})
	require.Error(t, err)
	require.Contains(t, err.Error(), "insufficient data points")
}

func TestFit_ConstantData(t *testing.T) {
	// Identical BPC at every resolution: no model explains any variance,
	// but the fit must still return a usable result.
	x := []float64{100, 200, 300, 400}
	y := []float64{2.0, 2.0, 2.0, 2.0}

	result, err := Fit(x, y)
	require.NoError(t, err)
	require.NotNil(t, result.BestFit)
	require.NotNil(t, result.BestFit.Estimator)
}

func TestFit_TwoPointsPolynomialFallsBackToLinear(t *testing.T) {
	x := []float64{100, 1000}
	y := []float64{5.0, 1.0}

	result, err := Fit(x, y)
	require.NoError(t, err)

	for _, m := range result.AllModels {
		if m.Type == ModelTypePolynomial {
			require.Len(t, m.Coefficients, 3)
			require.Zero(t, m.Coefficients[2], "quadratic term must be dropped for 2 points")
		}
	}
}
