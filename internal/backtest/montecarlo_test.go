package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonteCarlo_ReproducibleWithFixedSeed(t *testing.T) {
	pnls := []float64{120, -80, 300, -50, 75, -200, 40, 90, -30, 60}

	a := MonteCarlo(pnls, 100000, 500, 42)
	b := MonteCarlo(pnls, 100000, 500, 42)

	assert.Equal(t, a, b)
}

func TestMonteCarlo_DifferentSeedsCanDiffer(t *testing.T) {
	pnls := []float64{120, -80, 300, -50, 75, -200, 40, 90, -30, 60}

	a := MonteCarlo(pnls, 100000, 500, 1)
	b := MonteCarlo(pnls, 100000, 500, 2)

	assert.NotEqual(t, a.TotalReturn, b.TotalReturn)
}

func TestMonteCarlo_ProbabilitiesAreInUnitRange(t *testing.T) {
	pnls := []float64{100, -50, 200, -150, 80, -20}
	result := MonteCarlo(pnls, 50000, 1000, 7)

	require.GreaterOrEqual(t, result.ProbPositive, 0.0)
	require.LessOrEqual(t, result.ProbPositive, 1.0)
	require.GreaterOrEqual(t, result.ProbDrawdownOver20Pct, 0.0)
	require.LessOrEqual(t, result.ProbDrawdownOver20Pct, 1.0)
}

func TestMonteCarlo_PercentilesAreOrdered(t *testing.T) {
	pnls := []float64{100, -50, 200, -150, 80, -20, 300, -90}
	result := MonteCarlo(pnls, 50000, 1000, 99)

	assert.LessOrEqual(t, result.TotalReturn.P5, result.TotalReturn.P25)
	assert.LessOrEqual(t, result.TotalReturn.P25, result.TotalReturn.P50)
	assert.LessOrEqual(t, result.TotalReturn.P50, result.TotalReturn.P75)
	assert.LessOrEqual(t, result.TotalReturn.P75, result.TotalReturn.P95)
}

func TestMonteCarlo_EmptyPnLsIsSafe(t *testing.T) {
	result := MonteCarlo(nil, 100000, 500, 1)
	assert.Equal(t, 500, result.Iterations)
}
