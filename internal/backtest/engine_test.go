package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samhoi-x/compass/internal/config"
	"github.com/samhoi-x/compass/internal/domain"
)

func testConfig() Config {
	return Config{
		Mode:       ModeTechnical,
		Weights:    config.DefaultSignalWeights().ToWeights(),
		Thresholds: config.DefaultBaseThresholds().ToThresholds(),
		StopLoss:   config.DefaultStopLossParams(),
		Trading:    config.DefaultTradingParams(),
		Risk:       config.DefaultRiskParams(),
	}
}

func TestRun_EquityCurveLengthMatchesUnionDates(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	data := map[string][]domain.OHLCVBar{
		"AAPL": syntheticBars(start, 260, 100, 0.0005),
		"MSFT": syntheticBars(start, 260, 200, 0.0003),
	}

	result, err := Run(context.Background(), data, testConfig())
	require.NoError(t, err)
	assert.Len(t, result.EquityCurve, 260)
	assert.Len(t, result.Dates, 260)
}

func TestRun_PeakIsNonDecreasing(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	data := map[string][]domain.OHLCVBar{
		"AAPL": syntheticBars(start, 300, 100, 0.0004),
	}

	result, err := Run(context.Background(), data, testConfig())
	require.NoError(t, err)

	peak := result.EquityCurve[0]
	for _, v := range result.EquityCurve {
		if v > peak {
			peak = v
		}
		assert.GreaterOrEqual(t, peak, v)
	}
}

func TestRun_InsufficientHistorySkipsEntries(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	data := map[string][]domain.OHLCVBar{
		"AAPL": syntheticBars(start, 50, 100, 0.001),
	}

	result, err := Run(context.Background(), data, testConfig())
	require.NoError(t, err)
	for _, trade := range result.Trades {
		assert.NotEqual(t, domain.ActionBuy, trade.Action)
	}
}

func TestRun_SustainedDeclineStillProducesEquityCurve(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	// a sharp, sustained decline over the whole series: the run
	// completes and still produces an equity curve.
	bars := syntheticBars(start, 260, 100, -0.01)
	data := map[string][]domain.OHLCVBar{"AAPL": bars}

	cfg := testConfig()
	result, err := Run(context.Background(), data, cfg)
	require.NoError(t, err)
	assert.NotEmpty(t, result.EquityCurve)
}

func TestRun_ClosesRemainingPositionsAtEndOfSeries(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	data := map[string][]domain.OHLCVBar{
		"AAPL": syntheticBars(start, 400, 100, 0.0006),
	}

	result, err := Run(context.Background(), data, testConfig())
	require.NoError(t, err)

	opened, closed := 0, 0
	for _, trade := range result.Trades {
		switch trade.Action {
		case domain.ActionBuy:
			opened++
		case domain.ActionSell, domain.ActionStop:
			closed++
		}
	}
	assert.Equal(t, opened, closed)
}

func TestRun_MetricsArePopulatedWhenThereIsTradingActivity(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	data := map[string][]domain.OHLCVBar{
		"AAPL": syntheticBars(start, 400, 100, 0.0008),
		"MSFT": syntheticBars(start, 400, 200, -0.0002),
	}

	result, err := Run(context.Background(), data, testConfig())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.Metrics.MaxDrawdown, 0.0)
	if result.Metrics.TradeCount > 0 {
		require.NotNil(t, result.Metrics.WinRate)
		assert.GreaterOrEqual(t, *result.Metrics.WinRate, 0.0)
		assert.LessOrEqual(t, *result.Metrics.WinRate, 1.0)
	}
}
