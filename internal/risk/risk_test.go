package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samhoi-x/compass/internal/config"
	"github.com/samhoi-x/compass/internal/domain"
)

func TestCheckPositionLimits_SinglePositionViolation(t *testing.T) {
	check := CheckPositionLimits(config.DefaultRiskParams(), config.DefaultStopLossParams(), "AAPL", 20000, 100000, domain.AssetEquity, 0)
	require.False(t, check.OK())
	assert.Contains(t, check.Violations[0], "AAPL")
}

func TestCheckPositionLimits_CryptoAllocationViolation(t *testing.T) {
	check := CheckPositionLimits(config.DefaultRiskParams(), config.DefaultStopLossParams(), "BTC-USD", 10000, 100000, domain.AssetCrypto, 25000)
	require.False(t, check.OK())
	assert.Contains(t, check.Violations[0], "30%")
}

func TestCheckPositionLimits_WithinLimitsIsClean(t *testing.T) {
	check := CheckPositionLimits(config.DefaultRiskParams(), config.DefaultStopLossParams(), "MSFT", 10000, 100000, domain.AssetEquity, 0)
	assert.True(t, check.OK())
	assert.Empty(t, check.Warnings)
}

func TestCheckCashReserve_BlocksWhenBelowMinimum(t *testing.T) {
	ok, reason := CheckCashReserve(config.DefaultRiskParams(), 5000, 100000)
	assert.False(t, ok)
	assert.Contains(t, reason, "cash reserve")
}

func TestCheckCashReserve_AllowsWhenAboveMinimum(t *testing.T) {
	ok, _ := CheckCashReserve(config.DefaultRiskParams(), 15000, 100000)
	assert.True(t, ok)
}

func TestComputeStopLoss_SelectsTightestCandidate(t *testing.T) {
	atr := 2.0
	stops := ComputeStopLoss(config.DefaultStopLossParams(), 100, &atr)
	// percentage: 95, trailing: 93, atr: 100-2*2=96 -> tightest (highest) is 96
	assert.InDelta(t, 95, stops.PercentageStop, 1e-9)
	assert.InDelta(t, 93, stops.TrailingStop, 1e-9)
	require.NotNil(t, stops.ATRStop)
	assert.InDelta(t, 96, *stops.ATRStop, 1e-9)
	assert.InDelta(t, 96, stops.Selected, 1e-9)
}

func TestComputeStopLoss_NoATRFallsBackToPercentageOrTrailing(t *testing.T) {
	stops := ComputeStopLoss(config.DefaultStopLossParams(), 100, nil)
	assert.Nil(t, stops.ATRStop)
	assert.InDelta(t, 95, stops.Selected, 1e-9)
}

func TestDrawdownGate_OKBelowWarning(t *testing.T) {
	curve := []float64{100000, 101000, 99000, 98000}
	status, alert := DrawdownGate(config.DefaultRiskParams(), curve, time.Now())
	assert.Equal(t, domain.DrawdownOK, status.Level)
	assert.Nil(t, alert)
}

func TestDrawdownGate_WarningHalvesPositions(t *testing.T) {
	curve := []float64{100000, 91500}
	status, alert := DrawdownGate(config.DefaultRiskParams(), curve, time.Now())
	assert.Equal(t, domain.DrawdownWarning, status.Level)
	assert.True(t, status.HalveNewPositions)
	assert.False(t, status.BlockNewBuys)
	require.NotNil(t, alert)
	assert.Equal(t, domain.SeverityWarning, alert.Severity)
}

func TestDrawdownGate_HaltBlocksNewBuys(t *testing.T) {
	curve := []float64{100000, 87000}
	status, alert := DrawdownGate(config.DefaultRiskParams(), curve, time.Now())
	assert.Equal(t, domain.DrawdownHalt, status.Level)
	assert.True(t, status.BlockNewBuys)
	require.NotNil(t, alert)
	assert.Equal(t, domain.SeverityHigh, alert.Severity)
}

func TestDrawdownGate_CriticalReducesToCash(t *testing.T) {
	curve := []float64{100000, 84000}
	status, alert := DrawdownGate(config.DefaultRiskParams(), curve, time.Now())
	assert.Equal(t, domain.DrawdownCritical, status.Level)
	assert.True(t, status.ReduceToCash)
	assert.True(t, status.BlockNewBuys)
	require.NotNil(t, alert)
	assert.Equal(t, domain.SeverityCritical, alert.Severity)
}

// TestGenerateActionPlan_DrawdownHaltBlocksBuy exercises scenario S4:
// a portfolio that has drawn down from 100,000 to 87,000 (13%, past
// the 12% halt threshold) must block a proposed BUY outright.
func TestGenerateActionPlan_DrawdownHaltBlocksBuy(t *testing.T) {
	signal := domain.Signal{Symbol: "AAPL", Direction: domain.Buy}
	state := PortfolioState{
		PortfolioValue: 87000,
		Cash:           30000,
		EquityCurve:    []float64{100000, 87000},
	}
	plan, alert := GenerateActionPlan(config.DefaultRiskParams(), config.DefaultStopLossParams(), signal, 150, nil, domain.AssetEquity, state, time.Now())

	require.True(t, plan.Blocked)
	assert.Contains(t, plan.BlockedReason, "HALT")
	require.NotNil(t, alert)
	assert.Equal(t, domain.SeverityHigh, alert.Severity)
}

func TestGenerateActionPlan_CashReserveBlocksBuy(t *testing.T) {
	signal := domain.Signal{Symbol: "AAPL", Direction: domain.Buy}
	state := PortfolioState{
		PortfolioValue: 100000,
		Cash:           5000,
		EquityCurve:    []float64{100000, 100500},
	}
	plan, _ := GenerateActionPlan(config.DefaultRiskParams(), config.DefaultStopLossParams(), signal, 150, nil, domain.AssetEquity, state, time.Now())

	require.True(t, plan.Blocked)
	assert.Contains(t, plan.BlockedReason, "cash reserve")
}

func TestGenerateActionPlan_HealthyBuySizesPosition(t *testing.T) {
	signal := domain.Signal{Symbol: "MSFT", Direction: domain.Buy}
	state := PortfolioState{
		PortfolioValue: 100000,
		Cash:           50000,
		EquityCurve:    []float64{100000, 100500, 101000},
	}
	atr := 3.0
	plan, alert := GenerateActionPlan(config.DefaultRiskParams(), config.DefaultStopLossParams(), signal, 200, &atr, domain.AssetEquity, state, time.Now())

	require.False(t, plan.Blocked)
	assert.Nil(t, alert)
	assert.Greater(t, plan.Shares, 0.0)
	assert.Greater(t, plan.StopDistance, 0.0)
	assert.InDelta(t, plan.EntryPrice+2*plan.StopDistance, plan.TargetPrice, 1e-9)
	assert.LessOrEqual(t, plan.PositionValue, 0.15*state.PortfolioValue+1e-6)
	assert.LessOrEqual(t, plan.PositionValue, 0.90*state.Cash+1e-6)
}

func TestGenerateActionPlan_CryptoSharesRoundToFourDecimals(t *testing.T) {
	signal := domain.Signal{Symbol: "BTC-USD", Direction: domain.Buy}
	state := PortfolioState{
		PortfolioValue: 100000,
		Cash:           50000,
		EquityCurve:    []float64{100000, 100200},
	}
	plan, _ := GenerateActionPlan(config.DefaultRiskParams(), config.DefaultStopLossParams(), signal, 30000, nil, domain.AssetCrypto, state, time.Now())

	require.False(t, plan.Blocked)
	rounded := float64(int(plan.Shares*10000)) / 10000
	assert.InDelta(t, rounded, plan.Shares, 1e-9)
}

func TestGenerateActionPlan_SellIsNeverBlockedByDrawdown(t *testing.T) {
	signal := domain.Signal{Symbol: "AAPL", Direction: domain.Sell}
	state := PortfolioState{
		PortfolioValue: 84000,
		Cash:           10000,
		EquityCurve:    []float64{100000, 84000},
	}
	plan, alert := GenerateActionPlan(config.DefaultRiskParams(), config.DefaultStopLossParams(), signal, 150, nil, domain.AssetEquity, state, time.Now())

	assert.False(t, plan.Blocked)
	require.NotNil(t, alert)
	assert.Equal(t, domain.SeverityCritical, alert.Severity)
}

// TestGenerateActionPlan_SellRunsFullSizingPipeline confirms a SELL
// signal is sized exactly like a BUY (stop, shares, dollar risk) and
// only the target-price sign differs, even while the drawdown gate is
// tripped (SELL is never gated).
func TestGenerateActionPlan_SellRunsFullSizingPipeline(t *testing.T) {
	signal := domain.Signal{Symbol: "AAPL", Direction: domain.Sell}
	state := PortfolioState{
		PortfolioValue: 84000,
		Cash:           10000,
		EquityCurve:    []float64{100000, 84000},
	}
	atr := 3.0
	plan, _ := GenerateActionPlan(config.DefaultRiskParams(), config.DefaultStopLossParams(), signal, 150, &atr, domain.AssetEquity, state, time.Now())

	require.False(t, plan.Blocked)
	assert.Greater(t, plan.StopDistance, 0.0)
	assert.Greater(t, plan.Shares, 0.0)
	assert.Greater(t, plan.DollarRisk, 0.0)
	assert.InDelta(t, plan.EntryPrice-2*plan.StopDistance, plan.TargetPrice, 1e-9)
}
