package adaptive

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/samhoi-x/compass/internal/domain"
)

func baseThresholds() domain.Thresholds {
	return domain.Thresholds{BuyThreshold: 0.30, BuyConfMin: 0.65, SellThreshold: -0.20, SellConfMin: 0.50}
}

func TestAdjustThresholds_CalmMarketIsUnchanged(t *testing.T) {
	result, applied := AdjustThresholds(baseThresholds(), 18, domain.RegimeNeutral, domain.BreadthNeutral)
	assert.Empty(t, applied)
	assert.Equal(t, baseThresholds(), result)
}

func TestAdjustThresholds_HighVixWidensBuyRequirements(t *testing.T) {
	result, applied := AdjustThresholds(baseThresholds(), 45, domain.RegimeNeutral, domain.BreadthNeutral)
	assert.InDelta(t, 0.45, result.BuyThreshold, 1e-9)
	assert.InDelta(t, 0.75, result.BuyConfMin, 1e-9)
	assert.NotEmpty(t, applied)
}

func TestAdjustThresholds_LowVixLoosensBuyRequirements(t *testing.T) {
	result, _ := AdjustThresholds(baseThresholds(), 8, domain.RegimeNeutral, domain.BreadthNeutral)
	assert.InDelta(t, 0.25, result.BuyThreshold, 1e-9)
	assert.InDelta(t, 0.62, result.BuyConfMin, 1e-9)
}

func TestAdjustThresholds_WeakBreadthWidensBuyRequirements(t *testing.T) {
	result, applied := AdjustThresholds(baseThresholds(), 18, domain.RegimeNeutral, domain.BreadthWeak)
	assert.InDelta(t, 0.33, result.BuyThreshold, 1e-9)
	assert.InDelta(t, 0.67, result.BuyConfMin, 1e-9)
	assert.Len(t, applied, 1)
}

func TestAdjustThresholds_CautiousAndConstructiveMacro(t *testing.T) {
	cautious, _ := AdjustThresholds(baseThresholds(), 18, domain.RegimeCautious, domain.BreadthNeutral)
	assert.InDelta(t, 0.34, cautious.BuyThreshold, 1e-9)
	assert.InDelta(t, 0.67, cautious.BuyConfMin, 1e-9)

	constructive, _ := AdjustThresholds(baseThresholds(), 18, domain.RegimeConstructive, domain.BreadthNeutral)
	assert.InDelta(t, 0.29, constructive.BuyThreshold, 1e-9)
	assert.InDelta(t, 0.65, constructive.BuyConfMin, 1e-9)
}

func TestAdjustThresholds_RiskOffAndPoorBreadthStack(t *testing.T) {
	result, applied := AdjustThresholds(baseThresholds(), 18, domain.RegimeRiskOff, domain.BreadthPoor)
	assert.InDelta(t, 0.30+0.08+0.06, result.BuyThreshold, 1e-9)
	assert.InDelta(t, 0.65+0.05+0.04, result.BuyConfMin, 1e-9)
	assert.Len(t, applied, 2)
}

func TestAdjustThresholds_ClampsExtremeStacking(t *testing.T) {
	result, _ := AdjustThresholds(baseThresholds(), 99, domain.RegimeRiskOff, domain.BreadthPoor)
	assert.LessOrEqual(t, result.BuyThreshold, 0.55)
	assert.LessOrEqual(t, result.BuyConfMin, 0.85)

	loose, _ := AdjustThresholds(baseThresholds(), 2, domain.RegimeRiskOn, domain.BreadthHealthy)
	assert.GreaterOrEqual(t, loose.BuyThreshold, 0.15)
	assert.GreaterOrEqual(t, loose.BuyConfMin, 0.50)
	assert.GreaterOrEqual(t, loose.SellThreshold, -0.50)
	assert.LessOrEqual(t, loose.SellThreshold, -0.10)
	assert.GreaterOrEqual(t, loose.SellConfMin, 0.40)
}
