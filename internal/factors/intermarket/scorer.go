// Package intermarket scores cross-asset confirmation (equities vs.
// bonds/dollar/commodities) into a single factor from the recent
// returns of a basket of proxy instruments.
package intermarket

import "github.com/samhoi-x/compass/internal/domain"

// Score averages the signed momentum of a basket of cross-asset proxy
// returns (already computed upstream, one per instrument) into one
// bounded factor.
func Score(proxyReturns []float64, regime domain.MacroRegime) domain.IntermarketInput {
	if len(proxyReturns) == 0 {
		return domain.IntermarketInput{FactorInput: domain.FactorInput{Score: 0, Confidence: 0}, Regime: regime}
	}
	var sum float64
	for _, r := range proxyReturns {
		sum += r
	}
	avg := sum / float64(len(proxyReturns))
	score := clip(avg * 10)
	confidence := clip(0.4 + absF(score)*0.5)
	if confidence < 0 {
		confidence = 0
	}

	return domain.IntermarketInput{
		FactorInput: domain.FactorInput{Score: score, Confidence: confidence},
		Regime:      regime,
	}
}

// ConfidenceMultiplier applies the regime-conditioned adjustment
// (spec §4.1): amplify in RISK_ON, dampen in RISK_OFF, both only when
// the composite is already meaningfully positive.
func ConfidenceMultiplier(regime domain.MacroRegime, composite float64) float64 {
	if composite <= 0.1 {
		return 1.0
	}
	switch regime {
	case domain.RegimeRiskOff:
		return 0.88
	case domain.RegimeRiskOn:
		return 1.04
	default:
		return 1.0
	}
}

func clip(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
