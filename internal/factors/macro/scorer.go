// Package macro derives the macro regime and factor score from VIX
// level and its short-term trend. This is an internal scorer (spec
// SPEC_FULL.md §4.12): it scores VIX daily bars that the scheduler
// obtains through external.MarketDataProvider's VIXHistory.
package macro

import (
	"math"

	"github.com/samhoi-x/compass/internal/domain"
)

// Score computes the macro factor from VIX close history, newest
// last. A falling VIX is risk-on (bullish); a rising, elevated VIX is
// risk-off (bearish).
func Score(vixBars []domain.OHLCVBar) domain.FactorInput {
	n := len(vixBars)
	if n < 6 {
		return domain.FactorInput{Score: 0, Confidence: 0}
	}
	level := vixBars[n-1].Close
	weekAgo := vixBars[n-6].Close
	trend := 0.0
	if weekAgo != 0 {
		trend = (level - weekAgo) / weekAgo
	}

	levelScore := levelComponent(level)
	trendScore := clip(-trend * 3)
	score := clip(0.6*levelScore + 0.4*trendScore)

	confidence := math.Min(1, 0.5+math.Abs(score)*0.5)

	return domain.FactorInput{
		Score:      score,
		Confidence: confidence,
		Meta:       map[string]any{"vix_level": level, "vix_weekly_trend": trend},
	}
}

// Regime classifies the composite macro score (as returned by Score)
// into the five-tier regime used by adaptive thresholds and the
// intermarket factor, matching the original's `_regime_label`
// score-band thresholds.
func Regime(score float64) domain.MacroRegime {
	switch {
	case score <= -0.4:
		return domain.RegimeRiskOff
	case score <= -0.1:
		return domain.RegimeCautious
	case score <= 0.1:
		return domain.RegimeNeutral
	case score <= 0.35:
		return domain.RegimeConstructive
	default:
		return domain.RegimeRiskOn
	}
}

func levelComponent(vix float64) float64 {
	switch {
	case vix >= 40:
		return -1
	case vix >= 25:
		return -0.5
	case vix <= 12:
		return 0.6
	case vix <= 15:
		return 0.3
	default:
		return 0
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
