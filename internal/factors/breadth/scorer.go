// Package breadth scores overall market health from an
// advance/decline proxy. Breadth contributes no term to the composite
// itself (spec §4.1) — only a confidence multiplier the fusion engine
// applies when the composite is already meaningfully non-zero.
package breadth

import "github.com/samhoi-x/compass/internal/domain"

// Score classifies advancers/decliners counts into a BreadthRegime.
func Score(advancers, decliners int) domain.BreadthInput {
	total := advancers + decliners
	if total == 0 {
		return domain.BreadthInput{Regime: domain.BreadthNeutral}
	}
	ratio := float64(advancers) / float64(total)
	switch {
	case ratio >= 0.60:
		return domain.BreadthInput{Regime: domain.BreadthHealthy}
	case ratio <= 0.40:
		return domain.BreadthInput{Regime: domain.BreadthPoor}
	default:
		return domain.BreadthInput{Regime: domain.BreadthWeak}
	}
}

// ConfidenceMultiplier is the factor's sole effect on the fusion
// result: applied only when |composite| > 0.2 (spec §4.1).
func ConfidenceMultiplier(regime domain.BreadthRegime) float64 {
	switch regime {
	case domain.BreadthPoor:
		return 0.75
	case domain.BreadthWeak:
		return 0.88
	case domain.BreadthHealthy:
		return 1.05
	default:
		return 1.0
	}
}
