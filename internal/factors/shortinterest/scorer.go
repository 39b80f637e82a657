// Package shortinterest scores short-interest positioning: high days-
// to-cover and rising short interest signal squeeze risk, which the
// fusion engine treats as a mild bullish tilt when the composite is
// already positive.
package shortinterest

import "github.com/samhoi-x/compass/internal/domain"

// Score classifies short-interest ratio (days to cover) and its
// direction of change into the factor the fusion engine blends.
func Score(shortInterestRatio, priorRatio float64, percentFloat float64) domain.ShortInterestInput {
	delta := shortInterestRatio - priorRatio
	state := domain.ShortNormal
	if shortInterestRatio >= 10 && delta > 0 && percentFloat >= 0.15 {
		state = domain.ShortSqueeze
	}

	score := clip((shortInterestRatio - 5) / 10)
	if state == domain.ShortSqueeze {
		score = clip(score + 0.2)
	}
	confidence := clip01(0.3 + percentFloat)

	return domain.ShortInterestInput{
		FactorInput: domain.FactorInput{Score: score, Confidence: confidence},
		State:       state,
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

func clip01(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}
