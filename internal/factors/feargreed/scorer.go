// Package feargreed scores a contrarian fear/greed reading: extreme
// fear nudges the factor bullish, extreme greed nudges it bearish.
package feargreed

import "github.com/samhoi-x/compass/internal/domain"

// Score maps an index reading in [0,100] (0 = extreme fear, 100 =
// extreme greed) to a contrarian, signed factor.
func Score(index float64) domain.FearGreedInput {
	normalized := (index - 50) / 50 // [-1,1], positive = greedy
	contrarian := -normalized

	confidence := 0.3
	switch {
	case index <= 20 || index >= 80:
		confidence = 0.7
	case index <= 35 || index >= 65:
		confidence = 0.5
	}

	return domain.FearGreedInput{
		FactorInput: domain.FactorInput{
			Score:      clip(contrarian),
			Confidence: confidence,
			Meta:       map[string]any{"index": index},
		},
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
