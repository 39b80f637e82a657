// Package options scores options-market positioning from the
// put/call ratio: a low ratio (call-heavy) is bullish, a high ratio
// (put-heavy) is bearish, the classic contrarian-adjacent reading.
package options

import "github.com/samhoi-x/compass/internal/domain"

// Score maps a put/call volume ratio to a bounded factor. A ratio of
// 1.0 is neutral; below 0.7 is call-heavy (bullish), above 1.3 is
// put-heavy (bearish).
func Score(putCallRatio float64) domain.OptionsInput {
	score := clip((1.0 - putCallRatio) * 1.5)
	distanceFromNeutral := absF(putCallRatio - 1.0)
	confidence := clip01(0.3 + distanceFromNeutral*0.5)

	return domain.OptionsInput{
		FactorInput: domain.FactorInput{
			Score:      score,
			Confidence: confidence,
			Meta:       map[string]any{"put_call_ratio": putCallRatio},
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

func clip01(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
