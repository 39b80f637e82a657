// Package analyst scores consensus analyst sentiment: the average
// rating relative to a neutral "hold" midpoint, scaled by how
// decisively the ratings cluster together.
package analyst

import "github.com/samhoi-x/compass/internal/domain"

// neutralRating is the "hold" midpoint of the standard five-point
// scale used by the consensus input: 1 = strong sell .. 5 = strong buy.
const neutralRating = 3.0

// Score computes the analyst factor from a slice of individual
// ratings on the five-point scale. StronglyAligned is true when at
// least 70% of ratings share the consensus direction.
func Score(ratings []float64) domain.AnalystInput {
	n := len(ratings)
	if n == 0 {
		return domain.AnalystInput{FactorInput: domain.FactorInput{Score: 0, Confidence: 0}, TotalRatings: 0}
	}

	var sum float64
	for _, r := range ratings {
		sum += r
	}
	mean := sum / float64(n)
	score := clip((mean - neutralRating) / 2)

	direction := sign(score)
	aligned := 0
	for _, r := range ratings {
		if sign((r-neutralRating)/2) == direction && direction != 0 {
			aligned++
		}
	}
	alignmentRatio := 0.0
	if n > 0 {
		alignmentRatio = float64(aligned) / float64(n)
	}
	stronglyAligned := alignmentRatio >= 0.70

	confidence := clip01(0.4 + alignmentRatio*0.5)

	return domain.AnalystInput{
		FactorInput:     domain.FactorInput{Score: score, Confidence: confidence},
		TotalRatings:    n,
		StronglyAligned: stronglyAligned,
	}
}

func sign(v float64) float64 {
	switch {
	case v > 0.05:
		return 1
	case v < -0.05:
		return -1
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

func clip01(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}
