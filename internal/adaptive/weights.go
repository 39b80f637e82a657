// Package adaptive implements the correlation-based weight learner
// and the deterministic threshold adjustment function (spec §4.2,
// §4.3). Grounded on the teacher's pkg/formulas/stats.go
// (gonum/stat-backed Correlation helper), reused directly here rather
// than reimplemented.
package adaptive

import (
	"time"

	"github.com/samhoi-x/compass/internal/domain"
	"github.com/samhoi-x/compass/pkg/formulas"
)

const minSamples = 30

// EvaluatedSample is one evaluated signal's factor scores and outcome,
// the shape the learner needs; callers build this from persisted
// signals without the learner depending on the repository layer.
type EvaluatedSample struct {
	Direction      domain.Direction
	Correct        bool
	TechnicalScore float64
	SentimentScore float64
	MLScore        float64
}

// LearnWeights recomputes {technical, sentiment, ml} weights from
// historical correctness correlation, keeping macro pinned to its
// configured prior, per spec §4.2's algorithm.
func LearnWeights(samples []EvaluatedSample, priors domain.Weights) domain.Weights {
	if len(samples) < minSamples {
		return priors
	}

	var technical, sentiment, ml, outcomes []float64
	for _, s := range samples {
		directionSign := 1.0
		if s.Direction == domain.Sell {
			directionSign = -1.0
		}
		if s.Direction == domain.Hold {
			continue // non-HOLD signals only, per spec §4.2
		}
		technical = append(technical, s.TechnicalScore*directionSign)
		sentiment = append(sentiment, s.SentimentScore*directionSign)
		ml = append(ml, s.MLScore*directionSign)
		outcomes = append(outcomes, boolToFloat(s.Correct))
	}

	if len(technical) < minSamples {
		return priors
	}

	corrTech := floorAtZero(formulas.Correlation(technical, outcomes))
	corrSent := floorAtZero(formulas.Correlation(sentiment, outcomes))
	corrML := floorAtZero(formulas.Correlation(ml, outcomes))

	if corrTech < 1e-9 && corrSent < 1e-9 && corrML < 1e-9 {
		return priors
	}

	sum := corrTech + corrSent + corrML
	dataTech, dataSent, dataML := corrTech/sum, corrSent/sum, corrML/sum

	blendedTech := 0.5*dataTech + 0.5*priors.Technical
	blendedSent := 0.5*dataSent + 0.5*priors.Sentiment
	blendedML := 0.5*dataML + 0.5*priors.ML
	blendedMacro := priors.Macro

	total := blendedTech + blendedSent + blendedML + blendedMacro
	if total == 0 {
		return priors
	}

	return domain.Weights{
		Technical: blendedTech / total,
		Sentiment: blendedSent / total,
		ML:        blendedML / total,
		Macro:     blendedMacro / total,
	}
}

func floorAtZero(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// CacheTTL is how long a learned weight set is reused before the next
// full historical scan (spec §4.2).
const CacheTTL = time.Hour
