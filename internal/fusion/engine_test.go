package fusion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samhoi-x/compass/internal/domain"
)

func baseWeights() domain.Weights {
	return domain.Weights{Technical: 0.35, Sentiment: 0.25, ML: 0.25, Macro: 0.15}
}

func baseThresholds() domain.Thresholds {
	return domain.Thresholds{BuyThreshold: 0.30, BuyConfMin: 0.65, SellThreshold: -0.20, SellConfMin: 0.50}
}

func TestCombine_StrongAgreementProducesBuy(t *testing.T) {
	in := domain.FusionInputs{
		Symbol:    "AAPL",
		Technical: domain.FactorInput{Score: 0.8, Confidence: 0.9},
		Sentiment: domain.FactorInput{Score: 0.7, Confidence: 0.8},
		ML:        domain.FactorInput{Score: 0.6, Confidence: 0.85},
	}
	result := Combine(in, baseWeights(), baseThresholds(), domain.SignalScheduled, time.Now())

	assert.Equal(t, domain.Buy, result.Signal.Direction)
	assert.Greater(t, result.Signal.Strength, 0.30)
	require.GreaterOrEqual(t, result.Signal.Confidence, 0.65)
}

func TestCombine_AbsentMacroRedistributesWeight(t *testing.T) {
	in := domain.FusionInputs{
		Symbol:    "AAPL",
		Technical: domain.FactorInput{Score: 0.5, Confidence: 0.6},
		Sentiment: domain.FactorInput{Score: 0.5, Confidence: 0.6},
		ML:        domain.FactorInput{Score: 0.5, Confidence: 0.6},
	}
	result := Combine(in, baseWeights(), baseThresholds(), domain.SignalScheduled, time.Now())

	total := result.Diagnostics.WeightsUsed.Technical + result.Diagnostics.WeightsUsed.Sentiment + result.Diagnostics.WeightsUsed.ML
	assert.InDelta(t, 1.0, total, 1e-9)
	assert.Equal(t, 0.0, result.Diagnostics.WeightsUsed.Macro)
	assert.False(t, result.Signal.HasMacro)
}

func TestCombine_DivergentFactorsPenalizeConfidence(t *testing.T) {
	agree := domain.FusionInputs{
		Symbol:    "AAPL",
		Technical: domain.FactorInput{Score: 0.5, Confidence: 0.8},
		Sentiment: domain.FactorInput{Score: 0.5, Confidence: 0.8},
		ML:        domain.FactorInput{Score: 0.5, Confidence: 0.8},
	}
	disagree := domain.FusionInputs{
		Symbol:    "AAPL",
		Technical: domain.FactorInput{Score: 0.5, Confidence: 0.8},
		Sentiment: domain.FactorInput{Score: -0.5, Confidence: 0.8},
		ML:        domain.FactorInput{Score: 0.5, Confidence: 0.8},
	}

	agreeResult := Combine(agree, baseWeights(), baseThresholds(), domain.SignalScheduled, time.Now())
	disagreeResult := Combine(disagree, baseWeights(), baseThresholds(), domain.SignalScheduled, time.Now())

	assert.Less(t, disagreeResult.Signal.Confidence, agreeResult.Signal.Confidence)
}

func TestCombine_EarningsTodayForcesHold(t *testing.T) {
	in := domain.FusionInputs{
		Symbol:    "AAPL",
		Technical: domain.FactorInput{Score: 0.9, Confidence: 0.95},
		Sentiment: domain.FactorInput{Score: 0.9, Confidence: 0.95},
		ML:        domain.FactorInput{Score: 0.9, Confidence: 0.95},
		Earnings:  &domain.EarningsInput{IsToday: true, DaysAway: 0, Multiplier: 0.30},
	}
	result := Combine(in, baseWeights(), baseThresholds(), domain.SignalScheduled, time.Now())

	assert.Equal(t, domain.Hold, result.Signal.Direction)
	assert.True(t, result.Diagnostics.EarningsWarning)
}

func TestCombine_NeutralFactorsProduceHold(t *testing.T) {
	in := domain.FusionInputs{
		Symbol:    "AAPL",
		Technical: domain.FactorInput{Score: 0, Confidence: 0.5},
		Sentiment: domain.FactorInput{Score: 0, Confidence: 0.5},
		ML:        domain.FactorInput{Score: 0, Confidence: 0.5},
	}
	result := Combine(in, baseWeights(), baseThresholds(), domain.SignalScheduled, time.Now())
	assert.Equal(t, domain.Hold, result.Signal.Direction)
}

func TestCombine_CompositeAlwaysClipped(t *testing.T) {
	in := domain.FusionInputs{
		Symbol:    "AAPL",
		Technical: domain.FactorInput{Score: 1, Confidence: 1},
		Sentiment: domain.FactorInput{Score: 1, Confidence: 1},
		ML:        domain.FactorInput{Score: 1, Confidence: 1},
		Macro:     &domain.FactorInput{Score: 1, Confidence: 1},
		Sector:    &domain.SectorInput{State: domain.SectorLeading},
	}
	result := Combine(in, baseWeights(), baseThresholds(), domain.SignalScheduled, time.Now())
	assert.LessOrEqual(t, result.Signal.Strength, 1.0)
	assert.GreaterOrEqual(t, result.Signal.Strength, -1.0)
}

func TestCombine_MultiTimeframeBlendsIntoTechnicalTerm(t *testing.T) {
	in := domain.FusionInputs{
		Symbol:    "AAPL",
		Technical: domain.FactorInput{Score: 0.2, Confidence: 0.6},
		Sentiment: domain.FactorInput{Score: 0, Confidence: 0.6},
		ML:        domain.FactorInput{Score: 0, Confidence: 0.6},
		MultiTimeframe: &domain.MultiTimeframeInput{
			FactorInput: domain.FactorInput{Score: 0.8, Confidence: 0.6},
			Alignment:   0.5, // (alignment-0.5)*0.30 == 0, isolates the blend from the confidence delta
		},
	}
	result := Combine(in, baseWeights(), baseThresholds(), domain.SignalScheduled, time.Now())
	assert.InDelta(t, 0.70*0.2+0.30*0.8, result.Signal.TechnicalScore, 1e-9)
}

func TestCombine_AnalystBlendsIntoSentimentTerm(t *testing.T) {
	in := domain.FusionInputs{
		Symbol:    "AAPL",
		Technical: domain.FactorInput{Score: 0, Confidence: 0.6},
		Sentiment: domain.FactorInput{Score: 0.2, Confidence: 0.6},
		ML:        domain.FactorInput{Score: 0, Confidence: 0.6},
		Analyst: &domain.AnalystInput{
			FactorInput:     domain.FactorInput{Score: 0.8, Confidence: 0.6},
			StronglyAligned: false,
		},
	}
	result := Combine(in, baseWeights(), baseThresholds(), domain.SignalScheduled, time.Now())
	assert.InDelta(t, 0.70*0.2+0.30*0.8, result.Signal.SentimentScore, 1e-9)
}

func TestCombine_FearGreedBlendsIntoSentimentTerm(t *testing.T) {
	in := domain.FusionInputs{
		Symbol:    "AAPL",
		Technical: domain.FactorInput{Score: 0, Confidence: 0.6},
		Sentiment: domain.FactorInput{Score: 0.2, Confidence: 0.6},
		ML:        domain.FactorInput{Score: 0, Confidence: 0.6},
		FearGreed: &domain.FearGreedInput{FactorInput: domain.FactorInput{Score: 0.9, Confidence: 0.6}},
	}
	result := Combine(in, baseWeights(), baseThresholds(), domain.SignalScheduled, time.Now())
	assert.InDelta(t, 0.80*0.2+0.20*0.9, result.Signal.SentimentScore, 1e-9)
}

// TestCombine_OptionsNudgesSentimentAndConfidenceOnly confirms options
// only updates the diagnostic sentiment term and grants a confidence
// nudge — it must never feed back into the composite (Signal.Strength).
func TestCombine_OptionsNudgesSentimentAndConfidenceOnly(t *testing.T) {
	without := domain.FusionInputs{
		Symbol:    "AAPL",
		Technical: domain.FactorInput{Score: 0.5, Confidence: 0.6},
		Sentiment: domain.FactorInput{Score: 0.2, Confidence: 0.6},
		ML:        domain.FactorInput{Score: 0.3, Confidence: 0.6},
	}
	with := without
	with.Options = &domain.OptionsInput{FactorInput: domain.FactorInput{Score: 0.5, Confidence: 0.5}}

	withoutResult := Combine(without, baseWeights(), baseThresholds(), domain.SignalScheduled, time.Now())
	withResult := Combine(with, baseWeights(), baseThresholds(), domain.SignalScheduled, time.Now())

	assert.InDelta(t, withoutResult.Signal.Strength, withResult.Signal.Strength, 1e-9)
	assert.InDelta(t, 0.92*0.2+0.08*0.5, withResult.Signal.SentimentScore, 1e-9)
	assert.InDelta(t, withoutResult.Signal.Confidence+0.04, withResult.Signal.Confidence, 1e-9)
}

func TestCombine_BreadthMultipliesConfidenceWhenCompositeSignificant(t *testing.T) {
	in := domain.FusionInputs{
		Symbol:    "AAPL",
		Technical: domain.FactorInput{Score: 0.6, Confidence: 0.7},
		Sentiment: domain.FactorInput{Score: 0.6, Confidence: 0.7},
		ML:        domain.FactorInput{Score: 0.6, Confidence: 0.7},
		Breadth:   &domain.BreadthInput{Regime: domain.BreadthPoor},
	}
	result := Combine(in, baseWeights(), baseThresholds(), domain.SignalScheduled, time.Now())
	assert.InDelta(t, 0.7*0.75, result.Signal.Confidence, 1e-9)
}

func TestCombine_IntermarketBlendsCompositeAndMultipliesConfidence(t *testing.T) {
	in := domain.FusionInputs{
		Symbol:      "AAPL",
		Technical:   domain.FactorInput{Score: 0.3, Confidence: 0.6},
		Sentiment:   domain.FactorInput{Score: 0.3, Confidence: 0.6},
		ML:          domain.FactorInput{Score: 0.3, Confidence: 0.6},
		Intermarket: &domain.IntermarketInput{FactorInput: domain.FactorInput{Score: 0.9}, Regime: domain.RegimeRiskOn},
	}
	result := Combine(in, baseWeights(), baseThresholds(), domain.SignalScheduled, time.Now())
	assert.InDelta(t, 0.90*0.3+0.10*0.9, result.Signal.Strength, 1e-9)
	assert.InDelta(t, 0.6*1.04, result.Signal.Confidence, 1e-9)
}

func TestCombine_SectorAdjustsComposite(t *testing.T) {
	in := domain.FusionInputs{
		Symbol:    "AAPL",
		Technical: domain.FactorInput{Score: 0.3, Confidence: 0.6},
		Sentiment: domain.FactorInput{Score: 0.3, Confidence: 0.6},
		ML:        domain.FactorInput{Score: 0.3, Confidence: 0.6},
		Sector:    &domain.SectorInput{State: domain.SectorLeading},
	}
	result := Combine(in, baseWeights(), baseThresholds(), domain.SignalScheduled, time.Now())
	assert.InDelta(t, 0.3+0.05, result.Signal.Strength, 1e-9)
}

func TestCombine_ShortInterestSqueezeBlendsAndBoostsConfidence(t *testing.T) {
	in := domain.FusionInputs{
		Symbol:    "AAPL",
		Technical: domain.FactorInput{Score: 0.3, Confidence: 0.6},
		Sentiment: domain.FactorInput{Score: 0.3, Confidence: 0.6},
		ML:        domain.FactorInput{Score: 0.3, Confidence: 0.6},
		ShortInterest: &domain.ShortInterestInput{
			FactorInput: domain.FactorInput{Score: 0.5, Confidence: 0.5},
			State:       domain.ShortSqueeze,
		},
	}
	result := Combine(in, baseWeights(), baseThresholds(), domain.SignalScheduled, time.Now())
	assert.InDelta(t, 0.95*0.3+0.05*0.5, result.Signal.Strength, 1e-9)
	assert.InDelta(t, 0.6+0.04, result.Signal.Confidence, 1e-9)
}

func TestCombine_RiskLevelLabeling(t *testing.T) {
	strong := domain.FusionInputs{
		Symbol:    "AAPL",
		Technical: domain.FactorInput{Score: 0.8, Confidence: 0.9},
		Sentiment: domain.FactorInput{Score: 0.8, Confidence: 0.9},
		ML:        domain.FactorInput{Score: 0.8, Confidence: 0.9},
	}
	result := Combine(strong, baseWeights(), baseThresholds(), domain.SignalScheduled, time.Now())
	assert.Equal(t, domain.RiskLow, result.Diagnostics.RiskLevel)

	weak := domain.FusionInputs{
		Symbol:    "AAPL",
		Technical: domain.FactorInput{Score: 0.1, Confidence: 0.3},
		Sentiment: domain.FactorInput{Score: 0.1, Confidence: 0.3},
		ML:        domain.FactorInput{Score: 0.1, Confidence: 0.3},
	}
	weakResult := Combine(weak, baseWeights(), baseThresholds(), domain.SignalScheduled, time.Now())
	assert.Equal(t, domain.RiskHigh, weakResult.Diagnostics.RiskLevel)
}
