// Package fusion implements the composite signal engine: a purely
// functional combiner with no I/O, no state beyond a caller-supplied
// weight/threshold snapshot (spec §4.1). Grounded on the teacher's
// modules/allocation/service.go target-vs-current weighting shape,
// generalized from portfolio allocation into multi-factor blending.
package fusion

import (
	"math"
	"time"

	"github.com/samhoi-x/compass/internal/domain"
)

// Combine produces a FusionResult from every available factor input
// for one symbol. The engine never returns an error: unavailable
// optional factors are simply omitted.
func Combine(in domain.FusionInputs, weights domain.Weights, thresholds domain.Thresholds, kind domain.SignalKind, now time.Time) domain.FusionResult {
	w := redistributeWeights(weights, in.Macro != nil)

	composite := w.Technical*in.Technical.Score + w.Sentiment*in.Sentiment.Score +
		w.ML*in.ML.Score
	confidence := w.Technical*in.Technical.Confidence + w.Sentiment*in.Sentiment.Confidence +
		w.ML*in.ML.Confidence

	macroScore, hasMacro := 0.0, false
	if in.Macro != nil {
		macroScore = in.Macro.Score
		hasMacro = true
		composite += w.Macro * in.Macro.Score
		confidence += w.Macro * in.Macro.Confidence
	}

	var adjustments []domain.AppliedAdjustment
	record := func(step string, before, after float64, detail string) {
		adjustments = append(adjustments, domain.AppliedAdjustment{Step: step, Before: before, After: after, Detail: detail})
	}

	technicalTerm := in.Technical.Score
	if in.MultiTimeframe != nil {
		before := composite
		blendedTech := 0.70*technicalTerm + 0.30*in.MultiTimeframe.Score
		composite = clip(composite - w.Technical*technicalTerm + w.Technical*blendedTech)
		technicalTerm = blendedTech
		delta := (in.MultiTimeframe.Alignment - 0.5) * 0.30
		confidence = clampUnit(confidence + delta)
		record("multi_timeframe", before, composite, "blended 0.70 technical / 0.30 mtf")
	}

	sentimentTerm := in.Sentiment.Score
	if in.Analyst != nil {
		before := composite
		blended := 0.70*sentimentTerm + 0.30*in.Analyst.Score
		composite = clip(composite - w.Sentiment*sentimentTerm + w.Sentiment*blended)
		sentimentTerm = blended
		if in.Analyst.StronglyAligned {
			confidence = clampUnit(confidence + 0.05)
		}
		record("analyst", before, composite, "blended 0.70 sentiment / 0.30 analyst")
	}

	if in.FearGreed != nil {
		before := composite
		blended := 0.80*sentimentTerm + 0.20*in.FearGreed.Score
		composite = clip(composite - w.Sentiment*sentimentTerm + w.Sentiment*blended)
		sentimentTerm = blended
		record("fear_greed", before, composite, "blended 0.80 sentiment / 0.20 fear-greed (contrarian)")
	}

	if in.Options != nil && in.Options.Confidence > 0.3 {
		before := sentimentTerm
		sentimentTerm = clip(0.92*sentimentTerm + 0.08*in.Options.Score)
		if (in.Options.Score > 0.05 && composite > 0) || (in.Options.Score < -0.05 && composite < 0) {
			confidence = clampUnit(confidence + 0.04)
		}
		record("options", before, sentimentTerm, "blended 0.92 sentiment / 0.08 options (diagnostic only, never feeds composite)")
	}

	if in.Earnings != nil {
		before := confidence
		confidence = clampUnit(confidence * in.Earnings.Multiplier)
		record("earnings", before, confidence, "confidence multiplier applied")
	}

	if in.Breadth != nil && math.Abs(composite) > 0.2 {
		mult := breadthMultiplier(in.Breadth.Regime)
		before := confidence
		confidence = clampUnit(confidence * mult)
		record("breadth", before, confidence, "breadth confidence multiplier")
	}

	if in.Intermarket != nil {
		before := composite
		composite = clip(0.90*composite + 0.10*in.Intermarket.Score)
		record("intermarket", before, composite, "blended 0.90 composite / 0.10 intermarket")
		if composite > 0.1 {
			mult := intermarketMultiplier(in.Intermarket.Regime)
			beforeConf := confidence
			confidence = clampUnit(confidence * mult)
			record("intermarket_confidence", beforeConf, confidence, "regime confidence multiplier")
		}
	}

	if in.Sector != nil {
		before := composite
		composite = clip(composite + sectorAdjustment(in.Sector.State))
		record("sector", before, composite, "sector rotation adjustment")
	}

	if in.ShortInterest != nil && in.ShortInterest.Confidence > 0.3 && math.Abs(in.ShortInterest.Score) > 0.05 {
		before := composite
		composite = clip(0.95*composite + 0.05*in.ShortInterest.Score)
		record("short_interest", before, composite, "blended 0.95 composite / 0.05 short interest")
		if in.ShortInterest.State == domain.ShortSqueeze && composite > 0.05 {
			beforeConf := confidence
			confidence = clampUnit(confidence + 0.04)
			record("short_interest_squeeze", beforeConf, confidence, "squeeze confidence bump")
		}
	}

	composite = clip(composite)
	confidence = clampUnit(confidence)

	divergencePenalty := computeDivergencePenalty(technicalTerm, sentimentTerm, in.ML.Score, in.Macro)
	if divergencePenalty > 0 {
		before := confidence
		confidence = clampUnit(confidence - divergencePenalty)
		record("divergence_penalty", before, confidence, "factor disagreement penalty")
	}

	direction := domain.Hold
	earningsToday := in.Earnings != nil && in.Earnings.IsToday
	switch {
	case earningsToday:
		direction = domain.Hold
	case composite > thresholds.BuyThreshold && confidence >= thresholds.BuyConfMin:
		direction = domain.Buy
	case composite < thresholds.SellThreshold && confidence >= thresholds.SellConfMin:
		direction = domain.Sell
	default:
		direction = domain.Hold
	}

	riskLevel := riskLevelFor(composite, confidence)

	signal := domain.Signal{
		Symbol:         in.Symbol,
		Kind:           kind,
		Direction:      direction,
		Strength:       composite,
		Confidence:     confidence,
		TechnicalScore: technicalTerm,
		SentimentScore: sentimentTerm,
		MLScore:        in.ML.Score,
		MacroScore:     macroScore,
		HasMacro:       hasMacro,
		MacroRegime:    in.MacroRegime,
		CreatedAt:      now,
	}

	diagnostics := domain.FusionDiagnostics{
		WeightsUsed:         w,
		BaseThresholds:      thresholds,
		EffectiveThresholds: thresholds,
		PostBlendScores: map[string]float64{
			"technical": technicalTerm, "sentiment": sentimentTerm, "ml": in.ML.Score, "macro": macroScore,
		},
		Adjustments:     adjustments,
		RiskLevel:       riskLevel,
		EarningsWarning: earningsToday,
	}

	return domain.FusionResult{Signal: signal, Diagnostics: diagnostics}
}

// redistributeWeights keeps the configured macro weight when macro is
// present; otherwise its share is proportionally redistributed across
// the other three (spec §4.1).
func redistributeWeights(w domain.Weights, hasMacro bool) domain.Weights {
	if hasMacro {
		return w
	}
	remaining := w.Technical + w.Sentiment + w.ML
	if remaining == 0 {
		return domain.Weights{Technical: 1.0 / 3, Sentiment: 1.0 / 3, ML: 1.0 / 3}
	}
	scale := 1.0 / remaining
	return domain.Weights{
		Technical: w.Technical * scale,
		Sentiment: w.Sentiment * scale,
		ML:        w.ML * scale,
		Macro:     0,
	}
}

// computeDivergencePenalty implements spec §4.1's divergence rule over
// the set of sign-bearing factor scores among {technical, sentiment,
// ml, macro?}. technicalTerm/sentimentTerm are the already-blended
// (multi-timeframe/analyst/fear-greed/options) terms, matching the
// ground truth's use of t_score/s_score at this point in the pipeline,
// not the raw unblended factor inputs.
func computeDivergencePenalty(technicalTerm, sentimentTerm, mlScore float64, macro *domain.FactorInput) float64 {
	scores := []float64{technicalTerm, sentimentTerm, mlScore}
	if macro != nil {
		scores = append(scores, macro.Score)
	}

	var significant []float64
	hasPositive, hasNegative := false, false
	for _, s := range scores {
		if math.Abs(s) > 0.05 {
			significant = append(significant, s)
			if s > 0 {
				hasPositive = true
			} else {
				hasNegative = true
			}
		}
	}

	if hasPositive && hasNegative {
		return 0.30
	}
	if len(significant) > 1 && stddev(significant) > 0.30 {
		return 0.15
	}
	return 0
}

func stddev(values []float64) float64 {
	n := float64(len(values))
	if n == 0 {
		return 0
	}
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= n
	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= n
	return math.Sqrt(variance)
}

func breadthMultiplier(regime domain.BreadthRegime) float64 {
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

func intermarketMultiplier(regime domain.MacroRegime) float64 {
	switch regime {
	case domain.RegimeRiskOff:
		return 0.88
	case domain.RegimeRiskOn:
		return 1.04
	default:
		return 1.0
	}
}

func sectorAdjustment(state domain.SectorRotationState) float64 {
	switch state {
	case domain.SectorLeading:
		return 0.05
	case domain.SectorLagging:
		return -0.05
	default:
		return 0
	}
}

func riskLevelFor(composite, confidence float64) domain.RiskLevel {
	abs := math.Abs(composite)
	switch {
	case abs > 0.5 && confidence > 0.7:
		return domain.RiskLow
	case abs > 0.3 && confidence > 0.5:
		return domain.RiskMedium
	default:
		return domain.RiskHigh
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

func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}

