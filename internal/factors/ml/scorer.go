// Package ml wraps the XGBoost-style and LSTM-style MLScorer
// contracts into a single blended factor: both models' predictions
// averaged, weighted toward whichever is more confident, with a
// confidence penalty when either model is stale (spec §6, §4.1).
package ml

import (
	"context"
	"fmt"
	"time"

	"github.com/samhoi-x/compass/internal/domain"
	"github.com/samhoi-x/compass/internal/external"
)

// Score runs both scorers and combines them confidence-weighted.
func Score(ctx context.Context, xgb, lstm external.MLScorer, symbol string, bars []domain.OHLCVBar, retrainInterval time.Duration) (domain.FactorInput, error) {
	xgbPred, xgbErr := xgb.Predict(ctx, symbol, bars)
	lstmPred, lstmErr := lstm.Predict(ctx, symbol, bars)

	if xgbErr != nil && lstmErr != nil {
		return domain.FactorInput{}, fmt.Errorf("ml scoring failed for both models: xgb=%v lstm=%v", xgbErr, lstmErr)
	}

	var preds []external.MLPrediction
	if xgbErr == nil {
		preds = append(preds, xgbPred)
	}
	if lstmErr == nil {
		preds = append(preds, lstmPred)
	}

	var weightedScore, weightSum float64
	staleCount := 0
	for _, p := range preds {
		w := p.Confidence
		if p.IsStale(retrainInterval) {
			w *= 0.5
			staleCount++
		}
		weightedScore += p.SignalScore * w
		weightSum += w
	}
	if weightSum == 0 {
		return domain.FactorInput{Score: 0, Confidence: 0}, nil
	}

	score := clip(weightedScore / weightSum)
	confidence := weightSum / float64(len(preds))
	if staleCount == len(preds) {
		confidence *= 0.5
	}

	return domain.FactorInput{
		Score:      score,
		Confidence: confidence,
		Meta:       map[string]any{"models_used": len(preds), "stale_models": staleCount},
	}, nil
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
