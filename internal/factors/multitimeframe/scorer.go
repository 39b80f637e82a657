// Package multitimeframe resamples daily bars into a weekly series
// and scores both with the technical scorer, producing the alignment
// signal the fusion engine blends into the technical composite
// (spec §4.1: 0.70·tech + 0.30·mtf, confidence delta from alignment).
package multitimeframe

import (
	"github.com/samhoi-x/compass/internal/domain"
	"github.com/samhoi-x/compass/internal/factors/technical"
)

// Score computes the multi-timeframe factor from daily bar history.
// Alignment is 0 when the daily and weekly technical scores point
// opposite ways, 0.5 when both are zero, and otherwise 0.5 plus half
// their mean absolute score (reaching 1 only when both are at full
// magnitude).
func Score(dailyBars []domain.OHLCVBar) domain.MultiTimeframeInput {
	daily := technical.Score(dailyBars)
	weeklyBars := resampleWeekly(dailyBars)
	weekly := technical.Score(weeklyBars)

	blended := 0.70*daily.Score + 0.30*weekly.Score
	if blended > 1 {
		blended = 1
	} else if blended < -1 {
		blended = -1
	}

	alignment := computeAlignment(daily.Score, weekly.Score)
	confidence := (daily.Confidence + weekly.Confidence) / 2

	return domain.MultiTimeframeInput{
		FactorInput: domain.FactorInput{
			Score:      blended,
			Confidence: confidence,
			Meta:       map[string]any{"daily_score": daily.Score, "weekly_score": weekly.Score},
		},
		Alignment: alignment,
	}
}

func computeAlignment(daily, weekly float64) float64 {
	switch {
	case daily == 0 && weekly == 0:
		return 0.5
	case (daily > 0 && weekly < 0) || (daily < 0 && weekly > 0):
		return 0
	default:
		mag := (abs(daily) + abs(weekly)) / 2
		if mag > 1 {
			mag = 1
		}
		return 0.5 + mag*0.5
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// resampleWeekly aggregates consecutive 5-bar runs into one weekly
// OHLCV bar (open of first, high/low extremes, close of last, summed
// volume), the way a naive daily-to-weekly resample works without a
// calendar dependency.
func resampleWeekly(bars []domain.OHLCVBar) []domain.OHLCVBar {
	if len(bars) == 0 {
		return nil
	}
	var out []domain.OHLCVBar
	for i := 0; i < len(bars); i += 5 {
		end := i + 5
		if end > len(bars) {
			end = len(bars)
		}
		chunk := bars[i:end]
		week := domain.OHLCVBar{
			Date: chunk[0].Date, Open: chunk[0].Open,
			High: chunk[0].High, Low: chunk[0].Low, Close: chunk[len(chunk)-1].Close,
		}
		for _, b := range chunk {
			if b.High > week.High {
				week.High = b.High
			}
			if b.Low < week.Low {
				week.Low = b.Low
			}
			week.Volume += b.Volume
		}
		out = append(out, week)
	}
	return out
}
