package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/samhoi-x/compass/internal/domain"
	"github.com/samhoi-x/compass/pkg/formulas"
)

// Fold is one anchored walk-forward fold's out-of-sample result: the
// in-sample window is [0, inSampleBars+i*oosBars), the OOS window is
// the next oosBars trading days, and only the OOS slice's metrics are
// reported (spec §4.8).
type Fold struct {
	Index        int
	InSampleFrom time.Time
	InSampleTo   time.Time
	OOSFrom      time.Time
	OOSTo        time.Time
	OOS          Metrics
}

// WalkForwardResult aggregates every fold's OOS metrics.
type WalkForwardResult struct {
	Folds              []Fold
	MeanOOSSharpe      float64
	StdOOSSharpe       float64
	MeanOOSReturn      float64
	MeanOOSMaxDrawdown float64
	PositiveFoldCount  int
}

// WalkForward runs an anchored walk-forward validation: fold i covers
// dates [0, inSampleBars+(i+1)*oosBars) of the union date set, with
// only the trailing oosBars days of that fold counted toward its
// reported metrics. It stops once a fold's boundary would exceed the
// available date range.
func WalkForward(ctx context.Context, data map[string][]domain.OHLCVBar, cfg Config, inSampleBars, oosBars int) (WalkForwardResult, error) {
	if inSampleBars <= 0 || oosBars <= 0 {
		return WalkForwardResult{}, fmt.Errorf("inSampleBars and oosBars must be positive")
	}

	dates := unionDates(data)
	if len(dates) == 0 {
		return WalkForwardResult{}, fmt.Errorf("walk-forward requires at least one trading day")
	}

	var folds []Fold
	for i := 0; ; i++ {
		oosStart := inSampleBars + i*oosBars
		boundaryEnd := inSampleBars + (i+1)*oosBars
		if boundaryEnd > len(dates) {
			break
		}

		foldDates := dates[:boundaryEnd]
		foldData := sliceDataThroughDate(data, foldDates[len(foldDates)-1])

		result, err := Run(ctx, foldData, cfg)
		if err != nil {
			return WalkForwardResult{}, fmt.Errorf("walk-forward fold %d failed: %w", i, err)
		}
		if len(result.EquityCurve) < boundaryEnd {
			// some symbols may not cover the full fold window; clamp.
			boundaryEnd = len(result.EquityCurve)
		}
		if oosStart >= boundaryEnd {
			continue
		}

		oosCurve := result.EquityCurve[oosStart:boundaryEnd]
		oosStartDate, oosEndDate := dates[oosStart], dates[boundaryEnd-1]
		oosTrades := filterTradesInRange(result.Trades, oosStartDate, oosEndDate)
		oosMetrics := computeMetrics(oosCurve, oosTrades, nil)

		folds = append(folds, Fold{
			Index:        i,
			InSampleFrom: dates[0],
			InSampleTo:   dates[oosStart-1],
			OOSFrom:      oosStartDate,
			OOSTo:        oosEndDate,
			OOS:          oosMetrics,
		})
	}

	return aggregateFolds(folds), nil
}

func aggregateFolds(folds []Fold) WalkForwardResult {
	result := WalkForwardResult{Folds: folds}
	if len(folds) == 0 {
		return result
	}

	var sharpes, returns, drawdowns []float64
	for _, f := range folds {
		if f.OOS.Sharpe != nil {
			sharpes = append(sharpes, *f.OOS.Sharpe)
		}
		returns = append(returns, f.OOS.TotalReturn)
		drawdowns = append(drawdowns, f.OOS.MaxDrawdown)
		if f.OOS.TotalReturn > 0 {
			result.PositiveFoldCount++
		}
	}

	if len(sharpes) > 0 {
		result.MeanOOSSharpe = formulas.Mean(sharpes)
		result.StdOOSSharpe = formulas.StdDev(sharpes)
	}
	result.MeanOOSReturn = formulas.Mean(returns)
	result.MeanOOSMaxDrawdown = formulas.Mean(drawdowns)

	return result
}

func sliceDataThroughDate(data map[string][]domain.OHLCVBar, cutoff time.Time) map[string][]domain.OHLCVBar {
	out := make(map[string][]domain.OHLCVBar, len(data))
	for sym, bars := range data {
		var kept []domain.OHLCVBar
		for _, b := range bars {
			if !b.Date.After(cutoff) {
				kept = append(kept, b)
			}
		}
		if len(kept) > 0 {
			out[sym] = kept
		}
	}
	return out
}

func filterTradesInRange(trades []Trade, from, to time.Time) []Trade {
	var out []Trade
	for _, t := range trades {
		if !t.Date.Before(from) && !t.Date.After(to) {
			out = append(out, t)
		}
	}
	return out
}
