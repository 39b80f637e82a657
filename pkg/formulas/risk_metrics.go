package formulas

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// CalculateVaR calculates historical Value-at-Risk at the given
// confidence level (e.g. 0.95) from a series of periodic returns.
// Returns a positive magnitude (the loss, not the signed return) or
// nil if there isn't enough data.
func CalculateVaR(returns []float64, confidence float64) *float64 {
	if len(returns) < 2 {
		return nil
	}
	sorted := append([]float64(nil), returns...)
	sort.Float64s(sorted)
	q := stat.Quantile(1-confidence, stat.Empirical, sorted, nil)
	v := -q
	if v < 0 {
		v = 0
	}
	return &v
}

// CalculateCVaR calculates the conditional VaR (expected shortfall):
// the mean of all returns at or below the VaR quantile, again as a
// positive magnitude.
func CalculateCVaR(returns []float64, confidence float64) *float64 {
	if len(returns) < 2 {
		return nil
	}
	sorted := append([]float64(nil), returns...)
	sort.Float64s(sorted)
	q := stat.Quantile(1-confidence, stat.Empirical, sorted, nil)

	var tail []float64
	for _, r := range sorted {
		if r <= q {
			tail = append(tail, r)
		}
	}
	if len(tail) == 0 {
		tail = sorted[:1]
	}
	v := -Mean(tail)
	if v < 0 {
		v = 0
	}
	return &v
}

// CalculateCalmarRatio divides an annualised return by the (positive)
// maximum drawdown. Returns nil when drawdown is zero.
func CalculateCalmarRatio(annualReturn, maxDrawdown float64) *float64 {
	if maxDrawdown == 0 {
		return nil
	}
	calmar := annualReturn / maxDrawdown
	return &calmar
}

// CalculateProfitFactor is gross profit divided by gross loss across a
// series of trade PnLs. Returns nil when there are no losing trades.
func CalculateProfitFactor(pnls []float64) *float64 {
	grossProfit, grossLoss := 0.0, 0.0
	for _, pnl := range pnls {
		if pnl > 0 {
			grossProfit += pnl
		} else {
			grossLoss += -pnl
		}
	}
	if grossLoss == 0 {
		return nil
	}
	pf := grossProfit / grossLoss
	return &pf
}

// CalculateWinRate is the fraction of trades with positive PnL.
func CalculateWinRate(pnls []float64) *float64 {
	if len(pnls) == 0 {
		return nil
	}
	wins := 0
	for _, pnl := range pnls {
		if pnl > 0 {
			wins++
		}
	}
	rate := float64(wins) / float64(len(pnls))
	return &rate
}

// CalculateInformationRatio measures strategy return in excess of a
// benchmark, scaled by the volatility of that excess (tracking error),
// annualised by periodsPerYear.
func CalculateInformationRatio(strategyReturns, benchmarkReturns []float64, periodsPerYear int) *float64 {
	if len(strategyReturns) != len(benchmarkReturns) || len(strategyReturns) < 2 {
		return nil
	}
	active := make([]float64, len(strategyReturns))
	for i := range strategyReturns {
		active[i] = strategyReturns[i] - benchmarkReturns[i]
	}
	trackingError := StdDev(active)
	if trackingError == 0 {
		return nil
	}
	ir := Mean(active) / trackingError * math.Sqrt(float64(periodsPerYear))
	return &ir
}
