package backtest

import (
	"math"

	"github.com/samhoi-x/compass/pkg/formulas"
)

// Metrics is the spec §4.7 metrics bundle for one equity curve. Ratio
// fields are nil when there isn't enough data to compute them (too few
// points, zero variance, no losing trades, etc.) — never a fabricated
// zero.
type Metrics struct {
	TotalReturn      float64
	AnnualReturn     float64
	Sharpe           *float64
	Sortino          *float64
	Calmar           *float64
	MaxDrawdown      float64
	VaR95            *float64
	CVaR95           *float64
	WinRate          *float64
	ProfitFactor     *float64
	InformationRatio *float64
	TradeCount       int
}

const riskFreeRate = 0.04

func computeMetrics(equityCurve []float64, trades []Trade, benchmarkCurve []float64) Metrics {
	var m Metrics
	if len(equityCurve) < 2 {
		return m
	}

	m.TotalReturn = (equityCurve[len(equityCurve)-1] - equityCurve[0]) / equityCurve[0]
	periods := float64(len(equityCurve) - 1)
	if periods > 0 {
		m.AnnualReturn = math.Pow(1+m.TotalReturn, 252.0/periods) - 1
	}

	returns := formulas.CalculateReturns(equityCurve)
	m.Sharpe = formulas.CalculateSharpeRatio(returns, riskFreeRate, 252)
	m.Sortino = formulas.CalculateSortinoRatio(returns, riskFreeRate, riskFreeRate, 252)
	m.VaR95 = formulas.CalculateVaR(returns, 0.95)
	m.CVaR95 = formulas.CalculateCVaR(returns, 0.95)

	if dd := formulas.CalculateDrawdownMetrics(equityCurve); dd != nil {
		m.MaxDrawdown = dd.MaxDrawdown
	}
	m.Calmar = formulas.CalculateCalmarRatio(m.AnnualReturn, m.MaxDrawdown)

	var pnls []float64
	for _, t := range trades {
		if t.Action != "BUY" {
			pnls = append(pnls, t.PnL)
		}
	}
	m.TradeCount = len(pnls)
	m.WinRate = formulas.CalculateWinRate(pnls)
	m.ProfitFactor = formulas.CalculateProfitFactor(pnls)

	if len(benchmarkCurve) == len(equityCurve) {
		benchReturns := formulas.CalculateReturns(benchmarkCurve)
		m.InformationRatio = formulas.CalculateInformationRatio(returns, benchReturns, 252)
	}

	return m
}
