package backtest

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/samhoi-x/compass/pkg/formulas"
)

// PercentileSet is the {p5,p25,p50,p75,p95} distribution of one
// bootstrapped metric.
type PercentileSet struct {
	P5, P25, P50, P75, P95 float64
}

// MonteCarloResult is the spec §4.9 bootstrap summary.
type MonteCarloResult struct {
	Iterations             int
	Seed                   int64
	TotalReturn            PercentileSet
	MaxDrawdown            PercentileSet
	Sharpe                 PercentileSet
	ProbPositive           float64
	ProbDrawdownOver20Pct  float64
}

// MonteCarlo bootstraps the observed trade-PnL sequence: each of
// iterations runs shuffles the PnL order, rebuilds the equity curve
// from initialCapital by cumulative sum, and records total return,
// max drawdown and Sharpe for that shuffle. Reproducible for a fixed
// seed (spec's Monte Carlo law).
func MonteCarlo(pnls []float64, initialCapital float64, iterations int, seed int64) MonteCarloResult {
	if iterations <= 0 {
		iterations = 1000
	}
	if len(pnls) == 0 {
		return MonteCarloResult{Iterations: iterations, Seed: seed}
	}

	rng := rand.New(rand.NewSource(seed))
	shuffled := append([]float64(nil), pnls...)

	totalReturns := make([]float64, iterations)
	maxDrawdowns := make([]float64, iterations)
	sharpes := make([]float64, iterations)
	positive, drawdownOver20 := 0, 0

	for i := 0; i < iterations; i++ {
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		curve := make([]float64, len(shuffled)+1)
		curve[0] = initialCapital
		for j, pnl := range shuffled {
			curve[j+1] = curve[j] + pnl
		}

		totalReturn := (curve[len(curve)-1] - curve[0]) / curve[0]
		totalReturns[i] = totalReturn
		if totalReturn > 0 {
			positive++
		}

		dd := 0.0
		if v := formulas.CalculateMaxDrawdown(curve); v != nil {
			dd = *v
		}
		maxDrawdowns[i] = dd
		if dd > 0.20 {
			drawdownOver20++
		}

		if sharpe := formulas.CalculateSharpeRatio(formulas.CalculateReturns(curve), riskFreeRate, 252); sharpe != nil {
			sharpes[i] = *sharpe
		}
	}

	return MonteCarloResult{
		Iterations:            iterations,
		Seed:                  seed,
		TotalReturn:           percentiles(totalReturns),
		MaxDrawdown:           percentiles(maxDrawdowns),
		Sharpe:                percentiles(sharpes),
		ProbPositive:          float64(positive) / float64(iterations),
		ProbDrawdownOver20Pct: float64(drawdownOver20) / float64(iterations),
	}
}

func percentiles(xs []float64) PercentileSet {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	q := func(p float64) float64 { return stat.Quantile(p, stat.Empirical, sorted, nil) }
	return PercentileSet{P5: q(0.05), P25: q(0.25), P50: q(0.50), P75: q(0.75), P95: q(0.95)}
}
