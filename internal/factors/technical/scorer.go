// Package technical computes the technical factor: a weighted blend
// of RSI/MACD/Bollinger/MA-trend/Stochastic sub-scores plus a
// pattern-recognition overlay, grounded on the teacher's
// pkg/formulas (talib-backed RSI/EMA/Bollinger helpers) generalized
// from single-indicator helpers into one bounded composite score.
package technical

import (
	"math"

	"github.com/markcheno/go-talib"

	"github.com/samhoi-x/compass/internal/domain"
)

const (
	weightRSI        = 0.20
	weightMACD       = 0.25
	weightBollinger  = 0.15
	weightMATrend    = 0.25
	weightStochastic = 0.15
	weightPattern    = 0.15
)

// Result is the technical factor's output plus the sub-scores that
// produced it, useful for diagnostics and for the multi-timeframe
// factor which reuses this scorer per timeframe.
type Result struct {
	domain.FactorInput
	SubScores map[string]float64
}

// Score computes the technical factor from a bar history, newest bar
// last. Returns a neutral, low-confidence result if there isn't
// enough history for any indicator.
func Score(bars []domain.OHLCVBar) Result {
	n := len(bars)
	if n < 20 {
		return Result{FactorInput: domain.FactorInput{Score: 0, Confidence: 0}, SubScores: map[string]float64{}}
	}

	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	volumes := make([]float64, n)
	for i, b := range bars {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
		volumes[i] = b.Volume
	}

	subScores := map[string]float64{}

	if n >= 15 {
		rsi := talib.Rsi(closes, 14)
		if v := lastValid(rsi); v != nil {
			subScores["rsi"] = rsiSubScore(*v)
		}
	}

	if n >= 35 {
		macd, signal, _ := talib.Macd(closes, 12, 26, 9)
		if m, s := lastValid(macd), lastValid(signal); m != nil && s != nil {
			subScores["macd"] = macdSubScore(*m, *s, closes)
		}
	}

	if n >= 20 {
		upper, middle, lower := talib.BBands(closes, 20, 2, 2, talib.SMA)
		if u, m, l := lastValid(upper), lastValid(middle), lastValid(lower); u != nil && m != nil && l != nil {
			subScores["bollinger"] = bollingerSubScore(closes[n-1], *u, *m, *l)
		}
	}

	if n >= 200 {
		sma50 := talib.Sma(closes, 50)
		sma200 := talib.Sma(closes, 200)
		if s50, s200 := lastValid(sma50), lastValid(sma200); s50 != nil && s200 != nil {
			subScores["ma_trend"] = maTrendSubScore(closes[n-1], *s50, *s200)
		}
	} else if n >= 50 {
		sma20 := talib.Sma(closes, 20)
		sma50 := talib.Sma(closes, 50)
		if s20, s50 := lastValid(sma20), lastValid(sma50); s20 != nil && s50 != nil {
			subScores["ma_trend"] = maTrendSubScore(closes[n-1], *s20, *s50)
		}
	}

	if n >= 17 {
		k, d := talib.Stoch(highs, lows, closes, 14, 3, talib.SMA, 3, talib.SMA)
		if kv, dv := lastValid(k), lastValid(d); kv != nil && dv != nil {
			subScores["stochastic"] = stochasticSubScore(*kv, *dv)
		}
	}

	composite, confidence := blend(subScores)

	relVol := relativeVolume(volumes)
	if relVol > 2.0 {
		confidence = math.Min(1, confidence*1.15)
		composite = nudgeToward(composite, sign(composite), 0.05)
	} else if relVol > 0 && relVol < 0.3 {
		confidence *= 0.85
	}

	patternScore, patternConfidence, patterns := RecognizePatterns(bars)
	if len(patterns) > 0 {
		composite = clip(composite*(1-weightPattern) + patternScore*weightPattern)
		confidence = math.Max(confidence, patternConfidence*weightPattern)
	}

	return Result{
		FactorInput: domain.FactorInput{
			Score:      clip(composite),
			Confidence: math.Max(0, math.Min(1, confidence)),
			Meta:       map[string]any{"relative_volume": relVol, "patterns": patterns},
		},
		SubScores: subScores,
	}
}

func blend(subScores map[string]float64) (composite, confidence float64) {
	weights := map[string]float64{
		"rsi": weightRSI, "macd": weightMACD, "bollinger": weightBollinger,
		"ma_trend": weightMATrend, "stochastic": weightStochastic,
	}

	var weightedSum, weightSum float64
	nonNeutral := 0
	signSum := 0.0
	for name, score := range subScores {
		w := weights[name]
		weightedSum += score * w
		weightSum += w
		if math.Abs(score) > 0.05 {
			nonNeutral++
			signSum += sign(score)
		}
	}
	if weightSum == 0 {
		return 0, 0
	}
	composite = weightedSum / weightSum

	participation := float64(len(subScores)) / 5.0
	agreement := 0.0
	if nonNeutral > 0 {
		agreement = math.Abs(signSum) / float64(nonNeutral)
	}
	confidence = participation * (0.3 + 0.7*agreement)
	return composite, confidence
}

func rsiSubScore(rsi float64) float64 {
	switch {
	case rsi <= 30:
		return (30 - rsi) / 30 // 0..1, oversold => bullish
	case rsi >= 70:
		return -((rsi - 70) / 30) // 0..-1, overbought => bearish
	default:
		return (50 - rsi) / 100 // mild pull toward center
	}
}

func macdSubScore(macd, signal float64, closes []float64) float64 {
	diff := macd - signal
	scale := math.Abs(closes[len(closes)-1]) * 0.01
	if scale == 0 {
		return 0
	}
	return clip(diff / scale)
}

func bollingerSubScore(price, upper, middle, lower float64) float64 {
	width := upper - lower
	if width == 0 {
		return 0
	}
	position := (price - lower) / width // 0 at lower, 1 at upper
	return clip((0.5 - position) * 2)   // near lower band => bullish
}

func maTrendSubScore(price, fast, slow float64) float64 {
	if slow == 0 {
		return 0
	}
	spread := (fast - slow) / slow
	trendDir := clip(spread * 10)
	priceDir := 0.0
	if fast != 0 {
		priceDir = clip((price - fast) / fast * 10)
	}
	return clip(0.6*trendDir + 0.4*priceDir)
}

func stochasticSubScore(k, d float64) float64 {
	avg := (k + d) / 2
	switch {
	case avg <= 20:
		return (20 - avg) / 20
	case avg >= 80:
		return -((avg - 80) / 20)
	default:
		return (50 - avg) / 100
	}
}

func relativeVolume(volumes []float64) float64 {
	n := len(volumes)
	if n < 21 {
		return 0
	}
	recent := volumes[n-1]
	window := volumes[n-21 : n-1]
	var sum float64
	for _, v := range window {
		sum += v
	}
	avg := sum / float64(len(window))
	if avg == 0 {
		return 0
	}
	return recent / avg
}

func lastValid(series []float64) *float64 {
	for i := len(series) - 1; i >= 0; i-- {
		if !math.IsNaN(series[i]) && series[i] != 0 {
			v := series[i]
			return &v
		}
	}
	return nil
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

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func nudgeToward(v, direction, amount float64) float64 {
	return clip(v + direction*amount)
}
