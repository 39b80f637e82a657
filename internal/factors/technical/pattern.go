package technical

import "github.com/samhoi-x/compass/internal/domain"

// Pattern is one detected chart formation.
type Pattern struct {
	Name     string
	Bullish  bool
	Score    float64 // [-1,1], signed by Bullish
	BarIndex int
	Detail   string
}

// RecognizePatterns runs every detector over the bar history and
// returns the clipped composite score, a confidence derived from how
// many patterns fired, and the patterns themselves.
func RecognizePatterns(bars []domain.OHLCVBar) (score, confidence float64, patterns []Pattern) {
	detectors := []func([]domain.OHLCVBar) *Pattern{
		detectDoubleTop, detectDoubleBottom, detectHeadAndShoulders,
		detectInverseHeadAndShoulders, detectBullFlag, detectBearFlag,
		detectConsolidationBreakout,
	}

	var sum float64
	for _, d := range detectors {
		if p := d(bars); p != nil {
			patterns = append(patterns, *p)
			signed := p.Score
			if !p.Bullish {
				signed = -signed
			}
			sum += signed
		}
	}

	score = clip(sum)
	confidence = 0
	if len(patterns) > 0 {
		confidence = minF(1, 0.3+0.15*float64(len(patterns)))
	}
	return score, confidence, patterns
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func closesOf(bars []domain.OHLCVBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// detectDoubleTop looks for two comparable local highs separated by a
// trough in the trailing window, the two peaks within 1.5% of each
// other.
func detectDoubleTop(bars []domain.OHLCVBar) *Pattern {
	n := len(bars)
	if n < 30 {
		return nil
	}
	closes := closesOf(bars)
	window := closes[n-30:]
	i1, v1 := argmax(window[:15])
	i2, v2 := argmax(window[15:])
	i2 += 15
	if i1 >= i2 {
		return nil
	}
	trough := argminVal(window[i1:i2])
	if v1 == 0 || trough >= v1*0.98 {
		return nil
	}
	if diffPct(v1, v2) > 0.015 {
		return nil
	}
	return &Pattern{Name: "double_top", Bullish: false, Score: 0.5, BarIndex: n - 30 + i2, Detail: "two comparable peaks with intervening trough"}
}

func detectDoubleBottom(bars []domain.OHLCVBar) *Pattern {
	n := len(bars)
	if n < 30 {
		return nil
	}
	closes := closesOf(bars)
	window := closes[n-30:]
	i1, v1 := argmin(window[:15])
	i2, v2 := argmin(window[15:])
	i2 += 15
	if i1 >= i2 {
		return nil
	}
	peak := argmaxVal(window[i1:i2])
	if v1 == 0 || peak <= v1*1.02 {
		return nil
	}
	if diffPct(v1, v2) > 0.015 {
		return nil
	}
	return &Pattern{Name: "double_bottom", Bullish: true, Score: 0.5, BarIndex: n - 30 + i2, Detail: "two comparable troughs with intervening peak"}
}

// detectHeadAndShoulders looks for left shoulder < head > right
// shoulder with the two shoulders roughly level, over the trailing 40
// bars.
func detectHeadAndShoulders(bars []domain.OHLCVBar) *Pattern {
	n := len(bars)
	if n < 40 {
		return nil
	}
	closes := closesOf(bars)
	window := closes[n-40:]
	third := len(window) / 3
	lsIdx, ls := argmax(window[:third])
	headIdx, head := argmax(window[third : 2*third])
	headIdx += third
	rsIdx, rs := argmax(window[2*third:])
	rsIdx += 2 * third

	if !(lsIdx < headIdx && headIdx < rsIdx) {
		return nil
	}
	if !(head > ls*1.02 && head > rs*1.02) {
		return nil
	}
	if diffPct(ls, rs) > 0.04 {
		return nil
	}
	return &Pattern{Name: "head_and_shoulders", Bullish: false, Score: 0.6, BarIndex: n - 40 + rsIdx, Detail: "head exceeds two level shoulders"}
}

func detectInverseHeadAndShoulders(bars []domain.OHLCVBar) *Pattern {
	n := len(bars)
	if n < 40 {
		return nil
	}
	closes := closesOf(bars)
	window := closes[n-40:]
	third := len(window) / 3
	lsIdx, ls := argmin(window[:third])
	headIdx, head := argmin(window[third : 2*third])
	headIdx += third
	rsIdx, rs := argmin(window[2*third:])
	rsIdx += 2 * third

	if !(lsIdx < headIdx && headIdx < rsIdx) {
		return nil
	}
	if !(head < ls*0.98 && head < rs*0.98) {
		return nil
	}
	if diffPct(ls, rs) > 0.04 {
		return nil
	}
	return &Pattern{Name: "inverse_head_and_shoulders", Bullish: true, Score: 0.6, BarIndex: n - 40 + rsIdx, Detail: "trough undercuts two level shoulders"}
}

// detectBullFlag looks for a sharp advance followed by a shallow,
// low-volatility pullback.
func detectBullFlag(bars []domain.OHLCVBar) *Pattern {
	n := len(bars)
	if n < 15 {
		return nil
	}
	closes := closesOf(bars)
	pole := closes[n-15 : n-5]
	flag := closes[n-5:]
	poleReturn := pctChange(pole)
	flagReturn := pctChange(flag)
	if poleReturn < 0.08 {
		return nil
	}
	if flagReturn < -0.03 || flagReturn > 0.02 {
		return nil
	}
	return &Pattern{Name: "bull_flag", Bullish: true, Score: 0.4, BarIndex: n - 1, Detail: "sharp advance, shallow consolidation"}
}

func detectBearFlag(bars []domain.OHLCVBar) *Pattern {
	n := len(bars)
	if n < 15 {
		return nil
	}
	closes := closesOf(bars)
	pole := closes[n-15 : n-5]
	flag := closes[n-5:]
	poleReturn := pctChange(pole)
	flagReturn := pctChange(flag)
	if poleReturn > -0.08 {
		return nil
	}
	if flagReturn > 0.03 || flagReturn < -0.02 {
		return nil
	}
	return &Pattern{Name: "bear_flag", Bullish: false, Score: 0.4, BarIndex: n - 1, Detail: "sharp decline, shallow consolidation"}
}

// detectConsolidationBreakout looks for a tight trading range followed
// by a close outside it.
func detectConsolidationBreakout(bars []domain.OHLCVBar) *Pattern {
	n := len(bars)
	if n < 21 {
		return nil
	}
	closes := closesOf(bars)
	range_ := closes[n-21 : n-1]
	_, hi := argmax(range_)
	_, lo := argmin(range_)
	if lo == 0 {
		return nil
	}
	width := (hi - lo) / lo
	if width > 0.06 {
		return nil
	}
	last := closes[n-1]
	switch {
	case last > hi*1.005:
		return &Pattern{Name: "consolidation_breakout", Bullish: true, Score: 0.45, BarIndex: n - 1, Detail: "close breaks above tight range"}
	case last < lo*0.995:
		return &Pattern{Name: "consolidation_breakout", Bullish: false, Score: 0.45, BarIndex: n - 1, Detail: "close breaks below tight range"}
	default:
		return nil
	}
}

func argmax(s []float64) (int, float64) {
	idx, max := 0, s[0]
	for i, v := range s {
		if v > max {
			max, idx = v, i
		}
	}
	return idx, max
}

func argmin(s []float64) (int, float64) {
	idx, min := 0, s[0]
	for i, v := range s {
		if v < min {
			min, idx = v, i
		}
	}
	return idx, min
}

func argmaxVal(s []float64) float64 { _, v := argmax(s); return v }
func argminVal(s []float64) float64 { _, v := argmin(s); return v }

func diffPct(a, b float64) float64 {
	if a == 0 {
		return 1
	}
	d := (b - a) / a
	if d < 0 {
		d = -d
	}
	return d
}

func pctChange(s []float64) float64 {
	if len(s) < 2 || s[0] == 0 {
		return 0
	}
	return (s[len(s)-1] - s[0]) / s[0]
}
