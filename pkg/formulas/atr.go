package formulas

import "github.com/markcheno/go-talib"

// CalculateATR computes Average True Range over inTimePeriod bars and
// returns the latest valid value, or nil if there isn't enough
// history. Used by the scan pipeline (the ATR handed to the paper
// engine's stop-loss sizing) and the backtester (entry stop sizing) —
// the one non-technical-scorer consumer of go-talib in this tree.
func CalculateATR(highs, lows, closes []float64, period int) *float64 {
	if len(closes) < period+1 {
		return nil
	}
	atr := talib.Atr(highs, lows, closes, period)
	for i := len(atr) - 1; i >= 0; i-- {
		if atr[i] > 0 {
			v := atr[i]
			return &v
		}
	}
	return nil
}

// ATRFromBars is a convenience wrapper taking parallel OHLC slices
// already extracted by the caller from domain.OHLCVBar history.
func ATRFromBars(highs, lows, closes []float64) *float64 {
	return CalculateATR(highs, lows, closes, 14)
}
