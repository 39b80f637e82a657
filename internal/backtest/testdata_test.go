package backtest

import (
	"math"
	"time"

	"github.com/samhoi-x/compass/internal/domain"
)

// syntheticBars builds n daily bars starting at start, following a
// sinusoidal drift around a rising trend so the technical scorer sees
// real crossovers instead of a flat line.
func syntheticBars(start time.Time, n int, basePrice, drift float64) []domain.OHLCVBar {
	bars := make([]domain.OHLCVBar, n)
	price := basePrice
	for i := 0; i < n; i++ {
		price = price*(1+drift) + 0.5*math.Sin(float64(i)/5.0)
		if price < 1 {
			price = 1
		}
		high := price * 1.01
		low := price * 0.99
		bars[i] = domain.OHLCVBar{
			Date:   start.AddDate(0, 0, i),
			Open:   price * 0.995,
			High:   high,
			Low:    low,
			Close:  price,
			Volume: 1_000_000,
		}
	}
	return bars
}
