package technical

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samhoi-x/compass/internal/domain"
)

func syntheticBars(n int, trendPerBar float64) []domain.OHLCVBar {
	bars := make([]domain.OHLCVBar, n)
	price := 100.0
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		price += trendPerBar
		bars[i] = domain.OHLCVBar{
			Date: base.AddDate(0, 0, i), Open: price, High: price * 1.01,
			Low: price * 0.99, Close: price, Volume: 1_000_000,
		}
	}
	return bars
}

func TestScore_InsufficientHistoryIsNeutral(t *testing.T) {
	result := Score(syntheticBars(5, 1))
	assert.Equal(t, 0.0, result.Score)
	assert.Equal(t, 0.0, result.Confidence)
}

func TestScore_SustainedUptrendIsBullish(t *testing.T) {
	result := Score(syntheticBars(220, 0.5))
	require.NotEmpty(t, result.SubScores)
	assert.Greater(t, result.Score, 0.0)
}

func TestScore_SustainedDowntrendIsBearish(t *testing.T) {
	result := Score(syntheticBars(220, -0.5))
	require.NotEmpty(t, result.SubScores)
	assert.Less(t, result.Score, 0.0)
}

func TestScore_IsAlwaysClipped(t *testing.T) {
	result := Score(syntheticBars(250, 3))
	assert.LessOrEqual(t, result.Score, 1.0)
	assert.GreaterOrEqual(t, result.Score, -1.0)
	assert.LessOrEqual(t, result.Confidence, 1.0)
	assert.GreaterOrEqual(t, result.Confidence, 0.0)
}
