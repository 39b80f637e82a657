package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samhoi-x/compass/internal/domain"
)

// TestWalkForward_ExpectedFoldCount exercises scenario S6: 500 bars,
// in_sample=252, oos=63 should yield exactly 3 folds (boundaries
// 315, 378, 441; 504 would exceed 500 and stops the loop).
func TestWalkForward_ExpectedFoldCount(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	data := map[string][]domain.OHLCVBar{
		"AAPL": syntheticBars(start, 500, 100, 0.0003),
	}

	result, err := WalkForward(context.Background(), data, testConfig(), 252, 63)
	require.NoError(t, err)
	require.Len(t, result.Folds, 3)
	assert.GreaterOrEqual(t, result.PositiveFoldCount, 0)
	assert.LessOrEqual(t, result.PositiveFoldCount, 3)
}

func TestWalkForward_OOSWindowsDoNotOverlapAndAreOrdered(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	data := map[string][]domain.OHLCVBar{
		"AAPL": syntheticBars(start, 500, 100, 0.0003),
	}

	result, err := WalkForward(context.Background(), data, testConfig(), 252, 63)
	require.NoError(t, err)
	require.Len(t, result.Folds, 3)

	for i := 1; i < len(result.Folds); i++ {
		prev := result.Folds[i-1]
		cur := result.Folds[i]
		assert.True(t, cur.OOSFrom.After(prev.OOSTo), "fold %d OOS window must strictly follow fold %d", i, i-1)
	}
}

func TestWalkForward_RejectsNonPositiveWindowSizes(t *testing.T) {
	data := map[string][]domain.OHLCVBar{"AAPL": syntheticBars(time.Now(), 100, 100, 0)}
	_, err := WalkForward(context.Background(), data, testConfig(), 0, 10)
	assert.Error(t, err)
}
