package accuracy

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samhoi-x/compass/internal/domain"
)

type fakeSignals struct {
	pending  []domain.Signal
	recorded map[int64]struct {
		r5, r10 *float64
		correct *int
	}
}

func newFakeSignals(pending ...domain.Signal) *fakeSignals {
	return &fakeSignals{pending: pending, recorded: map[int64]struct {
		r5, r10 *float64
		correct *int
	}{}}
}

func (f *fakeSignals) PendingEvaluation(minAge time.Duration, limit int) ([]domain.Signal, error) {
	return f.pending, nil
}

func (f *fakeSignals) RecordOutcome(id int64, return5d, return10d *float64, correct *int, checkedAt time.Time) error {
	f.recorded[id] = struct {
		r5, r10 *float64
		correct *int
	}{return5d, return10d, correct}
	return nil
}

type fakePrices struct {
	bySymbol map[string][]domain.OHLCVBar
}

func (f *fakePrices) Range(symbol string, from, to time.Time) ([]domain.OHLCVBar, error) {
	return f.bySymbol[symbol], nil
}

func dailyBars(start time.Time, n int, base float64) []domain.OHLCVBar {
	bars := make([]domain.OHLCVBar, n)
	for i := 0; i < n; i++ {
		bars[i] = domain.OHLCVBar{Date: start.AddDate(0, 0, i), Close: base + float64(i)}
	}
	return bars
}

func TestRun_BuyCorrectWhenForwardReturnPositive(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	sig := domain.Signal{ID: 1, Symbol: "AAPL", Direction: domain.Buy, CreatedAt: created}
	signals := newFakeSignals(sig)
	prices := &fakePrices{bySymbol: map[string][]domain.OHLCVBar{
		"AAPL": dailyBars(created, 20, 100),
	}}

	tr := New(signals, prices, zerolog.Nop())
	res, err := tr.Run(created.AddDate(0, 0, 12))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Evaluated)
	assert.Equal(t, 1, res.CorrectCount)

	rec := signals.recorded[1]
	require.NotNil(t, rec.r5)
	require.NotNil(t, rec.r10)
	require.NotNil(t, rec.correct)
	assert.Equal(t, 1, *rec.correct)
	assert.Greater(t, *rec.r5, 0.0)
}

func TestRun_SellIncorrectWhenForwardReturnPositive(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	sig := domain.Signal{ID: 2, Symbol: "AAPL", Direction: domain.Sell, CreatedAt: created}
	signals := newFakeSignals(sig)
	prices := &fakePrices{bySymbol: map[string][]domain.OHLCVBar{
		"AAPL": dailyBars(created, 20, 100),
	}}

	tr := New(signals, prices, zerolog.Nop())
	res, err := tr.Run(created.AddDate(0, 0, 12))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Evaluated)
	assert.Equal(t, 0, res.CorrectCount)
	assert.Equal(t, 0, *signals.recorded[2].correct)
}

func TestRun_HoldCorrectWhenForwardReturnWithinBand(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	sig := domain.Signal{ID: 3, Symbol: "FLAT", Direction: domain.Hold, CreatedAt: created}
	signals := newFakeSignals(sig)
	// flat price series: 5d and 10d returns are both 0, well within |r|<0.02.
	bars := make([]domain.OHLCVBar, 20)
	for i := range bars {
		bars[i] = domain.OHLCVBar{Date: created.AddDate(0, 0, i), Close: 50}
	}
	prices := &fakePrices{bySymbol: map[string][]domain.OHLCVBar{"FLAT": bars}}

	tr := New(signals, prices, zerolog.Nop())
	res, err := tr.Run(created.AddDate(0, 0, 12))
	require.NoError(t, err)
	assert.Equal(t, 1, res.CorrectCount)
}

func TestRun_MissingPriceDataLeavesSignalPending(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	sig := domain.Signal{ID: 4, Symbol: "NODATA", Direction: domain.Buy, CreatedAt: created}
	signals := newFakeSignals(sig)
	prices := &fakePrices{bySymbol: map[string][]domain.OHLCVBar{}}

	tr := New(signals, prices, zerolog.Nop())
	res, err := tr.Run(created.AddDate(0, 0, 12))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Evaluated)
	assert.Equal(t, 1, res.LeftPending)
	_, wasRecorded := signals.recorded[4]
	assert.False(t, wasRecorded)
}

func TestRun_InsufficientForwardHistoryLeavesSignalPending(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	sig := domain.Signal{ID: 5, Symbol: "SHORT", Direction: domain.Buy, CreatedAt: created}
	signals := newFakeSignals(sig)
	// only 3 bars after the base day: not enough for a 5d forward return.
	prices := &fakePrices{bySymbol: map[string][]domain.OHLCVBar{
		"SHORT": dailyBars(created, 4, 100),
	}}

	tr := New(signals, prices, zerolog.Nop())
	res, err := tr.Run(created.AddDate(0, 0, 12))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Evaluated)
	assert.Equal(t, 1, res.LeftPending)
}

func TestRun_TenDayReturnNilWhenOnlyFiveDaysAvailable(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	sig := domain.Signal{ID: 6, Symbol: "MID", Direction: domain.Buy, CreatedAt: created}
	signals := newFakeSignals(sig)
	// exactly 7 bars: base + 5d exists, base + 10d does not.
	prices := &fakePrices{bySymbol: map[string][]domain.OHLCVBar{
		"MID": dailyBars(created, 7, 100),
	}}

	tr := New(signals, prices, zerolog.Nop())
	res, err := tr.Run(created.AddDate(0, 0, 12))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Evaluated)
	require.NotNil(t, signals.recorded[6].r5)
	assert.Nil(t, signals.recorded[6].r10)
}

func TestFirstTradingDayAtOrAfter_SkipsWeekendGapToNextBar(t *testing.T) {
	friday := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	monday := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	bars := []domain.OHLCVBar{
		{Date: friday, Close: 10},
		{Date: monday, Close: 11},
	}
	// signal created Saturday: no bar that day, first bar on/after it is Monday.
	created := time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)
	idx := firstTradingDayAtOrAfter(bars, created)
	require.Equal(t, 1, idx)
}
