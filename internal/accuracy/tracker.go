// Package accuracy implements the accuracy tracker (spec §4.10): it
// walks signals that are old enough to have a verdict, looks up what
// actually happened to price afterwards, and writes the 5d/10d
// forward return and correctness back onto the signal. Its output
// feeds the adaptive-weight learner's correlation sample.
package accuracy

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/samhoi-x/compass/internal/domain"
)

const (
	minAge          = 5 * 24 * time.Hour
	batchSize       = 100
	forwardCoverage = 15 * 24 * time.Hour // ~10 trading days plus weekends
	holdThreshold   = 0.02
)

// SignalStore is the slice of SignalRepository the tracker needs.
type SignalStore interface {
	PendingEvaluation(minAge time.Duration, limit int) ([]domain.Signal, error)
	RecordOutcome(id int64, return5d, return10d *float64, correct *int, checkedAt time.Time) error
}

// PriceHistory is the slice of PriceBarRepository the tracker needs.
type PriceHistory interface {
	Range(symbol string, from, to time.Time) ([]domain.OHLCVBar, error)
}

// Tracker evaluates pending signals against realised forward returns.
type Tracker struct {
	signals SignalStore
	prices  PriceHistory
	log     zerolog.Logger
}

func New(signals SignalStore, prices PriceHistory, log zerolog.Logger) *Tracker {
	return &Tracker{signals: signals, prices: prices, log: log.With().Str("component", "accuracy").Logger()}
}

// Result summarises one evaluation pass.
type Result struct {
	Evaluated    int
	LeftPending  int
	CorrectCount int
}

// Run pulls up to 100 signals due for evaluation and writes back
// their outcome. Signals whose price history is unavailable are left
// pending indefinitely; they are retried on the next pass.
func (t *Tracker) Run(now time.Time) (Result, error) {
	pending, err := t.signals.PendingEvaluation(minAge, batchSize)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load pending signals: %w", err)
	}

	var res Result
	for _, s := range pending {
		evaluated, correct, err := t.evaluateOne(s, now)
		if err != nil {
			t.log.Error().Err(err).Str("symbol", s.Symbol).Int64("signal_id", s.ID).Msg("failed to evaluate signal outcome")
			res.LeftPending++
			continue
		}
		if !evaluated {
			res.LeftPending++
			continue
		}
		res.Evaluated++
		if correct == 1 {
			res.CorrectCount++
		}
	}
	return res, nil
}

// evaluateOne returns (true, correct, nil) when an outcome was
// recorded, and (false, 0, nil) when price data was unavailable and
// the signal stays pending (spec §4.10: never mark
// outcome-checked-at in that case).
func (t *Tracker) evaluateOne(s domain.Signal, now time.Time) (bool, int, error) {
	from := s.CreatedAt.AddDate(0, 0, -1)
	to := s.CreatedAt.Add(forwardCoverage)
	bars, err := t.prices.Range(s.Symbol, from, to)
	if err != nil {
		return false, 0, fmt.Errorf("failed to fetch price history for %s: %w", s.Symbol, err)
	}

	baseIdx := firstTradingDayAtOrAfter(bars, s.CreatedAt)
	if baseIdx < 0 {
		return false, 0, nil
	}
	basePrice := bars[baseIdx].Close

	var return5d, return10d *float64
	if baseIdx+5 < len(bars) {
		r := bars[baseIdx+5].Close/basePrice - 1
		return5d = &r
	}
	if baseIdx+10 < len(bars) {
		r := bars[baseIdx+10].Close/basePrice - 1
		return10d = &r
	}
	if return5d == nil {
		return false, 0, nil
	}

	correctVal := correctness(s.Direction, *return5d)
	if err := t.signals.RecordOutcome(s.ID, return5d, return10d, &correctVal, now); err != nil {
		return false, 0, fmt.Errorf("failed to record outcome for signal %d: %w", s.ID, err)
	}
	return true, correctVal, nil
}

// firstTradingDayAtOrAfter returns the index of the first bar whose
// date, normalised to naive UTC, is on or after created. Returns -1
// when no such bar exists.
func firstTradingDayAtOrAfter(bars []domain.OHLCVBar, created time.Time) int {
	target := created.UTC()
	for i, b := range bars {
		d := time.Date(b.Date.Year(), b.Date.Month(), b.Date.Day(), 0, 0, 0, 0, time.UTC)
		t := time.Date(target.Year(), target.Month(), target.Day(), 0, 0, 0, 0, time.UTC)
		if !d.Before(t) {
			return i
		}
	}
	return -1
}

// correctness applies the §4.10 rule: BUY correct iff r>0, SELL
// correct iff r<0, HOLD correct iff |r|<0.02. Encoded as 0/1 to match
// the signals table's nullable int column.
func correctness(direction domain.Direction, r float64) int {
	switch direction {
	case domain.Buy:
		return boolToInt(r > 0)
	case domain.Sell:
		return boolToInt(r < 0)
	default:
		return boolToInt(math.Abs(r) < holdThreshold)
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
