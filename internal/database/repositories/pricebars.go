package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/samhoi-x/compass/internal/domain"
)

// PriceBarRepository persists daily OHLCV history, the substrate the
// technical scorer, risk manager (ATR stop sizing), backtester and
// accuracy tracker all read from.
type PriceBarRepository struct {
	*BaseRepository
}

func NewPriceBarRepository(db *sql.DB, log zerolog.Logger) *PriceBarRepository {
	return &PriceBarRepository{BaseRepository: NewBase(db, log.With().Str("repo", "price_bars").Logger())}
}

// UpsertBatch writes a run of bars for one symbol in a single
// transaction.
func (r *PriceBarRepository) UpsertBatch(symbol string, asset domain.AssetClass, bars []domain.OHLCVBar) error {
	if len(bars) == 0 {
		return nil
	}
	tx, err := r.DB().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO price_bars (symbol, asset_class, date, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, date, asset_class) DO UPDATE SET
			open = excluded.open, high = excluded.high, low = excluded.low,
			close = excluded.close, volume = excluded.volume`)
	if err != nil {
		return fmt.Errorf("failed to prepare bar upsert: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.Exec(symbol, asset, b.Date, b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			return fmt.Errorf("failed to upsert bar: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bar batch: %w", err)
	}
	return nil
}

// Range returns bars for symbol between [from, to] inclusive, ascending.
func (r *PriceBarRepository) Range(symbol string, from, to time.Time) ([]domain.OHLCVBar, error) {
	rows, err := r.DB().Query(`
		SELECT date, open, high, low, close, volume
		FROM price_bars WHERE symbol = ? AND date BETWEEN ? AND ?
		ORDER BY date ASC`, symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query price bars: %w", err)
	}
	defer rows.Close()

	var out []domain.OHLCVBar
	for rows.Next() {
		var b domain.OHLCVBar
		if err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan price bar: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price bars: %w", err)
	}
	return out, nil
}

// Latest returns the most recent N bars for symbol, ascending by date.
func (r *PriceBarRepository) Latest(symbol string, n int) ([]domain.OHLCVBar, error) {
	rows, err := r.DB().Query(`
		SELECT date, open, high, low, close, volume FROM (
			SELECT date, open, high, low, close, volume
			FROM price_bars WHERE symbol = ? ORDER BY date DESC LIMIT ?
		) ORDER BY date ASC`, symbol, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest price bars: %w", err)
	}
	defer rows.Close()

	var out []domain.OHLCVBar
	for rows.Next() {
		var b domain.OHLCVBar
		if err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan price bar: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price bars: %w", err)
	}
	return out, nil
}
