package repositories

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/samhoi-x/compass/internal/domain"
)

// PaperPositionRepository persists the paper-trading engine's virtual
// positions. Exactly one open row per symbol is an invariant enforced
// by the engine, not by a DB constraint (status changes alongside
// other engine bookkeeping that needs a plain Go transaction).
type PaperPositionRepository struct {
	*BaseRepository
}

func NewPaperPositionRepository(db *sql.DB, log zerolog.Logger) *PaperPositionRepository {
	return &PaperPositionRepository{BaseRepository: NewBase(db, log.With().Str("repo", "paper_position").Logger())}
}

func (r *PaperPositionRepository) Insert(p domain.PaperPosition) (domain.PaperPosition, error) {
	res, err := r.DB().Exec(`
		INSERT INTO paper_positions
		(symbol, entry_date, entry_price, quantity, stop_loss, trailing_stop,
		 highest_price, status, opened_at, closed_at, close_price, realized_pnl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Symbol, p.EntryDate, p.EntryPrice, p.Quantity, p.StopLoss, p.TrailingStop,
		p.HighestPrice, p.Status, p.OpenedAt, nullTime(p.ClosedAt), nullFloat64(p.ClosePrice), nullFloat64(p.RealizedPnL))
	if err != nil {
		return p, fmt.Errorf("failed to insert paper position: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return p, fmt.Errorf("failed to read paper position id: %w", err)
	}
	p.ID = id
	return p, nil
}

// GetOpen returns the open position for symbol, or nil if none.
func (r *PaperPositionRepository) GetOpen(symbol string) (*domain.PaperPosition, error) {
	row := r.DB().QueryRow(`
		SELECT id, symbol, entry_date, entry_price, quantity, stop_loss, trailing_stop,
		       highest_price, status, opened_at, closed_at, close_price, realized_pnl
		FROM paper_positions WHERE symbol = ? AND status = ?`, symbol, domain.PaperOpen)
	p, err := scanPaperPositionRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query open paper position: %w", err)
	}
	return &p, nil
}

// AllOpen returns every currently open position.
func (r *PaperPositionRepository) AllOpen() ([]domain.PaperPosition, error) {
	rows, err := r.DB().Query(`
		SELECT id, symbol, entry_date, entry_price, quantity, stop_loss, trailing_stop,
		       highest_price, status, opened_at, closed_at, close_price, realized_pnl
		FROM paper_positions WHERE status = ?`, domain.PaperOpen)
	if err != nil {
		return nil, fmt.Errorf("failed to query open paper positions: %w", err)
	}
	defer rows.Close()
	var out []domain.PaperPosition
	for rows.Next() {
		p, err := scanPaperPosition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating paper positions: %w", err)
	}
	return out, nil
}

// UpdateStops updates the mutable fields of an open position: the
// trailing stop/high-water-mark maintenance the paper engine runs on
// every price tick.
func (r *PaperPositionRepository) UpdateStops(id int64, highestPrice, trailingStop float64) error {
	_, err := r.DB().Exec(`UPDATE paper_positions SET highest_price = ?, trailing_stop = ? WHERE id = ?`,
		highestPrice, trailingStop, id)
	if err != nil {
		return fmt.Errorf("failed to update paper position stops: %w", err)
	}
	return nil
}

// Close marks a position closed with its realized PnL, in one
// statement so a concurrent read never observes a half-closed row.
func (r *PaperPositionRepository) Close(id int64, closedAt domain.PaperPosition) error {
	_, err := r.DB().Exec(`
		UPDATE paper_positions SET status = ?, closed_at = ?, close_price = ?, realized_pnl = ?
		WHERE id = ?`, domain.PaperClosed, nullTime(closedAt.ClosedAt), nullFloat64(closedAt.ClosePrice), nullFloat64(closedAt.RealizedPnL), id)
	if err != nil {
		return fmt.Errorf("failed to close paper position: %w", err)
	}
	return nil
}

func scanPaperPositionRow(row *sql.Row) (domain.PaperPosition, error) {
	var p domain.PaperPosition
	var closedAt sql.NullTime
	var closePrice, realizedPnL sql.NullFloat64
	err := row.Scan(&p.ID, &p.Symbol, &p.EntryDate, &p.EntryPrice, &p.Quantity, &p.StopLoss,
		&p.TrailingStop, &p.HighestPrice, &p.Status, &p.OpenedAt, &closedAt, &closePrice, &realizedPnL)
	if err != nil {
		return p, err
	}
	p.ClosedAt = nullTimePtr(closedAt)
	p.ClosePrice = nullFloat64Ptr(closePrice)
	p.RealizedPnL = nullFloat64Ptr(realizedPnL)
	return p, nil
}

func scanPaperPosition(rows *sql.Rows) (domain.PaperPosition, error) {
	var p domain.PaperPosition
	var closedAt sql.NullTime
	var closePrice, realizedPnL sql.NullFloat64
	err := rows.Scan(&p.ID, &p.Symbol, &p.EntryDate, &p.EntryPrice, &p.Quantity, &p.StopLoss,
		&p.TrailingStop, &p.HighestPrice, &p.Status, &p.OpenedAt, &closedAt, &closePrice, &realizedPnL)
	if err != nil {
		return p, fmt.Errorf("failed to scan paper position: %w", err)
	}
	p.ClosedAt = nullTimePtr(closedAt)
	p.ClosePrice = nullFloat64Ptr(closePrice)
	p.RealizedPnL = nullFloat64Ptr(realizedPnL)
	return p, nil
}

// PaperTradeRepository is the append-only execution log of the paper
// engine.
type PaperTradeRepository struct {
	*BaseRepository
}

func NewPaperTradeRepository(db *sql.DB, log zerolog.Logger) *PaperTradeRepository {
	return &PaperTradeRepository{BaseRepository: NewBase(db, log.With().Str("repo", "paper_trade").Logger())}
}

func (r *PaperTradeRepository) Insert(t domain.PaperTrade) (domain.PaperTrade, error) {
	res, err := r.DB().Exec(`
		INSERT INTO paper_trades (symbol, action, price, quantity, pnl, reason, executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, t.Symbol, t.Action, t.Price, t.Quantity, t.PnL, nullString(t.Reason), t.ExecutedAt)
	if err != nil {
		return t, fmt.Errorf("failed to insert paper trade: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return t, fmt.Errorf("failed to read paper trade id: %w", err)
	}
	t.ID = id
	return t, nil
}

func (r *PaperTradeRepository) All() ([]domain.PaperTrade, error) {
	rows, err := r.DB().Query(`
		SELECT id, symbol, action, price, quantity, pnl, reason, executed_at
		FROM paper_trades ORDER BY executed_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query paper trades: %w", err)
	}
	defer rows.Close()

	var out []domain.PaperTrade
	for rows.Next() {
		var t domain.PaperTrade
		var reason sql.NullString
		if err := rows.Scan(&t.ID, &t.Symbol, &t.Action, &t.Price, &t.Quantity, &t.PnL, &reason, &t.ExecutedAt); err != nil {
			return nil, fmt.Errorf("failed to scan paper trade: %w", err)
		}
		if reason.Valid {
			t.Reason = reason.String
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating paper trades: %w", err)
	}
	return out, nil
}
