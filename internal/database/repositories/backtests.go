package repositories

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/samhoi-x/compass/internal/domain"
)

// BacktestRepository persists summary metrics from completed backtest
// runs so the HTTP surface can list historical results without
// re-running anything.
type BacktestRepository struct {
	*BaseRepository
}

func NewBacktestRepository(db *sql.DB, log zerolog.Logger) *BacktestRepository {
	return &BacktestRepository{BaseRepository: NewBase(db, log.With().Str("repo", "backtest").Logger())}
}

func (r *BacktestRepository) Insert(b domain.BacktestResult) (domain.BacktestResult, error) {
	res, err := r.DB().Exec(`
		INSERT INTO backtest_results
		(name, config_json, total_return, annual_return, sharpe, sortino, calmar,
		 max_drawdown, var95, cvar95, win_rate, trade_count, equity_curve_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.Name, b.ConfigJSON, b.TotalReturn, b.AnnualReturn, b.Sharpe, b.Sortino, b.Calmar,
		b.MaxDrawdown, b.VaR95, b.CVaR95, b.WinRate, b.TradeCount, b.EquityCurveJSON, b.CreatedAt)
	if err != nil {
		return b, fmt.Errorf("failed to insert backtest result: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return b, fmt.Errorf("failed to read backtest result id: %w", err)
	}
	b.ID = id
	return b, nil
}

func (r *BacktestRepository) Recent(limit int) ([]domain.BacktestResult, error) {
	rows, err := r.DB().Query(`
		SELECT id, name, config_json, total_return, annual_return, sharpe, sortino, calmar,
		       max_drawdown, var95, cvar95, win_rate, trade_count, equity_curve_json, created_at
		FROM backtest_results ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query backtest results: %w", err)
	}
	defer rows.Close()

	var out []domain.BacktestResult
	for rows.Next() {
		var b domain.BacktestResult
		if err := rows.Scan(&b.ID, &b.Name, &b.ConfigJSON, &b.TotalReturn, &b.AnnualReturn, &b.Sharpe,
			&b.Sortino, &b.Calmar, &b.MaxDrawdown, &b.VaR95, &b.CVaR95, &b.WinRate, &b.TradeCount,
			&b.EquityCurveJSON, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan backtest result: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating backtest results: %w", err)
	}
	return out, nil
}
