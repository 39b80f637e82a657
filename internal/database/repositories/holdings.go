package repositories

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/samhoi-x/compass/internal/domain"
)

// HoldingRepository tracks live portfolio positions (distinct from the
// paper-trading engine's virtual PaperPositions), used by the risk
// manager for allocation checks.
type HoldingRepository struct {
	*BaseRepository
}

func NewHoldingRepository(db *sql.DB, log zerolog.Logger) *HoldingRepository {
	return &HoldingRepository{BaseRepository: NewBase(db, log.With().Str("repo", "holding").Logger())}
}

func (r *HoldingRepository) GetAll() ([]domain.Holding, error) {
	rows, err := r.DB().Query(`SELECT symbol, asset_class, quantity, avg_cost, sector, stop_loss FROM holdings`)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	var out []domain.Holding
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}
	return out, nil
}

func (r *HoldingRepository) GetBySymbol(symbol string) (*domain.Holding, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	row := r.DB().QueryRow(`SELECT symbol, asset_class, quantity, avg_cost, sector, stop_loss FROM holdings WHERE symbol = ?`, symbol)

	var h domain.Holding
	var sector sql.NullString
	var stopLoss sql.NullFloat64
	if err := row.Scan(&h.Symbol, &h.AssetClass, &h.Quantity, &h.AvgCost, &sector, &stopLoss); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query holding: %w", err)
	}
	if sector.Valid {
		h.Sector = sector.String
	}
	h.StopLoss = nullFloat64Ptr(stopLoss)
	return &h, nil
}

func (r *HoldingRepository) Upsert(h domain.Holding) error {
	h.Symbol = strings.ToUpper(strings.TrimSpace(h.Symbol))
	_, err := r.DB().Exec(`
		INSERT INTO holdings (symbol, asset_class, quantity, avg_cost, sector, stop_loss)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			asset_class = excluded.asset_class, quantity = excluded.quantity,
			avg_cost = excluded.avg_cost, sector = excluded.sector, stop_loss = excluded.stop_loss`,
		h.Symbol, h.AssetClass, h.Quantity, h.AvgCost, nullString(h.Sector), nullFloat64(h.StopLoss))
	if err != nil {
		return fmt.Errorf("failed to upsert holding: %w", err)
	}
	return nil
}

func (r *HoldingRepository) Delete(symbol string) error {
	_, err := r.DB().Exec(`DELETE FROM holdings WHERE symbol = ?`, strings.ToUpper(strings.TrimSpace(symbol)))
	if err != nil {
		return fmt.Errorf("failed to delete holding: %w", err)
	}
	return nil
}

func scanHolding(rows *sql.Rows) (domain.Holding, error) {
	var h domain.Holding
	var sector sql.NullString
	var stopLoss sql.NullFloat64
	if err := rows.Scan(&h.Symbol, &h.AssetClass, &h.Quantity, &h.AvgCost, &sector, &stopLoss); err != nil {
		return h, fmt.Errorf("failed to scan holding: %w", err)
	}
	if sector.Valid {
		h.Sector = sector.String
	}
	h.StopLoss = nullFloat64Ptr(stopLoss)
	return h, nil
}
