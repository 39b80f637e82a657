package repositories

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/samhoi-x/compass/internal/domain"
)

// RiskAlertRepository persists risk-manager alerts (drawdown status
// changes, position-limit breaches) for the HTTP surface and the
// events log to read back.
type RiskAlertRepository struct {
	*BaseRepository
}

func NewRiskAlertRepository(db *sql.DB, log zerolog.Logger) *RiskAlertRepository {
	return &RiskAlertRepository{BaseRepository: NewBase(db, log.With().Str("repo", "risk_alert").Logger())}
}

func (r *RiskAlertRepository) Insert(a domain.RiskAlert) (domain.RiskAlert, error) {
	res, err := r.DB().Exec(`
		INSERT INTO risk_alerts (type, severity, message, symbol, created_at, acknowledged)
		VALUES (?, ?, ?, ?, ?, ?)`, a.Type, a.Severity, a.Message, nullString(a.Symbol), a.CreatedAt, boolToInt(a.Acknowledged))
	if err != nil {
		return a, fmt.Errorf("failed to insert risk alert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return a, fmt.Errorf("failed to read risk alert id: %w", err)
	}
	a.ID = id
	return a, nil
}

func (r *RiskAlertRepository) Unacknowledged() ([]domain.RiskAlert, error) {
	rows, err := r.DB().Query(`
		SELECT id, type, severity, message, symbol, created_at, acknowledged
		FROM risk_alerts WHERE acknowledged = 0 ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query risk alerts: %w", err)
	}
	defer rows.Close()

	out := []domain.RiskAlert{}
	for rows.Next() {
		var a domain.RiskAlert
		var symbol sql.NullString
		var ack int
		if err := rows.Scan(&a.ID, &a.Type, &a.Severity, &a.Message, &symbol, &a.CreatedAt, &ack); err != nil {
			return nil, fmt.Errorf("failed to scan risk alert: %w", err)
		}
		if symbol.Valid {
			a.Symbol = symbol.String
		}
		a.Acknowledged = ack != 0
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating risk alerts: %w", err)
	}
	return out, nil
}

func (r *RiskAlertRepository) Acknowledge(id int64) error {
	_, err := r.DB().Exec(`UPDATE risk_alerts SET acknowledged = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to acknowledge risk alert: %w", err)
	}
	return nil
}
