package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/samhoi-x/compass/internal/domain"
)

// SettingRepository persists domain-tunable configuration (weights,
// thresholds, risk/stop-loss/ml params, watchlists) as named JSON
// blobs, kept separate from process-level env config so they can
// change without a redeploy.
type SettingRepository struct {
	*BaseRepository
}

func NewSettingRepository(db *sql.DB, log zerolog.Logger) *SettingRepository {
	return &SettingRepository{BaseRepository: NewBase(db, log.With().Str("repo", "setting").Logger())}
}

func (r *SettingRepository) Get(name string) (*domain.Setting, error) {
	row := r.DB().QueryRow(`SELECT name, value_json, updated_at FROM settings WHERE name = ?`, name)
	var s domain.Setting
	if err := row.Scan(&s.Name, &s.ValueJSON, &s.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query setting %s: %w", name, err)
	}
	return &s, nil
}

// GetJSON loads and unmarshals a setting into out, returning (false,
// nil) if the setting doesn't exist yet so the caller can fall back to
// a compiled-in default.
func (r *SettingRepository) GetJSON(name string, out any) (bool, error) {
	s, err := r.Get(name)
	if err != nil {
		return false, err
	}
	if s == nil {
		return false, nil
	}
	if err := json.Unmarshal([]byte(s.ValueJSON), out); err != nil {
		return false, fmt.Errorf("failed to unmarshal setting %s: %w", name, err)
	}
	return true, nil
}

func (r *SettingRepository) Put(name string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal setting %s: %w", name, err)
	}
	_, err = r.DB().Exec(`
		INSERT INTO settings (name, value_json, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET value_json = excluded.value_json, updated_at = excluded.updated_at`,
		name, string(data), time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert setting %s: %w", name, err)
	}
	return nil
}

func (r *SettingRepository) All() ([]domain.Setting, error) {
	rows, err := r.DB().Query(`SELECT name, value_json, updated_at FROM settings ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	var out []domain.Setting
	for rows.Next() {
		var s domain.Setting
		if err := rows.Scan(&s.Name, &s.ValueJSON, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating settings: %w", err)
	}
	return out, nil
}
