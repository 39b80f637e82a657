// Package repositories holds one repository per persisted entity,
// grounded on the teacher's internal/database/repositories/base.go and
// its modules/portfolio/position_repository.go Upsert/Delete/scan
// pattern: a thin BaseRepository, an explicit transaction for
// multi-row writes (single-row writes are one statement each), and
// nullFloat64/nullString/nullInt/nullTime helpers for optional
// columns.
package repositories

import (
	"database/sql"
	"time"

	"github.com/rs/zerolog"
)

// BaseRepository provides the shared connection and logger every
// repository embeds.
type BaseRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewBase creates a new base repository.
func NewBase(db *sql.DB, log zerolog.Logger) *BaseRepository {
	return &BaseRepository{db: db, log: log}
}

// DB returns the underlying connection.
func (r *BaseRepository) DB() *sql.DB { return r.db }

func nullFloat64(val *float64) sql.NullFloat64 {
	if val == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *val, Valid: true}
}

func nullFloat64Ptr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func nullInt(val *int) sql.NullInt64 {
	if val == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*val), Valid: true}
}

func nullIntPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func nullTime(val *time.Time) sql.NullTime {
	if val == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *val, Valid: true}
}

func nullTimePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	v := n.Time
	return &v
}

func nullString(val string) sql.NullString {
	if val == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: val, Valid: true}
}
