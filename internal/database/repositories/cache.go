package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/samhoi-x/compass/internal/domain"
)

// CacheRepository persists cache entries so the in-process cache can
// survive a restart without re-hitting rate-limited external sources.
type CacheRepository struct {
	*BaseRepository
}

func NewCacheRepository(db *sql.DB, log zerolog.Logger) *CacheRepository {
	return &CacheRepository{BaseRepository: NewBase(db, log.With().Str("repo", "cache").Logger())}
}

// Get returns a stored entry, or nil if absent.
func (r *CacheRepository) Get(class domain.CacheClass, symbol, subKey string) (*domain.CacheEntry, error) {
	row := r.DB().QueryRow(`
		SELECT class, symbol, sub_key, payload, fetched_at
		FROM cache_entries WHERE class = ? AND symbol = ? AND sub_key = ?`, class, symbol, subKey)

	var e domain.CacheEntry
	if err := row.Scan(&e.Class, &e.Symbol, &e.SubKey, &e.Payload, &e.FetchedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query cache entry: %w", err)
	}
	return &e, nil
}

// Put upserts a cache entry.
func (r *CacheRepository) Put(e domain.CacheEntry) error {
	_, err := r.DB().Exec(`
		INSERT INTO cache_entries (class, symbol, sub_key, payload, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(class, symbol, sub_key) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at`,
		e.Class, e.Symbol, e.SubKey, e.Payload, e.FetchedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert cache entry: %w", err)
	}
	return nil
}

// PurgeOlderThan deletes entries of a class fetched before the cutoff,
// used for periodic housekeeping of perishable classes.
func (r *CacheRepository) PurgeOlderThan(class domain.CacheClass, cutoff time.Time) error {
	_, err := r.DB().Exec(`DELETE FROM cache_entries WHERE class = ? AND fetched_at < ?`, class, cutoff)
	if err != nil {
		return fmt.Errorf("failed to purge cache entries: %w", err)
	}
	return nil
}
