// Package cache is the single in-process cache every external-data
// read and every adaptive-weight/threshold recompute goes through.
// Entries are keyed by (class, symbol, sub-key), each class carries
// its own TTL, and a per-key mutex gives single-writer-per-key
// refresh semantics so a cache miss under concurrent symbol fan-out
// triggers one fetch, not N. Grounded on the teacher's repository
// layer for persistence shape; payloads are msgpack-encoded the way
// the pack's bridge-go/sentinel-tui-go services encode cache/wire
// payloads, rather than JSON, since classes like price history are
// accessed purely by this process and msgpack round-trips Go structs
// (including []OHLCVBar) more compactly.
package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/samhoi-x/compass/internal/database/repositories"
	"github.com/samhoi-x/compass/internal/domain"
)

// TTLs per cache class (spec §5 refresh cadence).
var defaultTTLs = map[domain.CacheClass]time.Duration{
	domain.CachePrice:        15 * time.Minute,
	domain.CacheNews:         30 * time.Minute,
	domain.CacheSentiment:    60 * time.Minute,
	domain.CacheMLPrediction: 120 * time.Minute,
	domain.CacheMacro:        4 * time.Hour,
	domain.CacheBreadth:      4 * time.Hour,
	domain.CacheCrossAsset:   4 * time.Hour,
	domain.CacheFearGreed:    4 * time.Hour,
	domain.CacheAnalyst:      24 * time.Hour,
	domain.CacheEarnings:     12 * time.Hour,
	domain.CacheOptions:      2 * time.Hour,
	domain.CacheShortInt:     24 * time.Hour,
	domain.CacheSector:       4 * time.Hour,
	domain.CacheAdaptiveWts:  1 * time.Hour,
}

// Fetcher produces a fresh value for a cache miss or expiry.
type Fetcher func() (any, error)

// Cache is the shared, TTL-governed lookup-or-fetch service.
type Cache struct {
	repo *repositories.CacheRepository
	log  zerolog.Logger

	mu      sync.Mutex
	keyLock map[string]*sync.Mutex
}

func New(repo *repositories.CacheRepository, log zerolog.Logger) *Cache {
	return &Cache{
		repo:    repo,
		log:     log.With().Str("component", "cache").Logger(),
		keyLock: make(map[string]*sync.Mutex),
	}
}

// GetOrFetch returns the cached value for (class, symbol, subKey) if
// still fresh, else calls fetch exactly once even under concurrent
// callers for the same key, stores the result, and returns it.
// out must be a pointer the msgpack payload is decoded into; a freshly
// fetched value is encoded and decoded the same way before it reaches
// out.
func (c *Cache) GetOrFetch(class domain.CacheClass, symbol, subKey string, out any, fetch Fetcher) error {
	key := string(class) + "|" + symbol + "|" + subKey
	lock := c.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	entry, err := c.repo.Get(class, symbol, subKey)
	if err != nil {
		return fmt.Errorf("cache lookup failed: %w", err)
	}

	ttl := defaultTTLs[class]
	if entry != nil && time.Since(entry.FetchedAt) < ttl {
		if err := msgpack.Unmarshal(entry.Payload, out); err != nil {
			return fmt.Errorf("cache decode failed: %w", err)
		}
		return nil
	}

	fresh, err := fetch()
	if err != nil {
		if entry != nil {
			// stale-but-present: prefer serving stale data over
			// propagating a transient fetch failure
			c.log.Warn().Str("class", string(class)).Str("symbol", symbol).Err(err).
				Msg("refresh failed, serving stale cache entry")
			return msgpack.Unmarshal(entry.Payload, out)
		}
		return err
	}

	payload, err := msgpack.Marshal(fresh)
	if err != nil {
		return fmt.Errorf("cache encode failed: %w", err)
	}

	if err := c.repo.Put(domain.CacheEntry{
		Class: class, Symbol: symbol, SubKey: subKey, Payload: payload, FetchedAt: time.Now(),
	}); err != nil {
		c.log.Warn().Err(err).Msg("failed to persist cache entry")
	}

	return msgpack.Unmarshal(payload, out)
}

// Invalidate drops cached entries of class ahead of their TTL. It
// purges every entry of the class; symbol and subKey do not narrow
// the purge.
func (c *Cache) Invalidate(class domain.CacheClass, symbol, subKey string) error {
	return c.repo.PurgeOlderThan(class, time.Now().Add(time.Second))
}

func (c *Cache) lockFor(key string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.keyLock[key]
	if !ok {
		l = &sync.Mutex{}
		c.keyLock[key] = l
	}
	return l
}
