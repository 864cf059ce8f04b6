// Package rcache implements the two-tier resolution cache that backs URL
// canonicalization.
//
// The ephemeral tier is an in-process expirable LRU keyed by a stable hash of
// the original URL; the durable tier is Postgres, keyed by the literal URL.
// Lookups try fast-then-durable; writes go to both. The durable tier is the
// source of truth and carries the longer TTL.
//
// All operations degrade to miss/no-op rather than failing when the durable
// store is unconfigured or unreachable.
package rcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"

	"github.com/newsfold/linkresolver/internal/platform/observability"
)

const (
	defaultMemSize  = 4096
	defaultMemTTL   = 7 * 24 * time.Hour
	defaultStoreTTL = 30 * 24 * time.Hour

	logKeyURL = "url"
)

// Entry is one cached resolution. A given original URL maps to at most one
// live entry; expired entries are treated as absent and lazily purged.
type Entry struct {
	OriginalURL   string
	CanonicalURL  string
	RedirectChain []string
	ResolvedAt    time.Time
	ExpiresAt     time.Time
}

// Expired reports whether the entry's TTL has passed.
func (e *Entry) Expired() bool {
	return time.Now().After(e.ExpiresAt)
}

// DurableStore is the persistence port for the durable tier.
type DurableStore interface {
	GetResolution(ctx context.Context, originalURL string) (*Entry, error)
	UpsertResolution(ctx context.Context, entry *Entry) error
	DeleteResolution(ctx context.Context, originalURL string) error
	DeleteExpiredResolutions(ctx context.Context) (int64, error)
}

// Cache is the two-tier resolution cache.
type Cache struct {
	mem      *expirable.LRU[string, Entry]
	store    DurableStore
	memTTL   time.Duration
	storeTTL time.Duration
	logger   *zerolog.Logger
}

// Options tunes cache sizing and TTLs. Zero values fall back to defaults; the
// ephemeral TTL should stay materially shorter than the durable TTL.
type Options struct {
	MemSize  int
	MemTTL   time.Duration
	StoreTTL time.Duration
}

// New creates a cache. store may be nil, in which case only the ephemeral
// tier is active and Configured reports false.
func New(store DurableStore, opts Options, logger *zerolog.Logger) *Cache {
	if opts.MemSize <= 0 {
		opts.MemSize = defaultMemSize
	}

	if opts.MemTTL <= 0 {
		opts.MemTTL = defaultMemTTL
	}

	if opts.StoreTTL <= 0 {
		opts.StoreTTL = defaultStoreTTL
	}

	return &Cache{
		mem:      expirable.NewLRU[string, Entry](opts.MemSize, nil, opts.MemTTL),
		store:    store,
		memTTL:   opts.MemTTL,
		storeTTL: opts.StoreTTL,
		logger:   logger,
	}
}

// Configured reports whether the durable tier is available.
func (c *Cache) Configured() bool {
	return c.store != nil
}

// Lookup returns the live cache entry for originalURL, or nil on miss.
// Durable hits opportunistically backfill the ephemeral tier.
func (c *Cache) Lookup(ctx context.Context, originalURL string) *Entry {
	key := cacheKey(originalURL)

	if entry, ok := c.mem.Get(key); ok {
		if !entry.Expired() {
			observability.CacheLookups.WithLabelValues("memory").Inc()
			return &entry
		}

		c.mem.Remove(key)
	}

	if c.store == nil {
		observability.CacheLookups.WithLabelValues("miss").Inc()
		return nil
	}

	entry, err := c.store.GetResolution(ctx, originalURL)
	if err != nil {
		c.logger.Debug().Err(err).Str(logKeyURL, originalURL).Msg("durable cache lookup failed, treating as miss")
		observability.CacheLookups.WithLabelValues("miss").Inc()

		return nil
	}

	if entry == nil {
		observability.CacheLookups.WithLabelValues("miss").Inc()
		return nil
	}

	if entry.Expired() {
		if err := c.store.DeleteResolution(ctx, originalURL); err != nil {
			c.logger.Debug().Err(err).Str(logKeyURL, originalURL).Msg("failed to purge expired cache entry")
		}

		observability.CacheLookups.WithLabelValues("miss").Inc()

		return nil
	}

	// Backfill is best-effort; the LRU applies its own shorter TTL.
	c.mem.Add(key, *entry)
	observability.CacheLookups.WithLabelValues("durable").Inc()

	return entry
}

// Store writes a resolution to both tiers. Ephemeral failures are impossible
// by construction; durable failures are logged and swallowed so resolution
// never depends on cache health.
func (c *Cache) Store(ctx context.Context, originalURL, canonicalURL string, chain []string) {
	now := time.Now()
	entry := Entry{
		OriginalURL:   originalURL,
		CanonicalURL:  canonicalURL,
		RedirectChain: chain,
		ResolvedAt:    now,
		ExpiresAt:     now.Add(c.storeTTL),
	}

	c.mem.Add(cacheKey(originalURL), entry)

	if c.store == nil {
		return
	}

	if err := c.store.UpsertResolution(ctx, &entry); err != nil {
		c.logger.Warn().Err(err).Str(logKeyURL, originalURL).Msg("failed to persist resolution to durable cache")
	}
}

// Sweep deletes all expired durable entries and returns the count removed.
// Intended to run on a periodic schedule.
func (c *Cache) Sweep(ctx context.Context) int64 {
	if c.store == nil {
		return 0
	}

	deleted, err := c.store.DeleteExpiredResolutions(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("cache sweep failed")
		return 0
	}

	observability.SweepDeleted.Add(float64(deleted))

	return deleted
}

// cacheKey is the stable ephemeral-tier key for a URL.
func cacheKey(originalURL string) string {
	h := sha256.Sum256([]byte(originalURL))
	return hex.EncodeToString(h[:])
}
