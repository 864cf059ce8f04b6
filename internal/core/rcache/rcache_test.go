package rcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	entries map[string]*Entry
	getErr  error
	gets    int
	deletes int
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: map[string]*Entry{}}
}

func (s *fakeStore) GetResolution(_ context.Context, originalURL string) (*Entry, error) {
	s.gets++

	if s.getErr != nil {
		return nil, s.getErr
	}

	return s.entries[originalURL], nil
}

func (s *fakeStore) UpsertResolution(_ context.Context, entry *Entry) error {
	s.entries[entry.OriginalURL] = entry
	return nil
}

func (s *fakeStore) DeleteResolution(_ context.Context, originalURL string) error {
	s.deletes++
	delete(s.entries, originalURL)

	return nil
}

func (s *fakeStore) DeleteExpiredResolutions(_ context.Context) (int64, error) {
	var deleted int64

	for key, entry := range s.entries {
		if entry.Expired() {
			delete(s.entries, key)
			deleted++
		}
	}

	return deleted, nil
}

func newTestCache(store DurableStore) *Cache {
	logger := zerolog.Nop()
	return New(store, Options{}, &logger)
}

func TestCacheStoreThenLookup(t *testing.T) {
	store := newFakeStore()
	cache := newTestCache(store)
	ctx := context.Background()

	cache.Store(ctx, "https://t.co/abc", "https://example.com/story", []string{"https://t.co/abc", "https://example.com/story"})

	entry := cache.Lookup(ctx, "https://t.co/abc")
	require.NotNil(t, entry)
	require.Equal(t, "https://example.com/story", entry.CanonicalURL)
	require.Len(t, entry.RedirectChain, 2)

	// Served from the ephemeral tier, not the store.
	require.Zero(t, store.gets)

	// Written through to the durable tier.
	require.Contains(t, store.entries, "https://t.co/abc")
}

func TestCacheLookupMiss(t *testing.T) {
	cache := newTestCache(newFakeStore())

	require.Nil(t, cache.Lookup(context.Background(), "https://never-stored.example.com"))
}

func TestCacheDurableHitBackfillsMemory(t *testing.T) {
	store := newFakeStore()
	store.entries["https://bit.ly/x"] = &Entry{
		OriginalURL:  "https://bit.ly/x",
		CanonicalURL: "https://example.com/a",
		ResolvedAt:   time.Now(),
		ExpiresAt:    time.Now().Add(time.Hour),
	}

	cache := newTestCache(store)
	ctx := context.Background()

	entry := cache.Lookup(ctx, "https://bit.ly/x")
	require.NotNil(t, entry)
	require.Equal(t, 1, store.gets)

	// Second lookup is served from memory.
	entry = cache.Lookup(ctx, "https://bit.ly/x")
	require.NotNil(t, entry)
	require.Equal(t, 1, store.gets)
}

func TestCacheExpiredDurableEntryPurged(t *testing.T) {
	store := newFakeStore()
	store.entries["https://bit.ly/old"] = &Entry{
		OriginalURL:  "https://bit.ly/old",
		CanonicalURL: "https://example.com/old",
		ResolvedAt:   time.Now().Add(-48 * time.Hour),
		ExpiresAt:    time.Now().Add(-time.Hour),
	}

	cache := newTestCache(store)

	require.Nil(t, cache.Lookup(context.Background(), "https://bit.ly/old"))
	require.Equal(t, 1, store.deletes)
	require.NotContains(t, store.entries, "https://bit.ly/old")
}

func TestCacheStoreErrorTreatedAsMiss(t *testing.T) {
	store := newFakeStore()
	store.getErr = errors.New("connection refused")

	cache := newTestCache(store)

	require.Nil(t, cache.Lookup(context.Background(), "https://bit.ly/x"))
}

func TestCacheWithoutDurableStore(t *testing.T) {
	cache := newTestCache(nil)
	ctx := context.Background()

	require.False(t, cache.Configured())

	cache.Store(ctx, "https://t.co/abc", "https://example.com/a", nil)

	entry := cache.Lookup(ctx, "https://t.co/abc")
	require.NotNil(t, entry)
	require.Equal(t, "https://example.com/a", entry.CanonicalURL)

	require.Zero(t, cache.Sweep(ctx))
}

func TestCacheSweep(t *testing.T) {
	store := newFakeStore()
	store.entries["live"] = &Entry{OriginalURL: "live", ExpiresAt: time.Now().Add(time.Hour)}
	store.entries["dead"] = &Entry{OriginalURL: "dead", ExpiresAt: time.Now().Add(-time.Hour)}

	cache := newTestCache(store)

	require.Equal(t, int64(1), cache.Sweep(context.Background()))
	require.Contains(t, store.entries, "live")
	require.NotContains(t, store.entries, "dead")
}
