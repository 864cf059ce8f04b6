package canonical

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/newsfold/linkresolver/internal/core/rcache"
)

func newTestCanonicalizer() *Canonicalizer {
	logger := zerolog.Nop()
	cache := rcache.New(nil, rcache.Options{}, &logger)

	return New(cache, Options{FetchRPS: 100, FetchTimeout: 2 * time.Second}, &logger)
}

func TestCanonicalizeRejectsUnsafeURLs(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"non-http scheme", "ftp://example.com/file"},
		{"mailto", "mailto:user@example.com"},
		{"missing host", "https:///path-only"},
		{"localhost", "http://localhost:8080/admin"},
		{"local suffix", "http://printer.local/status"},
		{"internal suffix", "http://db.internal/metrics"},
		{"loopback ip", "http://127.0.0.1/secret"},
		{"private ip", "http://192.168.1.1/router"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCanonicalizer()

			result := c.Canonicalize(context.Background(), tt.in)

			require.Equal(t, StatusFailed, result.Status)
			require.Equal(t, tt.in, result.CanonicalURL, "rejected URLs pass through unmodified")
			require.NotEmpty(t, result.ErrorMessage)
			require.False(t, result.FromCache)
		})
	}
}

func TestCanonicalizeUnreachableHostDegradesToNormalized(t *testing.T) {
	c := newTestCanonicalizer()

	result := c.Canonicalize(context.Background(), "http://WWW.Example.invalid:80/Path/?b=2&a=1&utm_source=x")

	require.Equal(t, StatusSuccess, result.Status)
	require.Equal(t, "https://example.invalid/Path?a=1&b=2", result.CanonicalURL)
	require.Equal(t, "example.invalid", result.Domain)
}

func TestCanonicalizeSecondCallHitsCache(t *testing.T) {
	c := newTestCanonicalizer()
	in := "https://example.invalid/story?utm_source=feed"

	first := c.Canonicalize(context.Background(), in)
	require.Equal(t, StatusSuccess, first.Status)
	require.False(t, first.FromCache)

	second := c.Canonicalize(context.Background(), in)
	require.Equal(t, StatusCached, second.Status)
	require.True(t, second.FromCache)
	require.Equal(t, first.CanonicalURL, second.CanonicalURL)
	require.Equal(t, first.RedirectChain, second.RedirectChain)
}

func TestCanonicalizeManyIsolatesFailures(t *testing.T) {
	c := newTestCanonicalizer()

	urls := []string{
		"ftp://example.com/file",
		"https://example.invalid/a?utm_source=x",
		"http://localhost/b",
		"https://other.invalid/c",
	}

	results := c.CanonicalizeMany(context.Background(), urls)

	require.Len(t, results, len(urls))

	for i, r := range results {
		require.Equal(t, urls[i], r.OriginalURL, "results must stay in input order")
	}

	require.Equal(t, StatusFailed, results[0].Status)
	require.Equal(t, StatusSuccess, results[1].Status)
	require.Equal(t, "https://example.invalid/a", results[1].CanonicalURL)
	require.Equal(t, StatusFailed, results[2].Status)
	require.Equal(t, StatusSuccess, results[3].Status)
}

func TestSameCanonical(t *testing.T) {
	c := newTestCanonicalizer()

	same := c.SameCanonical(context.Background(),
		"https://example.invalid/a?utm_source=x",
		"http://www.example.invalid/a/")
	require.True(t, same)

	different := c.SameCanonical(context.Background(),
		"https://example.invalid/a",
		"https://example.invalid/b")
	require.False(t, different)
}
