package canonical

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/newsfold/linkresolver/internal/core/rcache"
	"github.com/newsfold/linkresolver/internal/platform/observability"
)

// ResolutionStatus describes how a canonicalization concluded.
type ResolutionStatus string

const (
	StatusSuccess ResolutionStatus = "success"
	StatusCached  ResolutionStatus = "cached"
	StatusFailed  ResolutionStatus = "failed"
)

// ResolutionResult is the outcome of canonicalizing one URL. CanonicalURL is
// always a syntactically valid absolute http(s) URL, degrading to the
// normalized original on failure.
type ResolutionResult struct {
	OriginalURL   string
	CanonicalURL  string
	Domain        string
	RedirectChain []string
	Status        ResolutionStatus
	FromCache     bool
	ErrorMessage  string
}

// Canonicalizer is the public entry point for URL canonicalization. Its
// methods never fail: every call terminates with a usable result.
type Canonicalizer struct {
	cache    *rcache.Cache
	resolver *RedirectResolver
	logger   *zerolog.Logger
}

// Options tunes the canonicalizer's outbound HTTP behavior.
type Options struct {
	FetchRPS     float64
	FetchTimeout time.Duration
	UserAgent    string
}

func New(cache *rcache.Cache, opts Options, logger *zerolog.Logger) *Canonicalizer {
	fetcher := NewHopFetcher(opts.FetchRPS, opts.FetchTimeout, opts.UserAgent)

	return &Canonicalizer{
		cache:    cache,
		resolver: NewRedirectResolver(fetcher, logger),
		logger:   logger,
	}
}

// Canonicalize resolves a raw URL to its canonical identity. It never
// propagates a failure: any internal error degrades to the normalized
// original URL with StatusFailed.
func (c *Canonicalizer) Canonicalize(ctx context.Context, rawURL string) ResolutionResult {
	result := c.canonicalizeGuarded(ctx, rawURL)
	observability.ResolutionsTotal.WithLabelValues(string(result.Status)).Inc()

	return result
}

// canonicalizeGuarded converts panics from any internal step into a failed
// result so a single bad URL can never take down a batch or a caller.
func (c *Canonicalizer) canonicalizeGuarded(ctx context.Context, rawURL string) (result ResolutionResult) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().Interface("panic", r).Str(logKeyURL, rawURL).Msg("canonicalization panicked")

			result = c.failedResult(rawURL, fmt.Sprintf("internal error: %v", r))
		}
	}()

	return c.canonicalize(ctx, rawURL)
}

func (c *Canonicalizer) canonicalize(ctx context.Context, rawURL string) ResolutionResult {
	rawURL = strings.TrimSpace(rawURL)

	if reason := rejectReason(rawURL); reason != "" {
		return ResolutionResult{
			OriginalURL:   rawURL,
			CanonicalURL:  rawURL,
			Domain:        ExtractDomain(rawURL),
			RedirectChain: []string{rawURL},
			Status:        StatusFailed,
			ErrorMessage:  reason,
		}
	}

	if entry := c.cache.Lookup(ctx, rawURL); entry != nil {
		return ResolutionResult{
			OriginalURL:   rawURL,
			CanonicalURL:  entry.CanonicalURL,
			Domain:        ExtractDomain(entry.CanonicalURL),
			RedirectChain: entry.RedirectChain,
			Status:        StatusCached,
			FromCache:     true,
		}
	}

	chain := []string{rawURL}
	current := rawURL

	// The raw input may itself be an extract-kind wrapper; resolving from
	// the embedded destination skips a network hop entirely.
	if dest := TryExtractDestination(rawURL); dest != "" {
		current = dest
		chain = append(chain, dest)
	}

	final := c.resolver.Resolve(ctx, current, &chain)
	canonical := Normalize(final)

	c.cache.Store(ctx, rawURL, canonical, chain)

	return ResolutionResult{
		OriginalURL:   rawURL,
		CanonicalURL:  canonical,
		Domain:        ExtractDomain(canonical),
		RedirectChain: chain,
		Status:        StatusSuccess,
	}
}

// CanonicalizeMany resolves all URLs concurrently. The result slice always
// has exactly one entry per input, in input order; one URL's failure never
// affects another's result.
func (c *Canonicalizer) CanonicalizeMany(ctx context.Context, urls []string) []ResolutionResult {
	results := make([]ResolutionResult, len(urls))

	var wg sync.WaitGroup

	for i, u := range urls {
		wg.Add(1)

		go func(i int, u string) {
			defer wg.Done()

			results[i] = c.Canonicalize(ctx, u)
		}(i, u)
	}

	wg.Wait()

	succeeded := 0

	for _, r := range results {
		if r.Status != StatusFailed {
			succeeded++
		}
	}

	c.logger.Info().Int("total", len(urls)).Int("succeeded", succeeded).Int("failed", len(urls)-succeeded).Msg("batch canonicalization finished")

	return results
}

// SameCanonical reports whether two URLs resolve to the same canonical
// identity.
func (c *Canonicalizer) SameCanonical(ctx context.Context, a, b string) bool {
	return c.Canonicalize(ctx, a).CanonicalURL == c.Canonicalize(ctx, b).CanonicalURL
}

func (c *Canonicalizer) failedResult(rawURL, errMsg string) ResolutionResult {
	canonical := Normalize(rawURL)

	return ResolutionResult{
		OriginalURL:   rawURL,
		CanonicalURL:  canonical,
		Domain:        ExtractDomain(canonical),
		RedirectChain: []string{rawURL},
		Status:        StatusFailed,
		ErrorMessage:  errMsg,
	}
}

// rejectReason filters URLs that must not be resolved at all: non-http(s)
// schemes and local or loopback hosts. Returns "" for acceptable URLs.
func rejectReason(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Sprintf("unparseable url: %v", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Sprintf("unsupported scheme %q", u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "missing host"
	}

	if host == "localhost" || strings.HasSuffix(host, ".local") || strings.HasSuffix(host, ".internal") {
		return "local host rejected"
	}

	if ip := net.ParseIP(host); ip != nil && (ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified()) {
		return "loopback or private address rejected"
	}

	return ""
}
