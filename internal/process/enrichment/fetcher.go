package enrichment

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/newsfold/linkresolver/internal/core/errors"
	"github.com/newsfold/linkresolver/internal/platform/observability"
)

const (
	defaultFetchTimeout = 30 * time.Second
	globalLimiterBurst  = 5
	maxBodySizeBytes    = 5 * 1024 * 1024
	domainLimiterRate   = 1
	domainLimiterBurst  = 2

	defaultUserAgent = "LinkResolver/1.0 (Feed Link Canonicalizer)"

	fetchConsumerEnrichment = "enrichment"
)

// WebFetcher downloads page bodies for content extraction, with a global
// and a per-domain rate limit.
type WebFetcher struct {
	client         *http.Client
	globalLimiter  *rate.Limiter
	domainLimiters map[string]*rate.Limiter
	mu             sync.RWMutex
	userAgent      string
}

func NewWebFetcher(rps float64, timeout time.Duration, userAgent string) *WebFetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}

	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &WebFetcher{
		client:         &http.Client{Timeout: timeout},
		globalLimiter:  rate.NewLimiter(rate.Limit(rps), globalLimiterBurst),
		domainLimiters: make(map[string]*rate.Limiter),
		userAgent:      userAgent,
	}
}

// Fetch downloads rawURL, capped at 5MB.
func (f *WebFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if err := f.globalLimiter.Wait(ctx); err != nil {
		return nil, errors.Classify(err, "global rate limiter wait")
	}

	limiter := f.domainLimiter(extractHost(rawURL))
	if err := limiter.Wait(ctx); err != nil {
		return nil, errors.Classify(err, "domain rate limiter wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.CodeBadRequest, err, "create request")
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	started := time.Now()

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Classify(err, "execute request")
	}
	defer resp.Body.Close() //nolint:errcheck // nothing useful to do with a close error

	observability.FetchDuration.WithLabelValues(fetchConsumerEnrichment).Observe(time.Since(started).Seconds())

	if statusErr := errors.ClassifyStatus(resp.StatusCode, "fetch "+rawURL); statusErr != nil {
		return nil, statusErr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySizeBytes))
	if err != nil {
		return nil, errors.Classify(err, "read response body")
	}

	return body, nil
}

func (f *WebFetcher) domainLimiter(domain string) *rate.Limiter {
	f.mu.RLock()
	limiter, exists := f.domainLimiters[domain]
	f.mu.RUnlock()

	if exists {
		return limiter
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	// Double check
	if limiter, exists := f.domainLimiters[domain]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(domainLimiterRate, domainLimiterBurst)
	f.domainLimiters[domain] = limiter

	return limiter
}

func extractHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	return strings.ToLower(u.Host)
}
