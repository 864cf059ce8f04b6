package canonical

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/newsfold/linkresolver/internal/core/errors"
)

const (
	defaultHopTimeoutSeconds = 10
	globalLimiterBurst       = 5
	domainLimiterRate        = 1
	domainLimiterBurst       = 2
	maxDrainBytes            = 64 * 1024
)

// HopResult is the redirect signal observed for a single hop.
type HopResult struct {
	StatusCode int
	Location   string
}

// Redirected reports whether the hop carries a redirect signal.
func (h *HopResult) Redirected() bool {
	switch h.StatusCode {
	case http.StatusMovedPermanently,
		http.StatusFound,
		http.StatusSeeOther,
		http.StatusTemporaryRedirect,
		http.StatusPermanentRedirect:
		return h.Location != ""
	}

	return false
}

// HopFetcher probes single URLs for redirect signals with redirect-following
// disabled. It tries HEAD first and falls back to GET when permitted, and
// rate-limits outbound requests globally and per domain.
type HopFetcher struct {
	client         *http.Client
	userAgent      string
	globalLimiter  *rate.Limiter
	domainLimiters map[string]*rate.Limiter
	mu             sync.RWMutex
}

func NewHopFetcher(rps float64, timeout time.Duration, userAgent string) *HopFetcher {
	if timeout <= 0 {
		timeout = defaultHopTimeoutSeconds * time.Second
	}

	if rps <= 0 {
		rps = 2
	}

	if userAgent == "" {
		userAgent = "LinkResolver/1.0 (Feed Link Canonicalizer)"
	}

	return &HopFetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(_ *http.Request, _ []*http.Request) error {
				// The resolver walks the chain itself, one hop at a time.
				return http.ErrUseLastResponse
			},
		},
		userAgent:      userAgent,
		globalLimiter:  rate.NewLimiter(rate.Limit(rps), globalLimiterBurst),
		domainLimiters: make(map[string]*rate.Limiter),
	}
}

// FetchHop performs one redirect probe. allowGetFallback permits falling back
// to a full-body GET when the lightweight HEAD fails; per the hop protocol
// that is only enabled on the first hop.
func (f *HopFetcher) FetchHop(ctx context.Context, rawURL string, allowGetFallback bool) (*HopResult, error) {
	if err := f.globalLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("global rate limiter wait: %w", err)
	}

	if err := f.domainLimiter(ExtractDomain(rawURL)).Wait(ctx); err != nil {
		return nil, fmt.Errorf("domain rate limiter wait: %w", err)
	}

	result, err := f.probe(ctx, http.MethodHead, rawURL)
	if err == nil {
		return result, nil
	}

	if !allowGetFallback {
		return nil, err
	}

	return f.probe(ctx, http.MethodGet, rawURL)
}

func (f *HopFetcher) probe(ctx context.Context, method, rawURL string) (*HopResult, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.CodeBadRequest, err, "create hop request")
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Classify(err, "hop request")
	}

	defer resp.Body.Close()

	// HEAD bodies are empty; GET bodies are drained so the connection
	// can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes)) //nolint:errcheck // drain is best-effort

	if resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented {
		return nil, errors.New(errors.CodeBadRequest, fmt.Sprintf("method %s rejected: %d", method, resp.StatusCode), "hop request")
	}

	if statusErr := errors.ClassifyStatus(resp.StatusCode, "hop request"); statusErr != nil {
		return nil, statusErr
	}

	return &HopResult{
		StatusCode: resp.StatusCode,
		Location:   strings.TrimSpace(resp.Header.Get("Location")),
	}, nil
}

func (f *HopFetcher) domainLimiter(domain string) *rate.Limiter {
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
