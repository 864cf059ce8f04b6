package canonical

import (
	"context"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/newsfold/linkresolver/internal/core/retry"
	"github.com/newsfold/linkresolver/internal/platform/observability"
)

// maxRedirectHops bounds the redirect walk. Exceeding it is treated as a
// soft success: the URL reached at the final permitted hop wins.
const maxRedirectHops = 5

const logKeyURL = "url"

// RedirectResolver walks a bounded redirect chain, short-circuiting hops via
// the wrapper-pattern table wherever the destination can be read without
// network I/O.
type RedirectResolver struct {
	fetcher *HopFetcher
	policy  retry.Policy
	logger  *zerolog.Logger
}

func NewRedirectResolver(fetcher *HopFetcher, logger *zerolog.Logger) *RedirectResolver {
	return &RedirectResolver{
		fetcher: fetcher,
		policy:  retry.Brisk(),
		logger:  logger,
	}
}

// Resolve follows redirects from startURL and returns the final URL reached,
// appending every visited URL to chain. It never fails: loops, exhausted hop
// budgets, and unresolvable hosts all terminate with the best URL known so
// far.
func (r *RedirectResolver) Resolve(ctx context.Context, startURL string, chain *[]string) string {
	current := startURL
	visited := map[string]bool{}

	for hop := 0; hop < maxRedirectHops; hop++ {
		if visited[current] {
			r.logger.Debug().Str(logKeyURL, current).Msg("redirect loop detected, stopping")
			return current
		}

		visited[current] = true

		// Zero-network extraction beats an HTTP round trip.
		if dest := TryExtractDestination(current); dest != "" {
			current = dest
			*chain = append(*chain, current)

			continue
		}

		// A URL matching no wrapper shape after at least one hop is the
		// destination; probing it would only add latency.
		if hop > 0 && Match(current) == nil {
			return current
		}

		result, err := retry.Do(ctx, r.policy, "redirect hop", func(ctx context.Context) (*HopResult, error) {
			return r.fetcher.FetchHop(ctx, current, hop == 0)
		})
		if err != nil {
			r.logger.Debug().Err(err).Str(logKeyURL, current).Msg("hop fetch failed, keeping best-known url")
			return current
		}

		if !result.Redirected() {
			return current
		}

		next := resolveLocation(current, result.Location)
		if next == "" {
			return current
		}

		observability.RedirectHops.Observe(float64(hop + 1))

		current = next
		*chain = append(*chain, current)
	}

	r.logger.Info().Str(logKeyURL, current).Int("max_hops", maxRedirectHops).Msg("redirect hop budget exhausted, using last hop")

	return current
}

// resolveLocation resolves a Location header value relative to the current
// URL, returning "" when it cannot produce an absolute http(s) URL.
func resolveLocation(current, location string) string {
	base, err := url.Parse(current)
	if err != nil {
		return ""
	}

	ref, err := url.Parse(location)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}

	return resolved.String()
}
