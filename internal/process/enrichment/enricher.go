// Package enrichment turns bare link URLs into displayable metadata.
//
// A chain of backends is consulted in order of fidelity: article
// extraction from the fetched page, a remote rendering service for
// script-heavy pages, a paid extraction API, an LLM guess from the URL
// alone, and finally a deterministic title derived from the URL path.
// The chain always produces a non-empty title.
package enrichment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/newsfold/linkresolver/internal/platform/observability"
	"github.com/newsfold/linkresolver/internal/titles"
)

// Enrichment source names, reported in results and metrics.
const (
	SourcePreexisting = "preexisting"
	SourceReadability = "readability"
	SourceReader      = "reader"
	SourcePremium     = "premium"
	SourceLLM         = "llm"
	SourceURLFormat   = "url_format"
)

// Result statuses. Success means a real extraction produced the title;
// fallback means the title was synthesized without seeing the page.
const (
	StatusSuccess  = "success"
	StatusFallback = "fallback"
)

const (
	logKeyURL    = "url"
	logKeySource = "source"
	logKeyReason = "reason"
)

// Metadata is what a single backend managed to learn about a page.
type Metadata struct {
	Title       string
	Description string
	Author      string
	ImageURL    string
	PublishedAt time.Time
}

// Backend is one tier of the enrichment chain.
type Backend interface {
	// Name identifies the backend in results, logs and metrics.
	Name() string
	// Available reports whether the backend is configured to run.
	Available() bool
	// Attempt tries to produce metadata for the page. A nil Metadata or a
	// blocked title advances the chain to the next backend.
	Attempt(ctx context.Context, pageURL, domain string) (*Metadata, error)
}

// Result is the outcome of enriching one link.
type Result struct {
	Status      string
	Source      string
	Title       string
	Description string
	Author      string
	ImageURL    string
	PublishedAt time.Time
}

// Enricher runs the backend chain for a link.
type Enricher struct {
	backends []Backend
	logger   *zerolog.Logger
}

func New(logger *zerolog.Logger, backends ...Backend) *Enricher {
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}

	return &Enricher{backends: backends, logger: logger}
}

// Enrich produces metadata for pageURL. The returned title is never
// empty: when every extraction backend fails, the URL itself is formatted
// into a readable title. A preexisting title, when sane, short-circuits
// the chain.
func (e *Enricher) Enrich(ctx context.Context, pageURL, domain, preexistingTitle string) Result {
	if title, ok := usableTitle(preexistingTitle); ok {
		observability.EnrichmentsTotal.WithLabelValues(SourcePreexisting, StatusSuccess).Inc()

		return Result{Status: StatusSuccess, Source: SourcePreexisting, Title: title}
	}

	var best *Metadata

	for _, backend := range e.backends {
		if !backend.Available() {
			continue
		}

		meta, err := e.attempt(ctx, backend, pageURL, domain)
		if err != nil {
			e.logger.Debug().Err(err).
				Str(logKeyURL, pageURL).
				Str(logKeySource, backend.Name()).
				Msg("enrichment backend failed")
			observability.EnrichmentTierFailures.WithLabelValues(backend.Name()).Inc()

			continue
		}

		if meta == nil {
			observability.EnrichmentTierFailures.WithLabelValues(backend.Name()).Inc()

			continue
		}

		title, ok := usableTitle(meta.Title)
		if !ok {
			// Keep the richest secondary metadata seen so far even when the
			// title is unusable.
			if best == nil {
				best = meta
			}

			observability.EnrichmentTierFailures.WithLabelValues(backend.Name()).Inc()

			continue
		}

		meta.Title = title
		result := resultFrom(backend.Name(), meta)
		mergeSecondary(&result, best)
		observability.EnrichmentsTotal.WithLabelValues(result.Source, result.Status).Inc()

		return result
	}

	// Unreachable when the chain is built with the URL formatting backend
	// last, but a final synthesized title keeps the guarantee regardless of
	// how the chain was assembled.
	title := titles.FormatURLAsTitle(pageURL, domain)
	result := Result{Status: StatusFallback, Source: SourceURLFormat, Title: title}
	mergeSecondary(&result, best)
	observability.EnrichmentsTotal.WithLabelValues(SourceURLFormat, StatusFallback).Inc()

	return result
}

// EnrichBatch enriches every URL independently. A panic in one item never
// affects the rest of the batch.
func (e *Enricher) EnrichBatch(ctx context.Context, items []BatchItem) []Result {
	results := make([]Result, len(items))

	for i, item := range items {
		results[i] = e.enrichGuarded(ctx, item)
	}

	return results
}

// BatchItem is one unit of work for EnrichBatch.
type BatchItem struct {
	URL              string
	Domain           string
	PreexistingTitle string
}

func (e *Enricher) enrichGuarded(ctx context.Context, item BatchItem) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().
				Str(logKeyURL, item.URL).
				Interface("panic", r).
				Msg("enrichment panicked")

			title := titles.FormatURLAsTitle(item.URL, item.Domain)
			result = Result{Status: StatusFallback, Source: SourceURLFormat, Title: title}
		}
	}()

	return e.Enrich(ctx, item.URL, item.Domain, item.PreexistingTitle)
}

func (e *Enricher) attempt(ctx context.Context, backend Backend, pageURL, domain string) (meta *Metadata, err error) {
	defer func() {
		if r := recover(); r != nil {
			meta = nil
			err = fmt.Errorf("backend %s panicked: %v", backend.Name(), r)
		}
	}()

	return backend.Attempt(ctx, pageURL, domain)
}

// usableTitle sanitizes a raw title and rejects blocked ones.
func usableTitle(raw string) (string, bool) {
	title := strings.TrimSpace(titles.StripPublicationSuffix(titles.CleanTitle(raw)))

	if _, blocked := titles.IsBlockedTitle(title); blocked {
		return "", false
	}

	return title, true
}

func resultFrom(source string, meta *Metadata) Result {
	status := StatusSuccess
	if source == SourceLLM || source == SourceURLFormat {
		status = StatusFallback
	}

	return Result{
		Status:      status,
		Source:      source,
		Title:       meta.Title,
		Description: meta.Description,
		Author:      meta.Author,
		ImageURL:    meta.ImageURL,
		PublishedAt: meta.PublishedAt,
	}
}

// mergeSecondary fills description, author, image and date from an earlier
// tier that produced them without a usable title.
func mergeSecondary(result *Result, fallback *Metadata) {
	if fallback == nil {
		return
	}

	if result.Description == "" {
		result.Description = fallback.Description
	}

	if result.Author == "" {
		result.Author = fallback.Author
	}

	if result.ImageURL == "" {
		result.ImageURL = fallback.ImageURL
	}

	if result.PublishedAt.IsZero() {
		result.PublishedAt = fallback.PublishedAt
	}
}
