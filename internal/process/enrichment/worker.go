package enrichment

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/newsfold/linkresolver/internal/core/canonical"
	"github.com/newsfold/linkresolver/internal/platform/observability"
	db "github.com/newsfold/linkresolver/internal/storage"
	"github.com/newsfold/linkresolver/internal/titles"
)

const (
	defaultBatchSize     = 10
	defaultMaxAttempts   = 3
	defaultPollInterval  = 10 * time.Second
	defaultAuditInterval = 6 * time.Hour
	defaultAuditLimit    = 500

	logKeyLinkID  = "link_id"
	logKeyBatch   = "batch"
	logKeyCount   = "count"
	logKeyBlocked = "blocked"
)

// Repository is the storage surface the worker needs.
type Repository interface {
	ClaimPendingLinks(ctx context.Context, limit, maxAttempts int) ([]db.Link, error)
	SaveEnrichment(ctx context.Context, id string, update db.EnrichmentUpdate) error
	MarkEnrichmentFailed(ctx context.Context, id, errMsg string) error
	ListEnrichedTitles(ctx context.Context, limit int) ([]db.Link, error)
	ResetEnrichment(ctx context.Context, ids []string) (int64, error)
}

// Canonicalizer resolves a raw URL to its canonical form.
type Canonicalizer interface {
	Canonicalize(ctx context.Context, rawURL string) canonical.ResolutionResult
}

// WorkerOptions tune the polling loop.
type WorkerOptions struct {
	BatchSize     int
	MaxAttempts   int
	PollInterval  time.Duration
	AuditInterval time.Duration
}

func (o *WorkerOptions) defaults() {
	if o.BatchSize <= 0 {
		o.BatchSize = defaultBatchSize
	}

	if o.MaxAttempts <= 0 {
		o.MaxAttempts = defaultMaxAttempts
	}

	if o.PollInterval <= 0 {
		o.PollInterval = defaultPollInterval
	}

	if o.AuditInterval <= 0 {
		o.AuditInterval = defaultAuditInterval
	}
}

// Worker drains pending links: canonicalize, enrich, persist. It also
// periodically audits stored titles and resets links whose titles match a
// blocked pattern that was added after they were enriched.
type Worker struct {
	repo          Repository
	canonicalizer Canonicalizer
	enricher      *Enricher
	opts          WorkerOptions
	logger        *zerolog.Logger
}

func NewWorker(repo Repository, canonicalizer Canonicalizer, enricher *Enricher, opts WorkerOptions, logger *zerolog.Logger) *Worker {
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}

	opts.defaults()

	return &Worker{
		repo:          repo,
		canonicalizer: canonicalizer,
		enricher:      enricher,
		opts:          opts,
		logger:        logger,
	}
}

func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().
		Int(logKeyBatch, w.opts.BatchSize).
		Dur("poll_interval", w.opts.PollInterval).
		Msg("enrichment worker starting")

	lastAudit := time.Now()

	for {
		if err := w.ProcessBatch(ctx); err != nil {
			w.logger.Error().Err(err).Msg("process batch failed")
		}

		if time.Since(lastAudit) >= w.opts.AuditInterval {
			w.AuditBlockedTitles(ctx)

			lastAudit = time.Now()
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("enrichment worker: %w", ctx.Err())
		case <-time.After(w.opts.PollInterval):
		}
	}
}

// ProcessBatch claims and enriches one batch of pending links.
func (w *Worker) ProcessBatch(ctx context.Context) error {
	links, err := w.repo.ClaimPendingLinks(ctx, w.opts.BatchSize, w.opts.MaxAttempts)
	if err != nil {
		return fmt.Errorf("claim pending links: %w", err)
	}

	if len(links) > 0 {
		w.logger.Debug().Int(logKeyCount, len(links)).Msg("claimed pending links")
	}

	for i := range links {
		w.processLink(ctx, &links[i])
	}

	return nil
}

func (w *Worker) processLink(ctx context.Context, link *db.Link) {
	resolution := w.canonicalizer.Canonicalize(ctx, link.URL)

	domain := resolution.Domain
	if domain == "" {
		domain = canonical.ExtractDomain(resolution.CanonicalURL)
	}

	result := w.enricher.Enrich(ctx, resolution.CanonicalURL, domain, link.FallbackTitle)

	update := db.EnrichmentUpdate{
		CanonicalURL: resolution.CanonicalURL,
		Domain:       domain,
		Title:        result.Title,
		Description:  result.Description,
		Author:       result.Author,
		ImageURL:     result.ImageURL,
		PublishedAt:  result.PublishedAt,
		Source:       result.Source,
	}

	if err := w.repo.SaveEnrichment(ctx, link.ID, update); err != nil {
		w.logger.Error().Err(err).
			Str(logKeyLinkID, link.ID).
			Str(logKeyURL, link.URL).
			Msg("save enrichment failed")

		if failErr := w.repo.MarkEnrichmentFailed(ctx, link.ID, err.Error()); failErr != nil {
			w.logger.Error().Err(failErr).Str(logKeyLinkID, link.ID).Msg("mark enrichment failed errored")
		}

		return
	}

	w.logger.Debug().
		Str(logKeyLinkID, link.ID).
		Str(logKeyURL, link.URL).
		Str(logKeySource, result.Source).
		Msg("link enriched")
}

// AuditBlockedTitles resets enriched links whose stored title now matches
// a blocked pattern, forcing re-enrichment with a fresh attempt budget.
func (w *Worker) AuditBlockedTitles(ctx context.Context) {
	links, err := w.repo.ListEnrichedTitles(ctx, defaultAuditLimit)
	if err != nil {
		w.logger.Error().Err(err).Msg("list enriched titles failed")

		return
	}

	var blocked []string

	for i := range links {
		if reason, isBlocked := titles.IsBlockedTitle(links[i].Title); isBlocked {
			w.logger.Info().
				Str(logKeyLinkID, links[i].ID).
				Str(logKeyReason, reason).
				Msg("stored title is blocked, resetting")

			blocked = append(blocked, links[i].ID)
		}
	}

	if len(blocked) == 0 {
		return
	}

	count, err := w.repo.ResetEnrichment(ctx, blocked)
	if err != nil {
		w.logger.Error().Err(err).Msg("reset enrichment failed")

		return
	}

	observability.BlockedTitleResets.Add(float64(count))
	w.logger.Info().Int64(logKeyBlocked, count).Msg("blocked titles reset")
}
