// Package app wires configuration, storage and the processing pipeline
// into runnable service modes.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/newsfold/linkresolver/internal/core/canonical"
	"github.com/newsfold/linkresolver/internal/core/rcache"
	"github.com/newsfold/linkresolver/internal/platform/config"
	"github.com/newsfold/linkresolver/internal/platform/observability"
	"github.com/newsfold/linkresolver/internal/process/enrichment"
	db "github.com/newsfold/linkresolver/internal/storage"
)

type App struct {
	cfg      *config.Config
	database *db.DB
	logger   *zerolog.Logger

	cache         *rcache.Cache
	canonicalizer *canonical.Canonicalizer
	enricher      *enrichment.Enricher
}

func New(cfg *config.Config, database *db.DB, logger *zerolog.Logger) *App {
	cache := rcache.New(database, rcache.Options{
		MemSize:  cfg.CacheMemSize,
		MemTTL:   cfg.CacheMemTTL,
		StoreTTL: cfg.CacheStoreTTL,
	}, logger)

	canonicalizer := canonical.New(cache, canonical.Options{
		FetchRPS:     cfg.WebFetchRPS,
		FetchTimeout: cfg.WebFetchTimeout,
		UserAgent:    cfg.UserAgent,
	}, logger)

	return &App{
		cfg:           cfg,
		database:      database,
		logger:        logger,
		cache:         cache,
		canonicalizer: canonicalizer,
		enricher:      buildEnricher(cfg, logger),
	}
}

func buildEnricher(cfg *config.Config, logger *zerolog.Logger) *enrichment.Enricher {
	fetcher := enrichment.NewWebFetcher(cfg.WebFetchRPS, cfg.WebFetchTimeout, cfg.UserAgent)

	return enrichment.New(logger,
		enrichment.NewReadabilityBackend(fetcher, logger),
		enrichment.NewReaderBackend(cfg.ReaderBaseURL, cfg.ReaderTimeout),
		enrichment.NewPremiumBackend(cfg.PremiumAPIURL, cfg.PremiumAPIKey, cfg.PremiumTimeout),
		enrichment.NewLLMTitleBackend(cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMRPS, logger),
		enrichment.NewURLFallbackBackend(),
	)
}

// StartHealthServer serves liveness, readiness and metrics endpoints
// until ctx is canceled.
func (a *App) StartHealthServer(ctx context.Context) error {
	server := observability.NewServer(a.database, a.cfg.HealthPort, a.logger)

	return server.Start(ctx)
}

// RunWorker runs the enrichment polling loop alongside the periodic cache
// sweep.
func (a *App) RunWorker(ctx context.Context) error {
	worker := enrichment.NewWorker(a.database, a.canonicalizer, a.enricher, enrichment.WorkerOptions{
		BatchSize:     a.cfg.WorkerBatchSize,
		MaxAttempts:   a.cfg.EnrichMaxAttempts,
		PollInterval:  a.cfg.WorkerPollInterval,
		AuditInterval: a.cfg.AuditInterval,
	}, a.logger)

	go a.runSweepLoop(ctx)

	return worker.Run(ctx)
}

func (a *App) runSweepLoop(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.cache.Sweep(ctx)
		}
	}
}

// RunSweep deletes expired durable cache entries once and exits.
func (a *App) RunSweep(ctx context.Context) error {
	deleted := a.cache.Sweep(ctx)
	a.logger.Info().Int64("deleted", deleted).Msg("cache sweep finished")

	return nil
}

// RunResolve canonicalizes and enriches a single URL and prints the
// outcome as JSON. Used for one-shot inspection from the command line.
func (a *App) RunResolve(ctx context.Context, rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("resolve mode requires -url")
	}

	resolution := a.canonicalizer.Canonicalize(ctx, rawURL)

	domain := resolution.Domain
	if domain == "" {
		domain = canonical.ExtractDomain(resolution.CanonicalURL)
	}

	result := a.enricher.Enrich(ctx, resolution.CanonicalURL, domain, "")

	out := struct {
		OriginalURL   string   `json:"original_url"`
		CanonicalURL  string   `json:"canonical_url"`
		Domain        string   `json:"domain"`
		RedirectChain []string `json:"redirect_chain,omitempty"`
		Status        string   `json:"status"`
		FromCache     bool     `json:"from_cache"`
		Title         string   `json:"title"`
		TitleSource   string   `json:"title_source"`
		Description   string   `json:"description,omitempty"`
		Author        string   `json:"author,omitempty"`
	}{
		OriginalURL:   resolution.OriginalURL,
		CanonicalURL:  resolution.CanonicalURL,
		Domain:        domain,
		RedirectChain: resolution.RedirectChain,
		Status:        string(resolution.Status),
		FromCache:     resolution.FromCache,
		Title:         result.Title,
		TitleSource:   result.Source,
		Description:   result.Description,
		Author:        result.Author,
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	return encoder.Encode(out)
}
