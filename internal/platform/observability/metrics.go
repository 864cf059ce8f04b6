package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkresolver_resolutions_total",
		Help: "The total number of URL canonicalizations by status",
	}, []string{"status"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkresolver_cache_lookups_total",
		Help: "Resolution cache lookups by outcome (memory, durable, miss)",
	}, []string{"outcome"})

	RedirectHops = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "linkresolver_redirect_hops",
		Help:    "Number of redirect hops taken per resolution",
		Buckets: []float64{1, 2, 3, 4, 5},
	})

	EnrichmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkresolver_enrichments_total",
		Help: "The total number of title enrichments by source tier and status",
	}, []string{"source", "status"})

	EnrichmentTierFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkresolver_enrichment_tier_failures_total",
		Help: "Enrichment tier attempts that advanced to the next tier",
	}, []string{"source"})

	SweepDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkresolver_cache_sweep_deleted_total",
		Help: "Expired durable cache entries deleted by sweeps",
	})

	BlockedTitleResets = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkresolver_blocked_title_resets_total",
		Help: "Links reset to pending because their stored title was blocked",
	})

	FetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "linkresolver_fetch_duration_seconds",
		Help:    "Duration of outbound fetches by consumer",
		Buckets: prometheus.DefBuckets,
	}, []string{"consumer"})
)
