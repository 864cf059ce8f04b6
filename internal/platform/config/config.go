// Package config loads the process configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"local"`
	PostgresDSN string `env:"POSTGRES_DSN,required"`
	HealthPort  int    `env:"HEALTH_PORT" envDefault:"8080"`

	// Canonicalization
	WebFetchRPS     float64       `env:"WEB_FETCH_RPS" envDefault:"2"`
	WebFetchTimeout time.Duration `env:"WEB_FETCH_TIMEOUT" envDefault:"30s"`
	UserAgent       string        `env:"USER_AGENT" envDefault:""`

	// Resolution cache
	CacheMemSize  int           `env:"CACHE_MEM_SIZE" envDefault:"4096"`
	CacheMemTTL   time.Duration `env:"CACHE_MEM_TTL" envDefault:"168h"`
	CacheStoreTTL time.Duration `env:"CACHE_STORE_TTL" envDefault:"720h"`
	SweepInterval time.Duration `env:"CACHE_SWEEP_INTERVAL" envDefault:"6h"`

	// Enrichment worker
	WorkerBatchSize    int           `env:"WORKER_BATCH_SIZE" envDefault:"10"`
	WorkerPollInterval time.Duration `env:"WORKER_POLL_INTERVAL" envDefault:"10s"`
	EnrichMaxAttempts  int           `env:"ENRICH_MAX_ATTEMPTS" envDefault:"3"`
	AuditInterval      time.Duration `env:"BLOCKED_TITLE_AUDIT_INTERVAL" envDefault:"6h"`

	// Reader service (headless rendering)
	ReaderBaseURL string        `env:"READER_BASE_URL" envDefault:""`
	ReaderTimeout time.Duration `env:"READER_TIMEOUT" envDefault:"45s"`

	// Premium extraction API
	PremiumAPIURL  string        `env:"PREMIUM_API_URL" envDefault:""`
	PremiumAPIKey  string        `env:"PREMIUM_API_KEY" envDefault:""`
	PremiumTimeout time.Duration `env:"PREMIUM_TIMEOUT" envDefault:"30s"`

	// LLM title fallback
	LLMAPIKey string  `env:"LLM_API_KEY" envDefault:""`
	LLMModel  string  `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	LLMRPS    float64 `env:"LLM_RPS" envDefault:"1"`
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	return cfg, nil
}
