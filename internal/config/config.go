// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/ingest.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Table names: single source of truth, matches internal/db/migrations
// --------------------------------------------------------------------------

const (
	StationsTable     = "fuel_stations"
	PriceHistoryTable = "fuel_price_history"
)

// --------------------------------------------------------------------------
// Config struct: populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Cache
	CacheEnabled bool

	// Ingestion
	Providers        []string // empty means every registered provider
	DefaultCountry   string
	FetchTimeout     time.Duration
	FetchConcurrency int
	BreakerFailures  int
	BreakerCooldown  time.Duration
	ScheduleInterval time.Duration
	MetricsAddr      string
}

// Load reads configuration from environment variables with sensible defaults.
// DATABASE_URL is not required here; commands that touch Postgres check it
// through RequireDatabase.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:    envOr("DATABASE_URL", ""),
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		CacheEnabled: envBool("CACHE_ENABLED", true),

		Providers:        envList("FUEL_PROVIDERS", nil),
		DefaultCountry:   strings.ToUpper(envOr("FUEL_DEFAULT_COUNTRY", "GB")),
		FetchTimeout:     envDuration("FUEL_FETCH_TIMEOUT", 10*time.Second),
		FetchConcurrency: envInt("FUEL_FETCH_CONCURRENCY", 4),
		BreakerFailures:  envInt("FUEL_BREAKER_FAILURES", 3),
		BreakerCooldown:  envDuration("FUEL_BREAKER_COOLDOWN", 6*time.Hour),
		ScheduleInterval: envDuration("FUEL_SCHEDULE_INTERVAL", 10*time.Minute),
		MetricsAddr:      envOr("METRICS_ADDR", ":9102"),
	}

	if cfg.FetchConcurrency < 1 {
		return nil, fmt.Errorf("FUEL_FETCH_CONCURRENCY must be at least 1, got %d", cfg.FetchConcurrency)
	}
	if cfg.FetchTimeout <= 0 {
		return nil, fmt.Errorf("FUEL_FETCH_TIMEOUT must be positive, got %s", cfg.FetchTimeout)
	}
	if cfg.BreakerFailures < 0 {
		return nil, fmt.Errorf("FUEL_BREAKER_FAILURES must not be negative, got %d", cfg.BreakerFailures)
	}
	return cfg, nil
}

// RequireDatabase returns an error when no database URL is configured.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must be set")
	}
	return nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

// envDuration accepts Go duration strings ("90s", "1h") or a bare number of
// seconds.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
