// Package config provides configuration loading and management for the scanner.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Which market-data provider to use: "eastmoney" or "static"
	Provider string

	// Directory holding listing/NAV fixtures for the static provider
	StaticDataDir string

	// Base URLs for the Eastmoney endpoints
	ListingURL string
	NavURL     string

	// Optional cap on instruments processed per run; 0 means no cap
	MaxInstruments int

	// Enrichment pool size
	WorkerCount int

	// Codes to highlight in the report, in order
	Watchlist []string

	// Retry settings for the application-level retrying caller
	MaxRetries        int
	ListingRetryDelay time.Duration
	NavRetryDelay     time.Duration

	// Per-request HTTP timeout
	RequestTimeout time.Duration

	// Rate limiting toward the provider
	RateLimitRPS   float64
	RateLimitBurst int

	// Provider-health circuit breaker; threshold 0 disables it
	BreakerThreshold int
	BreakerCooldown  time.Duration

	// Number of records in the report's top section
	TopN int

	// Optional addresses/endpoints for observability and export
	MetricsAddr  string
	OtelEndpoint string
	WebhookURL   string

	// Heuristic policy data (keyword lists, price bounds)
	Policy Policy
}

// Load creates a new Config from environment variables, pulling the
// heuristic policy from POLICY_FILE when set.
func Load() (Config, error) {
	cfg := Config{
		Provider:          strings.ToLower(GetEnvOrDefault("PROVIDER", "eastmoney")),
		StaticDataDir:     GetEnvOrDefault("STATIC_DATA_DIR", "testdata"),
		ListingURL:        GetEnvOrDefault("LISTING_URL", "https://push2.eastmoney.com/api/qt/clist/get"),
		NavURL:            GetEnvOrDefault("NAV_URL", "https://api.fund.eastmoney.com/f10/lsjz"),
		MaxInstruments:    GetEnvAsInt("MAX_INSTRUMENTS", 0),
		WorkerCount:       GetEnvAsInt("WORKER_COUNT", 1),
		Watchlist:         GetEnvAsList("WATCHLIST", []string{"161116", "160723", "161129"}),
		MaxRetries:        GetEnvAsInt("MAX_RETRIES", 3),
		ListingRetryDelay: GetEnvAsDuration("LISTING_RETRY_DELAY", 2*time.Second),
		NavRetryDelay:     GetEnvAsDuration("NAV_RETRY_DELAY", 1*time.Second),
		RequestTimeout:    GetEnvAsDuration("REQUEST_TIMEOUT", 10*time.Second),
		RateLimitRPS:      GetEnvAsFloat("RATE_LIMIT_RPS", 5.0),
		RateLimitBurst:    GetEnvAsInt("RATE_LIMIT_BURST", 5),
		BreakerThreshold:  GetEnvAsInt("BREAKER_THRESHOLD", 10),
		BreakerCooldown:   GetEnvAsDuration("BREAKER_COOLDOWN", 30*time.Second),
		TopN:              GetEnvAsInt("TOP_N", 5),
		MetricsAddr:       GetEnvOrDefault("METRICS_ADDR", ""),
		OtelEndpoint:      GetEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		WebhookURL:        GetEnvOrDefault("REPORT_WEBHOOK_URL", ""),
		Policy:            DefaultPolicy(),
	}

	if path := os.Getenv("POLICY_FILE"); path != "" {
		policy, err := LoadPolicy(path)
		if err != nil {
			return Config{}, fmt.Errorf("loading policy file: %w", err)
		}
		cfg.Policy = policy
	}

	return cfg, nil
}

// Validate normalizes and checks the configuration. The worker count is an
// explicit knob, not a hidden default: anything below 1 is rejected rather
// than silently serialized.
func (c *Config) Validate() error {
	switch c.Provider {
	case "eastmoney", "static":
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}

	if c.WorkerCount < 1 {
		return fmt.Errorf("worker count must be >= 1, got %d", c.WorkerCount)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must be >= 0, got %d", c.MaxRetries)
	}
	if c.MaxInstruments < 0 {
		return fmt.Errorf("max instruments must be >= 0, got %d", c.MaxInstruments)
	}
	if c.TopN < 1 {
		return fmt.Errorf("top-n must be >= 1, got %d", c.TopN)
	}
	if c.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit must be positive, got %f", c.RateLimitRPS)
	}
	if c.RateLimitBurst < 1 {
		c.RateLimitBurst = 1
	}

	return c.Policy.Validate()
}

// GetEnv retrieves an environment variable and whether it exists.
func GetEnv(key string) (string, bool) {
	value, exists := os.LookupEnv(key)
	return value, exists
}

// GetEnvOrDefault retrieves an environment variable or returns the default value if not set.
func GetEnvOrDefault(key, defaultValue string) string {
	if value, exists := GetEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvAsInt retrieves an environment variable as an integer with a default value.
func GetEnvAsInt(key string, defaultValue int) int {
	if value, exists := GetEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvAsFloat retrieves an environment variable as a float with a default value.
func GetEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := GetEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// GetEnvAsDuration retrieves an environment variable as a duration with a default value.
func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := GetEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// GetEnvAsList retrieves a comma-separated environment variable as a string slice.
func GetEnvAsList(key string, defaultValue []string) []string {
	value, exists := GetEnv(key)
	if !exists {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
