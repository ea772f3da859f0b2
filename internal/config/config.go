// Package config loads application configuration from the environment and
// optional .env files.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Issuer is the business identity block printed on every invoice.
type Issuer struct {
	Name         string
	Tagline      string
	GSTIN        string
	PAN          string
	Phone        string
	Jurisdiction string
}

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string
	LogFormat          string
	LogLevel           string
	RunMigrations      bool

	Issuer Issuer

	// Chrome renderer
	ChromeRemoteURL string
	ChromeNoSandbox bool
	RenderTimeout   time.Duration
	InvoiceCacheTTL time.Duration

	// queue
	QueuePrefix            string
	QueueConcurrency       int
	QueueVisibilityTimeout time.Duration
	QueueRetryBase         time.Duration
	QueueDedupTTL          time.Duration

	// rate limiting on render endpoints
	RenderRateWindow time.Duration
	RenderRateMax    int

	// observability
	MetricsBuckets string
	OTLPEndpoint   string
	ServiceName    string
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		LogFormat:          valueOrDefault(k.String("LOG_FORMAT"), "json"),
		LogLevel:           valueOrDefault(k.String("LOG_LEVEL"), "info"),
		RunMigrations:      parseBool(k.String("RUN_MIGRATIONS")),

		Issuer: Issuer{
			Name:         valueOrDefault(k.String("ISSUER_NAME"), "KUNTALAGRO AGENCIES"),
			Tagline:      valueOrDefault(k.String("ISSUER_TAGLINE"), "Farm & Garden Solutions"),
			GSTIN:        valueOrDefault(k.String("ISSUER_GSTIN"), "07AABCU9603R1Z2"),
			PAN:          valueOrDefault(k.String("ISSUER_PAN"), "AABCU9603R"),
			Phone:        valueOrDefault(k.String("ISSUER_PHONE"), "+91 8586845185"),
			Jurisdiction: valueOrDefault(k.String("ISSUER_JURISDICTION"), "Gurgaon"),
		},

		ChromeRemoteURL: strings.TrimSpace(k.String("CHROME_REMOTE_URL")),
		ChromeNoSandbox: parseBool(k.String("CHROME_NO_SANDBOX")),
		RenderTimeout:   parseDuration(k.String("RENDER_TIMEOUT"), "30s"),
		InvoiceCacheTTL: parseDuration(k.String("INVOICE_CACHE_TTL"), "24h"),

		QueuePrefix:            valueOrDefault(k.String("QUEUE_PREFIX"), "store"),
		QueueConcurrency:       parseInt(k.String("QUEUE_CONCURRENCY"), 2),
		QueueVisibilityTimeout: parseDuration(k.String("QUEUE_VISIBILITY_TIMEOUT"), "60s"),
		QueueRetryBase:         parseDuration(k.String("QUEUE_RETRY_BASE"), "500ms"),
		QueueDedupTTL:          parseDuration(k.String("QUEUE_DEDUP_TTL"), "10m"),

		RenderRateWindow: parseDuration(k.String("RENDER_RATE_WINDOW"), "1m"),
		RenderRateMax:    parseInt(k.String("RENDER_RATE_MAX"), 30),

		MetricsBuckets: strings.TrimSpace(k.String("METRICS_BUCKETS")),
		OTLPEndpoint:   strings.TrimSpace(k.String("OTLP_ENDPOINT")),
		ServiceName:    valueOrDefault(k.String("SERVICE_NAME"), "backend-store"),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	var n int
	if _, err := fmt.Sscanf(trimmed, "%d", &n); err != nil || n <= 0 {
		return fallback
	}
	return n
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
