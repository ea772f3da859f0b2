package config_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/greenmantra/backend-store/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"DATABASE_URL": "postgres://localhost/store",
		"REDIS_URL":    "redis://localhost:6379",
	})
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "KUNTALAGRO AGENCIES", cfg.Issuer.Name)
	require.Equal(t, "07AABCU9603R1Z2", cfg.Issuer.GSTIN)
	require.Equal(t, "AABCU9603R", cfg.Issuer.PAN)
	require.Equal(t, "Gurgaon", cfg.Issuer.Jurisdiction)
	require.Equal(t, "store", cfg.QueuePrefix)
	require.Equal(t, 2, cfg.QueueConcurrency)
	require.Equal(t, 30, cfg.RenderRateMax)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{
		"DATABASE_URL": "",
		"REDIS_URL":    "redis://localhost:6379",
	})
	require.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"DATABASE_URL":         "postgres://localhost/store",
		"REDIS_URL":            "redis://localhost:6379",
		"PORT":                 "9090",
		"ISSUER_NAME":          "OTHER TRADERS",
		"ISSUER_JURISDICTION":  "Delhi",
		"QUEUE_CONCURRENCY":    "8",
		"CORS_ALLOWED_ORIGINS": "https://a.example, https://b.example",
	})
	require.NoError(t, err)

	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.Equal(t, "OTHER TRADERS", cfg.Issuer.Name)
	require.Equal(t, "Delhi", cfg.Issuer.Jurisdiction)
	require.Equal(t, 8, cfg.QueueConcurrency)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}
