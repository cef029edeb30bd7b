package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envMap(nil))
	require.NoError(t, err)

	require.Equal(t, Config{
		Port:              "8082",
		CatalogURL:        DefaultCatalogURL,
		FetchTimeout:      10 * time.Second,
		PageSize:          20,
		ReloadLimitPerMin: 6,
		PlaceholderImage:  "https://via.placeholder.com/300",
		LogLevel:          "info",
		MetricsEnabled:    true,
	}, cfg)
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"PORT":                 "9000",
		"CATALOG_SOURCE_URL":   "http://feed.local/products.json",
		"CATALOG_PRODUCT_URL":  "http://feed.local/products/{id}.json",
		"FETCH_TIMEOUT":        "2s",
		"PAGE_SIZE":            " 5 ",
		"RELOAD_LIMIT_PER_MIN": "0",
		"LOG_LEVEL":            "debug",
		"METRICS_ENABLED":      "false",
		"METRICS_TOKEN":        "t0k",
	}))
	require.NoError(t, err)

	require.Equal(t, "9000", cfg.Port)
	require.Equal(t, "http://feed.local/products/{id}.json", cfg.ProductURL)
	require.Equal(t, 2*time.Second, cfg.FetchTimeout)
	require.Equal(t, 5, cfg.PageSize)
	require.Zero(t, cfg.ReloadLimitPerMin)
	require.False(t, cfg.MetricsEnabled)
	require.Equal(t, "t0k", cfg.MetricsToken)
}

func TestFromEnv_ReportsEveryBadValue(t *testing.T) {
	_, err := FromEnv(envMap(map[string]string{
		"PAGE_SIZE":       "many",
		"FETCH_TIMEOUT":   "soon",
		"METRICS_ENABLED": "maybe",
	}))
	require.Error(t, err)
	for _, k := range []string{"PAGE_SIZE", "FETCH_TIMEOUT", "METRICS_ENABLED"} {
		require.Contains(t, err.Error(), k)
	}
}

func TestValidate(t *testing.T) {
	base, err := FromEnv(envMap(nil))
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port", func(c *Config) { c.Port = "http" }, "PORT"},
		{"port range", func(c *Config) { c.Port = "70000" }, "PORT"},
		{"scheme", func(c *Config) { c.CatalogURL = "ftp://feed.local/p.json" }, "CATALOG_SOURCE_URL"},
		{"host", func(c *Config) { c.CatalogURL = "http:///p.json" }, "CATALOG_SOURCE_URL"},
		{"placeholder", func(c *Config) { c.ProductURL = "http://feed.local/p.json" }, "{id}"},
		{"timeout", func(c *Config) { c.FetchTimeout = 0 }, "FETCH_TIMEOUT"},
		{"page size", func(c *Config) { c.PageSize = 0 }, "PAGE_SIZE"},
		{"reload limit", func(c *Config) { c.ReloadLimitPerMin = -1 }, "RELOAD_LIMIT_PER_MIN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}

	require.NoError(t, base.Validate())
}

// unset clears k for the test and restores it afterwards.
func unset(t *testing.T, k string) {
	t.Helper()
	t.Setenv(k, "")
	require.NoError(t, os.Unsetenv(k))
}

func TestLoad_EnvFileDoesNotOverrideEnvironment(t *testing.T) {
	unset(t, "PAGE_SIZE")
	unset(t, "METRICS_TOKEN")
	t.Setenv("PORT", "9100")

	path := filepath.Join(t.TempDir(), ".env")
	body := strings.Join([]string{
		"PORT=9200",
		"PAGE_SIZE=7",
		"METRICS_TOKEN=from-file",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "9100", cfg.Port)
	require.Equal(t, 7, cfg.PageSize)
	require.Equal(t, "from-file", cfg.MetricsToken)
}

func TestLoad_MissingFileIsFine(t *testing.T) {
	unset(t, "PAGE_SIZE")

	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
}
