package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DATABASE_URL", "AXIE_API_URL", "AXIE_API_TIMEOUT", "COLLECT_INTERVAL",
		"HTTP_ADDR", "API_TOKEN", "LOG_LEVEL", "EXPORT_DIR", "EXPORT_BUCKET",
		"EXPORT_ENDPOINT", "EXPORT_REGION",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.False(t, cfg.DotenvLoaded)
	assert.Equal(t, DefaultDatabaseURL, cfg.DatabaseURL)
	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, DefaultAPITimeout, cfg.APITimeout)
	assert.Equal(t, DefaultCollectInterval, cfg.CollectInterval)
	assert.Equal(t, DefaultHTTPAddr, cfg.HTTPAddr)
	assert.Equal(t, DefaultExportDir, cfg.Export.Dir)
	assert.Empty(t, cfg.Export.Bucket)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://tracker@localhost/tracker")
	t.Setenv("AXIE_API_URL", "http://localhost:9000/api/")
	t.Setenv("AXIE_API_TIMEOUT", "5s")
	t.Setenv("COLLECT_INTERVAL", "6h")
	t.Setenv("EXPORT_BUCKET", "reports")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "postgres://tracker@localhost/tracker", cfg.DatabaseURL)
	assert.Equal(t, "http://localhost:9000/api", cfg.APIURL, "trailing slash trimmed")
	assert.Equal(t, 5*time.Second, cfg.APITimeout)
	assert.Equal(t, 6*time.Hour, cfg.CollectInterval)
	assert.Equal(t, "reports", cfg.Export.Bucket)
}

func TestLoad_DotenvFile(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("API_TOKEN")
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("API_TOKEN=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("API_TOKEN") })

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.DotenvLoaded)
	assert.Equal(t, "from-file", cfg.APIToken)
}

func TestLoad_BadDuration(t *testing.T) {
	t.Run("unparseable", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("COLLECT_INTERVAL", "daily")
		_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
		assert.ErrorContains(t, err, "COLLECT_INTERVAL")
	})

	t.Run("not positive", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("AXIE_API_TIMEOUT", "0s")
		_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
		assert.ErrorContains(t, err, "AXIE_API_TIMEOUT")
	})
}
