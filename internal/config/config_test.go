package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alkime/lectio/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("LECTIO_API_URL", "")
	t.Setenv("LECTIO_API_RETRIES", "")

	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.APIURL)
	assert.Equal(t, 3, cfg.APIRetries)
	assert.Equal(t, 16000, cfg.SampleRate)
	assert.Equal(t, 10, cfg.HistogramBuckets)
	assert.Equal(t, "8080", cfg.Port)
}

func TestLoadConfig_Environment(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("LECTIO_API_URL", "https://lectio.example")
	t.Setenv("LECTIO_HISTOGRAM_BUCKETS", "12")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,172.16.0.0/12")

	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "https://lectio.example", cfg.APIURL)
	assert.Equal(t, 12, cfg.HistogramBuckets)
	assert.Equal(t, []string{"10.0.0.0/8", "172.16.0.0/12"}, cfg.TrustedProxies)
}

func TestLoadConfig_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("DB_PATH=from-file.db\nPORT=9999\n"), 0o600))

	t.Setenv("PORT", "7000")
	t.Setenv("DB_PATH", "")
	require.NoError(t, os.Unsetenv("DB_PATH"))

	cfg, err := config.LoadConfig(envFile)
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, "from-file.db", cfg.DBPath)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("LECTIO_HISTOGRAM_BUCKETS", "0")
	t.Setenv("LECTIO_SAMPLE_RATE", "-1")

	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LECTIO_HISTOGRAM_BUCKETS")
	assert.Contains(t, err.Error(), "LECTIO_SAMPLE_RATE")
}

func TestBuildCSP(t *testing.T) {
	t.Parallel()

	assert.Contains(t, config.BuildCSP(config.CSPStrict), "object-src 'none'")
	assert.Contains(t, config.BuildCSP("relaxed"), "'unsafe-inline'")
	assert.NotContains(t, config.BuildCSP(config.CSPStrict), "script-src 'self' 'unsafe-inline'")
}
