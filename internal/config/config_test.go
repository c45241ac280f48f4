package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"GITHUB_TOKEN", "DATA_DIR", "FULL_SCAN", "REQUEST_TIMEOUT", "MAX_RETRIES", "FETCH_CONCURRENCY", "STORAGE_TYPE"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.DataDir)
	assert.False(t, cfg.FullScan)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 3, cfg.FetchConcurrency)
	assert.Equal(t, "none", cfg.StorageType)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "ghp_test")
	t.Setenv("ECOSYSTEM_USER", "octocat")
	t.Setenv("DATA_DIR", "/tmp/eco")
	t.Setenv("FULL_SCAN", "true")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("MAX_RETRIES", "0")
	t.Setenv("STORAGE_TYPE", "sqlite")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ghp_test", cfg.GitHubToken)
	assert.Equal(t, "octocat", cfg.EcosystemUser)
	assert.Equal(t, "/tmp/eco", cfg.DataDir)
	assert.True(t, cfg.FullScan)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 0, cfg.MaxRetries)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			GitHubToken:      "token",
			DataDir:          "data",
			RequestTimeout:   time.Second,
			FetchConcurrency: 1,
			StorageType:      "none",
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"missing token", func(c *Config) { c.GitHubToken = "" }, "GITHUB_TOKEN"},
		{"missing data dir", func(c *Config) { c.DataDir = "" }, "DATA_DIR"},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }, "REQUEST_TIMEOUT"},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }, "MAX_RETRIES"},
		{"no workers", func(c *Config) { c.FetchConcurrency = 0 }, "FETCH_CONCURRENCY"},
		{"unknown storage", func(c *Config) { c.StorageType = "mysql" }, "STORAGE_TYPE"},
		{"postgres without url", func(c *Config) { c.StorageType = "postgres" }, "POSTGRES_URL"},
	}

	assert.NoError(t, valid().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.env")
	require.NoError(t, os.WriteFile(path, []byte("ECOSYSTEM_SNAPSHOT_TEST_USER=hubot\nFULL_SCAN=true\n"), 0o600))
	t.Setenv("FULL_SCAN", "")
	t.Cleanup(func() { os.Unsetenv("ECOSYSTEM_SNAPSHOT_TEST_USER") })

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hubot", os.Getenv("ECOSYSTEM_SNAPSHOT_TEST_USER"))
	assert.False(t, cfg.FullScan, "existing environment wins over the file")

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}
