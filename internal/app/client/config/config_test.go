package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL())
	assert.Equal(t, 4, cfg.Sync.Parallelism)
	assert.Equal(t, time.Minute, cfg.Sync.Interval)
	assert.Equal(t, 2*time.Second, cfg.Sync.MinInterval)
	assert.Equal(t, 30*time.Second, cfg.Sync.PushTimeout)
	assert.False(t, cfg.Minio.Enabled())
	assert.Equal(t, "records.db", filepath.Base(cfg.DataPath))
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", "authority.example.com")
	t.Setenv("ENABLE_TLS", "true")
	t.Setenv("API_TOKEN", "secret")
	t.Setenv("SYNC_PARALLELISM", "8")
	t.Setenv("MINIO_ENDPOINT", "s3.example.com")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "https://authority.example.com", cfg.BaseURL())
	assert.Equal(t, "secret", cfg.APIToken)
	assert.Equal(t, 8, cfg.Sync.Parallelism)
	assert.True(t, cfg.Minio.Enabled())
}

func TestLoad_YAMLFileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inspectctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server_address: yaml.example.com\nsync_parallelism: 2\n"), 0o600))
	t.Setenv("SYNC_PARALLELISM", "6")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "yaml.example.com", cfg.ServerAddress)
	assert.Equal(t, 6, cfg.Sync.Parallelism)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("SYNC_PARALLELISM", "0")

	_, err := load(viper.New())
	assert.ErrorContains(t, err, "sync_parallelism")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
