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
	t.Setenv("SERVER_ADDR", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("STORAGE_DRIVER", "")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, time.Second, cfg.Orchestrator.TickInterval)
	assert.Equal(t, 30*time.Minute, cfg.Orchestrator.StageTimeout)
	assert.Equal(t, 5*time.Second, cfg.Callback.Timeout)
	assert.Equal(t, 2, cfg.Callback.Retries)
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
storage:
  driver: postgres
  database_url: postgres://db/orchestrator
orchestrator:
  tick_interval: 250ms
  stage_timeout: 10m
callback:
  retries: 5
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, "postgres://db/orchestrator", cfg.Storage.DatabaseURL)
	assert.Equal(t, 250*time.Millisecond, cfg.Orchestrator.TickInterval)
	assert.Equal(t, 10*time.Minute, cfg.Orchestrator.StageTimeout)
	assert.Equal(t, 5, cfg.Callback.Retries)
	// untouched values keep their defaults
	assert.Equal(t, 5*time.Second, cfg.Callback.Timeout)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9090\"\n"), 0o644))

	t.Setenv("SERVER_ADDR", ":7070")
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://env/orchestrator")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, "postgres://env/orchestrator", cfg.Storage.DatabaseURL)
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := &Config{}
	cfg.Storage.Driver = "etcd"
	cfg.Callback.Retries = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.addr")
	assert.Contains(t, err.Error(), "storage.driver")
	assert.Contains(t, err.Error(), "tick_interval")
	assert.Contains(t, err.Error(), "stage_timeout")
	assert.Contains(t, err.Error(), "callback.retries")
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a mapping"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
