package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const sampleYAML = `
service:
  admin_port: 9090
temporal:
  host_port: temporal:7233
  namespace: research
provider:
  base_url: http://searx:8888
  timeout: 10s
  max_results: 5
  requests_per_sec: 2
redis:
  enabled: true
  addr: redis:6379
  ttl: 5m
logging:
  level: debug
  format: console
modes:
  quality:
    zero_streak_limit: 5
  balanced:
    max_rounds: 8
  warp: # unknown modes are ignored downstream
    max_rounds: 99
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fathom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadReadsFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Service.AdminPort)
	assert.Equal(t, "temporal:7233", cfg.Temporal.HostPort)
	assert.Equal(t, "research", cfg.Temporal.Namespace)
	assert.Equal(t, "http://searx:8888", cfg.Provider.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Provider.Timeout)
	assert.Equal(t, 5, cfg.Provider.MaxResults)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Defaults fill unspecified keys.
	assert.Equal(t, "en", cfg.Provider.Language)
	assert.Equal(t, 15*time.Second, cfg.Service.GracefulTimeout)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Service.AdminPort)
	assert.Equal(t, "localhost:7233", cfg.Temporal.HostPort)
	assert.Equal(t, "http://localhost:8888", cfg.Provider.BaseURL)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadMalformedFile(t *testing.T) {
	_, err := Load(writeConfig(t, "provider: [not, a, map"))
	require.Error(t, err)
}

func TestModeOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	ov := cfg.ModeOverrides()
	assert.Equal(t, 5, ov["quality"].ZeroStreakLimit)
	assert.Equal(t, 8, ov["balanced"].MaxRounds)
	assert.Contains(t, ov, "warp") // passed through; the mode table drops it
}

func TestManagerReloadAppliesHandlers(t *testing.T) {
	path := writeConfig(t, sampleYAML)
	m, err := NewManager(path, zaptest.NewLogger(t))
	require.NoError(t, err)

	var seen []int
	m.OnReload(func(cfg *Config) { seen = append(seen, cfg.Service.AdminPort) })
	require.Equal(t, []int{9090}, seen) // invoked once with the current config

	require.NoError(t, os.WriteFile(path, []byte("service:\n  admin_port: 7070\n"), 0o644))
	m.reload()

	assert.Equal(t, []int{9090, 7070}, seen)
	assert.Equal(t, 7070, m.Current().Service.AdminPort)
}

func TestManagerReloadKeepsPreviousOnError(t *testing.T) {
	path := writeConfig(t, sampleYAML)
	m, err := NewManager(path, zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("provider: [broken"), 0o644))
	m.reload()

	assert.Equal(t, 9090, m.Current().Service.AdminPort)
}
