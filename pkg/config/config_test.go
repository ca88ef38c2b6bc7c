package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxorio/threadpool/pkg/core"
)

// clearEnv makes sure none of the POOL_* overrides leak in from the host,
// and restores them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"POOL_SERVER_ADDR", "POOL_STATIC_DIR", "POOL_SLEEP_DELAY",
		"POOL_SIZE", "POOL_SHUTDOWN_TIMEOUT",
		"POOL_LOG_LEVEL", "POOL_LOG_JSON",
		"POOL_METRICS_ENABLED", "POOL_METRICS_PATH",
		"POOL_SERVICE_NAME", "POOL_TRACING_EXPORTER", "POOL_TRACING_ENDPOINT",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "127.0.0.1:7878", cfg.Server.Addr)
	assert.Equal(t, 4, cfg.Pool.Size)
	assert.Equal(t, 5*time.Second, cfg.SleepDuration())
	assert.Equal(t, 30*time.Second, cfg.ShutdownDuration())
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "poolserver.yaml", `
server:
  addr: ":9000"
  sleep_delay: 250ms
pool:
  size: 16
log:
  level: DEBUG
  json: true
tracing:
  exporter: stdout
  sample_rate: 0.5
`)

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 250*time.Millisecond, cfg.SleepDuration())
	assert.Equal(t, 16, cfg.Pool.Size)
	assert.Equal(t, "30s", cfg.Pool.ShutdownTimeout, "unset keys keep their default")
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, "stdout", cfg.Tracing.Exporter)
	assert.Equal(t, 0.5, cfg.Tracing.SampleRate)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_JSON(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "poolserver.json", `{"pool": {"size": 2}, "metrics": {"enabled": false}}`)

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Pool.Size)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	clearEnv(t)

	_, err := Load(writeFile(t, "bad.yaml", "pool:\n  sizee: 3\n"), "")
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.json", `{"pool": {"sizee": 3}}`), "")
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), "")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "poolserver.yaml", "pool:\n  size: 16\n")
	t.Setenv("POOL_SIZE", "8")
	t.Setenv("POOL_LOG_JSON", "true")
	t.Setenv("POOL_SERVER_ADDR", "0.0.0.0:8080")

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Pool.Size)
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr)
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	envFile := writeFile(t, ".env", "POOL_SIZE=3\nPOOL_SLEEP_DELAY=1s\n")

	cfg, err := Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Pool.Size)
	assert.Equal(t, time.Second, cfg.SleepDuration())
}

func TestLoad_MissingDotEnvIsIgnored(t *testing.T) {
	clearEnv(t)
	_, err := Load("", filepath.Join(t.TempDir(), ".env"))
	assert.NoError(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero pool size", func(c *Config) { c.Pool.Size = 0 }},
		{"negative pool size", func(c *Config) { c.Pool.Size = -2 }},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
		{"bad sleep delay", func(c *Config) { c.Server.SleepDelay = "soon" }},
		{"bad shutdown timeout", func(c *Config) { c.Pool.ShutdownTimeout = "later" }},
		{"shutdown timeout too large", func(c *Config) { c.Pool.ShutdownTimeout = "1h" }},
		{"metrics path", func(c *Config) { c.Metrics.Path = "metrics" }},
		{"exporter", func(c *Config) { c.Tracing.Exporter = "jaeger" }},
		{"sample rate", func(c *Config) { c.Tracing.SampleRate = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, "INVALID_CONFIG", core.ErrorCode(err))
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestSaveYAMLRoundTrip(t *testing.T) {
	clearEnv(t)
	cfg := Default()
	cfg.Pool.Size = 9
	cfg.Tracing.Exporter = "zipkin"

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, SaveYAML(path, cfg))

	loaded, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, cfg))
	assert.Contains(t, buf.String(), "size: 9")
}
