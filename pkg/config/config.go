package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"

	"github.com/fluxorio/threadpool/pkg/core"
)

// Config is the poolserver configuration.
// Values are layered: defaults, then the config file, then the .env file,
// then the process environment.
type Config struct {
	Server  ServerConfig  `yaml:"server" json:"server"`
	Pool    PoolConfig    `yaml:"pool" json:"pool"`
	Log     LogConfig     `yaml:"log" json:"log"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
	Tracing TracingConfig `yaml:"tracing" json:"tracing"`
}

// ServerConfig configures the connection listener
type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr" env:"POOL_SERVER_ADDR"`
	// StaticDir holds hello.html and 404.html; empty means built-in pages
	StaticDir string `yaml:"static_dir" json:"static_dir" env:"POOL_STATIC_DIR"`
	// SleepDelay is how long GET /sleep stalls, e.g. "5s"
	SleepDelay string `yaml:"sleep_delay" json:"sleep_delay" env:"POOL_SLEEP_DELAY"`
}

// PoolConfig configures the worker pool
type PoolConfig struct {
	Size int `yaml:"size" json:"size" env:"POOL_SIZE"`
	// ShutdownTimeout bounds how long shutdown waits before reporting
	// that jobs are still running; the wait itself continues
	ShutdownTimeout string `yaml:"shutdown_timeout" json:"shutdown_timeout" env:"POOL_SHUTDOWN_TIMEOUT"`
}

// LogConfig configures the logger
type LogConfig struct {
	Level string `yaml:"level" json:"level" env:"POOL_LOG_LEVEL"`
	JSON  bool   `yaml:"json" json:"json" env:"POOL_LOG_JSON"`
}

// MetricsConfig configures the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled" env:"POOL_METRICS_ENABLED"`
	Path    string `yaml:"path" json:"path" env:"POOL_METRICS_PATH"`
}

// TracingConfig configures OpenTelemetry
type TracingConfig struct {
	ServiceName string  `yaml:"service_name" json:"service_name" env:"POOL_SERVICE_NAME"`
	Exporter    string  `yaml:"exporter" json:"exporter" env:"POOL_TRACING_EXPORTER"`
	Endpoint    string  `yaml:"endpoint" json:"endpoint" env:"POOL_TRACING_ENDPOINT"`
	SampleRate  float64 `yaml:"sample_rate" json:"sample_rate"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:       "127.0.0.1:7878",
			SleepDelay: "5s",
		},
		Pool: PoolConfig{
			Size:            4,
			ShutdownTimeout: "30s",
		},
		Log: LogConfig{
			Level: "INFO",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Tracing: TracingConfig{
			ServiceName: "poolserver",
			Exporter:    "none",
			SampleRate:  1.0,
		},
	}
}

// Load builds a Config from path (YAML or JSON by extension, optional),
// envFile (dotenv format, skipped when missing) and the process environment.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		var err error
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json":
			err = LoadJSON(path, cfg)
		default:
			err = LoadYAML(path, cfg)
		}
		if err != nil {
			return nil, err
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	if _, err := env.UnmarshalFromEnviron(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return invalid("server.addr cannot be empty", nil)
	}
	if _, err := time.ParseDuration(c.Server.SleepDelay); err != nil {
		return invalid("server.sleep_delay is not a duration", err)
	}
	if err := core.ValidatePoolSize(c.Pool.Size); err != nil {
		return invalid("pool.size", err)
	}
	timeout, err := time.ParseDuration(c.Pool.ShutdownTimeout)
	if err != nil {
		return invalid("pool.shutdown_timeout is not a duration", err)
	}
	if err := core.ValidateTimeout(timeout); err != nil {
		return invalid("pool.shutdown_timeout", err)
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return invalid("metrics.path must start with /", nil)
	}
	switch c.Tracing.Exporter {
	case "none", "stdout", "zipkin":
	default:
		return invalid(fmt.Sprintf("unsupported tracing exporter %q", c.Tracing.Exporter), nil)
	}
	if c.Tracing.SampleRate < 0.0 || c.Tracing.SampleRate > 1.0 {
		return invalid("tracing.sample_rate must be between 0.0 and 1.0", nil)
	}
	return nil
}

// SleepDuration returns Server.SleepDelay parsed; call after Validate
func (c *Config) SleepDuration() time.Duration {
	d, _ := time.ParseDuration(c.Server.SleepDelay)
	return d
}

// ShutdownDuration returns Pool.ShutdownTimeout parsed; call after Validate
func (c *Config) ShutdownDuration() time.Duration {
	d, _ := time.ParseDuration(c.Pool.ShutdownTimeout)
	return d
}

func invalid(msg string, cause error) error {
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return &core.Error{Code: "INVALID_CONFIG", Message: "invalid config: " + msg, Err: cause}
}
