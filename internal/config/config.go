// Package config loads the worker configuration from fathom.yaml and keeps
// the mode table in sync with file edits at runtime.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/fathomlabs/fathom/internal/modes"
)

// DefaultPath is used when FATHOM_CONFIG is unset.
const DefaultPath = "config/fathom.yaml"

// Config is the root worker configuration.
type Config struct {
	Service  ServiceConfig           `mapstructure:"service"`
	Temporal TemporalConfig          `mapstructure:"temporal"`
	Provider ProviderConfig          `mapstructure:"provider"`
	Redis    RedisConfig             `mapstructure:"redis"`
	Logging  LoggingConfig           `mapstructure:"logging"`
	Tracing  TracingConfig           `mapstructure:"tracing"`
	Modes    map[string]ModeOverride `mapstructure:"modes"`
}

// ServiceConfig covers the worker's admin surface.
type ServiceConfig struct {
	AdminPort       int           `mapstructure:"admin_port"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
}

// TemporalConfig points the worker at its Temporal server.
type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
}

// ProviderConfig configures the SearXNG search provider.
type ProviderConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxResults     int           `mapstructure:"max_results"`
	RequestsPerSec float64       `mapstructure:"requests_per_sec"`
	Language       string        `mapstructure:"language"`
}

// RedisConfig configures the optional provider response cache.
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// LoggingConfig selects log level and encoding.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json | console
}

// TracingConfig configures the OTLP trace exporter.
type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SamplingRate float64 `mapstructure:"sampling_rate"`
}

// ModeOverride tunes one research mode's preset budget from the config file.
type ModeOverride struct {
	MaxRounds          int `mapstructure:"max_rounds"`
	MaxQueriesPerRound int `mapstructure:"max_queries_per_round"`
	ZeroStreakLimit    int `mapstructure:"zero_streak_limit"`
}

// Path returns the config file location, honoring the FATHOM_CONFIG override.
func Path() string {
	if p := os.Getenv("FATHOM_CONFIG"); p != "" {
		return p
	}
	return DefaultPath
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.admin_port", 8081)
	v.SetDefault("service.graceful_timeout", 15*time.Second)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("provider.base_url", "http://localhost:8888")
	v.SetDefault("provider.timeout", 30*time.Second)
	v.SetDefault("provider.max_results", 10)
	v.SetDefault("provider.requests_per_sec", 4.0)
	v.SetDefault("provider.language", "en")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.ttl", 15*time.Minute)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.otlp_endpoint", "localhost:4317")
	v.SetDefault("tracing.sampling_rate", 0.1)
}

// Load reads the config file at path. A missing file is not an error; the
// worker starts on defaults and picks the file up once it appears.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			var cfg Config
			if err := v.Unmarshal(&cfg); err != nil {
				return nil, fmt.Errorf("unmarshal defaults: %w", err)
			}
			return &cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config %s: %w", path, err)
	}
	return &cfg, nil
}

// ModeOverrides converts the file's mode section into table overrides.
func (c *Config) ModeOverrides() map[string]modes.Override {
	out := make(map[string]modes.Override, len(c.Modes))
	for name, ov := range c.Modes {
		out[name] = modes.Override{
			MaxRounds:          ov.MaxRounds,
			MaxQueriesPerRound: ov.MaxQueriesPerRound,
			ZeroStreakLimit:    ov.ZeroStreakLimit,
		}
	}
	return out
}
