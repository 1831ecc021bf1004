// Package config loads the process configuration of the aomesh runtime.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. AOMESH_HTTP_LISTEN.
const EnvPrefix = "AOMESH"

// Config represents the complete runtime configuration
type Config struct {
	Framework FrameworkConfig `mapstructure:"framework"`
	Pools     []PoolConfig    `mapstructure:"pools"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Health    HealthConfig    `mapstructure:"health"`
	Demo      DemoConfig      `mapstructure:"demo"`
}

// FrameworkConfig sizes the publish-subscribe core
type FrameworkConfig struct {
	// MaxSignal is the exclusive upper bound of the signal range
	MaxSignal int `mapstructure:"max_signal"`
	// QueueLen is the event queue capacity of each active object
	QueueLen int `mapstructure:"queue_len"`
}

// PoolConfig describes one event pool. Pools are listed in ascending block size.
type PoolConfig struct {
	BlockSize int `mapstructure:"block_size"`
	Blocks    int `mapstructure:"blocks"`
}

// LoggingConfig controls the process logger
type LoggingConfig struct {
	// Level is one of debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format is text or json
	Format string `mapstructure:"format"`
}

// HTTPConfig controls the diagnostics API
type HTTPConfig struct {
	// Listen is the host:port of the HTTP server; empty disables it
	Listen string `mapstructure:"listen"`
	// Secret signs admin tokens; empty disables the admin routes
	Secret string `mapstructure:"secret"`
}

// HealthConfig controls the gRPC health service
type HealthConfig struct {
	// Listen is the host:port of the gRPC server; empty disables it
	Listen string `mapstructure:"listen"`
}

// DemoConfig controls the demo application run by "aomesh run"
type DemoConfig struct {
	TickInterval time.Duration `mapstructure:"tick_interval"`
	Workers      int           `mapstructure:"workers"`
	ReportEvery  int           `mapstructure:"report_every"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Framework: FrameworkConfig{
			MaxSignal: 32,
			QueueLen:  32,
		},
		Pools: []PoolConfig{
			{BlockSize: 16, Blocks: 64},
			{BlockSize: 64, Blocks: 16},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		HTTP: HTTPConfig{
			Listen: "localhost:8080",
		},
		Health: HealthConfig{
			Listen: "localhost:9090",
		},
		Demo: DemoConfig{
			TickInterval: 500 * time.Millisecond,
			Workers:      3,
			ReportEvery:  10,
		},
	}
}

// SetDefaults registers the default values on v.
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("framework.max_signal", defaults.Framework.MaxSignal)
	v.SetDefault("framework.queue_len", defaults.Framework.QueueLen)

	v.SetDefault("pools", []map[string]any{
		{"block_size": defaults.Pools[0].BlockSize, "blocks": defaults.Pools[0].Blocks},
		{"block_size": defaults.Pools[1].BlockSize, "blocks": defaults.Pools[1].Blocks},
	})

	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.format", defaults.Logging.Format)

	v.SetDefault("http.listen", defaults.HTTP.Listen)
	v.SetDefault("http.secret", defaults.HTTP.Secret)

	v.SetDefault("health.listen", defaults.Health.Listen)

	v.SetDefault("demo.tick_interval", defaults.Demo.TickInterval)
	v.SetDefault("demo.workers", defaults.Demo.Workers)
	v.SetDefault("demo.report_every", defaults.Demo.ReportEvery)
}

// New returns a viper instance with defaults and environment overrides
// registered. If path is not empty the file is read as well.
func New(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return v, nil
}

// Load reads the configuration from v into a Config struct and validates it
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errs
	}
	return &cfg, nil
}

// LoadFile is New followed by Load.
func LoadFile(path string) (*Config, error) {
	v, err := New(path)
	if err != nil {
		return nil, err
	}
	return Load(v)
}
