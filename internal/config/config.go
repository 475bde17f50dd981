// Package config loads recquery configuration from an optional file and
// RECQUERY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/nainya/recquery/internal/logger"
	"github.com/nainya/recquery/pkg/condition"
	"github.com/nainya/recquery/pkg/keypath"
	"github.com/nainya/recquery/pkg/query"
	"github.com/nainya/recquery/pkg/value"
)

// EnvPrefix prefixes environment overrides: engine.key_separator is read
// from RECQUERY_ENGINE_KEY_SEPARATOR.
const EnvPrefix = "RECQUERY"

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("config: invalid configuration")

// Config is the full service configuration.
type Config struct {
	Engine   EngineConfig      `mapstructure:"engine"`
	Log      LogConfig         `mapstructure:"log"`
	Server   ServerConfig      `mapstructure:"server"`
	Datasets map[string]string `mapstructure:"datasets"`
}

// EngineConfig configures the query engine.
type EngineConfig struct {
	KeySeparator string         `mapstructure:"key_separator"`
	Operators    []string       `mapstructure:"operators"`
	Defaults     DefaultsConfig `mapstructure:"defaults"`
}

// DefaultsConfig holds the options merged under every query.
type DefaultsConfig struct {
	Where     []any  `mapstructure:"where"`
	Limit     int    `mapstructure:"limit"`
	Offset    int    `mapstructure:"offset"`
	SortKey   string `mapstructure:"sort_key"`
	SortOrder string `mapstructure:"sort_order"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// ServerConfig configures the network surface.
type ServerConfig struct {
	GRPCPort    int     `mapstructure:"grpc_port"`
	MetricsPort int     `mapstructure:"metrics_port"`
	RateLimit   float64 `mapstructure:"rate_limit"`
	RateBurst   int     `mapstructure:"rate_burst"`
}

func setDefaults(v *viper.Viper) {
	ops := make([]string, 0, 9)
	for _, op := range condition.DefaultOperators().List() {
		ops = append(ops, string(op))
	}

	v.SetDefault("engine.key_separator", keypath.DefaultSeparator)
	v.SetDefault("engine.operators", ops)
	v.SetDefault("engine.defaults.where", []any{})
	v.SetDefault("engine.defaults.limit", 0)
	v.SetDefault("engine.defaults.offset", 0)
	v.SetDefault("engine.defaults.sort_key", "")
	v.SetDefault("engine.defaults.sort_order", "ASC")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("server.grpc_port", 50051)
	v.SetDefault("server.metrics_port", 9090)
	v.SetDefault("server.rate_limit", 0)
	v.SetDefault("server.rate_burst", 0)
	v.SetDefault("datasets", map[string]string{})
}

// Load reads configuration. path may be empty, in which case only defaults
// and environment variables apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks ranges and builds the engine configuration once.
func (c *Config) Validate() error {
	if c.Server.GRPCPort < 0 || c.Server.GRPCPort > 65535 {
		return fmt.Errorf("%w: server.grpc_port %d out of range", ErrInvalid, c.Server.GRPCPort)
	}
	if c.Server.MetricsPort < 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("%w: server.metrics_port %d out of range", ErrInvalid, c.Server.MetricsPort)
	}
	if c.Server.RateLimit < 0 || c.Server.RateBurst < 0 {
		return fmt.Errorf("%w: server rate limit must not be negative", ErrInvalid)
	}
	for name, path := range c.Datasets {
		if path == "" {
			return fmt.Errorf("%w: dataset %q has no path", ErrInvalid, name)
		}
	}
	if _, err := c.QueryConfig(); err != nil {
		return err
	}
	return nil
}

// QueryConfig converts the engine section into a query.Config.
func (c *Config) QueryConfig() (query.Config, error) {
	ops := make([]condition.Operator, 0, len(c.Engine.Operators))
	for _, s := range c.Engine.Operators {
		op, err := condition.ParseOperator(s)
		if err != nil {
			return query.Config{}, fmt.Errorf("%w: engine.operators: %w", ErrInvalid, err)
		}
		ops = append(ops, op)
	}

	d := c.Engine.Defaults
	defaults := query.DefaultOptions().
		WithLimit(d.Limit).
		WithOffset(d.Offset).
		WithSort(d.SortKey, query.ParseOrder(d.SortOrder))
	for _, raw := range d.Where {
		defaults = defaults.WithWhere(condition.FromValue(value.From(raw)))
	}

	qc := query.Config{
		KeySeparator: c.Engine.KeySeparator,
		Operators:    condition.NewOperatorSet(ops...),
		Defaults:     defaults,
	}
	if err := qc.Validate(); err != nil {
		return query.Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return qc, nil
}

// LoggerConfig converts the log section into a logger.Config.
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:  c.Log.Level,
		Pretty: c.Log.Pretty,
	}
}
