// Package config loads settings for the jurassic2 command.
//
// Values come from an optional YAML file and are then overridden by
// JURASSIC2_* environment variables.
package config

import (
	"context"
	"os"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/sethvargo/go-envconfig"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "JURASSIC2_"

// Config holds client settings.
type Config struct {
	Region      string        `yaml:"region" env:"REGION,overwrite,default=us-east-1"`
	ModelID     string        `yaml:"model_id" env:"MODEL_ID,overwrite,default=ai21.j2-mid-v1"`
	Endpoint    string        `yaml:"endpoint" env:"ENDPOINT,overwrite"`
	Timeout     time.Duration `yaml:"timeout" env:"TIMEOUT,overwrite,default=5m"`
	MaxRetries  int           `yaml:"max_retries" env:"MAX_RETRIES,overwrite,default=3"`
	RetryDelay  time.Duration `yaml:"retry_delay" env:"RETRY_DELAY,overwrite,default=500ms"`
	LogLevel    string        `yaml:"log_level" env:"LOG_LEVEL,overwrite,default=info"`
	MetricsAddr string        `yaml:"metrics_addr" env:"METRICS_ADDR,overwrite"`
}

// Load reads configuration from the environment. A nil lookuper reads the
// process environment.
func Load(ctx context.Context, lookuper envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := process(ctx, &cfg, lookuper); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile reads the YAML file at path, then applies the environment on top.
// A leading "~" in path is expanded. An empty path behaves like Load.
func LoadFile(ctx context.Context, path string, lookuper envconfig.Lookuper) (Config, error) {
	var cfg Config
	if path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return Config{}, errors.Wrapf(err, "cant expand config path %s", path)
		}
		path = expanded

		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrapf(err, "cant read config file %s", path)
		}
		if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
			return Config{}, errors.Wrapf(err, "cant parse config file %s", path)
		}
	}

	if err := process(ctx, &cfg, lookuper); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func process(ctx context.Context, cfg *Config, lookuper envconfig.Lookuper) error {
	if lookuper == nil {
		lookuper = envconfig.OsLookuper()
	}
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   cfg,
		Lookuper: envconfig.PrefixLookuper(EnvPrefix, lookuper),
	}); err != nil {
		return errors.WithMessage(err, "cant process env config")
	}
	return cfg.Validate()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Region == "" {
		return errors.New("region is required")
	}
	if c.Timeout <= 0 {
		return errors.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.MaxRetries < 0 {
		return errors.Errorf("max retries must be non-negative, got %d", c.MaxRetries)
	}
	if c.RetryDelay < 0 {
		return errors.Errorf("retry delay must be non-negative, got %v", c.RetryDelay)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "invalid log level")
	}
	return nil
}

// NewLogger builds a JSON production logger at level.
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrap(err, "invalid log level")
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.EncoderConfig.TimeKey = "time"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zc.Build()
}
