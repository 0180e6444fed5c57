// Package config loads trackgen settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/telhawk-systems/trackgen/internal/signature"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the complete trackgen configuration.
type Config struct {
	Generator GeneratorConfig `mapstructure:"generator" yaml:"generator"`
	Signing   SigningConfig   `mapstructure:"signing" yaml:"signing"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Output    OutputConfig    `mapstructure:"output" yaml:"output"`
}

// GeneratorConfig controls collection generation.
type GeneratorConfig struct {
	RandomPayload bool  `mapstructure:"random_payload" yaml:"random_payload"`
	Seed          int64 `mapstructure:"seed" yaml:"seed"`
	Count         int   `mapstructure:"count" yaml:"count"`
}

// SigningConfig holds the signature inputs.
type SigningConfig struct {
	SharedSecret string `mapstructure:"shared_secret" yaml:"shared_secret"`
	Time         int64  `mapstructure:"time" yaml:"time"`
}

// LoggingConfig selects log level and handler format.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// OutputConfig controls how generated records are written.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
	Dir    string `mapstructure:"dir" yaml:"dir"`
}

var (
	logLevels     = []string{"debug", "info", "warn", "error"}
	logFormats    = []string{"json", "text"}
	outputFormats = []string{"json", "yaml", "table"}
)

// Load reads configuration with cascade: ./trackgen.yaml or ~/.trackgen/trackgen.yaml
// (or configPath when set), then TRACKGEN_* environment variables, over built-in defaults.
// A missing config file is not an error; command-line flags are applied by the caller.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("trackgen")
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TRACKGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".trackgen"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Generator: GeneratorConfig{RandomPayload: true, Count: 1},
		Signing:   SigningConfig{Time: signature.DefaultTime},
		Logging:   LoggingConfig{Level: "info", Format: "text"},
		Output:    OutputConfig{Format: "json"},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("generator.random_payload", d.Generator.RandomPayload)
	v.SetDefault("generator.seed", d.Generator.Seed)
	v.SetDefault("generator.count", d.Generator.Count)

	// No default secret; an empty secret still signs.
	v.SetDefault("signing.shared_secret", "")
	v.SetDefault("signing.time", d.Signing.Time)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)

	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.dir", "")
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if c.Generator.Count < 1 {
		return fmt.Errorf("%w: generator.count must be at least 1, got %d", ErrInvalid, c.Generator.Count)
	}
	if c.Signing.Time <= 0 {
		return fmt.Errorf("%w: signing.time must be positive, got %d", ErrInvalid, c.Signing.Time)
	}
	if !oneOf(c.Logging.Level, logLevels) {
		return fmt.Errorf("%w: logging.level %q not in %v", ErrInvalid, c.Logging.Level, logLevels)
	}
	if !oneOf(c.Logging.Format, logFormats) {
		return fmt.Errorf("%w: logging.format %q not in %v", ErrInvalid, c.Logging.Format, logFormats)
	}
	if !oneOf(c.Output.Format, outputFormats) {
		return fmt.Errorf("%w: output.format %q not in %v", ErrInvalid, c.Output.Format, outputFormats)
	}
	return nil
}

func oneOf(s string, allowed []string) bool {
	for _, a := range allowed {
		if s == a {
			return true
		}
	}
	return false
}
