// Package config loads cronutil settings from flags, CRONUTIL_* environment
// variables and an optional config file.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	cron "github.com/deb-sandeep/cron-utils"
)

// EnvPrefix is prepended to environment variable names, e.g.
// CRONUTIL_DIALECT or CRONUTIL_LOG_JSON.
const EnvPrefix = "CRONUTIL"

// Config holds cronutil settings.
type Config struct {
	Dialect     string `mapstructure:"dialect"`
	DialectFile string `mapstructure:"dialect_file"`
	Timezone    string `mapstructure:"timezone"`
	Count       int    `mapstructure:"count"`
	JSON        bool   `mapstructure:"json"`

	Search SearchConfig `mapstructure:"search"`
	Log    LogConfig    `mapstructure:"log"`
}

// SearchConfig bounds the work a single query may do.
type SearchConfig struct {
	MaxIterations int `mapstructure:"max_iterations"`
	MaxYears      int `mapstructure:"max_years"`
}

// LogConfig selects the diagnostic log format.
type LogConfig struct {
	JSON  bool   `mapstructure:"json"`
	Level string `mapstructure:"level"`
}

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("dialect", "unix")
	v.SetDefault("dialect_file", "")
	v.SetDefault("timezone", "Local")
	v.SetDefault("count", 1)
	v.SetDefault("json", false)

	v.SetDefault("search.max_iterations", cron.DefaultMaxIterations)
	v.SetDefault("search.max_years", 0) // budget only

	v.SetDefault("log.json", false)
	v.SetDefault("log.level", "warn")
}

// New returns a Viper instance with defaults, environment binding and, when
// configFile is set, that file merged in. Without configFile, cronutil.yaml
// or cronutil.toml is looked up in the working directory and in
// $HOME/.config/cronutil; a missing file is not an error.
func New(configFile string) (*viper.Viper, error) {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", configFile)
		}
		return v, nil
	}

	v.SetConfigName("cronutil")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home + "/.config/cronutil")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "failed to read config")
		}
	}
	return v, nil
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that cannot be caught by type alone.
func (c *Config) Validate() error {
	if c.Count < 1 {
		return errors.Newf("count must be at least 1, got %d", c.Count)
	}
	if c.Search.MaxIterations < 1 {
		return errors.Newf("search.max_iterations must be at least 1, got %d", c.Search.MaxIterations)
	}
	if c.Search.MaxYears < 0 {
		return errors.Newf("search.max_years must not be negative, got %d", c.Search.MaxYears)
	}
	return nil
}

// Location resolves the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "unknown time zone %q", c.Timezone)
	}
	return loc, nil
}

// ResolveDialect returns the dialect from dialect_file when set, otherwise
// the predefined dialect named by dialect.
func (c *Config) ResolveDialect() (cron.Dialect, error) {
	if c.DialectFile != "" {
		f, err := os.Open(c.DialectFile)
		if err != nil {
			return cron.Dialect{}, errors.Wrap(err, "opening dialect file")
		}
		defer f.Close()
		return cron.LoadDialectYAML(f)
	}
	d, ok := cron.DialectByName(c.Dialect)
	if !ok {
		names := make([]string, 0, 4)
		for _, d := range cron.Dialects() {
			names = append(names, d.Name)
		}
		return cron.Dialect{}, errors.WithHintf(
			errors.Newf("unknown dialect %q", c.Dialect),
			"known dialects: %s", strings.Join(names, ", "))
	}
	return d, nil
}

// SearchOptions converts the search settings into ExecutionTime options.
func (c *Config) SearchOptions() []cron.Option {
	return []cron.Option{
		cron.WithMaxIterations(c.Search.MaxIterations),
		cron.WithMaxSearchYears(c.Search.MaxYears),
	}
}
