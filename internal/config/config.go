// Package config loads binary settings from a YAML file, an optional .env file
// and LESIONFORM_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LESIONFORM_"

type Config struct {
	Server struct {
		Addr            string        `yaml:"addr"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Predict struct {
		Endpoint  string        `yaml:"endpoint"`
		Timeout   time.Duration `yaml:"timeout"`
		UserAgent string        `yaml:"user_agent"`
	} `yaml:"predict"`

	UI struct {
		Title        string `yaml:"title"`
		Theme        string `yaml:"theme"`
		Variant      string `yaml:"variant"`
		TemplatesDir string `yaml:"templates_dir"`
		WarningIcon  string `yaml:"warning_icon"`
	} `yaml:"ui"`

	Mock struct {
		Addr string `yaml:"addr"`
	} `yaml:"mock"`
}

// Default returns the settings used when nothing overrides them.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Addr = ":8080"
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Predict.Endpoint = "http://localhost:5000/predict"
	cfg.Predict.Timeout = 30 * time.Second
	cfg.Predict.UserAgent = "lesionform"
	cfg.Mock.Addr = ":5000"
	return cfg
}

type loadOptions struct {
	envFile string
	lookup  func(string) (string, bool)
}

// Option configures Load.
type Option func(*loadOptions)

// WithEnvFile reads path with godotenv before applying overrides. A missing
// file is ignored.
func WithEnvFile(path string) Option {
	return func(o *loadOptions) {
		o.envFile = strings.TrimSpace(path)
	}
}

// WithLookupEnv replaces os.LookupEnv.
func WithLookupEnv(fn func(string) (string, bool)) Option {
	return func(o *loadOptions) {
		if fn != nil {
			o.lookup = fn
		}
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when path
// is empty), the env file and the environment.
func Load(path string, options ...Option) (*Config, error) {
	opts := loadOptions{lookup: os.LookupEnv}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&opts)
	}

	cfg := Default()
	if path = strings.TrimSpace(path); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if opts.envFile != "" {
		if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load env file %s: %w", opts.envFile, err)
		}
	}

	if err := cfg.applyEnv(opts.lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"ADDR":          &c.Server.Addr,
		"ENDPOINT":      &c.Predict.Endpoint,
		"USER_AGENT":    &c.Predict.UserAgent,
		"TITLE":         &c.UI.Title,
		"THEME":         &c.UI.Theme,
		"THEME_VARIANT": &c.UI.Variant,
		"TEMPLATES_DIR": &c.UI.TemplatesDir,
		"WARNING_ICON":  &c.UI.WarningIcon,
		"MOCK_ADDR":     &c.Mock.Addr,
	}
	for key, target := range strs {
		if value, ok := lookup(EnvPrefix + key); ok && value != "" {
			*target = value
		}
	}

	durations := map[string]*time.Duration{
		"TIMEOUT":          &c.Predict.Timeout,
		"SHUTDOWN_TIMEOUT": &c.Server.ShutdownTimeout,
	}
	for key, target := range durations {
		value, ok := lookup(EnvPrefix + key)
		if !ok || value == "" {
			continue
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("config: %s%s: %w", EnvPrefix, key, err)
		}
		*target = d
	}
	return nil
}

// Validate rejects settings the binaries cannot start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Predict.Endpoint) == "" {
		return errors.New("config: predict.endpoint is required")
	}
	if c.Predict.Timeout < 0 {
		return errors.New("config: predict.timeout must not be negative")
	}
	return nil
}
