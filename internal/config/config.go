// Package config loads the YAML configuration and the account credentials.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"gfauth/internal/auth"
	"gfauth/internal/captcha"
	"gfauth/internal/transport"
)

// Build-time variables - inject via ldflags
// Example: go build -ldflags "-X gfauth/internal/config.email=me@example.com"
var (
	email    string // -X gfauth/internal/config.email=...
	password string // -X gfauth/internal/config.password=...
)

// Email returns the account email (build-time or env fallback).
func Email() string {
	if email != "" {
		return email
	}
	return os.Getenv("GF_EMAIL")
}

// Password returns the account password (build-time or env fallback).
func Password() string {
	if password != "" {
		return password
	}
	return os.Getenv("GF_PASSWORD")
}

type BatchConfig struct {
	Workers      int    `yaml:"workers"`
	StaggerMS    int    `yaml:"stagger_ms"`
	MaxRetries   int    `yaml:"max_retries"`
	ProxiesFile  string `yaml:"proxies_file"`
	AccountsFile string `yaml:"accounts_file"`
}

type Config struct {
	Identity  string           `yaml:"identity"`
	Locale    string           `yaml:"locale"`
	LogLevel  string           `yaml:"log_level"`
	Transport transport.Config `yaml:"transport"`
	Auth      auth.Options     `yaml:"auth"`
	Captcha   captcha.Config   `yaml:"captcha"`
	Batch     BatchConfig      `yaml:"batch"`
}

func DefaultConfig() *Config {
	return &Config{
		Identity:  "identity.json",
		LogLevel:  "info",
		Transport: transport.DefaultConfig(),
		Auth:      auth.DefaultOptions(),
		Captcha:   captcha.DefaultConfig(),
		Batch: BatchConfig{
			Workers:      4,
			StaggerMS:    50,
			MaxRetries:   3,
			AccountsFile: "accounts.txt",
		},
	}
}

// LoadConfig overlays the file at path onto DefaultConfig. The defaults are
// returned alongside any error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// AuthOptions returns the login options, taking the overall captcha budget
// from the captcha section.
func (c *Config) AuthOptions() auth.Options {
	opts := c.Auth
	opts.MaxAttemptsOverall = c.Captcha.MaxAttemptsOverall
	return opts
}

func (c *Config) Validate() error {
	var errs []error
	if c.Identity == "" {
		errs = append(errs, errors.New("identity path is required"))
	}
	if c.Captcha.MaxAttemptsPerChallenge < 0 || c.Captcha.MaxAttemptsOverall < 0 {
		errs = append(errs, errors.New("captcha attempt budgets must not be negative"))
	}
	if c.Batch.Workers < 1 {
		errs = append(errs, fmt.Errorf("batch.workers must be positive, got %d", c.Batch.Workers))
	}
	if c.Batch.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("batch.max_retries must not be negative, got %d", c.Batch.MaxRetries))
	}
	if c.Transport.Proxy != "" {
		if _, _, err := transport.ParseProxy(c.Transport.Proxy); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
