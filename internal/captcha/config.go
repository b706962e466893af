package captcha

import "gfauth/internal/transport"

const (
	DefaultAPIBase = "https://image-drop-challenge.gameforge.com/challenge"
	DefaultOrigin  = "spark://www.gameforge.com"
	DefaultLocale  = "en-US"

	// defaultMaxAttemptsPerChallenge bounds guesses against one challenge id
	defaultMaxAttemptsPerChallenge = 3

	// defaultMaxAttemptsOverall bounds login submissions once a challenge was seen
	defaultMaxAttemptsOverall = 5
)

// Config for the image-drop challenge API.
type Config struct {
	APIBase                 string `yaml:"api_base"`
	UserAgent               string `yaml:"user_agent"`
	Origin                  string `yaml:"origin"`
	Locale                  string `yaml:"locale"`
	MaxAttemptsPerChallenge int    `yaml:"max_attempts_per_challenge"`
	MaxAttemptsOverall      int    `yaml:"max_attempts_overall"`
}

func DefaultConfig() Config {
	return Config{
		APIBase:                 DefaultAPIBase,
		UserAgent:               transport.LauncherUserAgent,
		Origin:                  DefaultOrigin,
		Locale:                  DefaultLocale,
		MaxAttemptsPerChallenge: defaultMaxAttemptsPerChallenge,
		MaxAttemptsOverall:      defaultMaxAttemptsOverall,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.APIBase == "" {
		c.APIBase = d.APIBase
	}
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
	if c.Origin == "" {
		c.Origin = d.Origin
	}
	if c.Locale == "" {
		c.Locale = d.Locale
	}
	if c.MaxAttemptsPerChallenge <= 0 {
		c.MaxAttemptsPerChallenge = d.MaxAttemptsPerChallenge
	}
	if c.MaxAttemptsOverall <= 0 {
		c.MaxAttemptsOverall = d.MaxAttemptsOverall
	}
	return c
}
