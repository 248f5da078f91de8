// Package config loads newsdesk configuration from a YAML file with
// environment-variable overrides. Credentials are read once at startup and
// the resulting Config is treated as immutable for the process lifetime.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default endpoints and tuning. Every HTTP provider shares one 10s timeout
// policy; the LLM gets a longer budget because completions are slow.
const (
	DefaultLLMBaseURL     = "https://api.openai.com/v1"
	DefaultLLMModel       = "gpt-4o"
	DefaultLLMTimeout     = 2 * time.Minute
	DefaultNewsBaseURL    = "https://newsapi.org/v2"
	DefaultWeatherBaseURL = "https://api.openweathermap.org/data/2.5"
	DefaultMarketBaseURL  = "https://query1.finance.yahoo.com"
	DefaultHTTPTimeout    = 10 * time.Second
)

// Environment variables that override file values.
const (
	EnvLLMAPIKey     = "OPENAI_API_KEY"
	EnvNewsAPIKey    = "NEWSAPI_API_KEY"
	EnvWeatherAPIKey = "OPENWEATHER_API_KEY"
)

// Config holds all newsdesk configuration.
type Config struct {
	LLM     LLMConfig     `yaml:"llm"`
	News    NewsConfig    `yaml:"news"`
	Weather WeatherConfig `yaml:"weather"`
	Market  MarketConfig  `yaml:"market"`
}

// LLMConfig configures the chat-completion and moderation provider.
type LLMConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	Timeout string `yaml:"timeout"`
}

// NewsConfig configures the news provider.
type NewsConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// WeatherConfig configures the weather provider.
type WeatherConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// MarketConfig configures the commodity quote source. The quote endpoint is
// unauthenticated, so there is no key here.
type MarketConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// Load reads the config file at path, applies environment overrides and
// defaults, and validates that every required credential is present.
// A missing file is not an error as long as the credentials arrive via
// environment variables.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Fall through to env-only configuration.
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvLLMAPIKey); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv(EnvNewsAPIKey); v != "" {
		c.News.APIKey = v
	}
	if v := os.Getenv(EnvWeatherAPIKey); v != "" {
		c.Weather.APIKey = v
	}
}

func (c *Config) applyDefaults() {
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = DefaultLLMBaseURL
	}
	if c.LLM.Model == "" {
		c.LLM.Model = DefaultLLMModel
	}
	if c.News.BaseURL == "" {
		c.News.BaseURL = DefaultNewsBaseURL
	}
	if c.Weather.BaseURL == "" {
		c.Weather.BaseURL = DefaultWeatherBaseURL
	}
	if c.Market.BaseURL == "" {
		c.Market.BaseURL = DefaultMarketBaseURL
	}
}

// validate reports every missing credential in one error so the user can fix
// the config in a single pass instead of one failure at a time.
func (c *Config) validate() error {
	var missing []string
	if c.LLM.APIKey == "" {
		missing = append(missing, fmt.Sprintf("llm.api_key (or %s)", EnvLLMAPIKey))
	}
	if c.News.APIKey == "" {
		missing = append(missing, fmt.Sprintf("news.api_key (or %s)", EnvNewsAPIKey))
	}
	if c.Weather.APIKey == "" {
		missing = append(missing, fmt.Sprintf("weather.api_key (or %s)", EnvWeatherAPIKey))
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required credentials: %s", strings.Join(missing, ", "))
	}
	return nil
}

// LLMTimeout resolves the configured LLM timeout, falling back to the
// default on absent or unparsable values.
func (c *Config) LLMTimeout() time.Duration {
	return parseTimeout(c.LLM.Timeout, DefaultLLMTimeout)
}

// NewsTimeout resolves the news provider timeout.
func (c *Config) NewsTimeout() time.Duration {
	return parseTimeout(c.News.Timeout, DefaultHTTPTimeout)
}

// WeatherTimeout resolves the weather provider timeout.
func (c *Config) WeatherTimeout() time.Duration {
	return parseTimeout(c.Weather.Timeout, DefaultHTTPTimeout)
}

// MarketTimeout resolves the quote provider timeout.
func (c *Config) MarketTimeout() time.Duration {
	return parseTimeout(c.Market.Timeout, DefaultHTTPTimeout)
}

func parseTimeout(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
