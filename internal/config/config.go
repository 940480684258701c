package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port             int      `env:"PORT" envDefault:"8080"`
	DatabaseDriver   string   `env:"DATABASE_DRIVER" envDefault:"postgres"`
	DatabaseURL      string   `env:"DATABASE_URL,required"`
	RedisURL         string   `env:"REDIS_URL"`
	ScraperBackend   string   `env:"SCRAPER_BACKEND" envDefault:"firecrawl"`
	FirecrawlAPIKey  string   `env:"FIRECRAWL_API_KEY"`
	FirecrawlBaseURL string   `env:"FIRECRAWL_BASE_URL" envDefault:"https://api.firecrawl.dev"`
	LLMProvider      string   `env:"LLM_PROVIDER" envDefault:"anthropic"`
	LLMModel         string   `env:"LLM_MODEL"`
	AnthropicAPIKey  string   `env:"ANTHROPIC_API_KEY"`
	AnthropicBaseURL string   `env:"ANTHROPIC_BASE_URL" envDefault:"https://api.anthropic.com"`
	GeminiAPIKey     string   `env:"GEMINI_API_KEY"`
	ScrapeTimeoutSec int      `env:"SCRAPE_TIMEOUT_SECONDS" envDefault:"45"`
	CalLink          string   `env:"CAL_LINK" envDefault:"cove.dev"`
	AllowedOrigins   []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	LogLevel         string   `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) ScrapeTimeout() time.Duration {
	if c.ScrapeTimeoutSec <= 0 {
		return ScrapeTimeout
	}
	return time.Duration(c.ScrapeTimeoutSec) * time.Second
}

// Validate checks that the selected backends have what they need to start.
func (c *Config) Validate(isProduction bool) error {
	switch c.DatabaseDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.DatabaseDriver)
	}

	switch c.ScraperBackend {
	case ScraperFirecrawl:
		if c.FirecrawlAPIKey == "" {
			return fmt.Errorf("FIRECRAWL_API_KEY is required when SCRAPER_BACKEND=%s", ScraperFirecrawl)
		}
	case ScraperHTTP, ScraperBrowser:
	default:
		return fmt.Errorf("SCRAPER_BACKEND must be one of %s, got %q",
			strings.Join([]string{ScraperFirecrawl, ScraperHTTP, ScraperBrowser}, ", "), c.ScraperBackend)
	}

	switch c.LLMProvider {
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required when LLM_PROVIDER=%s", ProviderAnthropic)
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when LLM_PROVIDER=%s", ProviderGemini)
		}
	default:
		return fmt.Errorf("LLM_PROVIDER must be %q or %q, got %q", ProviderAnthropic, ProviderGemini, c.LLMProvider)
	}

	if isProduction {
		if c.DatabaseDriver == DriverSQLite {
			log.Warn().Msg("DATABASE_DRIVER=sqlite in production: sessions live on local disk only")
		}
		if c.RedisURL == "" {
			log.Warn().Msg("REDIS_URL is empty in production: turn locks are per-process only")
		} else if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
		if slices.Contains(c.AllowedOrigins, "*") {
			log.Warn().Msg("ALLOWED_ORIGINS contains * in production")
		}
	}

	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
