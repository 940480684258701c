package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigMethods(t *testing.T) {
	t.Run("Addr returns formatted port", func(t *testing.T) {
		cfg := &Config{Port: 3000}
		assert.Equal(t, ":3000", cfg.Addr())
	})

	t.Run("ScrapeTimeout converts seconds to duration", func(t *testing.T) {
		cfg := &Config{ScrapeTimeoutSec: 20}
		assert.Equal(t, 20*time.Second, cfg.ScrapeTimeout())
	})

	t.Run("ScrapeTimeout falls back to default", func(t *testing.T) {
		cfg := &Config{}
		assert.Equal(t, ScrapeTimeout, cfg.ScrapeTimeout())
	})
}

func TestLoad(t *testing.T) {
	t.Run("loads config with defaults", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/test")
		for _, key := range []string{
			"PORT", "DATABASE_DRIVER", "REDIS_URL", "SCRAPER_BACKEND", "FIRECRAWL_BASE_URL",
			"LLM_PROVIDER", "ANTHROPIC_BASE_URL", "CAL_LINK", "ALLOWED_ORIGINS", "LOG_LEVEL",
		} {
			unsetenv(t, key)
		}

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, "postgres://localhost/test", cfg.DatabaseURL)
		assert.Equal(t, DriverPostgres, cfg.DatabaseDriver)
		assert.Equal(t, ScraperFirecrawl, cfg.ScraperBackend)
		assert.Equal(t, ProviderAnthropic, cfg.LLMProvider)
		assert.Equal(t, "https://api.firecrawl.dev", cfg.FirecrawlBaseURL)
		assert.Equal(t, "https://api.anthropic.com", cfg.AnthropicBaseURL)
		assert.Equal(t, "cove.dev", cfg.CalLink)
		assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Empty(t, cfg.RedisURL)
	})

	t.Run("loads custom values", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "file:demo.db")
		t.Setenv("DATABASE_DRIVER", "sqlite")
		t.Setenv("PORT", "3000")
		t.Setenv("LLM_PROVIDER", "gemini")
		t.Setenv("LLM_MODEL", "gemini-2.5-pro")
		t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
		t.Setenv("LOG_LEVEL", "debug")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 3000, cfg.Port)
		assert.Equal(t, DriverSQLite, cfg.DatabaseDriver)
		assert.Equal(t, ProviderGemini, cfg.LLMProvider)
		assert.Equal(t, "gemini-2.5-pro", cfg.LLMModel)
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("fails without required DATABASE_URL", func(t *testing.T) {
		unsetenv(t, "DATABASE_URL")

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DatabaseDriver:  DriverPostgres,
			ScraperBackend:  ScraperFirecrawl,
			FirecrawlAPIKey: "fc-key",
			LLMProvider:     ProviderAnthropic,
			AnthropicAPIKey: "sk-key",
		}
	}

	t.Run("accepts complete config", func(t *testing.T) {
		assert.NoError(t, valid().Validate(false))
		assert.NoError(t, valid().Validate(true))
	})

	t.Run("rejects unknown database driver", func(t *testing.T) {
		cfg := valid()
		cfg.DatabaseDriver = "mysql"
		assert.ErrorContains(t, cfg.Validate(false), "DATABASE_DRIVER")
	})

	t.Run("requires firecrawl key for firecrawl backend", func(t *testing.T) {
		cfg := valid()
		cfg.FirecrawlAPIKey = ""
		assert.ErrorContains(t, cfg.Validate(false), "FIRECRAWL_API_KEY")
	})

	t.Run("http backend needs no key", func(t *testing.T) {
		cfg := valid()
		cfg.FirecrawlAPIKey = ""
		cfg.ScraperBackend = ScraperHTTP
		assert.NoError(t, cfg.Validate(false))
	})

	t.Run("rejects unknown scraper backend", func(t *testing.T) {
		cfg := valid()
		cfg.ScraperBackend = "curl"
		assert.ErrorContains(t, cfg.Validate(false), "SCRAPER_BACKEND")
	})

	t.Run("requires provider key", func(t *testing.T) {
		cfg := valid()
		cfg.AnthropicAPIKey = ""
		assert.ErrorContains(t, cfg.Validate(false), "ANTHROPIC_API_KEY")

		cfg = valid()
		cfg.LLMProvider = ProviderGemini
		assert.ErrorContains(t, cfg.Validate(false), "GEMINI_API_KEY")
	})

	t.Run("rejects unknown provider", func(t *testing.T) {
		cfg := valid()
		cfg.LLMProvider = "openai"
		assert.ErrorContains(t, cfg.Validate(false), "LLM_PROVIDER")
	})
}

// unsetenv removes key for the duration of the test and restores it afterwards.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}
