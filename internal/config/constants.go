package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Per-session turn lock
const (
	TurnLockTTL  = 90 * time.Second
	TurnLockWait = 30 * time.Second
)

// Comment pings on an open chat stream
const StreamKeepAlive = 15 * time.Second

// Outbound calls to the scraping provider
const ScrapeTimeout = 45 * time.Second

// Supported backends
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	ScraperFirecrawl = "firecrawl"
	ScraperHTTP      = "http"
	ScraperBrowser   = "browser"

	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)
