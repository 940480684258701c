// Package scraper fetches a company website and reduces it to a display name
// and a block of text the agent can be grounded in.
package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cove/agent-demo/internal/config"
	"github.com/cove/agent-demo/internal/prompt"
)

const (
	MaxContentChars    = 30000
	DefaultCompanyName = "Your Company"

	userAgent = "Mozilla/5.0 (compatible; CoveDemoBot/1.0; +https://cove.dev)"
)

type Result struct {
	CompanyName string
	Content     string
	Favicon     string
}

type Scraper interface {
	Scrape(ctx context.Context, url string) (*Result, error)
}

// HTTPClient is the subset of *http.Client used by the HTTP based backends.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// New returns the backend selected by cfg.ScraperBackend.
func New(cfg *config.Config) (Scraper, error) {
	client := &http.Client{Timeout: cfg.ScrapeTimeout()}

	switch cfg.ScraperBackend {
	case config.ScraperFirecrawl:
		return NewFirecrawl(cfg.FirecrawlBaseURL, cfg.FirecrawlAPIKey, client), nil
	case config.ScraperHTTP:
		return NewFetcher(client), nil
	case config.ScraperBrowser:
		return NewBrowser(cfg.ScrapeTimeout()), nil
	default:
		return nil, fmt.Errorf("unknown scraper backend %q", cfg.ScraperBackend)
	}
}

func newResult(title, rawURL, content, favicon string) *Result {
	return &Result{
		CompanyName: ExtractCompanyName(title, rawURL),
		Content:     prompt.Truncate(content, MaxContentChars),
		Favicon:     favicon,
	}
}

var titleSeparators = []string{"|", "-", "–", "—"}

// ExtractCompanyName derives a short display name from a page title, falling
// back to the URL's hostname and finally to DefaultCompanyName.
func ExtractCompanyName(title, rawURL string) string {
	if title = strings.TrimSpace(title); title != "" {
		first := title
		for _, sep := range titleSeparators {
			if i := strings.Index(first, sep); i >= 0 {
				first = first[:i]
			}
		}
		if name := strings.TrimSpace(first); name != "" {
			return name
		}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return DefaultCompanyName
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	if host == "" {
		return DefaultCompanyName
	}
	name, _, _ := strings.Cut(host, ".")
	return name
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = config.ScrapeTimeout
	}
	return context.WithTimeout(ctx, d)
}
