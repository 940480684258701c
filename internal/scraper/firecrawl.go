package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Firecrawl scrapes through the hosted Firecrawl API, which renders the page
// and returns its main content as markdown.
type Firecrawl struct {
	baseURL string
	apiKey  string
	client  HTTPClient
}

func NewFirecrawl(baseURL, apiKey string, client HTTPClient) *Firecrawl {
	return &Firecrawl{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
	}
}

type firecrawlRequest struct {
	URL             string   `json:"url"`
	Formats         []string `json:"formats"`
	OnlyMainContent bool     `json:"onlyMainContent"`
}

type firecrawlResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    struct {
		Markdown string `json:"markdown"`
		Metadata struct {
			Title   string `json:"title"`
			Favicon string `json:"favicon"`
			OGImage string `json:"ogImage"`
		} `json:"metadata"`
	} `json:"data"`
}

func (f *Firecrawl) Scrape(ctx context.Context, url string) (*Result, error) {
	payload, err := json.Marshal(firecrawlRequest{
		URL:             url,
		Formats:         []string{"markdown"},
		OnlyMainContent: true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+"/v1/scrape", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.apiKey)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("firecrawl request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read firecrawl response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("firecrawl returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out firecrawlResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode firecrawl response: %w", err)
	}
	if !out.Success {
		return nil, fmt.Errorf("firecrawl scrape failed: %s", out.Error)
	}

	meta := out.Data.Metadata
	favicon := meta.Favicon
	if favicon == "" {
		favicon = meta.OGImage
	}

	return newResult(meta.Title, url, out.Data.Markdown, favicon), nil
}
