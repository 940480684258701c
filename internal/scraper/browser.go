package scraper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog/log"
)

// Browser renders the page in headless Chrome, for sites that build their
// content client-side. The browser is launched on first use and shared.
type Browser struct {
	timeout time.Duration

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
}

func NewBrowser(timeout time.Duration) *Browser {
	return &Browser{timeout: timeout}
}

func (b *Browser) Scrape(ctx context.Context, url string) (*Result, error) {
	ctx, cancel := withTimeout(ctx, b.timeout)
	defer cancel()

	browser, err := b.ensureStarted()
	if err != nil {
		return nil, err
	}

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer page.Close()

	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}

	info, err := page.Info()
	if err != nil {
		return nil, fmt.Errorf("page info: %w", err)
	}

	content, err := pageText(page)
	if err != nil {
		return nil, err
	}

	return newResult(info.Title, url, cleanText(content), resolveURL(url, pageFavicon(page))), nil
}

func pageText(page *rod.Page) (string, error) {
	if found, el, err := page.Has("main"); err == nil && found {
		if text, err := el.Text(); err == nil && text != "" {
			return text, nil
		}
	}

	body, err := page.Element("body")
	if err != nil {
		return "", fmt.Errorf("find body: %w", err)
	}
	text, err := body.Text()
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return text, nil
}

func pageFavicon(page *rod.Page) string {
	found, el, err := page.Has(`link[rel~="icon"]`)
	if err != nil || !found {
		return ""
	}
	href, err := el.Attribute("href")
	if err != nil || href == nil {
		return ""
	}
	return *href
}

func (b *Browser) ensureStarted() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser != nil {
		return b.browser, nil
	}

	l := launcher.New().Headless(true)
	if bin, ok := launcher.LookPath(); ok {
		l = l.Bin(bin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	log.Info().Str("control_url", controlURL).Msg("Headless browser started")
	b.launcher = l
	b.browser = browser
	return browser, nil
}

// Close shuts down the shared browser if one was started.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser == nil {
		return nil
	}
	err := b.browser.Close()
	b.launcher.Cleanup()
	b.browser = nil
	b.launcher = nil
	return err
}
