package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	multiNewlinePattern = regexp.MustCompile(`\n{3,}`)
	multiSpacePattern   = regexp.MustCompile(`[ \t]{2,}`)
)

// Fetcher downloads the page directly and extracts readable text from the
// HTML. It does not run JavaScript.
type Fetcher struct {
	client HTTPClient
}

func NewFetcher(client HTTPClient) *Fetcher {
	return &Fetcher{client: client}
}

func (f *Fetcher) Scrape(ctx context.Context, rawURL string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: HTTP %d", rawURL, resp.StatusCode)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	page := extractPage(doc)
	return newResult(page.title, rawURL, page.text(), resolveURL(rawURL, page.favicon)), nil
}

type parsedPage struct {
	title   string
	favicon string
	body    strings.Builder
}

func extractPage(doc *html.Node) *parsedPage {
	p := &parsedPage{}
	p.walk(doc, 0)
	return p
}

func (p *parsedPage) walk(n *html.Node, depth int) {
	if depth > 100 {
		return
	}

	switch n.Type {
	case html.TextNode:
		if text := strings.TrimSpace(n.Data); text != "" {
			p.body.WriteString(text)
			p.body.WriteString(" ")
		}
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "iframe", "svg", "nav", "footer", "header", "template":
			return
		case "title":
			if p.title == "" {
				p.title = strings.TrimSpace(nodeText(n))
			}
			return
		case "link":
			if p.favicon == "" && strings.Contains(strings.ToLower(attr(n, "rel")), "icon") {
				p.favicon = attr(n, "href")
			}
			return
		case "meta":
			if p.favicon == "" && attr(n, "property") == "og:image" {
				p.favicon = attr(n, "content")
			}
			return
		case "h1", "h2", "h3", "h4", "h5", "h6", "p", "div", "section", "article", "ul", "ol", "table", "tr":
			p.body.WriteString("\n\n")
		case "br":
			p.body.WriteString("\n")
		case "li":
			p.body.WriteString("\n- ")
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.walk(c, depth+1)
	}
}

func (p *parsedPage) text() string {
	return cleanText(p.body.String())
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func cleanText(s string) string {
	s = multiSpacePattern.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = multiNewlinePattern.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func resolveURL(base, ref string) string {
	if ref == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
