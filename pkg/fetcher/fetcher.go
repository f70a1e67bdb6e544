// Package fetcher retrieves a single page and extracts its main
// textual content for summarization.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/xhad/sage/internal/models"
	"golang.org/x/time/rate"
)

type FetcherConfig struct {
	Timeout   time.Duration
	RateLimit float64 // requests per second
	UserAgent string
	// MaxContentChars caps extracted text; MinMainChars is the point
	// below which extraction falls back to the whole body.
	MaxContentChars int
	MinMainChars    int
}

type Fetcher struct {
	config  FetcherConfig
	client  *http.Client
	limiter *rate.Limiter
}

// Main-content regions, tried in order before the body fallback.
var contentSelectors = []string{
	"article",
	"main",
	`[role="main"]`,
}

// Page furniture stripped before any text extraction.
var skipSelectors = []string{
	"nav",
	"header",
	"footer",
	"script",
	"style",
	"noscript",
	"form",
	"aside",
}

func NewWithConfig(config FetcherConfig) *Fetcher {
	if config.Timeout == 0 {
		config.Timeout = 20 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2 // 2 requests per second by default
	}
	if config.UserAgent == "" {
		config.UserAgent = "sage/1.0 (+https://github.com/xhad/sage)"
	}
	if config.MaxContentChars == 0 {
		config.MaxContentChars = 8000
	}
	if config.MinMainChars == 0 {
		config.MinMainChars = 500
	}

	return &Fetcher{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}
}

func New() *Fetcher {
	return NewWithConfig(FetcherConfig{})
}

// Fetch validates the URL, retrieves the page and returns its cleaned
// textual content, capped at MaxContentChars.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*models.Page, error) {
	normalized, err := validateURL(rawURL)
	if err != nil {
		return nil, err
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, normalized, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch failed for %s: %w", normalized, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received status code %d for URL: %s", resp.StatusCode, normalized)
	}

	contentType := strings.TrimSpace(strings.Split(resp.Header.Get("Content-Type"), ";")[0])

	var text string
	if contentType == "text/html" || strings.HasSuffix(contentType, "+html") {
		doc, err := goquery.NewDocumentFromReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to parse HTML: %w", err)
		}
		text = f.extractMainContent(doc)
	} else {
		raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, fmt.Errorf("failed to read body: %w", err)
		}
		text = string(raw)
	}

	content := clipRunes(collapseWhitespace(text), f.config.MaxContentChars)
	if content == "" {
		return nil, fmt.Errorf("no textual content at %s", normalized)
	}

	return &models.Page{
		URL:     normalized,
		Content: content,
	}, nil
}

// extractMainContent prefers article-like regions and falls back to the
// whole body when they hold too little text to summarize.
func (f *Fetcher) extractMainContent(doc *goquery.Document) string {
	for _, selector := range skipSelectors {
		doc.Find(selector).Remove()
	}

	var content string
	for _, selector := range contentSelectors {
		if selected := doc.Find(selector); selected.Length() > 0 {
			content = selected.Text()
			break
		}
	}

	if len(strings.TrimSpace(content)) < f.config.MinMainChars {
		content = doc.Find("body").Text()
	}

	return content
}

func validateURL(raw string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid url %q", raw)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "", fmt.Errorf("invalid url %q: only http/https supported", raw)
	}
	return parsed.String(), nil
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func clipRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
