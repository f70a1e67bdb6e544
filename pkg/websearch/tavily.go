// Package websearch implements the web-search capability on the Tavily
// API.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xhad/sage/internal/models"
)

// ErrMissingAPIKey is returned when no Tavily credential is configured.
var ErrMissingAPIKey = errors.New("TAVILY_API_KEY is not set")

const snippetLimit = 220

type Config struct {
	APIKey     string
	BaseURL    string
	MaxResults int
	Timeout    time.Duration
}

type Client struct {
	config Config
	client *http.Client
}

func NewWithConfig(config Config) (*Client, error) {
	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://api.tavily.com"
	}
	if config.MaxResults <= 0 {
		config.MaxResults = 5
	}
	if config.MaxResults > 10 {
		config.MaxResults = 10
	}
	if config.Timeout == 0 {
		config.Timeout = 15 * time.Second
	}

	return &Client{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

type searchRequest struct {
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	MaxResults    int    `json:"max_results"`
	IncludeAnswer bool   `json:"include_answer"`
	IncludeImages bool   `json:"include_images"`
}

type searchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search issues the query and normalizes each hit: fields trimmed,
// missing titles become "Untitled", snippets clipped, hits without an
// absolute http(s) URL dropped.
func (c *Client) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, nil
	}

	payload, err := json.Marshal(searchRequest{
		Query:       q,
		SearchDepth: "basic",
		MaxResults:  c.config.MaxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("tavily: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("tavily: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily: unexpected status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("tavily: decode response: %w", err)
	}

	results := make([]models.SearchResult, 0, len(body.Results))
	for _, r := range body.Results {
		if len(results) == c.config.MaxResults {
			break
		}

		rawURL := strings.TrimSpace(r.URL)
		if !isHTTPURL(rawURL) {
			continue
		}

		title := strings.TrimSpace(r.Title)
		if title == "" {
			title = "Untitled"
		}

		results = append(results, models.SearchResult{
			Title:   title,
			URL:     rawURL,
			Snippet: clip(strings.TrimSpace(r.Content), snippetLimit),
		})
	}

	return results, nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func clip(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
