package search_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/sage/internal/models"
	"github.com/xhad/sage/pkg/search"
	"go.uber.org/zap"
)

type fakeSearcher struct {
	results []models.SearchResult
	err     error
}

func (f *fakeSearcher) Search(context.Context, string) ([]models.SearchResult, error) {
	return f.results, f.err
}

// fakeFetcher serves canned pages per URL and can delay individual
// fetches to shuffle completion order.
type fakeFetcher struct {
	mu     sync.Mutex
	pages  map[string]string
	delays map[string]time.Duration
	calls  []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*models.Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()

	if d, ok := f.delays[url]; ok {
		time.Sleep(d)
	}
	content, ok := f.pages[url]
	if !ok {
		return nil, fmt.Errorf("fetch failed for %s", url)
	}
	return &models.Page{URL: url, Content: content}, nil
}

// scriptedChat answers each system prompt kind with a canned reply.
type scriptedChat struct {
	mu    sync.Mutex
	calls []string
}

func (c *scriptedChat) Complete(_ context.Context, system, user string, _ float64) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, system)

	switch {
	case strings.Contains(system, "page summaries"):
		return "composed answer", nil
	case strings.Contains(system, "short, accurate summaries"):
		return "summary of " + firstWord(user), nil
	default:
		return "direct answer", nil
	}
}

func firstWord(user string) string {
	idx := strings.Index(user, "TEXT:\n\n")
	if idx < 0 {
		return "?"
	}
	rest := strings.TrimSpace(user[idx+len("TEXT:\n\n"):])
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return "?"
	}
	return fields[0]
}

func pageText(marker string) string {
	return marker + " " + strings.Repeat("content ", 20)
}

func someResults() []models.SearchResult {
	return []models.SearchResult{
		{Title: "One", URL: "https://one.example", Snippet: "snippet one"},
		{Title: "Two", URL: "https://two.example", Snippet: "snippet two"},
		{Title: "Three", URL: "https://three.example", Snippet: "snippet three"},
		{Title: "Four", URL: "https://four.example", Snippet: "never fetched"},
	}
}

func TestPipeline_WebAnswerPreservesOrder(t *testing.T) {
	fetcher := &fakeFetcher{
		pages: map[string]string{
			"https://one.example":   pageText("first"),
			"https://two.example":   pageText("second"),
			"https://three.example": pageText("third"),
		},
		// First fetch settles last; order must still follow the
		// original result list.
		delays: map[string]time.Duration{
			"https://one.example": 50 * time.Millisecond,
		},
	}
	p := search.NewPipeline(search.PipelineConfig{}, &fakeSearcher{results: someResults()}, fetcher, &scriptedChat{}, zap.NewNop())

	candidate, err := p.Run(context.Background(), "latest go release")
	require.NoError(t, err)

	assert.Equal(t, models.ModeWeb, candidate.Mode)
	assert.Equal(t, "composed answer", candidate.Answer)
	assert.Equal(t, []string{
		"https://one.example",
		"https://two.example",
		"https://three.example",
	}, candidate.Sources)

	// Only the top 3 results are fetched.
	assert.Len(t, fetcher.calls, 3)
	assert.NotContains(t, fetcher.calls, "https://four.example")
}

func TestPipeline_PartialFailureKeepsSurvivors(t *testing.T) {
	fetcher := &fakeFetcher{
		pages: map[string]string{
			"https://one.example":   pageText("first"),
			"https://three.example": pageText("third"),
		},
	}
	p := search.NewPipeline(search.PipelineConfig{}, &fakeSearcher{results: someResults()}, fetcher, &scriptedChat{}, zap.NewNop())

	candidate, err := p.Run(context.Background(), "latest go release")
	require.NoError(t, err)

	assert.Equal(t, models.ModeWeb, candidate.Mode)
	assert.Equal(t, []string{"https://one.example", "https://three.example"}, candidate.Sources)
}

func TestPipeline_SnippetFallback(t *testing.T) {
	// Every fetch fails; the raw snippets stand in for summaries.
	fetcher := &fakeFetcher{pages: map[string]string{}}
	p := search.NewPipeline(search.PipelineConfig{}, &fakeSearcher{results: someResults()}, fetcher, &scriptedChat{}, zap.NewNop())

	candidate, err := p.Run(context.Background(), "latest go release")
	require.NoError(t, err)

	assert.Equal(t, models.ModeWeb, candidate.Mode)
	assert.Equal(t, []string{
		"https://one.example",
		"https://two.example",
		"https://three.example",
	}, candidate.Sources)
}

func TestPipeline_NoResultsFallsBackToDirect(t *testing.T) {
	chat := &scriptedChat{}
	p := search.NewPipeline(search.PipelineConfig{}, &fakeSearcher{}, &fakeFetcher{}, chat, zap.NewNop())

	candidate, err := p.Run(context.Background(), "latest go release")
	require.NoError(t, err)

	assert.Equal(t, models.ModeDirect, candidate.Mode)
	assert.Equal(t, "direct answer", candidate.Answer)
	assert.Empty(t, candidate.Sources)
}

func TestPipeline_SearchFailurePropagates(t *testing.T) {
	p := search.NewPipeline(search.PipelineConfig{}, &fakeSearcher{err: errors.New("tavily down")}, &fakeFetcher{}, &scriptedChat{}, zap.NewNop())

	_, err := p.Run(context.Background(), "latest go release")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "web search failed")
}

func TestPipeline_Direct(t *testing.T) {
	p := search.NewPipeline(search.PipelineConfig{}, &fakeSearcher{}, &fakeFetcher{}, &scriptedChat{}, zap.NewNop())

	candidate, err := p.Direct(context.Background(), "what is devops")
	require.NoError(t, err)
	assert.Equal(t, models.ModeDirect, candidate.Mode)
	assert.Equal(t, []string{}, candidate.Sources)
}
