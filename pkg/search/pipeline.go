// Package search implements the open-domain answer path: query
// routing, web retrieval with tiered fallback, answer composition and
// output validation with a single repair pass.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xhad/sage/internal/models"
	"github.com/xhad/sage/internal/types"
	"go.uber.org/zap"
)

const (
	defaultTopResults = 3

	composeSystemPrompt = "You concisely answer questions using the provided page summaries.\n" +
		"Rules:\n" +
		"- Be accurate and neutral.\n" +
		"- 5-8 sentences max.\n" +
		"- Use only the provided summaries; do NOT invent new facts."

	directSystemPrompt = "You answer briefly and clearly for beginners.\n" +
		"If not sure, say so."
)

type PipelineConfig struct {
	// TopResults is the fixed fan-out width for fetch+summarize.
	TopResults  int
	Temperature float64
}

// Pipeline searches the web, fetches and summarizes the top results
// with isolated per-item failure, and composes a cited answer.
type Pipeline struct {
	config     PipelineConfig
	searcher   types.WebSearchProvider
	fetcher    types.PageFetcher
	summarizer *Summarizer
	chat       types.ChatModel
	logger     *zap.Logger
}

func NewPipeline(config PipelineConfig, searcher types.WebSearchProvider, fetcher types.PageFetcher, chat types.ChatModel, logger *zap.Logger) *Pipeline {
	if config.TopResults <= 0 {
		config.TopResults = defaultTopResults
	}
	if config.Temperature == 0 {
		config.Temperature = 0.2
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Pipeline{
		config:     config,
		searcher:   searcher,
		fetcher:    fetcher,
		summarizer: NewSummarizer(chat),
		chat:       chat,
		logger:     logger,
	}
}

// Run executes search, fetch+summarize and compose for one query.
func (p *Pipeline) Run(ctx context.Context, query string) (models.Candidate, error) {
	results, err := p.searcher.Search(ctx, query)
	if err != nil {
		return models.Candidate{}, fmt.Errorf("web search failed: %w", err)
	}

	summaries, tier := p.fetchAndSummarize(ctx, results)
	if tier != models.FallbackNone {
		p.logger.Info("web retrieval degraded",
			zap.String("query", query),
			zap.String("fallback", string(tier)))
	}

	return p.compose(ctx, query, summaries)
}

// Direct answers without any retrieved context; it is both the
// router's direct branch and the compose-stage fallback.
func (p *Pipeline) Direct(ctx context.Context, query string) (models.Candidate, error) {
	answer, err := p.chat.Complete(ctx, directSystemPrompt, query, p.config.Temperature)
	if err != nil {
		return models.Candidate{}, fmt.Errorf("direct answer failed: %w", err)
	}
	return models.Candidate{
		Answer:  answer,
		Sources: []string{},
		Mode:    models.ModeDirect,
	}, nil
}

// fetchAndSummarize runs the fixed fan-out over the top results and
// waits for every task to settle. One task failing never aborts the
// others, and summaries keep the original request order regardless of
// completion order.
func (p *Pipeline) fetchAndSummarize(ctx context.Context, results []models.SearchResult) ([]models.PageSummary, models.Fallback) {
	if len(results) == 0 {
		return nil, models.FallbackNoResults
	}

	top := results
	if len(top) > p.config.TopResults {
		top = top[:p.config.TopResults]
	}

	type outcome struct {
		summary models.PageSummary
		err     error
	}
	outcomes := make([]outcome, len(top))

	var wg sync.WaitGroup
	for i, result := range top {
		wg.Add(1)
		go func(i int, result models.SearchResult) {
			defer wg.Done()

			page, err := p.fetcher.Fetch(ctx, result.URL)
			if err != nil {
				outcomes[i].err = err
				return
			}
			summary, err := p.summarizer.Summarize(ctx, page.Content)
			if err != nil {
				outcomes[i].err = err
				return
			}
			outcomes[i].summary = models.PageSummary{URL: page.URL, Summary: summary}
		}(i, result)
	}
	wg.Wait()

	summaries := make([]models.PageSummary, 0, len(top))
	for i, out := range outcomes {
		if out.err != nil {
			p.logger.Warn("page summary failed",
				zap.String("url", top[i].URL),
				zap.Error(out.err))
			continue
		}
		summaries = append(summaries, out.summary)
	}

	if len(summaries) == 0 {
		return snippetSummaries(top), models.FallbackSnippets
	}
	return summaries, models.FallbackNone
}

// snippetSummaries falls back to the raw search snippets when every
// fetch+summarize task failed.
func snippetSummaries(results []models.SearchResult) []models.PageSummary {
	summaries := make([]models.PageSummary, 0, len(results))
	for _, r := range results {
		text := strings.TrimSpace(r.Snippet)
		if text == "" {
			text = strings.TrimSpace(r.Title)
		}
		if text == "" {
			continue
		}
		summaries = append(summaries, models.PageSummary{URL: r.URL, Summary: text})
	}
	return summaries
}

func (p *Pipeline) compose(ctx context.Context, query string, summaries []models.PageSummary) (models.Candidate, error) {
	if len(summaries) == 0 {
		return p.Direct(ctx, query)
	}

	encoded, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		return models.Candidate{}, fmt.Errorf("encode summaries: %w", err)
	}

	user := fmt.Sprintf("Question: %s\nSummaries:\n%s", query, encoded)
	answer, err := p.chat.Complete(ctx, composeSystemPrompt, user, p.config.Temperature)
	if err != nil {
		return models.Candidate{}, fmt.Errorf("compose failed: %w", err)
	}

	sources := make([]string, len(summaries))
	for i, s := range summaries {
		sources[i] = s.URL
	}

	return models.Candidate{
		Answer:  answer,
		Sources: sources,
		Mode:    models.ModeWeb,
	}, nil
}
