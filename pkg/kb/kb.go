// Package kb is the knowledge-base side of the engine: ingestion of
// raw text into the vector index and grounded answer synthesis over it.
package kb

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/xhad/sage/internal/models"
	"github.com/xhad/sage/internal/types"
	"github.com/xhad/sage/pkg/chunker"
	"github.com/xhad/sage/pkg/index"
)

var (
	// ErrEmptyText rejects ingestion of text that is empty after trimming.
	ErrEmptyText = errors.New("no text to ingest")
	// ErrEmptyQuery rejects KB queries that are empty after trimming.
	ErrEmptyQuery = errors.New("query is empty")
)

const (
	defaultK      = 2
	defaultSource = "pasted-text"

	answerSystemPrompt = "You are a helpful assistant that answers only from the provided context.\n" +
		"If the answer is not found in the provided context, say so briefly.\n" +
		"Be concise (4-5 sentences), neutral and avoid marketing language.\n" +
		"Do not fabricate sources or cite anything that is not in the context."
)

type ServiceConfig struct {
	// Provider names the embedding provider the index binds to.
	Provider    string
	Temperature float64
}

// Service owns the chunker, the index manager and the chat model for
// the KB pipeline.
type Service struct {
	config  ServiceConfig
	chunker chunker.Chunker
	manager *index.Manager
	chat    types.ChatModel
}

func NewService(config ServiceConfig, ch chunker.Chunker, manager *index.Manager, chat types.ChatModel) *Service {
	if config.Temperature == 0 {
		config.Temperature = 0.2
	}
	return &Service{
		config:  config,
		chunker: ch,
		manager: manager,
		chat:    chat,
	}
}

// Ingest chunks the given text and adds the chunks to the index bound
// to the configured provider.
func (s *Service) Ingest(ctx context.Context, text, source string) (models.IngestResult, error) {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return models.IngestResult{}, ErrEmptyText
	}
	if source == "" {
		source = defaultSource
	}

	chunks := s.chunker.Chunk(raw, source)

	ix, err := s.manager.Get(s.config.Provider)
	if err != nil {
		return models.IngestResult{}, err
	}

	count, err := ix.Add(ctx, chunks)
	if err != nil {
		return models.IngestResult{}, fmt.Errorf("ingest: %w", err)
	}

	return models.IngestResult{
		DocsCount:   1,
		ChunksCount: count,
		Source:      source,
	}, nil
}

// Ask embeds the query, retrieves the top-k chunks and asks the chat
// model to answer strictly from the quoted context. Sources mirror the
// retrieved chunks in retrieval order.
func (s *Service) Ask(ctx context.Context, query string, k int) (models.KBAnswer, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return models.KBAnswer{}, ErrEmptyQuery
	}
	if k <= 0 {
		k = defaultK
	}

	ix, err := s.manager.Get(s.config.Provider)
	if err != nil {
		return models.KBAnswer{}, err
	}

	vector, err := ix.EmbedQuery(ctx, q)
	if err != nil {
		return models.KBAnswer{}, fmt.Errorf("failed to embed query: %w", err)
	}

	retrieved, err := ix.Query(ctx, vector, k)
	if err != nil {
		return models.KBAnswer{}, fmt.Errorf("retrieval failed: %w", err)
	}

	user := fmt.Sprintf("Question:\n%s\n\nContext (quoted chunks):\n%s", q, BuildContext(retrieved))
	answer, err := s.chat.Complete(ctx, answerSystemPrompt, user, s.config.Temperature)
	if err != nil {
		return models.KBAnswer{}, fmt.Errorf("answer synthesis failed: %w", err)
	}

	sources := make([]models.KBSource, len(retrieved))
	scores := make([]float64, len(retrieved))
	for i, hit := range retrieved {
		sources[i] = models.KBSource{Source: hit.Chunk.Source, ChunkID: hit.Chunk.ChunkID}
		scores[i] = hit.Score
	}

	return models.KBAnswer{
		Answer:     answer,
		Sources:    sources,
		Confidence: Confidence(scores),
	}, nil
}

// Reset drops the whole index together with its provider binding.
func (s *Service) Reset() {
	s.manager.Reset()
}

// BuildContext numbers each retrieved chunk as "[#i] <source> #<chunkId>"
// followed by its text, in retrieval order, separated by a rule.
func BuildContext(retrieved []index.Scored) string {
	if len(retrieved) == 0 {
		return "no relevant context"
	}

	parts := make([]string, len(retrieved))
	for i, hit := range retrieved {
		parts[i] = fmt.Sprintf("[#%d] %s #%d\n%s", i+1, hit.Chunk.Source, hit.Chunk.ChunkID, hit.Chunk.Text)
	}
	return strings.Join(parts, "\n\n---\n\n")
}

// Confidence is the arithmetic mean of the similarity scores, each
// clamped to [0,1] first, rounded to two decimals. The denominator is
// the number of scores actually present, so partial retrievals are not
// diluted.
func Confidence(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}

	var sum float64
	for _, score := range scores {
		sum += math.Max(0, math.Min(1, score))
	}
	return math.Round(sum/float64(len(scores))*100) / 100
}
