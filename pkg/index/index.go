// Package index holds embedded chunks in memory and answers
// nearest-neighbor queries by brute-force cosine similarity. The index
// is volatile: it lives exactly as long as the process.
package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/xhad/sage/internal/models"
	"github.com/xhad/sage/internal/types"
)

// Entry pairs a chunk with its embedding vector. All entries in one
// index share the same provider and dimensionality.
type Entry struct {
	Chunk  models.Chunk
	Vector []float32
}

// Scored is one retrieval hit with its raw cosine similarity.
type Scored struct {
	Chunk models.Chunk
	Score float64
}

// Index is an append-only in-memory vector index bound to a single
// embedding provider.
type Index struct {
	mu       sync.RWMutex
	provider types.EmbeddingProvider
	entries  []Entry
}

func New(provider types.EmbeddingProvider) *Index {
	return &Index{
		provider: provider,
	}
}

// Provider returns the embedding provider this index is bound to.
func (ix *Index) Provider() types.EmbeddingProvider {
	return ix.provider
}

// Add embeds each chunk's text with the bound provider and appends the
// resulting entries. Returns the number of chunks added; an empty input
// is a no-op.
func (ix *Index) Add(ctx context.Context, chunks []models.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}

	vectors, err := ix.provider.EmbedDocuments(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embedding count mismatch: got %d vectors for %d chunks", len(vectors), len(chunks))
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	for i, ch := range chunks {
		ix.entries = append(ix.entries, Entry{Chunk: ch, Vector: vectors[i]})
	}

	return len(chunks), nil
}

// EmbedQuery embeds query text with the same provider that embedded the
// indexed chunks.
func (ix *Index) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return ix.provider.EmbedQuery(ctx, text)
}

// Query returns up to k entries nearest to the given vector, best match
// first. Scores are raw cosine similarities, not renormalized.
func (ix *Index) Query(ctx context.Context, vector []float32, k int) ([]Scored, error) {
	if k <= 0 {
		return nil, nil
	}

	ix.mu.RLock()
	scored := make([]Scored, len(ix.entries))
	for i, entry := range ix.entries {
		scored[i] = Scored{
			Chunk: entry.Chunk,
			Score: cosineSimilarity(vector, entry.Vector),
		}
	}
	ix.mu.RUnlock()

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

// Len reports the number of indexed entries.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
