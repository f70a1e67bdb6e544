package types

import (
	"context"

	"github.com/xhad/sage/internal/models"
)

// EmbeddingProvider turns text into vectors in one provider-specific
// vector space. Provider identity determines vector compatibility:
// vectors from different providers must never be mixed in one index.
type EmbeddingProvider interface {
	Name() string
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// ChatModel is a single-turn completion capability. Provider-specific
// response shapes stay behind this boundary.
type ChatModel interface {
	Complete(ctx context.Context, system, user string, temperature float64) (string, error)
}

// WebSearchProvider answers a natural-language query with at most ten
// normalized results.
type WebSearchProvider interface {
	Search(ctx context.Context, query string) ([]models.SearchResult, error)
}

// PageFetcher retrieves a URL and extracts its main textual content.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*models.Page, error)
}
