package models

// Chunk is a bounded slice of ingested text with its source label and
// sequential position within one ingestion call. Chunks are immutable
// once created and owned by the vector index after indexing.
type Chunk struct {
	Text    string `json:"text"`
	Source  string `json:"source"`
	ChunkID int    `json:"chunkId"`
}

// SearchResult is one normalized hit from the web search provider.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Page is the textual content extracted from a fetched URL.
type Page struct {
	URL     string
	Content string
}

// PageSummary is the model-written summary of one fetched page.
type PageSummary struct {
	URL     string `json:"url"`
	Summary string `json:"summary"`
}

// Mode marks which branch produced a candidate answer.
type Mode string

const (
	ModeWeb    Mode = "web"
	ModeDirect Mode = "direct"
)

// Fallback is the degradation tier applied by the fetch+summarize stage.
type Fallback string

const (
	FallbackNone      Fallback = "none"
	FallbackSnippets  Fallback = "snippets"
	FallbackNoResults Fallback = "no-results"
)

// Candidate is the unvalidated answer shared by the web and direct
// branches, pending schema validation. Sources is empty in direct mode.
type Candidate struct {
	Answer  string
	Sources []string
	Mode    Mode
}

// Answer is the validated output contract for open-domain search.
type Answer struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// KBSource points back at the chunk a KB answer was grounded on.
type KBSource struct {
	Source  string `json:"source"`
	ChunkID int    `json:"chunkId"`
}

// KBAnswer is the grounded answer for a knowledge-base query.
// Confidence is in [0,1], rounded to two decimals.
type KBAnswer struct {
	Answer     string     `json:"answer"`
	Sources    []KBSource `json:"sources"`
	Confidence float64    `json:"confidence"`
}

// IngestResult reports what one ingestion call added to the index.
type IngestResult struct {
	DocsCount   int    `json:"docsCount"`
	ChunksCount int    `json:"chunksCount"`
	Source      string `json:"source"`
}
