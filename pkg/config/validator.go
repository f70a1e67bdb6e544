package config

import (
	"fmt"
	"net/url"
	"regexp"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate Server config
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "server.port",
			Message: "port must be between 1 and 65535",
		})
	}

	// Validate LLM config
	if c.LLM.Provider != "ollama" && c.LLM.Provider != "openai" {
		errors = append(errors, ValidationError{
			Field:   "llm.provider",
			Message: fmt.Sprintf("unknown provider: %s", c.LLM.Provider),
		})
	}

	if c.LLM.MaxTokens < 1 || c.LLM.MaxTokens > 4096 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_tokens",
			Message: "max_tokens must be between 1 and 4096",
		})
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	if _, err := url.Parse(c.LLM.BaseURL); err != nil {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "invalid base URL",
		})
	}

	// Validate Embedding config
	if c.Embedding.Provider != "ollama" && c.Embedding.Provider != "openai" {
		errors = append(errors, ValidationError{
			Field:   "embedding.provider",
			Message: fmt.Sprintf("unknown provider: %s", c.Embedding.Provider),
		})
	}

	// Validate KB config
	if c.KB.ChunkSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "kb.chunk_size",
			Message: "chunk_size must be positive",
		})
	}

	if c.KB.ChunkOverlap < 0 || c.KB.ChunkOverlap >= c.KB.ChunkSize {
		errors = append(errors, ValidationError{
			Field:   "kb.chunk_overlap",
			Message: "chunk_overlap must be non-negative and less than chunk_size",
		})
	}

	if c.KB.DefaultK < 1 || c.KB.DefaultK > 10 {
		errors = append(errors, ValidationError{
			Field:   "kb.default_k",
			Message: "default_k must be between 1 and 10",
		})
	}

	// Validate Search config
	if c.Search.MaxResults < 1 || c.Search.MaxResults > 10 {
		errors = append(errors, ValidationError{
			Field:   "search.max_results",
			Message: "max_results must be between 1 and 10",
		})
	}

	if c.Search.TopResults < 1 || c.Search.TopResults > c.Search.MaxResults {
		errors = append(errors, ValidationError{
			Field:   "search.top_results",
			Message: "top_results must be between 1 and max_results",
		})
	}

	if c.Search.RateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "search.rate_limit",
			Message: "rate_limit must be positive",
		})
	}

	// Validate router pattern overrides compile
	for _, pattern := range c.Search.RouterPatterns {
		if _, err := regexp.Compile(pattern); err != nil {
			errors = append(errors, ValidationError{
				Field:   "search.router_patterns",
				Message: fmt.Sprintf("invalid pattern: %s", pattern),
			})
		}
	}

	return errors
}
