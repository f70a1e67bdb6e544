package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// ErrMissingAPIKey is returned when a hosted provider is selected but
// no credential is configured. This is fatal for the call and is never
// retried.
var ErrMissingAPIKey = errors.New("api key is missing")

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// ChatConfig represents the configuration for a chat engine.
type ChatConfig struct {
	Provider  string
	Model     string
	BaseURL   string // Ollama server URL
	APIKey    string
	MaxTokens int
}

// ChatEngine generates single-turn completions through langchaingo.
type ChatEngine struct {
	config ChatConfig
	llm    llms.Model
}

// NewWithConfig creates a new ChatEngine with the given configuration.
func NewWithConfig(config ChatConfig) (*ChatEngine, error) {
	if config.Provider == "" {
		config.Provider = ProviderOllama
	}
	if config.MaxTokens < 0 {
		return nil, fmt.Errorf("max tokens cannot be negative")
	} else if config.MaxTokens == 0 {
		config.MaxTokens = 2000
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}

	var model llms.Model
	var err error

	switch config.Provider {
	case ProviderOllama:
		if config.Model == "" {
			config.Model = "mistral"
		}
		model, err = ollama.New(ollama.WithModel(config.Model),
			ollama.WithServerURL(config.BaseURL))
	case ProviderOpenAI:
		if config.APIKey == "" {
			return nil, fmt.Errorf("openai chat: %w", ErrMissingAPIKey)
		}
		if config.Model == "" {
			config.Model = "gpt-4o-mini"
		}
		model, err = openai.New(openai.WithModel(config.Model),
			openai.WithToken(config.APIKey))
	default:
		return nil, fmt.Errorf("unknown chat provider: %s", config.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return &ChatEngine{
		config: config,
		llm:    model,
	}, nil
}

// Complete sends a system and user prompt pair and returns the model's
// text reply, trimmed.
func (ce *ChatEngine) Complete(ctx context.Context, system, user string, temperature float64) (string, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, user),
	}

	response, err := ce.llm.GenerateContent(ctx, content,
		llms.WithTemperature(temperature),
		llms.WithMaxTokens(ce.config.MaxTokens))
	if err != nil {
		return "", fmt.Errorf("chat error: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("chat error: model returned no choices")
	}

	return strings.TrimSpace(response.Choices[0].Content), nil
}
