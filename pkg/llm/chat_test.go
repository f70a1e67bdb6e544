package llm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/sage/pkg/llm"
)

func TestNewWithConfig(t *testing.T) {
	engine, err := llm.NewWithConfig(llm.ChatConfig{
		Provider:  llm.ProviderOllama,
		Model:     "mistral",
		MaxTokens: 1000,
		BaseURL:   "http://localhost:11434",
	})
	require.NoError(t, err)
	assert.NotNil(t, engine)
}

func TestNewWithConfig_Defaults(t *testing.T) {
	engine, err := llm.NewWithConfig(llm.ChatConfig{})
	require.NoError(t, err)
	assert.NotNil(t, engine)
}

func TestNewWithConfig_NegativeMaxTokens(t *testing.T) {
	_, err := llm.NewWithConfig(llm.ChatConfig{MaxTokens: -1})
	assert.Error(t, err)
}

func TestNewWithConfig_OpenAIRequiresKey(t *testing.T) {
	_, err := llm.NewWithConfig(llm.ChatConfig{Provider: llm.ProviderOpenAI})
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrMissingAPIKey)
}

func TestNewWithConfig_UnknownProvider(t *testing.T) {
	_, err := llm.NewWithConfig(llm.ChatConfig{Provider: "groq"})
	assert.Error(t, err)
}
