package search_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/sage/pkg/search"
)

// clippingChat records the user prompt so input clipping can be checked.
type clippingChat struct {
	lastUser string
	reply    string
}

func (c *clippingChat) Complete(_ context.Context, _, user string, _ float64) (string, error) {
	c.lastUser = user
	return c.reply, nil
}

func TestSummarizer_RejectsShortText(t *testing.T) {
	s := search.NewSummarizer(&clippingChat{reply: "x"})

	_, err := s.Summarize(context.Background(), "too short")
	assert.ErrorIs(t, err, search.ErrTextTooShort)
}

func TestSummarizer_ClipsInput(t *testing.T) {
	chat := &clippingChat{reply: "a summary"}
	s := search.NewSummarizer(chat)

	_, err := s.Summarize(context.Background(), strings.Repeat("w", 10000))
	require.NoError(t, err)

	idx := strings.Index(chat.lastUser, "TEXT:\n\n")
	require.GreaterOrEqual(t, idx, 0)
	assert.Len(t, chat.lastUser[idx+len("TEXT:\n\n"):], 4000)
}

func TestSummarizer_NormalizesBlankLines(t *testing.T) {
	chat := &clippingChat{reply: "line one\n\n\n\nline two\n"}
	s := search.NewSummarizer(chat)

	out, err := s.Summarize(context.Background(), strings.Repeat("text ", 20))
	require.NoError(t, err)
	assert.Equal(t, "line one\n\nline two", out)
}
