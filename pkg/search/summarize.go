package search

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/xhad/sage/internal/types"
)

// ErrTextTooShort rejects page content with too little substance to
// summarize.
var ErrTextTooShort = errors.New("need a bit more text to summarize")

const (
	summaryMinInput = 50
	summaryMaxInput = 4000

	summarySystemPrompt = "You are a helpful assistant that writes short, accurate summaries.\n" +
		"Guidelines:\n" +
		"- Be factual and neutral, avoid any marketing language.\n" +
		"- 4-5 sentences; no lists unless absolutely necessary.\n" +
		"- Do NOT invent facts; only summarize the provided text.\n" +
		"- Keep it readable and beginner friendly."
)

var blankLineRuns = regexp.MustCompile(`\n{3,}`)

// Summarizer condenses extracted page content into a few factual
// sentences via the chat model.
type Summarizer struct {
	chat        types.ChatModel
	temperature float64
}

func NewSummarizer(chat types.ChatModel) *Summarizer {
	return &Summarizer{
		chat:        chat,
		temperature: 0.2,
	}
}

func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	raw := strings.TrimSpace(text)
	if len([]rune(raw)) < summaryMinInput {
		return "", ErrTextTooShort
	}

	clipped := clipRunes(raw, summaryMaxInput)
	user := "Summarize the following text for a beginner friendly audience.\n\n" +
		"Focus on key facts and remove fluff.\n\n" +
		"TEXT:\n\n" + clipped

	out, err := s.chat.Complete(ctx, summarySystemPrompt, user, s.temperature)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}

	summary := strings.TrimSpace(blankLineRuns.ReplaceAllString(out, "\n\n"))
	if summary == "" {
		return "", fmt.Errorf("summarize: model returned empty summary")
	}
	return summary, nil
}

func clipRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
