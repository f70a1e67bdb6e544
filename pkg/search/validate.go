package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/xhad/sage/internal/models"
	"github.com/xhad/sage/internal/types"
)

// ErrRepairFailed is terminal: the candidate still violated the output
// contract after the single repair attempt. The repair is never retried.
var ErrRepairFailed = errors.New("answer failed validation after repair")

const repairSystemPrompt = "You fix JSON objects to match a given schema.\n" +
	"Respond only with a valid JSON object.\n" +
	"Schema: {answer: string, sources: string[] (URLs as strings)}"

// Validator checks a candidate against the output contract and, on
// failure, issues exactly one repair pass through the chat model.
type Validator struct {
	chat        types.ChatModel
	temperature float64
}

func NewValidator(chat types.ChatModel) *Validator {
	return &Validator{
		chat:        chat,
		temperature: 0.2,
	}
}

// Validate returns the draft when it already satisfies the contract,
// the repaired draft when one repair pass fixes it, and ErrRepairFailed
// otherwise. It never returns a silent zero value.
func (v *Validator) Validate(ctx context.Context, candidate models.Candidate) (models.Answer, error) {
	draft := models.Answer{
		Answer:  candidate.Answer,
		Sources: candidate.Sources,
	}
	if draft.Sources == nil {
		draft.Sources = []string{}
	}

	if err := checkContract(draft); err == nil {
		return draft, nil
	}

	repaired, err := v.repair(ctx, draft)
	if err != nil {
		return models.Answer{}, fmt.Errorf("%w: %v", ErrRepairFailed, err)
	}
	if err := checkContract(repaired); err != nil {
		return models.Answer{}, fmt.Errorf("%w: %v", ErrRepairFailed, err)
	}
	return repaired, nil
}

func checkContract(a models.Answer) error {
	if strings.TrimSpace(a.Answer) == "" {
		return errors.New("answer is empty")
	}
	for _, s := range a.Sources {
		u, err := url.Parse(s)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("source is not a valid URL: %q", s)
		}
	}
	return nil
}

func (v *Validator) repair(ctx context.Context, draft models.Answer) (models.Answer, error) {
	payload, err := json.Marshal(draft)
	if err != nil {
		return models.Answer{}, fmt.Errorf("encode draft: %w", err)
	}

	user := "Make this match the schema exactly. Ensure sources is an array of URL strings.\n\n" +
		"Input JSON:\n\n" + string(payload)

	out, err := v.chat.Complete(ctx, repairSystemPrompt, user, v.temperature)
	if err != nil {
		return models.Answer{}, fmt.Errorf("repair call: %w", err)
	}

	obj := extractJSONObject(out)

	repaired := models.Answer{Sources: []string{}}
	if s, ok := obj["answer"].(string); ok {
		repaired.Answer = strings.TrimSpace(s)
	}
	if items, ok := obj["sources"].([]any); ok {
		for _, item := range items {
			if s, ok := item.(string); ok {
				repaired.Sources = append(repaired.Sources, s)
			} else {
				repaired.Sources = append(repaired.Sources, fmt.Sprint(item))
			}
		}
	}
	return repaired, nil
}

// extractJSONObject locates the first balanced {...} substring in
// free-form model text and parses it. Any failure yields an empty
// object, never an error: the caller's re-validation decides the
// outcome.
func extractJSONObject(s string) map[string]any {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return map[string]any{}
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				var obj map[string]any
				if err := json.Unmarshal([]byte(s[start:i+1]), &obj); err != nil {
					return map[string]any{}
				}
				return obj
			}
		}
	}
	return map[string]any{}
}
