// Package router classifies a query as needing live web research or a
// direct model answer, using length and pattern heuristics only. The
// pattern set is configuration: deployments for other domains swap it
// without touching the control flow.
package router

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/xhad/sage/internal/models"
)

// Queries longer than this read like research tasks, not lookups.
const maxDirectLength = 75

var yearPattern = regexp.MustCompile(`\b20(2[4-9]|3[0-9])\b`)

// DefaultPatterns covers ranking/comparison, price/cost, recency,
// lifecycle, compatibility and locality intent.
var DefaultPatterns = []string{
	`\btop[-\s]*\d+\b`,
	`\bbest\b`,
	`\brank(?:ing|ings)?\b`,
	`\bwhich\s+is\s+better\b`,
	`\b(?:vs\.?|versus)\b`,
	`\bcompare|comparison\b`,

	`\bprice|prices|pricing|cost|costs|cheapest|cheaper|affordable\b`,
	`\bunder\s*\d+(?:\s*[kK])?\b`,
	`\p{Sc}\s*\d+`,

	`\blatest|today|now|current\b`,
	`\bnews|breaking|trending\b`,
	`\b(released?|launch|launched|announce|announced|update|updated)\b`,
	`\bchangelog|release\s*notes?\b`,

	`\bdeprecated|eol|end\s*of\s*life|sunset\b`,
	`\broadmap\b`,

	`\bworks\s+with|compatible\s+with|support(?:ed)?\s+on\b`,
	`\binstall(ation)?\b`,

	`\bnear\s+me|nearby\b`,
}

type Router struct {
	patterns []*regexp.Regexp
}

func New() *Router {
	r, err := NewWithPatterns(DefaultPatterns)
	if err != nil {
		// The default set is fixed and known to compile.
		panic(err)
	}
	return r
}

// NewWithPatterns builds a router over a custom pattern set.
func NewWithPatterns(exprs []string) (*Router, error) {
	patterns := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		p, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid router pattern %q: %w", expr, err)
		}
		patterns = append(patterns, p)
	}
	return &Router{patterns: patterns}, nil
}

// Route is pure and deterministic: the same query always takes the
// same branch.
func (r *Router) Route(query string) models.Mode {
	q := strings.ToLower(strings.TrimSpace(query))

	if utf8.RuneCountInString(q) > maxDirectLength {
		return models.ModeWeb
	}
	if yearPattern.MatchString(q) {
		return models.ModeWeb
	}
	for _, p := range r.patterns {
		if p.MatchString(q) {
			return models.ModeWeb
		}
	}
	return models.ModeDirect
}
