package search

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/xhad/sage/internal/models"
	"github.com/xhad/sage/pkg/router"
	"go.uber.org/zap"
)

// ErrQueryTooShort rejects open-domain queries under five characters.
var ErrQueryTooShort = errors.New("query must be at least 5 characters")

const minQueryLength = 5

// Service runs the full open-domain path: route, answer through the
// web or direct branch, validate the result against the output
// contract.
type Service struct {
	router    *router.Router
	pipeline  *Pipeline
	validator *Validator
	logger    *zap.Logger
}

func NewService(r *router.Router, pipeline *Pipeline, validator *Validator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		router:    r,
		pipeline:  pipeline,
		validator: validator,
		logger:    logger,
	}
}

func (s *Service) Run(ctx context.Context, query string) (models.Answer, error) {
	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) < minQueryLength {
		return models.Answer{}, ErrQueryTooShort
	}

	mode := s.router.Route(q)
	s.logger.Debug("routed query",
		zap.String("query", q),
		zap.String("mode", string(mode)))

	var candidate models.Candidate
	var err error
	if mode == models.ModeWeb {
		candidate, err = s.pipeline.Run(ctx, q)
	} else {
		candidate, err = s.pipeline.Direct(ctx, q)
	}
	if err != nil {
		return models.Answer{}, err
	}

	return s.validator.Validate(ctx, candidate)
}
