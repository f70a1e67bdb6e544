package search_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/sage/pkg/router"
	"github.com/xhad/sage/pkg/search"
	"go.uber.org/zap"
)

func newTestService(searcher *fakeSearcher, fetcher *fakeFetcher) *search.Service {
	chat := &scriptedChat{}
	pipeline := search.NewPipeline(search.PipelineConfig{}, searcher, fetcher, chat, zap.NewNop())
	return search.NewService(router.New(), pipeline, search.NewValidator(chat), zap.NewNop())
}

func TestService_RunWebQuery(t *testing.T) {
	fetcher := &fakeFetcher{
		pages: map[string]string{
			"https://one.example":   pageText("first"),
			"https://two.example":   pageText("second"),
			"https://three.example": pageText("third"),
		},
	}
	s := newTestService(&fakeSearcher{results: someResults()}, fetcher)

	answer, err := s.Run(context.Background(), "top 10 engineering colleges in india in 2025")
	require.NoError(t, err)
	assert.Equal(t, "composed answer", answer.Answer)
	assert.Len(t, answer.Sources, 3)
}

func TestService_RunDirectQuery(t *testing.T) {
	s := newTestService(&fakeSearcher{}, &fakeFetcher{})

	answer, err := s.Run(context.Background(), "what is devops")
	require.NoError(t, err)
	assert.Equal(t, "direct answer", answer.Answer)
	assert.Empty(t, answer.Sources)
}

func TestService_RunShortQuery(t *testing.T) {
	s := newTestService(&fakeSearcher{}, &fakeFetcher{})

	_, err := s.Run(context.Background(), "hi")
	assert.ErrorIs(t, err, search.ErrQueryTooShort)

	_, err = s.Run(context.Background(), "    abcd    ")
	assert.ErrorIs(t, err, search.ErrQueryTooShort)
}
