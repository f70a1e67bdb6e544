package websearch_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/sage/pkg/websearch"
)

func newTavilyStub(t *testing.T, results []map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "basic", req["search_depth"])
		assert.Equal(t, false, req["include_answer"])

		json.NewEncoder(w).Encode(map[string]any{"results": results})
	}))
}

func TestClient_RequiresAPIKey(t *testing.T) {
	_, err := websearch.NewWithConfig(websearch.Config{})
	assert.ErrorIs(t, err, websearch.ErrMissingAPIKey)
}

func TestClient_Search(t *testing.T) {
	server := newTavilyStub(t, []map[string]string{
		{"title": "  Go blog  ", "url": " https://go.dev/blog ", "content": "  release notes  "},
		{"title": "", "url": "https://example.com", "content": strings.Repeat("s", 300)},
		{"title": "broken", "url": "not-a-url", "content": "ignored"},
		{"title": "ftp", "url": "ftp://example.com/file", "content": "ignored"},
	})
	defer server.Close()

	client, err := websearch.NewWithConfig(websearch.Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
	})
	require.NoError(t, err)

	results, err := client.Search(context.Background(), "go release")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "Go blog", results[0].Title)
	assert.Equal(t, "https://go.dev/blog", results[0].URL)
	assert.Equal(t, "release notes", results[0].Snippet)

	// Missing title defaults, long snippets get clipped.
	assert.Equal(t, "Untitled", results[1].Title)
	assert.Len(t, results[1].Snippet, 220)
}

func TestClient_SearchCapsResults(t *testing.T) {
	var many []map[string]string
	for i := 0; i < 8; i++ {
		many = append(many, map[string]string{"title": "t", "url": "https://example.com", "content": "c"})
	}
	server := newTavilyStub(t, many)
	defer server.Close()

	client, err := websearch.NewWithConfig(websearch.Config{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		MaxResults: 3,
	})
	require.NoError(t, err)

	results, err := client.Search(context.Background(), "query")
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestClient_SearchEmptyQuery(t *testing.T) {
	client, err := websearch.NewWithConfig(websearch.Config{APIKey: "test-key"})
	require.NoError(t, err)

	results, err := client.Search(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestClient_SearchUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := websearch.NewWithConfig(websearch.Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
	})
	require.NoError(t, err)

	_, err = client.Search(context.Background(), "query")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
