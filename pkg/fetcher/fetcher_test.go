package fetcher_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/sage/pkg/fetcher"
)

func serveHTML(t *testing.T, html string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, html)
	}))
}

func TestFetcher_ExtractsArticle(t *testing.T) {
	article := strings.Repeat("useful article text ", 30)
	server := serveHTML(t, `<html><body>
		<nav>site navigation</nav>
		<article>`+article+`</article>
		<script>var tracking = true;</script>
		<footer>copyright</footer>
	</body></html>`)
	defer server.Close()

	f := fetcher.New()
	page, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, server.URL, page.URL)
	assert.Contains(t, page.Content, "useful article text")
	assert.NotContains(t, page.Content, "site navigation")
	assert.NotContains(t, page.Content, "tracking")
	assert.NotContains(t, page.Content, "copyright")
}

func TestFetcher_BodyFallbackForThinArticle(t *testing.T) {
	body := strings.Repeat("body paragraph text ", 40)
	server := serveHTML(t, `<html><body>
		<article>tiny</article>
		<p>`+body+`</p>
	</body></html>`)
	defer server.Close()

	f := fetcher.New()
	page, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Contains(t, page.Content, "body paragraph text")
}

func TestFetcher_CollapsesWhitespaceAndCaps(t *testing.T) {
	server := serveHTML(t, "<html><body><article>"+strings.Repeat("word\n\n\t  ", 3000)+"</article></body></html>")
	defer server.Close()

	f := fetcher.New()
	page, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)

	assert.LessOrEqual(t, len([]rune(page.Content)), 8000)
	assert.NotContains(t, page.Content, "\n")
	assert.NotContains(t, page.Content, "  ")
}

func TestFetcher_PlainTextPassthrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, "plain   text \n content")
	}))
	defer server.Close()

	f := fetcher.New()
	page, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "plain text content", page.Content)
}

func TestFetcher_InvalidURL(t *testing.T) {
	f := fetcher.New()

	_, err := f.Fetch(context.Background(), "not a url")
	assert.Error(t, err)

	_, err = f.Fetch(context.Background(), "ftp://example.com/file")
	assert.Error(t, err)
}

func TestFetcher_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	f := fetcher.New()
	_, err := f.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestFetcher_EmptyPage(t *testing.T) {
	server := serveHTML(t, "<html><body><article>   </article></body></html>")
	defer server.Close()

	f := fetcher.New()
	_, err := f.Fetch(context.Background(), server.URL)
	assert.Error(t, err)
}
