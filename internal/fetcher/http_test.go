package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnyigor/aiprompts-sub001/internal/domain"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.ErrorLevel)
	return log
}

func TestPageURL(t *testing.T) {
	assert.Equal(t, "https://example.com/topic?st=40", PageURL("https://example.com/topic?st=%d", "", 40))
	assert.Equal(t, "https://example.com/topic?page=2", PageURL("", "https://example.com/topic", 2))
	assert.Equal(t, "https://example.com/t?x=1&page=3", PageURL("", "https://example.com/t?x=1", 3))
}

func TestHTTPFetcher_FetchPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		fmt.Fprintf(w, "<html><body>page %s</body></html>", page)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{UserAgent: "test-agent"}, testLogger())

	html, err := f.FetchPage(context.Background(), srv.URL, 2)
	require.NoError(t, err)
	assert.Contains(t, html, "page 2")
}

func TestHTTPFetcher_PatternOverridesBase(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "<html>path=%s</html>", r.URL.Path)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPOptions{
		UserAgent:      "test-agent",
		PageURLPattern: srv.URL + "/listing/%d",
	}, testLogger())

	html, err := f.FetchPage(context.Background(), "ignored", 5)
	require.NoError(t, err)
	assert.Contains(t, html, "path=/listing/5")
}

func TestHTTPFetcher_NetworkError(t *testing.T) {
	t.Run("http error status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		}))
		defer srv.Close()

		f := NewHTTPFetcher(HTTPOptions{UserAgent: "test-agent"}, testLogger())
		_, err := f.FetchPage(context.Background(), srv.URL, 1)
		var netErr *domain.NetworkError
		assert.ErrorAs(t, err, &netErr)
	})

	t.Run("unreachable host", func(t *testing.T) {
		f := NewHTTPFetcher(HTTPOptions{UserAgent: "test-agent"}, testLogger())
		_, err := f.FetchPage(context.Background(), "http://127.0.0.1:1", 1)
		var netErr *domain.NetworkError
		assert.ErrorAs(t, err, &netErr)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		f := NewHTTPFetcher(HTTPOptions{UserAgent: "test-agent"}, testLogger())
		_, err := f.FetchPage(ctx, "http://example.com", 1)
		var netErr *domain.NetworkError
		assert.ErrorAs(t, err, &netErr)
	})
}
