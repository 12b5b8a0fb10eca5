package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURL(t *testing.T) {
	t.Run("successful fetch", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html><body>Hello</body></html>"))
		}))
		defer server.Close()

		result, err := URL(context.Background(), server.URL, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, result.StatusCode)
		assert.Contains(t, result.HTML, "Hello")
		assert.Contains(t, result.ContentType, "text/html")
	})

	t.Run("sends user agent and custom headers", func(t *testing.T) {
		var gotUA, gotCustom string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.Header.Get("User-Agent")
			gotCustom = r.Header.Get("X-Custom")
		}))
		defer server.Close()

		opts := DefaultOptions()
		opts.Headers = map[string]string{"X-Custom": "value"}
		_, err := URL(context.Background(), server.URL, opts)
		require.NoError(t, err)
		assert.Equal(t, DefaultUserAgent, gotUA)
		assert.Equal(t, "value", gotCustom)
	})

	t.Run("non-200 status returns error with result", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		result, err := URL(context.Background(), server.URL, nil)
		require.Error(t, err)
		require.NotNil(t, result)
		assert.Equal(t, http.StatusNotFound, result.StatusCode)

		var fetchErr *Error
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, server.URL, fetchErr.URL)
	})

	t.Run("invalid URL", func(t *testing.T) {
		_, err := URL(context.Background(), "not-a-url", nil)
		require.Error(t, err)

		var fetchErr *Error
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, "invalid URL", fetchErr.Message)
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(2 * time.Second)
		}))
		defer server.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := URL(ctx, server.URL, nil)
		require.Error(t, err)
	})
}

func TestExtractMainText(t *testing.T) {
	t.Run("prefers matching content selector", func(t *testing.T) {
		html := `<html><body>
			<nav>Navigation</nav>
			<div class="project-description">Backend developer needed for API work.</div>
			<footer>Footer text</footer>
		</body></html>`

		text, err := ExtractMainText(html, ProjectDetailSelectors())
		require.NoError(t, err)
		assert.Contains(t, text, "Backend developer needed")
		assert.NotContains(t, text, "Navigation")
		assert.NotContains(t, text, "Footer text")
	})

	t.Run("falls back to body", func(t *testing.T) {
		html := `<html><body><p>Plain page content.</p></body></html>`

		text, err := ExtractMainText(html, ProjectDetailSelectors())
		require.NoError(t, err)
		assert.Equal(t, "Plain page content.", text)
	})

	t.Run("strips scripts and styles", func(t *testing.T) {
		html := `<html><body>
			<script>var x = 1;</script>
			<style>.a { color: red; }</style>
			<main>Visible content</main>
		</body></html>`

		text, err := ExtractMainText(html, ProjectDetailSelectors())
		require.NoError(t, err)
		assert.Equal(t, "Visible content", text)
	})
}

func TestCleanWhitespace(t *testing.T) {
	input := "  line one  \n\n\n   line two\n   \nline three  "
	assert.Equal(t, "line one\nline two\nline three", cleanWhitespace(input))
}
