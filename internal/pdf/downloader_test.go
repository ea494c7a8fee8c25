package pdf

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labsignal/evidence-service/internal/fulltext"
)

var samplePDFContent = []byte("%PDF-1.4 sample content for testing")

func newDownloader(maxSize int64) *Downloader {
	client := fulltext.NewClient(fulltext.ClientConfig{Source: "pdf", MaxAttempts: 1}, nil)
	return NewDownloader(client, maxSize)
}

func TestDownload(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Contains(t, r.Header.Get("Accept"), "application/pdf")
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write(samplePDFContent)
		}))
		defer server.Close()

		result, err := newDownloader(0).Download(ctx, server.URL)
		require.NoError(t, err)
		assert.Equal(t, samplePDFContent, result.Content)
		assert.Equal(t, int64(len(samplePDFContent)), result.SizeBytes)
		assert.Equal(t, "application/pdf", result.ContentType)

		hash := sha256.Sum256(samplePDFContent)
		assert.Equal(t, hex.EncodeToString(hash[:]), result.ContentHash)
	})

	t.Run("generic content type with PDF signature", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write(samplePDFContent)
		}))
		defer server.Close()

		result, err := newDownloader(0).Download(ctx, server.URL)
		require.NoError(t, err, "signature check must accept mislabeled PDFs")
		assert.Equal(t, samplePDFContent, result.Content)
	})

	t.Run("not a PDF", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html>login page</html>"))
		}))
		defer server.Close()

		_, err := newDownloader(0).Download(ctx, server.URL)
		assert.ErrorIs(t, err, ErrNotPDF)
	})

	t.Run("too large", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write(samplePDFContent)
		}))
		defer server.Close()

		_, err := newDownloader(10).Download(ctx, server.URL)
		assert.ErrorIs(t, err, ErrTooLarge)
	})

	t.Run("HTTP error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		_, err := newDownloader(0).Download(ctx, server.URL)
		assert.ErrorIs(t, err, ErrDownloadFailed)
	})

	t.Run("invalid URL", func(t *testing.T) {
		_, err := newDownloader(0).Download(ctx, "://bad-url")
		assert.ErrorIs(t, err, ErrDownloadFailed)
	})
}
