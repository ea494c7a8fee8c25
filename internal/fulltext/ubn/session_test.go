package ubn

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labsignal/evidence-service/internal/domain"
	"github.com/labsignal/evidence-service/internal/fulltext"
)

func newSessionClient() *fulltext.Client {
	return fulltext.NewClient(fulltext.ClientConfig{Source: "ubn", MaxAttempts: 1, EnableCookies: true}, nil)
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases and sorts", "Tumor Growth Inhibition Study", "growth inhibition study tumor"},
		{"drops stopwords", "Inhibition of Tumor Growth in Mice", "growth inhibition mice tumor"},
		{"strips punctuation", "C57BL/6: a mouse model?", "6 c57bl model mouse"},
		{"empty", "", ""},
		{"only stopwords", "of the and", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeTitle(tt.input))
		})
	}
}

func TestTitleSimilarity(t *testing.T) {
	t.Run("identical titles", func(t *testing.T) {
		assert.Equal(t, 1.0, titleSimilarity("A Rat Study", "a rat study"))
	})

	t.Run("reworded title clears the threshold", func(t *testing.T) {
		score := titleSimilarity("Tumor Growth Inhibition Study", "Inhibition of Tumor Growth in Mice")
		assert.GreaterOrEqual(t, score, titleSimilarityThreshold)
	})

	t.Run("unrelated titles stay below", func(t *testing.T) {
		score := titleSimilarity("Tumor Growth Inhibition Study", "Deep Learning for Protein Folding")
		assert.Less(t, score, titleSimilarityThreshold)
	})

	t.Run("empty input scores zero", func(t *testing.T) {
		assert.Equal(t, 0.0, titleSimilarity("", "A Rat Study"))
		assert.Equal(t, 0.0, titleSimilarity("the of and", "A Rat Study"))
	})
}

func TestBestMatch(t *testing.T) {
	results := []result{
		{Title: "Deep Learning for Protein Folding", Link: "https://repo/item/1"},
		{Title: "Inhibition of Tumor Growth in Mice", Link: "https://repo/item/2"},
	}
	assert.Equal(t, "https://repo/item/2", bestMatch(results, "Tumor Growth Inhibition Study"))
	assert.Equal(t, "", bestMatch(results, "Soil Microbiome Dynamics"))
	assert.Equal(t, "", bestMatch(nil, "Anything"))
}

func TestSessionSearch(t *testing.T) {
	const resultPage = `<html><body>
	  <div class="artifact-description">
	    <a href="/handle/123/456"><h4>Inhibition of Tumor Growth in Mice</h4></a>
	  </div>
	  <div class="artifact-description">
	    <a href="https://repo.example.org/handle/123/789"><h4>Another Paper</h4></a>
	  </div>
	  <div class="artifact-description"><h4></h4></div>
	</body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/discover", r.URL.Path)
		assert.Equal(t, "10.1234/abc", r.URL.Query().Get("query"))
		_, _ = w.Write([]byte(resultPage))
	}))
	defer server.Close()

	s := NewSession(newSessionClient(), server.URL)
	results, err := s.searchByDOI(context.Background(), "10.1234/abc")
	require.NoError(t, err)
	require.Len(t, results, 2, "entries without title or link are skipped")

	assert.Equal(t, "Inhibition of Tumor Growth in Mice", results[0].Title)
	assert.Equal(t, server.URL+"/handle/123/456", results[0].Link, "relative links are absolutized")
	assert.Equal(t, "https://repo.example.org/handle/123/789", results[1].Link, "absolute links pass through")
}

func TestSessionDocumentURL(t *testing.T) {
	t.Run("prefers the image link", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html><body>
			  <a class="image-link" href="/bitstream/1/article.pdf">View</a>
			  <a href="/bitstream/1/other.pdf">Other</a>
			</body></html>`))
		}))
		defer server.Close()

		s := NewSession(newSessionClient(), server.URL)
		link, err := s.documentURL(context.Background(), server.URL+"/handle/1")
		require.NoError(t, err)
		assert.Equal(t, server.URL+"/bitstream/1/article.pdf", link)
	})

	t.Run("falls back to a pdf suffix link", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html><body><a href="/bitstream/1/fallback.pdf">PDF</a></body></html>`))
		}))
		defer server.Close()

		s := NewSession(newSessionClient(), server.URL)
		link, err := s.documentURL(context.Background(), server.URL+"/handle/1")
		require.NoError(t, err)
		assert.Equal(t, server.URL+"/bitstream/1/fallback.pdf", link)
	})

	t.Run("no document link", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html><body><p>Metadata only.</p></body></html>`))
		}))
		defer server.Close()

		s := NewSession(newSessionClient(), server.URL)
		_, err := s.documentURL(context.Background(), server.URL+"/handle/1")
		assert.ErrorIs(t, err, domain.ErrParse)
	})
}

func TestSessionAcquire(t *testing.T) {
	s := NewSession(newSessionClient(), "https://repo.example.org")

	release, err := s.acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.acquire(ctx)
	assert.ErrorIs(t, err, context.Canceled, "a held session must not block a canceled caller")

	release()
	release2, err := s.acquire(context.Background())
	require.NoError(t, err)
	release2()
}

func TestSessionEnabled(t *testing.T) {
	assert.False(t, NewSession(newSessionClient(), "").Enabled())
	assert.True(t, NewSession(newSessionClient(), "https://repo.example.org/").Enabled())
}
