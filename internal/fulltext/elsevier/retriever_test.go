package elsevier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labsignal/evidence-service/internal/domain"
	"github.com/labsignal/evidence-service/internal/fulltext"
)

const articleXML = `<?xml version="1.0"?>
<full-text-retrieval-response>
  <originalText>
    <section>
      <section-title>Introduction</section-title>
      <para>Background text.</para>
    </section>
    <section>
      <section-title>Methods</section-title>
      <para>Mice were dosed at 10 mg/kg.</para>
      <section>
        <section-title>Statistics</section-title>
        <para>ANOVA was applied.</para>
      </section>
    </section>
  </originalText>
</full-text-retrieval-response>`

const coredataXML = `<?xml version="1.0"?>
<full-text-retrieval-response>
  <coredata>
    <title>An Article Behind a Paywall</title>
    <description>The abstract of the article.</description>
  </coredata>
</full-text-retrieval-response>`

func newTestRetriever(apiKey string, publishers []string) *Retriever {
	client := fulltext.NewClient(fulltext.ClientConfig{Source: "elsevier", MaxAttempts: 1}, nil)
	return New(client, apiKey, publishers, zerolog.Nop())
}

func TestEnabled(t *testing.T) {
	assert.False(t, newTestRetriever("", nil).Enabled())
	assert.True(t, newTestRetriever("key", nil).Enabled())
}

func TestHandles(t *testing.T) {
	r := newTestRetriever("key", []string{"Elsevier BV", "Elsevier"})

	assert.True(t, r.Handles("Elsevier BV"))
	assert.True(t, r.Handles("elsevier bv"))
	assert.True(t, r.Handles("Published by Elsevier Inc."))
	assert.False(t, r.Handles("Springer Nature"))
	assert.False(t, r.Handles(""))
}

func TestSectionize_OriginalText(t *testing.T) {
	secs, err := Sectionize([]byte(articleXML))
	require.NoError(t, err)
	require.Len(t, secs, 3)

	assert.Equal(t, "Introduction", secs[0].Name)

	methods := secs[1]
	assert.Equal(t, "Methods", methods.Name)
	assert.Equal(t, domain.SectionMethods, methods.Type)
	assert.Equal(t, "Mice were dosed at 10 mg/kg.", methods.Text,
		"nested section text must stay out of the parent")

	assert.Equal(t, "Statistics", secs[2].Name)
	assert.Equal(t, "ANOVA was applied.", secs[2].Text)
}

func TestSectionize_CoredataFallback(t *testing.T) {
	secs, err := Sectionize([]byte(coredataXML))
	require.NoError(t, err)
	require.Len(t, secs, 2)

	assert.Equal(t, domain.SectionTitle, secs[0].Type)
	assert.Equal(t, "An Article Behind a Paywall", secs[0].Text)
	assert.Equal(t, domain.SectionAbstract, secs[1].Type)
}

func TestRetrieve(t *testing.T) {
	t.Run("fetches for handled publisher", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "text/xml", r.URL.Query().Get("httpAccept"))
			assert.Contains(t, r.URL.Path, "10.1016")
			_, _ = w.Write([]byte(articleXML))
		}))
		defer server.Close()

		r := newTestRetriever("key", []string{"Elsevier"})
		r.baseURL = server.URL + "/content/article/doi/"

		doc := r.Retrieve(context.Background(), "10.1016/j.test.2024.01.001", fulltext.Hints{Publisher: "Elsevier BV"})
		require.NotNil(t, doc)
		assert.True(t, doc.Success)
		assert.Equal(t, domain.SourceTypeElsevier, doc.Source)
		assert.True(t, doc.HasMethodsSection())
	})

	t.Run("unmatched publisher fails without an upstream call", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("no upstream call expected")
		}))
		defer server.Close()

		r := newTestRetriever("key", []string{"Elsevier"})
		r.baseURL = server.URL + "/"

		doc := r.Retrieve(context.Background(), "10.1007/xyz", fulltext.Hints{Publisher: "Springer Nature"})
		require.NotNil(t, doc)
		assert.False(t, doc.Success)
		assert.Equal(t, "publisher not handled", doc.Error)
	})

	t.Run("missing publisher hint fails closed", func(t *testing.T) {
		r := newTestRetriever("key", []string{"Elsevier"})
		doc := r.Retrieve(context.Background(), "10.1016/abc", fulltext.Hints{})
		assert.False(t, doc.Success)
	})
}
