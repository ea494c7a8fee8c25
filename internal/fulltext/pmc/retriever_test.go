package pmc

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

const jatsArticle = `<?xml version="1.0"?>
<pmc-articleset>
  <article>
    <front>
      <article-meta><title-group><article-title>A Rat Study</article-title></title-group></article-meta>
    </front>
    <body>
      <sec>
        <title>Introduction</title>
        <p>Background on the disease.</p>
      </sec>
      <sec>
        <title>Materials and Methods</title>
        <p>Rats were anesthetized.</p>
        <sec>
          <title>Animals</title>
          <p>Male Wistar rats were used.</p>
        </sec>
      </sec>
      <sec>
        <title>Results</title>
        <p>Tumors shrank.</p>
      </sec>
    </body>
    <back>
      <ack><p>We thank the staff.</p></ack>
      <ref-list><ref>Citation one</ref></ref-list>
    </back>
  </article>
</pmc-articleset>`

func TestSectionize_JATS(t *testing.T) {
	secs, err := Sectionize([]byte(jatsArticle))
	require.NoError(t, err)
	require.Len(t, secs, 6)

	assert.Equal(t, "front", secs[0].Name)
	assert.Equal(t, domain.SectionFront, secs[0].Type)
	assert.Contains(t, secs[0].Text, "A Rat Study")

	assert.Equal(t, "Introduction", secs[1].Name)
	assert.Equal(t, domain.SectionIntroduction, secs[1].Type)

	methods := secs[2]
	assert.Equal(t, "Materials and Methods", methods.Name)
	assert.Equal(t, domain.SectionMethods, methods.Type)
	assert.Equal(t, "Rats were anesthetized.", methods.Text,
		"nested subsection text must not leak into the parent")

	animals := secs[3]
	assert.Equal(t, "Animals", animals.Name)
	assert.Contains(t, animals.Text, "Wistar")

	assert.Equal(t, "Results", secs[4].Name)

	back := secs[5]
	assert.Equal(t, "back", back.Name)
	assert.Contains(t, back.Text, "We thank the staff.")
	assert.NotContains(t, back.Text, "Citation one", "reference list must be excluded")
}

func TestSectionize_BodyWithoutSecs(t *testing.T) {
	flat := `<article><body><p>All the text in one run.</p><ref-list><ref>x</ref></ref-list></body></article>`
	secs, err := Sectionize([]byte(flat))
	require.NoError(t, err)
	require.Len(t, secs, 1)
	assert.Equal(t, "body", secs[0].Name)
	assert.Equal(t, "All the text in one run.", secs[0].Text)
}

func TestSectionize_Malformed(t *testing.T) {
	_, err := Sectionize([]byte("<article><body>"))
	assert.Error(t, err)

	_, err = Sectionize([]byte("<not-an-article/>"))
	assert.ErrorIs(t, err, domain.ErrParse)
}

func TestRetrieve(t *testing.T) {
	logger := zerolog.Nop()

	newTestRetriever := func(t *testing.T, efetch http.HandlerFunc, pmcid string) *Retriever {
		t.Helper()
		mux := http.NewServeMux()
		mux.HandleFunc("/idconv", func(w http.ResponseWriter, r *http.Request) {
			if pmcid == "" {
				_, _ = w.Write([]byte(`{"records":[]}`))
				return
			}
			_, _ = w.Write([]byte(`{"records":[{"pmcid":"` + pmcid + `"}]}`))
		})
		mux.HandleFunc("/esearch", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"esearchresult":{"idlist":[]}}`))
		})
		mux.HandleFunc("/efetch", efetch)
		server := httptest.NewServer(mux)
		t.Cleanup(server.Close)

		client := fulltext.NewClient(fulltext.ClientConfig{Source: "ncbi", MaxAttempts: 1}, nil)
		resolver := fulltext.NewResolver(client, "", "", logger)
		resolver.IDConvURL = server.URL + "/idconv"
		resolver.ESearchURL = server.URL + "/esearch"
		r := New(client, resolver, "", logger)
		r.fetchURL = server.URL + "/efetch"
		return r
	}

	t.Run("retrieves and sectionizes", func(t *testing.T) {
		r := newTestRetriever(t, func(w http.ResponseWriter, req *http.Request) {
			assert.Equal(t, "pmc", req.URL.Query().Get("db"))
			assert.Equal(t, "7654321", req.URL.Query().Get("id"), "PMC prefix stripped for efetch")
			_, _ = w.Write([]byte(jatsArticle))
		}, "PMC7654321")

		doc := r.Retrieve(context.Background(), "10.1234/abc", fulltext.Hints{})
		require.NotNil(t, doc)
		assert.True(t, doc.Success)
		assert.Equal(t, domain.SourceTypePMC, doc.Source)
		assert.Equal(t, "PMC7654321", doc.ResolvedID)
		assert.True(t, doc.HasMethodsSection())
	})

	t.Run("no pmcid fails the tier", func(t *testing.T) {
		r := newTestRetriever(t, func(w http.ResponseWriter, req *http.Request) {
			t.Error("efetch must not be called without a PMCID")
		}, "")

		doc := r.Retrieve(context.Background(), "10.1234/abc", fulltext.Hints{})
		require.NotNil(t, doc)
		assert.False(t, doc.Success)
		assert.Contains(t, doc.Error, "no PMCID")
	})

	t.Run("malformed response fails the tier", func(t *testing.T) {
		r := newTestRetriever(t, func(w http.ResponseWriter, req *http.Request) {
			_, _ = w.Write([]byte("<broken"))
		}, "PMC1")

		doc := r.Retrieve(context.Background(), "10.1234/abc", fulltext.Hints{})
		require.NotNil(t, doc)
		assert.False(t, doc.Success)
	})
}
