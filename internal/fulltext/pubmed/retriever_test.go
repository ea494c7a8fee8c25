package pubmed

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

const citationXML = `<?xml version="1.0"?>
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation>
      <Article>
        <ArticleTitle>Tumor Growth Inhibition Study</ArticleTitle>
        <Abstract>
          <AbstractText Label="METHODS">Rats were anesthetized.</AbstractText>
          <AbstractText Label="RESULTS">Tumors shrank.</AbstractText>
        </Abstract>
      </Article>
      <MeshHeadingList>
        <MeshHeading><DescriptorName>Rats</DescriptorName></MeshHeading>
        <MeshHeading><DescriptorName>Neoplasms</DescriptorName></MeshHeading>
      </MeshHeadingList>
    </MedlineCitation>
  </PubmedArticle>
</PubmedArticleSet>`

func TestSectionize_Citation(t *testing.T) {
	secs, err := Sectionize([]byte(citationXML))
	require.NoError(t, err)
	require.Len(t, secs, 3)

	assert.Equal(t, "Title", secs[0].Name)
	assert.Equal(t, domain.SectionTitle, secs[0].Type)
	assert.Equal(t, "Tumor Growth Inhibition Study", secs[0].Text)

	assert.Equal(t, "Abstract", secs[1].Name)
	assert.Equal(t, domain.SectionAbstract, secs[1].Type)
	assert.Equal(t, "METHODS: Rats were anesthetized. RESULTS: Tumors shrank.", secs[1].Text)

	assert.Equal(t, "MeSH Terms", secs[2].Name)
	assert.Equal(t, domain.SectionKeywords, secs[2].Type)
	assert.Equal(t, "Rats; Neoplasms", secs[2].Text)
}

func TestSectionize_UnlabeledAbstract(t *testing.T) {
	data := `<PubmedArticleSet><PubmedArticle><MedlineCitation><Article>
		<Abstract><AbstractText>Plain abstract text here.</AbstractText></Abstract>
	</Article></MedlineCitation></PubmedArticle></PubmedArticleSet>`

	secs, err := Sectionize([]byte(data))
	require.NoError(t, err)
	require.Len(t, secs, 1)
	assert.Equal(t, "Plain abstract text here.", secs[0].Text)
}

func TestSectionize_InlineMarkup(t *testing.T) {
	// Titles and abstracts carry occasional inline tags; their text must
	// stay in place instead of being dropped or displaced.
	data := `<PubmedArticleSet><PubmedArticle><MedlineCitation><Article>
		<ArticleTitle>Effects of TNF-<i>&#945;</i> blockade in mice</ArticleTitle>
		<Abstract><AbstractText>Mice were dosed at 10 mg kg<sup>-1</sup> daily.</AbstractText></Abstract>
	</Article></MedlineCitation></PubmedArticle></PubmedArticleSet>`

	secs, err := Sectionize([]byte(data))
	require.NoError(t, err)
	require.Len(t, secs, 2)
	assert.Equal(t, "Effects of TNF-α blockade in mice", secs[0].Text)
	assert.Equal(t, "Mice were dosed at 10 mg kg-1 daily.", secs[1].Text)
}

func TestSectionize_EmptySet(t *testing.T) {
	_, err := Sectionize([]byte(`<PubmedArticleSet></PubmedArticleSet>`))
	assert.ErrorIs(t, err, domain.ErrParse)
}

func TestRetrieve(t *testing.T) {
	logger := zerolog.Nop()

	mux := http.NewServeMux()
	mux.HandleFunc("/idconv", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"records":[{"pmid":"31234567"}]}`))
	})
	mux.HandleFunc("/efetch", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "pubmed", r.URL.Query().Get("db"))
		assert.Equal(t, "31234567", r.URL.Query().Get("id"))
		_, _ = w.Write([]byte(citationXML))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := fulltext.NewClient(fulltext.ClientConfig{Source: "ncbi", MaxAttempts: 1}, nil)
	resolver := fulltext.NewResolver(client, "", "", logger)
	resolver.IDConvURL = server.URL + "/idconv"
	r := New(client, resolver, "", logger)
	r.fetchURL = server.URL + "/efetch"

	doc := r.Retrieve(context.Background(), "10.1234/abc", fulltext.Hints{})
	require.NotNil(t, doc)
	assert.True(t, doc.Success)
	assert.Equal(t, domain.SourceTypePubMed, doc.Source)
	assert.Equal(t, "31234567", doc.ResolvedID)
	assert.False(t, doc.HasMethodsSection(), "metadata sections never count as methods")
}
