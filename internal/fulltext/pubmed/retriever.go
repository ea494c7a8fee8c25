// Package pubmed retrieves article metadata from the PubMed registry via
// efetch. PubMed has no full text; this tier yields title, abstract and
// MeSH terms, which is enough for evidence extraction when the abstract
// describes the methods.
package pubmed

import (
	"context"
	"encoding/xml"
	"errors"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/labsignal/evidence-service/internal/domain"
	"github.com/labsignal/evidence-service/internal/fulltext"
)

const eFetchURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi"

// Retriever is the metadata fallback tier behind PMC.
type Retriever struct {
	client   *fulltext.Client
	resolver *fulltext.Resolver
	apiKey   string
	fetchURL string
	logger   zerolog.Logger
}

// New creates the PubMed retriever.
func New(client *fulltext.Client, resolver *fulltext.Resolver, apiKey string, logger zerolog.Logger) *Retriever {
	return &Retriever{
		client:   client,
		resolver: resolver,
		apiKey:   apiKey,
		fetchURL: eFetchURL,
		logger:   logger.With().Str("component", "pubmed").Logger(),
	}
}

// Source implements fulltext.Retriever.
func (r *Retriever) Source() domain.SourceType { return domain.SourceTypePubMed }

// Name implements fulltext.Retriever.
func (r *Retriever) Name() string { return "pubmed" }

// Enabled implements fulltext.Retriever. PubMed needs no credentials.
func (r *Retriever) Enabled() bool { return true }

// Retrieve resolves the DOI to a PMID and fetches the citation record.
func (r *Retriever) Retrieve(ctx context.Context, doi string, _ fulltext.Hints) *domain.Document {
	pmid, err := r.resolver.PMID(ctx, doi)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			r.logger.Warn().Err(err).Str("doi", doi).Msg("pmid resolution failed")
		}
		return domain.FailedDocument(doi, r.Source(), "no PMID for DOI")
	}

	params := url.Values{
		"db":      {"pubmed"},
		"id":      {pmid},
		"retmode": {"xml"},
	}
	if r.apiKey != "" {
		params.Set("api_key", r.apiKey)
	}

	body, err := r.client.Get(ctx, r.fetchURL, params)
	if err != nil {
		r.logger.Warn().Err(err).Str("doi", doi).Str("pmid", pmid).Msg("efetch failed")
		return domain.FailedDocument(doi, r.Source(), "efetch failed: "+err.Error())
	}

	secs, err := Sectionize(body)
	if err != nil {
		r.logger.Warn().Err(err).Str("doi", doi).Str("pmid", pmid).Msg("citation parse failed")
		return domain.FailedDocument(doi, r.Source(), "citation parse failed: "+err.Error())
	}

	return domain.NewDocument(doi, pmid, r.Source(), secs)
}

type articleSet struct {
	Articles []struct {
		Citation struct {
			Article struct {
				Title    flatString `xml:"ArticleTitle"`
				Abstract struct {
					Texts []abstractText `xml:"AbstractText"`
				} `xml:"Abstract"`
			} `xml:"Article"`
			MeshHeadings []struct {
				Descriptor string `xml:"DescriptorName"`
			} `xml:"MeshHeadingList>MeshHeading"`
		} `xml:"MedlineCitation"`
	} `xml:"PubmedArticle"`
}

// flatString is element text collected through any inline markup (<i>,
// <sup>); the stock chardata decoding drops the text of child elements.
type flatString string

func (s *flatString) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	text, err := collectFlat(d)
	if err != nil {
		return err
	}
	*s = flatString(text)
	return nil
}

type abstractText struct {
	Label string
	Text  string
}

func (a *abstractText) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		if attr.Name.Local == "Label" {
			a.Label = attr.Value
		}
	}
	text, err := collectFlat(d)
	if err != nil {
		return err
	}
	a.Text = text
	return nil
}

// collectFlat concatenates all character data up to the matching end
// element, in document order.
func collectFlat(d *xml.Decoder) (string, error) {
	var b strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := d.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			b.Write(t)
		}
	}
	return b.String(), nil
}

// Sectionize parses an efetch PubmedArticleSet into metadata sections:
// Title, Abstract (structured abstract labels inlined as "LABEL: text") and
// MeSH Terms joined with semicolons. Sections with no content are omitted.
func Sectionize(data []byte) ([]domain.Section, error) {
	var set articleSet
	if err := xml.Unmarshal(data, &set); err != nil {
		return nil, domain.NewParseError("pubmed", "malformed citation XML", err)
	}
	if len(set.Articles) == 0 {
		return nil, domain.NewParseError("pubmed", "empty article set", nil)
	}

	citation := set.Articles[0].Citation
	var secs []domain.Section

	if title := strings.TrimSpace(string(citation.Article.Title)); title != "" {
		secs = append(secs, domain.Section{Name: "Title", Text: title, Type: domain.SectionTitle})
	}

	if abstract := joinAbstract(citation.Article.Abstract.Texts); abstract != "" {
		secs = append(secs, domain.Section{Name: "Abstract", Text: abstract, Type: domain.SectionAbstract})
	}

	var terms []string
	for _, h := range citation.MeshHeadings {
		if d := strings.TrimSpace(h.Descriptor); d != "" {
			terms = append(terms, d)
		}
	}
	if len(terms) > 0 {
		secs = append(secs, domain.Section{Name: "MeSH Terms", Text: strings.Join(terms, "; "), Type: domain.SectionKeywords})
	}

	return secs, nil
}

func joinAbstract(texts []abstractText) string {
	parts := make([]string, 0, len(texts))
	for _, t := range texts {
		text := strings.TrimSpace(t.Text)
		if text == "" {
			continue
		}
		if t.Label != "" {
			text = t.Label + ": " + text
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, " ")
}
