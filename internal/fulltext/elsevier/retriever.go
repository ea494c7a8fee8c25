// Package elsevier retrieves publisher full text from the Elsevier Article
// Retrieval API. The tier only applies when the article's publisher is one
// of the configured Elsevier imprints and an API key is present.
package elsevier

import (
	"context"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/labsignal/evidence-service/internal/domain"
	"github.com/labsignal/evidence-service/internal/fulltext"
	"github.com/labsignal/evidence-service/internal/sections"
)

const articleURL = "https://api.elsevier.com/content/article/doi/"

// Retriever fetches article XML from the Elsevier API.
type Retriever struct {
	client     *fulltext.Client
	apiKey     string
	publishers []string
	baseURL    string
	logger     zerolog.Logger
}

// New creates the Elsevier retriever. The publishers list names the
// publisher display names this tier handles (e.g. "Elsevier BV"); matching
// is a case-insensitive substring test against the publisher hint.
func New(client *fulltext.Client, apiKey string, publishers []string, logger zerolog.Logger) *Retriever {
	return &Retriever{
		client:     client,
		apiKey:     apiKey,
		publishers: publishers,
		baseURL:    articleURL,
		logger:     logger.With().Str("component", "elsevier").Logger(),
	}
}

// Source implements fulltext.Retriever.
func (r *Retriever) Source() domain.SourceType { return domain.SourceTypeElsevier }

// Name implements fulltext.Retriever.
func (r *Retriever) Name() string { return "elsevier" }

// Enabled implements fulltext.Retriever. The tier is off without an API key.
func (r *Retriever) Enabled() bool { return r.apiKey != "" }

// Handles reports whether the publisher hint names a configured imprint.
func (r *Retriever) Handles(publisher string) bool {
	if publisher == "" {
		return false
	}
	lower := strings.ToLower(publisher)
	for _, p := range r.publishers {
		if strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// Retrieve fetches and sectionizes the article. A DOI whose publisher hint
// does not name a configured imprint fails fast without an upstream call.
func (r *Retriever) Retrieve(ctx context.Context, doi string, hints fulltext.Hints) *domain.Document {
	if !r.Handles(hints.Publisher) {
		return domain.FailedDocument(doi, r.Source(), "publisher not handled")
	}

	params := url.Values{"httpAccept": {"text/xml"}}
	body, err := r.client.Get(ctx, r.baseURL+url.PathEscape(doi), params)
	if err != nil {
		r.logger.Warn().Err(err).Str("doi", doi).Msg("article retrieval failed")
		return domain.FailedDocument(doi, r.Source(), "article retrieval failed: "+err.Error())
	}

	secs, err := Sectionize(body)
	if err != nil {
		r.logger.Warn().Err(err).Str("doi", doi).Msg("article parse failed")
		return domain.FailedDocument(doi, r.Source(), "article parse failed: "+err.Error())
	}

	return domain.NewDocument(doi, "", r.Source(), secs)
}

// Sectionize parses an Elsevier full-text retrieval response. It prefers
// the structured ce:section tree of the original text; when the response
// carries no section structure it falls back to the coredata title and
// abstract so the tier can still contribute metadata.
func Sectionize(data []byte) ([]domain.Section, error) {
	root, err := fulltext.ParseXML(data)
	if err != nil {
		return nil, domain.NewParseError("elsevier", "malformed article XML", err)
	}

	var secs []domain.Section

	if original := root.Find("originalText"); original != nil {
		for _, sec := range original.FindAll("section") {
			name := "body"
			if titles := sec.ChildrenNamed("section-title"); len(titles) > 0 {
				if t := titles[0].FlatText(); t != "" {
					name = t
				}
			}
			text := sec.TextExcluding("section", "section-title")
			if text != "" {
				secs = append(secs, sections.New(name, text))
			}
		}
	}

	if len(secs) > 0 {
		return secs, nil
	}

	if title := root.Find("title"); title != nil {
		if t := title.FlatText(); t != "" {
			secs = append(secs, domain.Section{Name: "Title", Text: t, Type: domain.SectionTitle})
		}
	}
	if desc := root.Find("description"); desc != nil {
		if t := desc.FlatText(); t != "" {
			secs = append(secs, domain.Section{Name: "Abstract", Text: t, Type: domain.SectionAbstract})
		}
	}
	return secs, nil
}
