// Package pmc retrieves structured full text from the PMC open archive via
// the NCBI efetch endpoint and sectionizes the JATS article markup.
package pmc

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/labsignal/evidence-service/internal/domain"
	"github.com/labsignal/evidence-service/internal/fulltext"
	"github.com/labsignal/evidence-service/internal/sections"
)

const eFetchURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi"

// Retriever is the highest-priority tier: PMC holds publisher-deposited
// JATS XML, the only source with reliable section structure.
type Retriever struct {
	client   *fulltext.Client
	resolver *fulltext.Resolver
	apiKey   string
	fetchURL string
	logger   zerolog.Logger
}

// New creates the PMC retriever.
func New(client *fulltext.Client, resolver *fulltext.Resolver, apiKey string, logger zerolog.Logger) *Retriever {
	return &Retriever{
		client:   client,
		resolver: resolver,
		apiKey:   apiKey,
		fetchURL: eFetchURL,
		logger:   logger.With().Str("component", "pmc").Logger(),
	}
}

// Source implements fulltext.Retriever.
func (r *Retriever) Source() domain.SourceType { return domain.SourceTypePMC }

// Name implements fulltext.Retriever.
func (r *Retriever) Name() string { return "pmc" }

// Enabled implements fulltext.Retriever. PMC needs no credentials.
func (r *Retriever) Enabled() bool { return true }

// Retrieve resolves the DOI to a PMCID, fetches the JATS article and
// sectionizes it.
func (r *Retriever) Retrieve(ctx context.Context, doi string, _ fulltext.Hints) *domain.Document {
	pmcid, err := r.resolver.PMCID(ctx, doi)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			r.logger.Warn().Err(err).Str("doi", doi).Msg("pmcid resolution failed")
		}
		return domain.FailedDocument(doi, r.Source(), "no PMCID for DOI")
	}

	params := url.Values{
		"db":      {"pmc"},
		"id":      {strings.TrimPrefix(pmcid, "PMC")},
		"retmode": {"xml"},
	}
	if r.apiKey != "" {
		params.Set("api_key", r.apiKey)
	}

	body, err := r.client.Get(ctx, r.fetchURL, params)
	if err != nil {
		r.logger.Warn().Err(err).Str("doi", doi).Str("pmcid", pmcid).Msg("efetch failed")
		return domain.FailedDocument(doi, r.Source(), "efetch failed: "+err.Error())
	}

	secs, err := Sectionize(body)
	if err != nil {
		r.logger.Warn().Err(err).Str("doi", doi).Str("pmcid", pmcid).Msg("JATS parse failed")
		return domain.FailedDocument(doi, r.Source(), "JATS parse failed: "+err.Error())
	}

	return domain.NewDocument(doi, pmcid, r.Source(), secs)
}

// Sectionize parses a JATS article document into sections. Front and back
// matter each become a single section; the body's top-level and nested
// <sec> elements become one section each, a parent's text excluding the
// text of its nested sections so no text contributes twice. A body without
// <sec> structure falls back to one flat body section.
func Sectionize(data []byte) ([]domain.Section, error) {
	root, err := fulltext.ParseXML(data)
	if err != nil {
		return nil, domain.NewParseError("pmc", "malformed JATS XML", err)
	}

	article := root
	if !root.Is("article") {
		if article = root.Find("article"); article == nil {
			return nil, domain.NewParseError("pmc", "no article element", nil)
		}
	}

	var secs []domain.Section

	if front := article.Find("front"); front != nil {
		if text := front.FlatText(); text != "" {
			secs = append(secs, domain.Section{Name: "front", Text: text, Type: domain.SectionFront})
		}
	}

	if body := article.Find("body"); body != nil {
		topLevel := body.ChildrenNamed("sec")
		if len(topLevel) == 0 {
			if text := body.TextExcluding("ref-list"); text != "" {
				secs = append(secs, domain.Section{Name: "body", Text: text, Type: domain.SectionBody})
			}
		} else {
			for _, sec := range topLevel {
				secs = appendSec(secs, sec)
			}
		}
	}

	if back := article.Find("back"); back != nil {
		if text := back.TextExcluding("ref-list"); text != "" {
			secs = append(secs, domain.Section{Name: "back", Text: text, Type: domain.SectionBack})
		}
	}

	return secs, nil
}

// appendSec adds one <sec> and, recursively, its nested <sec> children.
func appendSec(secs []domain.Section, sec *fulltext.XMLNode) []domain.Section {
	name := "body"
	if titles := sec.ChildrenNamed("title"); len(titles) > 0 {
		if t := titles[0].FlatText(); t != "" {
			name = t
		}
	}

	text := sec.TextExcluding("sec", "title")
	if text != "" || name != "body" {
		secs = append(secs, sections.New(name, text))
	}

	for _, child := range sec.ChildrenNamed("sec") {
		secs = appendSec(secs, child)
	}
	return secs
}
