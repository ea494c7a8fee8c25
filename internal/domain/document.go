// Package domain defines the core types shared across the evidence service:
// resolved documents and their sections, evidence bundles, and the error
// taxonomy used at component boundaries.
package domain

import (
	"regexp"
	"strings"
)

// SourceType identifies which full-text source produced a document.
type SourceType string

// Known full-text sources, in descending priority order.
const (
	SourceTypePMC       SourceType = "pmc"
	SourceTypePubMed    SourceType = "pubmed"
	SourceTypeElsevier  SourceType = "elsevier"
	SourceTypeUBN       SourceType = "ubn"
	SourceTypeUnpaywall SourceType = "unpaywall"
	SourceTypeNone      SourceType = "none"
)

// SectionType is the semantic classification of a document section,
// inferred once from the section heading and never revised.
type SectionType string

// Section types. Front, body and back mirror the structural containers of
// JATS; the rest are inferred from heading text.
const (
	SectionFront        SectionType = "front"
	SectionBody         SectionType = "body"
	SectionBack         SectionType = "back"
	SectionMethods      SectionType = "methods"
	SectionResults      SectionType = "results"
	SectionDiscussion   SectionType = "discussion"
	SectionIntroduction SectionType = "introduction"
	SectionTitle        SectionType = "title"
	SectionAbstract     SectionType = "abstract"
	SectionKeywords     SectionType = "keywords"
)

// Section is a named, typed span of a document's text.
type Section struct {
	// Name is the section heading as it appeared in the source markup.
	Name string `json:"name"`
	// Text is the extracted plain text of the section.
	Text string `json:"text"`
	// Type is the semantic classification inferred from Name at creation.
	Type SectionType `json:"type"`
}

// methodsHeading matches headings that name a methods-like section even when
// the section was classified as plain body text.
var methodsHeading = regexp.MustCompile(`(?i)\b(methods?|materials\s+and\s+methods?|experimental\s+procedures?)\b`)

// ethicsHeading matches headings that name an ethics-like section.
var ethicsHeading = regexp.MustCompile(`(?i)\b(ethical\s+approval|animal\s+care|animal\s+use|animal\s+experiment|animal\s+study)\b`)

// Document is the normalized result of one full-text resolution attempt.
// A Document is created once by the retriever that produced it and must not
// be mutated afterwards; ownership passes to the orchestrator and then to
// the caller.
type Document struct {
	// DOI is the identifier the resolution was requested for.
	DOI string `json:"doi"`
	// ResolvedID is the source-specific accession identifier (e.g. a PMCID
	// or PMID), when one was resolved. Empty otherwise.
	ResolvedID string `json:"resolved_id,omitempty"`
	// Source names the tier that produced this document.
	Source SourceType `json:"source"`
	// Sections holds the extracted sections in document order.
	Sections []Section `json:"sections,omitempty"`
	// FullText is the single-space join of all non-empty section texts,
	// in section order.
	FullText string `json:"full_text,omitempty"`
	// Success reports whether at least one non-empty section was extracted.
	Success bool `json:"success"`
	// Error describes why retrieval failed when Success is false.
	Error string `json:"error,omitempty"`
}

// NewDocument builds a successful Document from extracted sections.
// FullText and Success are derived here so they stay consistent with the
// section list. If sections is empty the document is marked failed.
func NewDocument(doi, resolvedID string, source SourceType, sections []Section) *Document {
	doc := &Document{
		DOI:        doi,
		ResolvedID: resolvedID,
		Source:     source,
		Sections:   sections,
		FullText:   JoinSectionText(sections),
	}
	for _, s := range sections {
		if s.Text != "" {
			doc.Success = true
			break
		}
	}
	if !doc.Success {
		doc.Error = "no sections extracted"
	}
	return doc
}

// FailedDocument builds an unsuccessful Document carrying an error message.
func FailedDocument(doi string, source SourceType, errMsg string) *Document {
	return &Document{
		DOI:     doi,
		Source:  source,
		Success: false,
		Error:   errMsg,
	}
}

// JoinSectionText concatenates the non-empty section texts in order, joined
// by single spaces. Each section contributes exactly once.
func JoinSectionText(sections []Section) string {
	texts := make([]string, 0, len(sections))
	for _, s := range sections {
		if s.Text != "" {
			texts = append(texts, s.Text)
		}
	}
	return strings.Join(texts, " ")
}

// HasMethodsSection reports whether the document contains a methods-like
// section: any section typed as methods, or whose heading matches the
// methods-keyword pattern. This is the minimum-content predicate the
// resolution orchestrator applies uniformly to every tier.
func (d *Document) HasMethodsSection() bool {
	for _, s := range d.Sections {
		if s.Type == SectionMethods {
			return true
		}
		if methodsHeading.MatchString(s.Name) {
			return true
		}
	}
	return false
}

// MethodsText returns the concatenated text of all methods-like sections,
// joined by " \n\n". Empty when no methods-like section exists.
func (d *Document) MethodsText() string {
	return joinMatching(d.Sections, SectionMethods, methodsHeading)
}

// EthicsText returns the concatenated text of all ethics-like sections,
// joined by " \n\n". Ethics statements often live in dedicated back-matter
// sections whose headings name approval or animal care.
func (d *Document) EthicsText() string {
	return joinMatching(d.Sections, "", ethicsHeading)
}

func joinMatching(sections []Section, typ SectionType, heading *regexp.Regexp) string {
	var texts []string
	for _, s := range sections {
		if s.Text == "" {
			continue
		}
		if (typ != "" && s.Type == typ) || heading.MatchString(s.Name) {
			texts = append(texts, s.Text)
		}
	}
	return strings.TrimSpace(strings.Join(texts, " \n\n"))
}
