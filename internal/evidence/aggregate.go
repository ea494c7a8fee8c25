package evidence

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/labsignal/evidence-service/internal/domain"
)

// Analysis domain names accepted by Analyze.
const (
	DomainAnimal = "animal"
	DomainEthics = "ethics"
)

// summaryEntityLimit and summarySentenceLimit bound the summary string; the
// underlying sets are unaffected.
const (
	summaryEntityLimit   = 3
	summarySentenceLimit = 3
)

var institutionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\s+(?:University|Institute|Center|Faculty|Department|School|College|Hospital|Laboratory|Lab)\b`),
	regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\s+Medical\s+Center\b`),
	regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\s+Research\s+Center\b`),
}

// ExtractInstitutions returns the distinct institution names mentioned in
// the text, matched by capitalized-name patterns ending in an institutional
// noun ("... University", "... Medical Center").
func ExtractInstitutions(text string) []string {
	var found []string
	for _, p := range institutionPatterns {
		found = append(found, p.FindAllString(text, -1)...)
	}
	return dedupe(found)
}

// Analyze runs the extraction for one analysis domain over the given text
// and aggregates the result into a bundle. Unknown domains yield an empty
// bundle with the domain's sentinel summary; absence of evidence is a valid
// state, never an error.
func Analyze(analysisDomain, text string) *domain.EvidenceBundle {
	switch analysisDomain {
	case DomainAnimal:
		entities := DetectLabels(SpeciesCategories, text)
		entities = append(entities, DetectLabels(StrainCategories, text)...)
		return aggregate(analysisDomain, AnimalStudyCategories, text, entities, "No in vivo evidence found")
	case DomainEthics:
		return aggregate(analysisDomain, EthicsCategories, text, ExtractInstitutions(text), "No ethics evidence found")
	default:
		return &domain.EvidenceBundle{
			Domain:     analysisDomain,
			Categories: map[string]domain.EvidenceCategory{},
			Summary:    fmt.Sprintf("No %s evidence found", analysisDomain),
		}
	}
}

// Domains lists the analysis domains Analyze understands.
func Domains() []string {
	return []string{DomainAnimal, DomainEthics}
}

// aggregate composes category hits and sentence evidence into one bundle
// with a human-readable summary.
func aggregate(analysisDomain string, categories []Category, text string, entities []string, sentinel string) *domain.EvidenceBundle {
	hits := Extract(categories, text)

	bundle := &domain.EvidenceBundle{
		Domain:     analysisDomain,
		Categories: make(map[string]domain.EvidenceCategory, len(hits)),
		Entities:   entities,
	}

	var allKeywords, allSentences []string
	// Iterate the category table rather than the hit map so keyword and
	// sentence accumulation order is deterministic.
	for _, cat := range categories {
		keywords, ok := hits[cat.Label]
		if !ok {
			continue
		}
		sentences := LocateSentences(text, keywords)
		bundle.Categories[cat.Label] = domain.EvidenceCategory{
			Label:         cat.Label,
			KeywordsFound: keywords,
			Sentences:     sentences,
		}
		allKeywords = append(allKeywords, keywords...)
		allSentences = append(allSentences, sentences...)
	}

	bundle.AllKeywords = dedupe(allKeywords)
	bundle.AllSentences = dedupe(allSentences)
	bundle.Summary = buildSummary(entities, bundle.AllSentences, sentinel)
	return bundle
}

// buildSummary renders the first few entities and evidence sentences, or
// the sentinel when nothing was found.
func buildSummary(entities, sentences []string, sentinel string) string {
	var parts []string
	if len(entities) > 0 {
		parts = append(parts, "Entities: "+strings.Join(limit(entities, summaryEntityLimit), ", "))
	}
	if len(sentences) > 0 {
		parts = append(parts, "Evidence: "+strings.Join(limit(sentences, summarySentenceLimit), " | "))
	}
	if len(parts) == 0 {
		return sentinel
	}
	return strings.Join(parts, "; ")
}

func limit(values []string, n int) []string {
	if len(values) <= n {
		return values
	}
	return values[:n]
}
