// Package sections classifies document sections by heading text.
//
// Classification is a heuristic that must generalize across document
// structures (JATS from PMC, TEI from the extraction service, publisher
// markup), so it is expressed as an ordered table of (pattern, type) rules
// evaluated top to bottom, first match wins. A heading that matches no rule
// is plain body text.
package sections

import (
	"regexp"

	"github.com/labsignal/evidence-service/internal/domain"
)

type rule struct {
	pattern *regexp.Regexp
	typ     domain.SectionType
}

// Rule order matters: a compound heading can match more than one rule and
// the first wins, so "Results and Discussion" resolves to results because
// the results rule is evaluated before the discussion rule.
var rules = []rule{
	{regexp.MustCompile(`(?i)\b(methods?|materials?(\s+and\s+methods?)?|experimental\s+procedures?)\b`), domain.SectionMethods},
	{regexp.MustCompile(`(?i)\b(results?|findings?)\b`), domain.SectionResults},
	{regexp.MustCompile(`(?i)\b(discussion|conclusions?)\b`), domain.SectionDiscussion},
	{regexp.MustCompile(`(?i)\b(introduction|background)\b`), domain.SectionIntroduction},
}

// Classify infers the section type from a heading. It is called exactly once
// per section, at creation; section types are never revised afterwards.
func Classify(heading string) domain.SectionType {
	for _, r := range rules {
		if r.pattern.MatchString(heading) {
			return r.typ
		}
	}
	return domain.SectionBody
}

// New builds a Section with its type inferred from the heading.
func New(name, text string) domain.Section {
	return domain.Section{Name: name, Text: text, Type: Classify(name)}
}

// stopAfterMethods matches headings that terminate a methods division's
// content collection in flat markup.
var stopAfterMethods = regexp.MustCompile(`(?i)\b(results?|discussion|conclusions?)\b`)

// EndsMethods reports whether a heading encountered inside a methods
// division should stop further content collection for that division.
func EndsMethods(heading string) bool {
	return stopAfterMethods.MatchString(heading)
}
