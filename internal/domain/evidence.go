package domain

// EvidenceCategory groups the matches of one named pattern within a text:
// the keywords the pattern matched and the sentences containing them.
// Keyword and sentence lists are deduplicated case-insensitively with the
// first-seen casing preserved; their order carries no meaning.
type EvidenceCategory struct {
	// Label is the category name (e.g. "anesthesia", "ethics_committee").
	Label string `json:"label"`
	// KeywordsFound are the distinct matched strings for this category.
	KeywordsFound []string `json:"keywords_found"`
	// Sentences are the distinct sentences containing any matched keyword.
	Sentences []string `json:"sentences"`
}

// EvidenceBundle aggregates all category evidence extracted from one
// document for one analysis domain. Absence of evidence is a valid state:
// an empty bundle with a sentinel summary, never an error.
type EvidenceBundle struct {
	// Domain names the analysis domain ("animal", "ethics").
	Domain string `json:"domain"`
	// Categories maps category labels to their evidence. Categories with
	// zero matches are absent.
	Categories map[string]EvidenceCategory `json:"categories"`
	// Entities are detected named entities relevant to the domain
	// (species for animal studies, institutions for ethics).
	Entities []string `json:"entities,omitempty"`
	// AllKeywords is the deduplicated union of keywords across categories.
	AllKeywords []string `json:"all_keywords"`
	// AllSentences is the deduplicated union of evidence sentences.
	AllSentences []string `json:"all_sentences"`
	// Summary is a human-readable digest: detected entities (first 3) and
	// the first 3 evidence sentences, or a "no evidence" sentinel.
	Summary string `json:"summary"`
}

// Empty reports whether the bundle contains no evidence at all.
func (b *EvidenceBundle) Empty() bool {
	return len(b.Categories) == 0 && len(b.Entities) == 0
}
