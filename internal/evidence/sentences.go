package evidence

import (
	"regexp"
	"strings"
)

// minSentenceLength discards fragments too short to carry evidence.
const minSentenceLength = 10

var sentenceEndings = regexp.MustCompile(`[.!?]+`)

// SplitSentences splits text on runs of sentence-terminal punctuation and
// returns the trimmed fragments of at least minSentenceLength characters.
func SplitSentences(text string) []string {
	parts := sentenceEndings.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if len(p) < minSentenceLength {
			continue
		}
		out = append(out, p)
	}
	return out
}

// LocateSentences returns the distinct sentences of text that contain any of
// the keywords as a whole-word, case-insensitive match.
func LocateSentences(text string, keywords []string) []string {
	if len(keywords) == 0 {
		return nil
	}
	patterns := make([]*regexp.Regexp, 0, len(keywords))
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		patterns = append(patterns, wholeWord(kw))
	}

	var matched []string
	for _, sentence := range SplitSentences(text) {
		for _, p := range patterns {
			if p.MatchString(sentence) {
				matched = append(matched, sentence)
				break
			}
		}
	}
	return dedupe(matched)
}

// wholeWord compiles a case-insensitive whole-word pattern for a literal
// keyword. Multi-word keywords match with their internal whitespace intact.
func wholeWord(keyword string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(keyword) + `\b`)
}
