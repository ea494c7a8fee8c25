package evidence

import "strings"

// Extract applies each category pattern to the text independently and
// returns the distinct matched strings per category label. Categories with
// zero matches are omitted from the result map.
//
// Matches are deduplicated case-insensitively; the first-seen casing is
// preserved. Extract is pure: the same input always yields the same sets.
func Extract(categories []Category, text string) map[string][]string {
	hits := make(map[string][]string)
	for _, cat := range categories {
		found := cat.Pattern.FindAllString(text, -1)
		if len(found) == 0 {
			continue
		}
		hits[cat.Label] = dedupe(found)
	}
	return hits
}

// DetectLabels returns the labels of all categories with at least one match.
// Used for entity detection (species, strains) where the matched text
// matters less than which pattern fired.
func DetectLabels(categories []Category, text string) []string {
	var labels []string
	for _, cat := range categories {
		if cat.Pattern.MatchString(text) {
			labels = append(labels, cat.Label)
		}
	}
	return labels
}

// dedupe removes duplicates case-insensitively, preserving first occurrence
// order and casing.
func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}
