package triage

import "strings"

// ContainsAny reports whether text contains any of the needles, ignoring case.
// Matching is plain substring containment; empty needles never match.
func ContainsAny(text string, needles []string) bool {
	lower := strings.ToLower(text)
	for _, n := range needles {
		if n == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

// Lexicon is a keyword list used to decide whether free text is on topic.
type Lexicon []string

func (l Lexicon) Matches(text string) bool {
	return ContainsAny(text, l)
}
