package mentor

import (
	"strings"
	"unicode"
)

// normalize lowercases s, drops punctuation and collapses whitespace.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		case r == '-' || r == '/':
			// keep word boundaries for "follow-up", "and/or"
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// hasTerm reports whether term occurs in norm starting at a word boundary.
// "fraction" matches "fractions" but "art" does not match "start".
func hasTerm(norm, term string) bool {
	if norm == "" || term == "" {
		return false
	}
	return strings.Contains(" "+norm, " "+term)
}

// hasWord reports whether term occurs in norm as whole words.
func hasWord(norm, term string) bool {
	if norm == "" || term == "" {
		return false
	}
	return strings.Contains(" "+norm+" ", " "+term+" ")
}

func hasAnyTerm(norm string, terms []string) bool {
	for _, t := range terms {
		if hasTerm(norm, t) {
			return true
		}
	}
	return false
}

func hasAnyWord(norm string, terms []string) bool {
	for _, t := range terms {
		if hasWord(norm, t) {
			return true
		}
	}
	return false
}

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "of": {}, "to": {}, "for": {},
	"on": {}, "in": {}, "about": {}, "with": {}, "me": {}, "my": {}, "i": {}, "is": {},
	"it": {}, "this": {}, "that": {}, "lesson": {}, "lessons": {}, "please": {}, "can": {},
	"you": {}, "some": {}, "any": {}, "find": {}, "show": {}, "search": {}, "look": {},
	"looking": {}, "do": {}, "have": {}, "there": {}, "one": {}, "grade": {},
}

// tokenSet returns the distinct content words of s.
func tokenSet(s string) map[string]struct{} {
	parts := strings.Fields(normalize(s))
	set := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		if len(p) < 3 {
			continue
		}
		if _, stop := stopWords[p]; stop {
			continue
		}
		set[p] = struct{}{}
	}
	return set
}

func overlap(a, b map[string]struct{}) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	count := 0
	for k := range a {
		if _, ok := b[k]; ok {
			count++
		}
	}
	return count
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
