package model

import "strings"

// normalizeTag canonicalizes a tag for comparison: lowercase, trimmed.
func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// NormalizeTag exports normalizeTag for callers outside this package.
func NormalizeTag(tag string) string { return normalizeTag(tag) }

// NormalizeTags lowercases and dedupes a tag set.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		nt := normalizeTag(t)
		if nt == "" || seen[nt] {
			continue
		}
		seen[nt] = true
		out = append(out, nt)
	}
	return out
}

// HasTag reports whether tags contains needle, case-insensitively.
func HasTag(tags []string, needle string) bool {
	nt := normalizeTag(needle)
	for _, t := range tags {
		if normalizeTag(t) == nt {
			return true
		}
	}
	return false
}

// tokenize lowercases s, strips punctuation to word characters, and splits
// on whitespace. Shared by Memory.Tokens and the scoring engine's query
// preparation so both sides of a keyword match agree on what a "word" is.
func tokenize(s string) []string {
	lower := strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if isWordRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Fields(b.String())
}

// Tokenize exports tokenize for callers outside this package (the scoring
// engine tokenizes queries the same way memory content is tokenized).
func Tokenize(s string) []string { return tokenize(s) }

func isWordRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_':
		return true
	default:
		return false
	}
}
