// Package scoring implements keyword ranking with recency/access/last-access
// decay, hybrid keyword+vector merge, abstention, and threshold filtering.
package scoring

import "memento/internal/model"

// stopWords is the fixed, closed set dropped from prepared query terms.
// Deliberately small: short numeric tokens and domain words must survive.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "has": true, "have": true,
	"in": true, "is": true, "it": true, "of": true, "on": true, "or": true,
	"that": true, "the": true, "this": true, "to": true, "was": true, "were": true,
	"will": true, "with": true,
}

// PrepareQuery tokenizes query the same way memory content is tokenized,
// drops stop words, and falls back to the unfiltered token list if that
// leaves nothing (the degenerate-query safeguard).
func PrepareQuery(query string) []string {
	tokens := model.Tokenize(query)
	if len(tokens) == 0 {
		return nil
	}
	filtered := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !stopWords[t] {
			filtered = append(filtered, t)
		}
	}
	if len(filtered) == 0 {
		return tokens
	}
	return filtered
}
