package vectorstore

import "strings"

// stopWords is the fixed set of common English function words excluded from
// indexing and queries.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "is": {}, "it": {}, "in": {}, "on": {},
	"at": {}, "to": {}, "of": {}, "for": {}, "and": {}, "or": {}, "not": {},
	"with": {}, "this": {}, "that": {}, "from": {}, "by": {}, "as": {},
	"be": {}, "was": {}, "are": {}, "were": {}, "been": {}, "has": {},
	"have": {}, "had": {}, "do": {}, "does": {}, "did": {}, "will": {},
	"can": {}, "could": {}, "would": {}, "should": {}, "may": {}, "might": {},
	"i": {}, "you": {}, "we": {}, "they": {}, "he": {}, "she": {}, "my": {},
	"your": {}, "our": {}, "its": {}, "me": {}, "us": {}, "if": {}, "so": {},
	"but": {}, "no": {}, "yes": {}, "what": {}, "how": {}, "when": {},
	"where": {}, "who": {}, "which": {}, "am": {}, "up": {}, "out": {},
	"about": {}, "also": {}, "just": {}, "all": {}, "more": {},
}

// Tokenize normalises raw text into index terms: lowercase, strip everything
// outside [a-z0-9], split on whitespace, drop single-character tokens and
// stop words. Pure function; an input with no qualifying terms yields an
// empty slice, not an error.
func Tokenize(text string) []string {
	lower := strings.ToLower(text)
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if len(word) <= 1 {
			continue
		}
		if _, isStop := stopWords[word]; isStop {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}
