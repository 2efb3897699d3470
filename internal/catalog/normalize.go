package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks removes Unicode combining marks after NFD decomposition, so
// "azúcar" and "azucar" normalize identically.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize maps a product name or spoken phrase to its canonical comparison
// form: lowercased, trimmed, diacritics removed. Matching operates solely on
// normalized strings.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		// Transform failure leaves the lowercased input usable as-is.
		return s
	}
	return out
}

// Tokenize splits a normalized string into whitespace-separated tokens.
// Callers must Normalize first; Tokenize performs no case folding itself.
func Tokenize(s string) []string {
	return strings.Fields(s)
}

// tokenSet builds a set from tokens for overlap counting.
func tokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}
