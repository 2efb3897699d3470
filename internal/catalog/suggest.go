package catalog

import "github.com/antzucaro/matchr"

const defaultSuggestionThreshold = 0.6

// Suggester proposes the nearest catalog product for a phrase that no
// matching strategy resolved, so a clarification UI can offer a manual pick.
// It is read-only after construction and safe for concurrent use.
type Suggester struct {
	threshold float64
}

// SuggestOption is a functional option for configuring a Suggester.
type SuggestOption func(*Suggester)

// WithSuggestionThreshold sets the minimum Jaro-Winkler similarity required
// for a suggestion to be offered. Default: 0.6.
func WithSuggestionThreshold(threshold float64) SuggestOption {
	return func(s *Suggester) {
		if threshold > 0 {
			s.threshold = threshold
		}
	}
}

// NewSuggester returns a Suggester configured with the supplied options.
func NewSuggester(opts ...SuggestOption) *Suggester {
	s := &Suggester{threshold: defaultSuggestionThreshold}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Suggest returns the product whose normalized name is most similar to the
// spoken phrase by Jaro-Winkler distance, provided the score clears the
// threshold. Ties break by lowest product ID. Returns nil when nothing is
// close enough.
func (s *Suggester) Suggest(spoken string, products []Product) *Product {
	n := Normalize(spoken)
	if n == "" {
		return nil
	}

	var best *Product
	bestScore := 0.0
	for i := range products {
		score := matchr.JaroWinkler(n, Normalize(products[i].Name), true)
		if score < s.threshold {
			continue
		}
		cand := &products[i]
		if best == nil || score > bestScore || (score == bestScore && cand.ID < best.ID) {
			best = cand
			bestScore = score
		}
	}
	return best
}
