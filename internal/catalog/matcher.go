package catalog

import "strings"

// Matching resolves a spoken product phrase against the catalog snapshot
// using an ordered list of deterministic strategies. Earlier strategies are
// strictly more precise; the first one that produces any candidate wins and
// later strategies are not consulted. Within a strategy, candidates are
// ranked by score and ties broken by lowest product ID, so the result never
// depends on catalog iteration order.

const defaultMinSharedTokens = 2

// Option is a functional option for configuring a Matcher.
type Option func(*Matcher)

// WithMinSharedTokens sets the minimum number of shared tokens required for
// the token-overlap strategy to produce a candidate. Default: 2.
func WithMinSharedTokens(n int) Option {
	return func(m *Matcher) {
		if n > 0 {
			m.minSharedTokens = n
		}
	}
}

// Matcher matches spoken phrases against products. It is read-only after
// construction and safe for concurrent use.
type Matcher struct {
	minSharedTokens int
	strategies      []strategy
}

// strategy scores one product against a prepared phrase. A score of 0 means
// no candidate; higher scores rank higher within the same strategy.
type strategy struct {
	name  string
	score func(p *phrase, prod *indexedProduct) int
}

// phrase is a spoken product name prepared for matching.
type phrase struct {
	norm   string
	tokens map[string]struct{}
}

// indexedProduct carries a product with its precomputed normalized forms.
type indexedProduct struct {
	product *Product
	norm    string
	tokens  map[string]struct{}
}

// New returns a Matcher with the standard strategy order: exact equality,
// substring containment in either direction, then token overlap.
func New(opts ...Option) *Matcher {
	m := &Matcher{minSharedTokens: defaultMinSharedTokens}
	for _, o := range opts {
		o(m)
	}
	m.strategies = []strategy{
		{name: "exact", score: scoreExact},
		{name: "containment", score: scoreContainment},
		{name: "token_overlap", score: m.scoreTokenOverlap},
	}
	return m
}

// Match resolves spoken against products. Returns nil when no strategy
// produces a candidate. The same inputs always return the same product.
func (m *Matcher) Match(spoken string, products []Product) *Product {
	p := preparePhrase(spoken)
	if p.norm == "" {
		return nil
	}

	indexed := make([]indexedProduct, len(products))
	for i := range products {
		n := Normalize(products[i].Name)
		indexed[i] = indexedProduct{
			product: &products[i],
			norm:    n,
			tokens:  tokenSet(Tokenize(n)),
		}
	}

	for _, strat := range m.strategies {
		var best *Product
		bestScore := 0
		for i := range indexed {
			score := strat.score(&p, &indexed[i])
			if score <= 0 {
				continue
			}
			cand := indexed[i].product
			if best == nil || score > bestScore || (score == bestScore && cand.ID < best.ID) {
				best = cand
				bestScore = score
			}
		}
		if best != nil {
			return best
		}
	}
	return nil
}

func preparePhrase(spoken string) phrase {
	n := Normalize(spoken)
	return phrase{norm: n, tokens: tokenSet(Tokenize(n))}
}

// scoreExact matches only full normalized equality.
func scoreExact(p *phrase, prod *indexedProduct) int {
	if p.norm == prod.norm {
		return 1
	}
	return 0
}

// scoreContainment matches when either normalized string contains the other.
// Longer product names rank higher so the most specific containment wins.
func scoreContainment(p *phrase, prod *indexedProduct) int {
	if prod.norm == "" {
		return 0
	}
	if strings.Contains(prod.norm, p.norm) || strings.Contains(p.norm, prod.norm) {
		return len(prod.norm)
	}
	return 0
}

// scoreTokenOverlap counts shared tokens; below the configured minimum the
// product is not a candidate.
func (m *Matcher) scoreTokenOverlap(p *phrase, prod *indexedProduct) int {
	shared := 0
	for t := range p.tokens {
		if _, ok := prod.tokens[t]; ok {
			shared++
		}
	}
	if shared < m.minSharedTokens {
		return 0
	}
	return shared
}
