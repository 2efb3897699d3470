// Package order assembles priced carts from extracted spoken lines, decides
// whether an order can commit automatically, and orchestrates the commit
// sequence against the store.
package order

import (
	"math"

	"github.com/barriocredito/voxpedido/internal/catalog"
	"github.com/barriocredito/voxpedido/internal/extract"
)

// CartItem is one matched, priced order line. Immutable after assembly.
type CartItem struct {
	// ProductID is the internal catalog id, used for persistence only.
	ProductID int64

	// PublicID is the client-safe product identifier.
	PublicID string

	// Name is the catalog product name (not the spoken phrase).
	Name string

	// Quantity is the requested unit count, always >= 1.
	Quantity int

	// UnitPrice is the catalog price at snapshot time.
	UnitPrice float64

	// Subtotal is round2(UnitPrice * Quantity).
	Subtotal float64
}

// Unmatched is a spoken line no matching strategy resolved, with the nearest
// catalog name (if any) for a manual-pick UI.
type Unmatched struct {
	// Phrase is the spoken product name as extracted.
	Phrase string

	// Suggestion is the closest catalog product name by string similarity,
	// empty when nothing is near.
	Suggestion string
}

// AssembleResult is the priced outcome of matching every spoken line.
type AssembleResult struct {
	// Items holds the matched, priced lines in spoken order.
	Items []CartItem

	// Unmatched holds lines that resolved to no product.
	Unmatched []Unmatched

	// Total is round2 of the sum of item subtotals.
	Total float64
}

// Assembler matches spoken lines against a catalog snapshot and prices them.
// Read-only after construction, safe for concurrent use.
type Assembler struct {
	matcher   *catalog.Matcher
	suggester *catalog.Suggester
}

// NewAssembler builds an Assembler over the given matcher and suggester.
// The suggester may be nil, in which case unmatched lines carry no
// suggestion.
func NewAssembler(matcher *catalog.Matcher, suggester *catalog.Suggester) *Assembler {
	return &Assembler{matcher: matcher, suggester: suggester}
}

// Assemble resolves every spoken line against products. Lines with an empty
// product name are dropped silently (the model sometimes emits filler
// entries). Matching is deterministic: the same lines and snapshot always
// produce the same result.
func (a *Assembler) Assemble(lines []extract.SpokenLine, products []catalog.Product) AssembleResult {
	var res AssembleResult
	for _, line := range lines {
		if line.Product == "" {
			continue
		}

		match := a.matcher.Match(line.Product, products)
		if match == nil {
			u := Unmatched{Phrase: line.Product}
			if a.suggester != nil {
				if near := a.suggester.Suggest(line.Product, products); near != nil {
					u.Suggestion = near.Name
				}
			}
			res.Unmatched = append(res.Unmatched, u)
			continue
		}

		qty := line.Quantity
		if qty < 1 {
			qty = 1
		}
		res.Items = append(res.Items, CartItem{
			ProductID: match.ID,
			PublicID:  match.PublicID,
			Name:      match.Name,
			Quantity:  qty,
			UnitPrice: match.UnitPrice,
			Subtotal:  Round2(match.UnitPrice * float64(qty)),
		})
	}

	sum := 0.0
	for _, item := range res.Items {
		sum += item.Subtotal
	}
	res.Total = Round2(sum)
	return res
}

// Round2 rounds to two decimal places, the service-wide money convention.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
