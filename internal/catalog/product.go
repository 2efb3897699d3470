// Package catalog holds the product model and the deterministic matching of
// spoken product phrases against a catalog snapshot.
package catalog

// Product is one sellable item from the seller's catalog. The snapshot loaded
// per request is read-only; stock decrements happen in the store layer.
type Product struct {
	// ID is the internal persistence identifier. It never appears in client
	// responses.
	ID int64

	// PublicID is the UUID exposed to clients in place of ID.
	PublicID string

	// OwnerID identifies the seller the product belongs to.
	OwnerID string

	// Name is the display name, e.g. "Coca-Cola 600ml".
	Name string

	// UnitPrice is the price per unit in the configured currency.
	UnitPrice float64

	// Stock is the units available at snapshot time. The snapshot value is
	// advisory only; the authoritative check happens at decrement time.
	Stock int
}
