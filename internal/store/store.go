// Package store defines the persistence interfaces for the catalog snapshot
// and order commits. Implementations live in subpackages; the pipeline only
// depends on the interfaces so tests can substitute mocks.
package store

import (
	"context"
	"errors"

	"github.com/barriocredito/voxpedido/internal/catalog"
)

// ErrInsufficientStock is returned by DecrementStock when the product does
// not hold enough stock for the requested quantity. The decrement is
// all-or-nothing; a failed decrement leaves the row untouched.
var ErrInsufficientStock = errors.New("store: insufficient stock")

// NewOrder is the order header written at commit time.
type NewOrder struct {
	// BuyerID identifies the purchasing shopkeeper.
	BuyerID string

	// Total is the order total, already rounded to two decimals.
	Total float64

	// Status is the initial order status, e.g. "pendiente".
	Status string

	// Audit is the full JSON payload describing how the order was derived
	// (transcript, model output, normalized cart). Stored verbatim.
	Audit []byte
}

// OrderLine is one priced line of a committed order.
type OrderLine struct {
	ProductID int64
	Quantity  int
	UnitPrice float64
}

// CatalogReader loads the product snapshot for matching. The read happens at
// most once per request, after extraction succeeds.
type CatalogReader interface {
	// ListProducts returns all products, optionally filtered to one owner
	// when ownerID is non-empty.
	ListProducts(ctx context.Context, ownerID string) ([]catalog.Product, error)
}

// OrderWriter persists committed orders. The three methods correspond to the
// ordered commit steps; callers sequence them and never retry.
type OrderWriter interface {
	// InsertOrder writes the order header and returns its generated id.
	InsertOrder(ctx context.Context, order NewOrder) (int64, error)

	// InsertOrderLines writes all lines of the order in one statement.
	InsertOrderLines(ctx context.Context, orderID int64, lines []OrderLine) error

	// DecrementStock atomically subtracts quantity from the product's stock.
	// Returns ErrInsufficientStock when the product is missing or holds less
	// than quantity.
	DecrementStock(ctx context.Context, productID int64, quantity int) error
}

// Store combines catalog reads and order writes.
type Store interface {
	CatalogReader
	OrderWriter
}
