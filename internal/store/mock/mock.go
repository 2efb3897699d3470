// Package mock provides a call-recording test double for store.Store.
package mock

import (
	"context"
	"sync"

	"github.com/barriocredito/voxpedido/internal/catalog"
	"github.com/barriocredito/voxpedido/internal/store"
)

// DecrementCall records one DecrementStock invocation.
type DecrementCall struct {
	ProductID int64
	Quantity  int
}

// InsertLinesCall records one InsertOrderLines invocation.
type InsertLinesCall struct {
	OrderID int64
	Lines   []store.OrderLine
}

// Store is a mock implementation of store.Store. Zero values return empty
// results and nil errors; set the Err fields to inject failures.
type Store struct {
	mu sync.Mutex

	// Products is returned by ListProducts.
	Products []catalog.Product

	// ListErr, if non-nil, is returned by ListProducts.
	ListErr error

	// OrderID is returned by InsertOrder. Defaults to 1 when zero.
	OrderID int64

	// InsertOrderErr, if non-nil, is returned by InsertOrder.
	InsertOrderErr error

	// InsertLinesErr, if non-nil, is returned by InsertOrderLines.
	InsertLinesErr error

	// DecrementErrs maps product ids to injected DecrementStock errors.
	DecrementErrs map[int64]error

	// Call records, in order.
	ListCalls        []string
	InsertOrderCalls []store.NewOrder
	InsertLinesCalls []InsertLinesCall
	DecrementCalls   []DecrementCall
}

var _ store.Store = (*Store)(nil)

// ListProducts records the call and returns Products, ListErr.
func (s *Store) ListProducts(ctx context.Context, ownerID string) ([]catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ListCalls = append(s.ListCalls, ownerID)
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	out := make([]catalog.Product, len(s.Products))
	copy(out, s.Products)
	return out, nil
}

// InsertOrder records the call and returns OrderID, InsertOrderErr.
func (s *Store) InsertOrder(ctx context.Context, order store.NewOrder) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.InsertOrderCalls = append(s.InsertOrderCalls, order)
	if s.InsertOrderErr != nil {
		return 0, s.InsertOrderErr
	}
	if s.OrderID == 0 {
		return 1, nil
	}
	return s.OrderID, nil
}

// InsertOrderLines records the call and returns InsertLinesErr.
func (s *Store) InsertOrderLines(ctx context.Context, orderID int64, lines []store.OrderLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]store.OrderLine, len(lines))
	copy(copied, lines)
	s.InsertLinesCalls = append(s.InsertLinesCalls, InsertLinesCall{OrderID: orderID, Lines: copied})
	return s.InsertLinesErr
}

// DecrementStock records the call and returns any injected error for the
// product.
func (s *Store) DecrementStock(ctx context.Context, productID int64, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DecrementCalls = append(s.DecrementCalls, DecrementCall{ProductID: productID, Quantity: quantity})
	if err, ok := s.DecrementErrs[productID]; ok {
		return err
	}
	return nil
}

// Reset clears all recorded calls. Thread-safe.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ListCalls = nil
	s.InsertOrderCalls = nil
	s.InsertLinesCalls = nil
	s.DecrementCalls = nil
}
