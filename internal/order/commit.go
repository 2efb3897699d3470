package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/barriocredito/voxpedido/internal/store"
)

// Typed failures for the three commit steps. The HTTP layer maps each to its
// own error code so a client can tell how far the commit got.
var (
	// ErrOrderWrite means the order header insert failed; nothing was
	// written.
	ErrOrderWrite = errors.New("order: order write failed")

	// ErrOrderLinesWrite means the lines insert failed; the order header
	// exists without lines.
	ErrOrderLinesWrite = errors.New("order: order lines write failed")
)

// StockDecrementError reports which item's decrement failed. Decrements
// before the failing one remain applied; there is no compensation, so a
// partial commit is visible in the store and must be resolved out of band.
type StockDecrementError struct {
	// ProductID is the internal id of the failing product.
	ProductID int64

	// Name is the product's catalog name, for the client-facing message.
	Name string

	// Quantity is the amount that could not be decremented.
	Quantity int

	// Err is the underlying store error, e.g. store.ErrInsufficientStock.
	Err error
}

func (e *StockDecrementError) Error() string {
	return fmt.Sprintf("order: decrement stock for %q (product %d, qty %d): %v", e.Name, e.ProductID, e.Quantity, e.Err)
}

func (e *StockDecrementError) Unwrap() error { return e.Err }

// CommitResult reports a completed commit.
type CommitResult struct {
	// OrderID is the persisted order's id.
	OrderID int64
}

// Committer runs the commit sequence: order header, then lines, then one
// stock decrement per item in cart order. The steps are explicit and
// strictly ordered; a failure stops the sequence immediately and is reported
// as a typed error. Nothing is rolled back.
type Committer struct {
	writer store.OrderWriter
	status string
}

// NewCommitter builds a Committer that writes orders with the given initial
// status (e.g. "pendiente").
func NewCommitter(writer store.OrderWriter, status string) (*Committer, error) {
	if writer == nil {
		return nil, errors.New("order: writer must not be nil")
	}
	if status == "" {
		return nil, errors.New("order: status must not be empty")
	}
	return &Committer{writer: writer, status: status}, nil
}

// commitStep is one named stage of the commit sequence.
type commitStep struct {
	name string
	run  func(ctx context.Context) error
}

// Commit persists the order. buyerID must be non-empty and items non-empty;
// audit is stored verbatim on the order header. Context cancellation is
// checked before each step so an aborted request stops writing as early as
// possible — already-applied steps stay applied.
func (c *Committer) Commit(ctx context.Context, buyerID string, items []CartItem, total float64, audit []byte) (*CommitResult, error) {
	if buyerID == "" {
		return nil, errors.New("order: buyerID must not be empty")
	}
	if len(items) == 0 {
		return nil, errors.New("order: nothing to commit")
	}

	var orderID int64

	steps := []commitStep{
		{
			name: "insert_order",
			run: func(ctx context.Context) error {
				id, err := c.writer.InsertOrder(ctx, store.NewOrder{
					BuyerID: buyerID,
					Total:   total,
					Status:  c.status,
					Audit:   audit,
				})
				if err != nil {
					return fmt.Errorf("%w: %w", ErrOrderWrite, err)
				}
				orderID = id
				return nil
			},
		},
		{
			name: "insert_order_lines",
			run: func(ctx context.Context) error {
				lines := make([]store.OrderLine, len(items))
				for i, item := range items {
					lines[i] = store.OrderLine{
						ProductID: item.ProductID,
						Quantity:  item.Quantity,
						UnitPrice: item.UnitPrice,
					}
				}
				if err := c.writer.InsertOrderLines(ctx, orderID, lines); err != nil {
					return fmt.Errorf("%w: %w", ErrOrderLinesWrite, err)
				}
				return nil
			},
		},
	}
	for _, item := range items {
		item := item
		steps = append(steps, commitStep{
			name: "decrement_stock",
			run: func(ctx context.Context) error {
				if err := c.writer.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
					return &StockDecrementError{
						ProductID: item.ProductID,
						Name:      item.Name,
						Quantity:  item.Quantity,
						Err:       err,
					}
				}
				return nil
			},
		})
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("order: %s aborted: %w", step.name, err)
		}
		if err := step.run(ctx); err != nil {
			return nil, err
		}
	}

	return &CommitResult{OrderID: orderID}, nil
}
