package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/barriocredito/voxpedido/internal/store"
)

// ---------------------------------------------------------------------------
// Test helpers — mock DB types
// ---------------------------------------------------------------------------

// mockRow implements pgx.Row for testing.
type mockRow struct {
	scanFunc func(dest ...any) error
}

func (r *mockRow) Scan(dest ...any) error { return r.scanFunc(dest...) }

// mockRows implements pgx.Rows for testing.
type mockRows struct {
	data    [][]any
	idx     int
	err     error
	closed  bool
	scanErr error
}

func (r *mockRows) Close()                                       { r.closed = true }
func (r *mockRows) Err() error                                   { return r.err }
func (r *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *mockRows) RawValues() [][]byte                          { return nil }
func (r *mockRows) Conn() *pgx.Conn                              { return nil }

func (r *mockRows) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *mockRows) Scan(dest ...any) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	row := r.data[r.idx-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: expected %d columns, got %d destinations", len(row), len(dest))
	}
	for i, v := range row {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *int64:
			*d = v.(int64)
		case *int:
			*d = v.(int)
		case *float64:
			*d = v.(float64)
		default:
			return fmt.Errorf("scan: unsupported type at index %d: %T", i, dest[i])
		}
	}
	return nil
}

func (r *mockRows) Values() ([]any, error) { return nil, nil }

// mockDB implements the DB interface for testing.
type mockDB struct {
	queryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row
	queryFunc    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	execFunc     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if m.queryRowFunc != nil {
		return m.queryRowFunc(ctx, sql, args...)
	}
	return &mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
}

func (m *mockDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if m.queryFunc != nil {
		return m.queryFunc(ctx, sql, args...)
	}
	return &mockRows{}, nil
}

func (m *mockDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if m.execFunc != nil {
		return m.execFunc(ctx, sql, args...)
	}
	return pgconn.CommandTag{}, nil
}

// ---------------------------------------------------------------------------
// ListProducts
// ---------------------------------------------------------------------------

func TestListProducts(t *testing.T) {
	t.Parallel()

	db := &mockDB{
		queryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			if len(args) != 0 {
				t.Errorf("expected no args without owner filter, got %v", args)
			}
			return &mockRows{data: [][]any{
				{int64(1), "pub-1", "owner-1", "Coca-Cola 600ml", 18.0, 10},
				{int64(2), "pub-2", "owner-1", "Pan Bimbo Grande", 42.5, 5},
			}}, nil
		},
	}

	s := New(db)
	products, err := s.ListProducts(context.Background(), "")
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("len(products) = %d, want 2", len(products))
	}
	if products[0].ID != 1 || products[0].Name != "Coca-Cola 600ml" || products[0].UnitPrice != 18.0 {
		t.Errorf("products[0] = %+v", products[0])
	}
	if products[1].Stock != 5 {
		t.Errorf("products[1].Stock = %d, want 5", products[1].Stock)
	}
}

func TestListProducts_OwnerFilter(t *testing.T) {
	t.Parallel()

	db := &mockDB{
		queryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			if !strings.Contains(sql, "owner_id = $1") {
				t.Errorf("expected owner filter in query, got: %s", sql)
			}
			if len(args) != 1 || args[0] != "owner-7" {
				t.Errorf("args = %v, want [owner-7]", args)
			}
			return &mockRows{}, nil
		},
	}

	s := New(db)
	if _, err := s.ListProducts(context.Background(), "owner-7"); err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
}

func TestListProducts_QueryError(t *testing.T) {
	t.Parallel()

	db := &mockDB{
		queryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			return nil, errors.New("connection reset")
		},
	}

	s := New(db)
	if _, err := s.ListProducts(context.Background(), ""); err == nil {
		t.Fatal("expected error")
	}
}

// ---------------------------------------------------------------------------
// InsertOrder
// ---------------------------------------------------------------------------

func TestInsertOrder(t *testing.T) {
	t.Parallel()

	var gotArgs []any
	db := &mockDB{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			gotArgs = args
			if !strings.Contains(sql, "RETURNING id") {
				t.Errorf("expected RETURNING id, got: %s", sql)
			}
			return &mockRow{scanFunc: func(dest ...any) error {
				*(dest[0].(*int64)) = 42
				return nil
			}}
		},
	}

	s := New(db)
	id, err := s.InsertOrder(context.Background(), store.NewOrder{
		BuyerID: "buyer-1",
		Total:   78.5,
		Status:  "pendiente",
		Audit:   []byte(`{"intent":"add_to_cart"}`),
	})
	if err != nil {
		t.Fatalf("InsertOrder: %v", err)
	}
	if id != 42 {
		t.Errorf("id = %d, want 42", id)
	}
	if len(gotArgs) != 4 || gotArgs[0] != "buyer-1" || gotArgs[1] != 78.5 || gotArgs[2] != "pendiente" {
		t.Errorf("args = %v", gotArgs)
	}
}

func TestInsertOrder_EmptyAuditDefaultsToObject(t *testing.T) {
	t.Parallel()

	db := &mockDB{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			if string(args[3].([]byte)) != "{}" {
				t.Errorf("audit = %s, want {}", args[3])
			}
			return &mockRow{scanFunc: func(dest ...any) error {
				*(dest[0].(*int64)) = 1
				return nil
			}}
		},
	}

	s := New(db)
	if _, err := s.InsertOrder(context.Background(), store.NewOrder{BuyerID: "b", Status: "pendiente"}); err != nil {
		t.Fatalf("InsertOrder: %v", err)
	}
}

// ---------------------------------------------------------------------------
// InsertOrderLines
// ---------------------------------------------------------------------------

func TestInsertOrderLines(t *testing.T) {
	t.Parallel()

	var gotSQL string
	var gotArgs []any
	db := &mockDB{
		execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			gotSQL = sql
			gotArgs = args
			return pgconn.NewCommandTag("INSERT 0 2"), nil
		},
	}

	s := New(db)
	err := s.InsertOrderLines(context.Background(), 42, []store.OrderLine{
		{ProductID: 1, Quantity: 2, UnitPrice: 18.0},
		{ProductID: 2, Quantity: 1, UnitPrice: 42.5},
	})
	if err != nil {
		t.Fatalf("InsertOrderLines: %v", err)
	}

	if !strings.Contains(gotSQL, "($1, $2, $3, $4), ($1, $5, $6, $7)") {
		t.Errorf("unexpected VALUES clause: %s", gotSQL)
	}
	want := []any{int64(42), int64(1), 2, 18.0, int64(2), 1, 42.5}
	if len(gotArgs) != len(want) {
		t.Fatalf("args = %v, want %v", gotArgs, want)
	}
	for i := range want {
		if gotArgs[i] != want[i] {
			t.Errorf("args[%d] = %v, want %v", i, gotArgs[i], want[i])
		}
	}
}

func TestInsertOrderLines_Empty(t *testing.T) {
	t.Parallel()

	s := New(&mockDB{})
	if err := s.InsertOrderLines(context.Background(), 42, nil); err == nil {
		t.Fatal("expected error for empty lines")
	}
}

// ---------------------------------------------------------------------------
// DecrementStock
// ---------------------------------------------------------------------------

func TestDecrementStock(t *testing.T) {
	t.Parallel()

	db := &mockDB{
		execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			if !strings.Contains(sql, "stock >= $2") {
				t.Errorf("expected conditional update, got: %s", sql)
			}
			if args[0] != int64(1) || args[1] != 2 {
				t.Errorf("args = %v", args)
			}
			return pgconn.NewCommandTag("UPDATE 1"), nil
		},
	}

	s := New(db)
	if err := s.DecrementStock(context.Background(), 1, 2); err != nil {
		t.Fatalf("DecrementStock: %v", err)
	}
}

func TestDecrementStock_Insufficient(t *testing.T) {
	t.Parallel()

	db := &mockDB{
		execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		},
	}

	s := New(db)
	err := s.DecrementStock(context.Background(), 1, 99)
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}
}

func TestDecrementStock_ExecError(t *testing.T) {
	t.Parallel()

	db := &mockDB{
		execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, errors.New("connection reset")
		},
	}

	s := New(db)
	err := s.DecrementStock(context.Background(), 1, 2)
	if err == nil || errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("err = %v, want plain exec error", err)
	}
}
