// Package postgres implements store.Store on PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/barriocredito/voxpedido/internal/catalog"
	"github.com/barriocredito/voxpedido/internal/store"
)

// Schema is the SQL DDL for the products, orders, and order_items tables.
// Execute it via [Store.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS products (
    id          BIGSERIAL PRIMARY KEY,
    public_id   UUID NOT NULL DEFAULT gen_random_uuid(),
    owner_id    TEXT NOT NULL DEFAULT '',
    name        TEXT NOT NULL,
    unit_price  DOUBLE PRECISION NOT NULL DEFAULT 0,
    stock       INTEGER NOT NULL DEFAULT 0,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_products_public_id ON products(public_id);
CREATE INDEX IF NOT EXISTS idx_products_owner ON products(owner_id);

CREATE TABLE IF NOT EXISTS orders (
    id          BIGSERIAL PRIMARY KEY,
    buyer_id    TEXT NOT NULL,
    total       DOUBLE PRECISION NOT NULL,
    status      TEXT NOT NULL DEFAULT 'pendiente',
    audit       JSONB NOT NULL DEFAULT '{}',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_orders_buyer ON orders(buyer_id);

CREATE TABLE IF NOT EXISTS order_items (
    id          BIGSERIAL PRIMARY KEY,
    order_id    BIGINT NOT NULL REFERENCES orders(id),
    product_id  BIGINT NOT NULL REFERENCES products(id),
    quantity    INTEGER NOT NULL,
    unit_price  DOUBLE PRECISION NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id);
`

// DB is the database interface used by [Store]. Both *pgxpool.Pool and
// *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store is a [store.Store] backed by a PostgreSQL database.
type Store struct {
	db DB
}

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// New creates a new [Store] that uses the given database connection or pool.
// The caller is responsible for calling [Store.Migrate] to ensure the schema
// exists before issuing queries.
func New(db DB) *Store {
	return &Store{db: db}
}

// Connect opens a pgx connection pool against dsn and verifies it with a
// ping. Pool sizing is fixed for this service's single-writer workload.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse dsn: %w", err)
	}
	cfg.MaxConns = 8
	cfg.MinConns = 1
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return pool, nil
}

// Migrate executes the [Schema] DDL against the database, creating the
// tables and indexes if they do not already exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, Schema)
	if err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

// ListProducts returns the full catalog snapshot, optionally filtered to one
// owner. Ordered by id so snapshots are stable across calls.
func (s *Store) ListProducts(ctx context.Context, ownerID string) ([]catalog.Product, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if ownerID == "" {
		const query = `
			SELECT id, public_id, owner_id, name, unit_price, stock
			FROM products
			ORDER BY id`
		rows, err = s.db.Query(ctx, query)
	} else {
		const query = `
			SELECT id, public_id, owner_id, name, unit_price, stock
			FROM products
			WHERE owner_id = $1
			ORDER BY id`
		rows, err = s.db.Query(ctx, query, ownerID)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: list products: %w", err)
	}
	defer rows.Close()

	var products []catalog.Product
	for rows.Next() {
		var p catalog.Product
		if err := rows.Scan(&p.ID, &p.PublicID, &p.OwnerID, &p.Name, &p.UnitPrice, &p.Stock); err != nil {
			return nil, fmt.Errorf("postgres: list products scan: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list products: %w", err)
	}
	return products, nil
}

// InsertOrder writes the order header and returns its generated id.
func (s *Store) InsertOrder(ctx context.Context, order store.NewOrder) (int64, error) {
	const query = `
		INSERT INTO orders (buyer_id, total, status, audit)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	audit := order.Audit
	if len(audit) == 0 {
		audit = []byte("{}")
	}

	var id int64
	err := s.db.QueryRow(ctx, query, order.BuyerID, order.Total, order.Status, audit).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("postgres: insert order: %w", err)
	}
	return id, nil
}

// InsertOrderLines writes all lines of the order in a single multi-row
// INSERT.
func (s *Store) InsertOrderLines(ctx context.Context, orderID int64, lines []store.OrderLine) error {
	if len(lines) == 0 {
		return errors.New("postgres: insert order lines: no lines")
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO order_items (order_id, product_id, quantity, unit_price) VALUES ")
	args := make([]any, 0, 1+3*len(lines))
	args = append(args, orderID)
	for i, line := range lines {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "($1, $%d, $%d, $%d)", len(args)+1, len(args)+2, len(args)+3)
		args = append(args, line.ProductID, line.Quantity, line.UnitPrice)
	}

	if _, err := s.db.Exec(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("postgres: insert order lines: %w", err)
	}
	return nil
}

// DecrementStock atomically subtracts quantity from the product's stock. The
// conditional UPDATE guarantees stock never goes negative even under
// concurrent commits; zero rows affected means the product is missing or
// underfilled, reported as store.ErrInsufficientStock.
func (s *Store) DecrementStock(ctx context.Context, productID int64, quantity int) error {
	const query = `
		UPDATE products
		SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2`

	tag, err := s.db.Exec(ctx, query, productID, quantity)
	if err != nil {
		return fmt.Errorf("postgres: decrement stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: decrement stock for product %d: %w", productID, store.ErrInsufficientStock)
	}
	return nil
}
