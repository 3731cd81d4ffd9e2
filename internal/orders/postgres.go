package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore is a Postgres-backed order store for deployments with a real
// order database. Schema:
//
//	CREATE TABLE orders  (id text PRIMARY KEY, status text NOT NULL,
//	                      total numeric NOT NULL, currency text NOT NULL,
//	                      carrier text, eta text, ordered_at timestamptz NOT NULL);
//	CREATE TABLE refunds (id text PRIMARY KEY, order_id text UNIQUE REFERENCES orders(id),
//	                      amount numeric NOT NULL, reason text, status text NOT NULL,
//	                      created_at timestamptz NOT NULL);
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore connects to Postgres and verifies the connection.
func NewPGStore(ctx context.Context, dsn string) (*PGStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("orders: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("orders: ping: %w", err)
	}
	return &PGStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PGStore) Close() {
	s.pool.Close()
}

// Get retrieves an order by ID.
func (s *PGStore) Get(ctx context.Context, id string) (*Order, error) {
	var o Order
	err := s.pool.QueryRow(ctx,
		`SELECT id, status, total, currency, COALESCE(carrier, ''), COALESCE(eta, ''), ordered_at
		 FROM orders WHERE id = $1`, id,
	).Scan(&o.ID, &o.Status, &o.Total, &o.Currency, &o.Carrier, &o.ETA, &o.OrderedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("orders: get %q: %w", id, err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT sku, name, quantity, price FROM order_items WHERE order_id = $1 ORDER BY sku`, id)
	if err != nil {
		return nil, fmt.Errorf("orders: items for %q: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.SKU, &item.Name, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("orders: scan item: %w", err)
		}
		o.Items = append(o.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("orders: items for %q: %w", id, err)
	}

	return &o, nil
}

// RefundFor retrieves the refund for an order, if one was processed.
func (s *PGStore) RefundFor(ctx context.Context, orderID string) (*Refund, error) {
	var r Refund
	err := s.pool.QueryRow(ctx,
		`SELECT id, order_id, amount, COALESCE(reason, ''), status, created_at
		 FROM refunds WHERE order_id = $1`, orderID,
	).Scan(&r.ID, &r.OrderID, &r.Amount, &r.Reason, &r.Status, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("orders: refund for %q: %w", orderID, err)
	}
	return &r, nil
}

// SaveRefund records a processed refund.
func (s *PGStore) SaveRefund(ctx context.Context, refund *Refund) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO refunds (id, order_id, amount, reason, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (order_id) DO NOTHING`,
		refund.ID, refund.OrderID, refund.Amount, refund.Reason, refund.Status, refund.CreatedAt)
	if err != nil {
		return fmt.Errorf("orders: save refund for %q: %w", refund.OrderID, err)
	}
	return nil
}
