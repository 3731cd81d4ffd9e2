// Package orders provides the order and refund backend the support tools
// call into. Stores are swappable without touching the agent loop.
package orders

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when an order or refund does not exist.
var ErrNotFound = errors.New("not found")

// Item is one line item on an order.
type Item struct {
	SKU      string  `json:"sku"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// Order is a customer order record.
type Order struct {
	ID        string    `json:"order_id"`
	Status    string    `json:"status"` // "processing", "in_transit", "delivered"
	Items     []Item    `json:"items"`
	Total     float64   `json:"total"`
	Currency  string    `json:"currency"`
	Carrier   string    `json:"carrier,omitempty"`
	ETA       string    `json:"estimated_delivery,omitempty"`
	OrderedAt time.Time `json:"ordered_at"`
}

// Refund is a processed refund record.
type Refund struct {
	ID        string    `json:"refund_id"`
	OrderID   string    `json:"order_id"`
	Amount    float64   `json:"amount"`
	Reason    string    `json:"reason,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the order backend contract.
type Store interface {
	// Get retrieves an order by ID. Returns ErrNotFound if absent.
	Get(ctx context.Context, id string) (*Order, error)

	// RefundFor retrieves the refund for an order, if one was processed.
	// Returns ErrNotFound if no refund exists.
	RefundFor(ctx context.Context, orderID string) (*Refund, error)

	// SaveRefund records a processed refund.
	SaveRefund(ctx context.Context, refund *Refund) error
}
