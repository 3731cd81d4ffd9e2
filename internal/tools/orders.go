package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/szaher/cxassist/internal/orders"
)

// CodeOrderNotFound is the payload code for lookups of unknown orders.
const CodeOrderNotFound = "order_not_found"

// OrderLookup implements the lookup_order tool against an order store.
type OrderLookup struct {
	store orders.Store
}

// NewOrderLookup creates the lookup_order executor.
func NewOrderLookup(store orders.Store) *OrderLookup {
	return &OrderLookup{store: store}
}

// Definition declares the lookup_order schema.
func (e *OrderLookup) Definition() Definition {
	return Definition{
		Name: "lookup_order",
		Description: "Look up a customer order by its order ID. Returns the order status, " +
			"items, total, carrier and estimated delivery date.",
		Params: map[string]Param{
			"order_id": {Type: "string", Description: "The customer's order ID", Required: true},
		},
	}
}

// Execute fetches the order and returns it as JSON.
func (e *OrderLookup) Execute(ctx context.Context, input map[string]any) (string, error) {
	id := input["order_id"].(string)

	order, err := e.store.Get(ctx, id)
	if errors.Is(err, orders.ErrNotFound) {
		return "", &PayloadError{
			Code:    CodeOrderNotFound,
			Message: fmt.Sprintf("no order with ID %q exists; ask the customer to double-check the order number", id),
		}
	}
	if err != nil {
		return "", fmt.Errorf("order lookup: %w", err)
	}

	data, err := json.Marshal(order)
	if err != nil {
		return "", fmt.Errorf("order lookup: encode: %w", err)
	}
	return string(data), nil
}
