package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/szaher/cxassist/internal/orders"
)

// CodeRefundIneligible is the payload code for orders the policy rejects.
const CodeRefundIneligible = "refund_ineligible"

// RefundProcessor implements the process_refund tool. Refunds are
// idempotent per order: re-processing returns the existing record, so the
// model re-invoking after a corrected argument never double-refunds.
type RefundProcessor struct {
	store  orders.Store
	policy *orders.RefundPolicy
}

// NewRefundProcessor creates the process_refund executor.
func NewRefundProcessor(store orders.Store, policy *orders.RefundPolicy) *RefundProcessor {
	return &RefundProcessor{store: store, policy: policy}
}

// Definition declares the process_refund schema.
func (e *RefundProcessor) Definition() Definition {
	return Definition{
		Name: "process_refund",
		Description: "Process a refund for an order. Verifies the order exists and is eligible " +
			"before refunding the full order amount to the original payment method.",
		Params: map[string]Param{
			"order_id": {Type: "string", Description: "The order to refund", Required: true},
			"reason":   {Type: "string", Description: "Why the customer wants a refund"},
		},
	}
}

// Execute validates eligibility and records the refund.
func (e *RefundProcessor) Execute(ctx context.Context, input map[string]any) (string, error) {
	id := input["order_id"].(string)
	reason, _ := input["reason"].(string)

	order, err := e.store.Get(ctx, id)
	if errors.Is(err, orders.ErrNotFound) {
		return "", &PayloadError{
			Code:    CodeOrderNotFound,
			Message: fmt.Sprintf("no order with ID %q exists; ask the customer for a valid order number", id),
		}
	}
	if err != nil {
		return "", fmt.Errorf("process refund: %w", err)
	}

	if existing, err := e.store.RefundFor(ctx, id); err == nil {
		return marshalRefund(existing, "a refund was already processed for this order")
	} else if !errors.Is(err, orders.ErrNotFound) {
		return "", fmt.Errorf("process refund: %w", err)
	}

	eligible, err := e.policy.Eligible(order)
	if err != nil {
		return "", fmt.Errorf("process refund: %w", err)
	}
	if !eligible {
		return "", &PayloadError{
			Code: CodeRefundIneligible,
			Message: fmt.Sprintf("order %s (status %s) is not eligible for a refund under the current policy",
				id, order.Status),
		}
	}

	refund := &orders.Refund{
		ID:        "ref_" + ulid.Make().String(),
		OrderID:   id,
		Amount:    order.Total,
		Reason:    reason,
		Status:    "processed",
		CreatedAt: time.Now(),
	}
	if err := e.store.SaveRefund(ctx, refund); err != nil {
		return "", fmt.Errorf("process refund: %w", err)
	}

	return marshalRefund(refund, "")
}

func marshalRefund(refund *orders.Refund, note string) (string, error) {
	payload := map[string]any{
		"refund_id":  refund.ID,
		"order_id":   refund.OrderID,
		"amount":     refund.Amount,
		"status":     refund.Status,
		"created_at": refund.CreatedAt.Format(time.RFC3339),
	}
	if refund.Reason != "" {
		payload["reason"] = refund.Reason
	}
	if note != "" {
		payload["note"] = note
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("process refund: encode: %w", err)
	}
	return string(data), nil
}
