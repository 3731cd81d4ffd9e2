package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/szaher/cxassist/internal/knowledge"
	"github.com/szaher/cxassist/internal/orders"
)

func testPolicy(t *testing.T, rule string) *orders.RefundPolicy {
	t.Helper()
	policy, err := orders.CompileRefundPolicy(rule)
	if err != nil {
		t.Fatalf("compile policy: %v", err)
	}
	return policy
}

func TestOrderLookup(t *testing.T) {
	lookup := NewOrderLookup(orders.NewMemoryStore())

	out, err := lookup.Execute(context.Background(), map[string]any{"order_id": "12345"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	var order orders.Order
	if err := json.Unmarshal([]byte(out), &order); err != nil {
		t.Fatalf("output is not an order: %v", err)
	}
	if order.Status != "delivered" {
		t.Errorf("Status = %q, want delivered", order.Status)
	}
	if order.Total != 89.99 {
		t.Errorf("Total = %v, want 89.99", order.Total)
	}
}

func TestOrderLookup_NotFound(t *testing.T) {
	lookup := NewOrderLookup(orders.NewMemoryStore())

	_, err := lookup.Execute(context.Background(), map[string]any{"order_id": "99999"})
	var pe *PayloadError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want a PayloadError", err)
	}
	if pe.Code != CodeOrderNotFound {
		t.Errorf("Code = %q, want %q", pe.Code, CodeOrderNotFound)
	}
	if !strings.Contains(pe.Message, "99999") {
		t.Errorf("Message = %q, want it to name the order", pe.Message)
	}
}

func TestRefundProcessor(t *testing.T) {
	store := orders.NewMemoryStore()
	proc := NewRefundProcessor(store, testPolicy(t, ""))

	out, err := proc.Execute(context.Background(), map[string]any{
		"order_id": "12345",
		"reason":   "arrived damaged",
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if payload["status"] != "processed" {
		t.Errorf("status = %v, want processed", payload["status"])
	}
	if payload["amount"] != 89.99 {
		t.Errorf("amount = %v, want the full order total", payload["amount"])
	}
	id, _ := payload["refund_id"].(string)
	if !strings.HasPrefix(id, "ref_") {
		t.Errorf("refund_id = %q, want a ref_ prefix", id)
	}

	refund, err := store.RefundFor(context.Background(), "12345")
	if err != nil {
		t.Fatalf("refund not persisted: %v", err)
	}
	if refund.Reason != "arrived damaged" {
		t.Errorf("Reason = %q", refund.Reason)
	}
}

func TestRefundProcessor_Idempotent(t *testing.T) {
	store := orders.NewMemoryStore()
	proc := NewRefundProcessor(store, testPolicy(t, ""))

	first, err := proc.Execute(context.Background(), map[string]any{"order_id": "12345"})
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	second, err := proc.Execute(context.Background(), map[string]any{"order_id": "12345"})
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}

	var a, b map[string]any
	if err := json.Unmarshal([]byte(first), &a); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(second), &b); err != nil {
		t.Fatal(err)
	}
	if a["refund_id"] != b["refund_id"] {
		t.Errorf("second call created a new refund: %v vs %v", a["refund_id"], b["refund_id"])
	}
	if _, ok := b["note"]; !ok {
		t.Error("second call result carries no already-processed note")
	}
}

func TestRefundProcessor_Ineligible(t *testing.T) {
	// Order 13579 was delivered 80 days ago, past the 60-day window.
	proc := NewRefundProcessor(orders.NewMemoryStore(), testPolicy(t, ""))

	_, err := proc.Execute(context.Background(), map[string]any{"order_id": "13579"})
	var pe *PayloadError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want a PayloadError", err)
	}
	if pe.Code != CodeRefundIneligible {
		t.Errorf("Code = %q, want %q", pe.Code, CodeRefundIneligible)
	}
}

func TestRefundProcessor_UnknownOrder(t *testing.T) {
	proc := NewRefundProcessor(orders.NewMemoryStore(), testPolicy(t, ""))

	_, err := proc.Execute(context.Background(), map[string]any{"order_id": "99999"})
	var pe *PayloadError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want a PayloadError", err)
	}
	if pe.Code != CodeOrderNotFound {
		t.Errorf("Code = %q, want %q", pe.Code, CodeOrderNotFound)
	}
}

func TestKnowledgeSearch(t *testing.T) {
	search := NewKnowledgeSearch(knowledge.NewSeededBase(), 0)

	out, err := search.Execute(context.Background(), map[string]any{"query": "how long does shipping take"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	var payload struct {
		Query   string              `json:"query"`
		Results []knowledge.Article `json:"results"`
		Message string              `json:"message"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(payload.Results) == 0 {
		t.Fatal("no results for a shipping query")
	}
	if payload.Results[0].ID != "kb-shipping" {
		t.Errorf("top result = %q, want kb-shipping", payload.Results[0].ID)
	}
}

func TestKnowledgeSearch_NoMatches(t *testing.T) {
	search := NewKnowledgeSearch(knowledge.NewSeededBase(), 0)

	out, err := search.Execute(context.Background(), map[string]any{"query": "zxqvw"})
	if err != nil {
		t.Fatalf("no-match searches must not error: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if payload["message"] != "no matching articles found" {
		t.Errorf("message = %v, want the no-match note", payload["message"])
	}
}
