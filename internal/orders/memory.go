package orders

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory order backend seeded with demo data. It stands
// in for a real order system.
type MemoryStore struct {
	mu      sync.RWMutex
	orders  map[string]*Order
	refunds map[string]*Refund // keyed by order ID
}

// NewMemoryStore creates a store seeded with demo orders.
func NewMemoryStore() *MemoryStore {
	now := time.Now()
	seed := []*Order{
		{
			ID:     "12345",
			Status: "delivered",
			Items: []Item{
				{SKU: "HDPH-01", Name: "Wireless Headphones", Quantity: 1, Price: 89.99},
			},
			Total:     89.99,
			Currency:  "USD",
			Carrier:   "UPS",
			ETA:       "delivered " + now.AddDate(0, 0, -3).Format("2006-01-02"),
			OrderedAt: now.AddDate(0, 0, -10),
		},
		{
			ID:     "67890",
			Status: "in_transit",
			Items: []Item{
				{SKU: "KBRD-21", Name: "Mechanical Keyboard", Quantity: 1, Price: 129.00},
				{SKU: "MOUS-07", Name: "Ergonomic Mouse", Quantity: 1, Price: 49.50},
			},
			Total:     178.50,
			Currency:  "USD",
			Carrier:   "FedEx",
			ETA:       now.AddDate(0, 0, 2).Format("2006-01-02"),
			OrderedAt: now.AddDate(0, 0, -4),
		},
		{
			ID:     "24680",
			Status: "processing",
			Items: []Item{
				{SKU: "MNTR-32", Name: "27in Monitor", Quantity: 1, Price: 299.00},
			},
			Total:     299.00,
			Currency:  "USD",
			OrderedAt: now.AddDate(0, 0, -1),
		},
		{
			ID:     "13579",
			Status: "delivered",
			Items: []Item{
				{SKU: "CBLE-02", Name: "USB-C Cable 3-pack", Quantity: 2, Price: 15.99},
			},
			Total:     31.98,
			Currency:  "USD",
			Carrier:   "USPS",
			ETA:       "delivered " + now.AddDate(0, 0, -75).Format("2006-01-02"),
			OrderedAt: now.AddDate(0, 0, -80),
		},
	}

	orders := make(map[string]*Order, len(seed))
	for _, o := range seed {
		orders[o.ID] = o
	}
	return &MemoryStore{
		orders:  orders,
		refunds: make(map[string]*Refund),
	}
}

// Get retrieves an order by ID.
func (s *MemoryStore) Get(_ context.Context, id string) (*Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

// RefundFor retrieves the refund for an order, if one was processed.
func (s *MemoryStore) RefundFor(_ context.Context, orderID string) (*Refund, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.refunds[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

// SaveRefund records a processed refund.
func (s *MemoryStore) SaveRefund(_ context.Context, refund *Refund) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *refund
	s.refunds[refund.OrderID] = &cp
	return nil
}
