package order

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound indicates no order with the requested id has been recorded.
var ErrNotFound = errors.New("order not found")

// History is an append-only, in-memory log of finalized orders.
type History struct {
	mu     sync.RWMutex
	orders []Order
	byID   map[uuid.UUID]int
}

// NewHistory returns an empty history.
func NewHistory() *History {
	return &History{byID: make(map[uuid.UUID]int)}
}

// Append records an order. Orders keep their insertion order.
func (h *History) Append(o Order) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.byID == nil {
		h.byID = make(map[uuid.UUID]int)
	}
	h.byID[o.ID] = len(h.orders)
	h.orders = append(h.orders, o)
}

// Get returns the order with the given id.
func (h *History) Get(id uuid.UUID) (Order, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	idx, ok := h.byID[id]
	if !ok {
		return Order{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return h.orders[idx], nil
}

// List returns up to limit orders starting at offset, oldest first. A non-positive limit
// returns everything after offset.
func (h *History) List(offset, limit int) []Order {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if offset < 0 {
		offset = 0
	}
	if offset >= len(h.orders) {
		return []Order{}
	}
	end := len(h.orders)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]Order, end-offset)
	copy(out, h.orders[offset:end])
	return out
}

// Len reports the number of recorded orders.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.orders)
}
