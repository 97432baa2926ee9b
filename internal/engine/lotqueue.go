// Package engine implements the order-book matching core: a shared lot
// queue primitive, the cross-region arbitrage matcher, and the multibuy
// acquisition cost estimator. All computations are pure and request
// scoped; the engine performs no I/O and keeps no state between calls.
package engine

import (
	"sort"

	"github.com/eveexchange/backend/internal/domain"
)

// LotQueue is an ordered, partially consumable sequence of supply or
// demand lots for a single item type. Construction sorts the input by
// price (ascending for ask consumption, descending for bid consumption)
// with ascending order id as the tie-break, so identical snapshots always
// yield identical queues.
type LotQueue struct {
	orders    []domain.Order
	head      int
	remaining float64
	total     float64
}

// NewAskQueue builds a queue that serves the cheapest sell orders first.
func NewAskQueue(orders []domain.Order) *LotQueue {
	return newQueue(orders, false)
}

// NewBidQueue builds a queue that serves the highest buy orders first.
func NewBidQueue(orders []domain.Order) *LotQueue {
	return newQueue(orders, true)
}

func newQueue(orders []domain.Order, descending bool) *LotQueue {
	sorted := make([]domain.Order, len(orders))
	copy(sorted, orders)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Price != sorted[j].Price {
			if descending {
				return sorted[i].Price > sorted[j].Price
			}
			return sorted[i].Price < sorted[j].Price
		}
		return sorted[i].OrderID < sorted[j].OrderID
	})

	q := &LotQueue{orders: sorted}
	for _, o := range sorted {
		q.total += o.Volume
	}
	if len(sorted) > 0 {
		q.remaining = sorted[0].Volume
	}
	q.skipEmpty()
	return q
}

// skipEmpty advances past lots with no remaining volume. A zero-volume
// order in the snapshot counts as already exhausted.
func (q *LotQueue) skipEmpty() {
	for q.head < len(q.orders) && q.remaining <= 0 {
		q.head++
		if q.head < len(q.orders) {
			q.remaining = q.orders[q.head].Volume
		}
	}
}

// Exhausted reports whether the cursor has passed the last lot.
func (q *LotQueue) Exhausted() bool {
	return q.head >= len(q.orders)
}

// HeadPrice returns the price of the current head lot, or 0 when the
// queue is exhausted.
func (q *LotQueue) HeadPrice() float64 {
	if q.Exhausted() {
		return 0
	}
	return q.orders[q.head].Price
}

// HeadRemaining returns the unconsumed volume of the current head lot.
func (q *LotQueue) HeadRemaining() float64 {
	if q.Exhausted() {
		return 0
	}
	return q.remaining
}

// Take consumes up to n units from the head lot and returns the quantity
// actually taken. The head advances when its volume reaches zero. Taking
// from an exhausted queue returns 0; that is not an error.
func (q *LotQueue) Take(n float64) float64 {
	if q.Exhausted() || n <= 0 {
		return 0
	}
	taken := n
	if taken > q.remaining {
		taken = q.remaining
	}
	q.remaining -= taken
	q.skipEmpty()
	return taken
}

// DropHead discards whatever remains of the head lot and advances. Used
// when a budget clamp makes the head's remainder untradeable this trip.
func (q *LotQueue) DropHead() {
	if q.Exhausted() {
		return
	}
	q.remaining = 0
	q.skipEmpty()
}

// TotalVolume returns the summed volume of every lot in the queue as it
// was constructed, regardless of consumption since.
func (q *LotQueue) TotalVolume() float64 {
	return q.total
}
