// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package scq

import (
	"sync"

	"go.uber.org/zap"
)

// Queue is a bounded, multi-producer/multi-consumer slotted cart queue.
//
// Producers enqueue one value at a time to a chosen [SlotID]; values
// sharing a slot accumulate in a per-slot fill buffer until it reaches
// cart capacity, at which point the whole buffer is promoted to a full
// cart and handed to the next consumer. The queue holds at most Carts
// carts' worth of capacity in flight at any time, spread across the
// empty pool, the full-cart buffer, and in-progress slot fill buffers.
//
// All exported methods are safe for concurrent use by multiple producer
// and consumer goroutines.
type Queue[T any] struct {
	cfg Config

	mu        sync.Mutex
	condEmpty sync.Cond // signalled when an empty cart is available, or closed
	condFull  sync.Cond // signalled when a full cart is available, or closed

	emptyCarts int // E
	fullCarts  int // F
	closed     bool

	fillBuffers []fillBuffer[T]
	ready       []readyCart[T] // unordered bag of full carts awaiting delivery

	logger *zap.Logger
	stats  *Stats
}

type fillBuffer[T any] struct {
	values []T
}

type readyCart[T any] struct {
	slot   SlotID
	values []T
}

// New constructs a [Queue] from positional configuration wrappers,
// matching the original C++ constructor's signature shape. Returns
// [ErrConfig] if capacity is 0 or carts < slots.
func New[T any](slots SlotCount, carts CartCount, capacity CartCapacity) (*Queue[T], error) {
	return newQueue[T](Config{Slots: slots.Slots, Carts: carts.Carts, Capacity: capacity.Capacity}, nil)
}

// NewFromConfig constructs a [Queue] from a named [Config] record.
// Returns [ErrConfig] if Capacity is 0 or Carts < Slots.
func NewFromConfig[T any](cfg Config) (*Queue[T], error) {
	return newQueue[T](cfg, nil)
}

func newQueue[T any](cfg Config, logger *zap.Logger) (*Queue[T], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	q := &Queue[T]{
		cfg:         cfg,
		emptyCarts:  cfg.Carts,
		fillBuffers: make([]fillBuffer[T], cfg.Slots),
		logger:      logger,
		stats:       newStats(cfg),
	}
	q.condEmpty.L = &q.mu
	q.condFull.L = &q.mu
	return q, nil
}

// Cap reports the queue's configured cart capacity (C).
func (q *Queue[T]) Cap() int { return q.cfg.Capacity }

// Slots reports the queue's configured slot count (S).
func (q *Queue[T]) Slots() int { return q.cfg.Slots }

// Carts reports the queue's configured total cart budget (K).
func (q *Queue[T]) Carts() int { return q.cfg.Carts }

// Stats returns a lock-free snapshot view of the queue's bookkeeping
// counters, suitable for a Prometheus scrape path. See [Stats].
func (q *Queue[T]) Stats() *Stats { return q.stats }

// Enqueue appends value to slot's fill buffer, blocking until an empty
// cart is available if the slot's buffer is currently empty. If the
// append fills the buffer to capacity, the buffer is promoted to a full
// cart and a waiting consumer is woken.
//
// Returns [ErrClosed] if the queue is closed, either when Enqueue is
// called or after waking from a wait for an empty cart; value is
// discarded, not returned to the caller.
func (q *Queue[T]) Enqueue(slot SlotID, value T) error {
	q.mu.Lock()

	wasClosed := q.closed
	if !wasClosed && len(q.fillBuffers[slot.Index].values) == 0 {
		for q.emptyCarts == 0 && !q.closed {
			q.condEmpty.Wait()
		}
		wasClosed = q.closed
		if !wasClosed {
			q.emptyCarts--
			q.stats.emptyCarts.Add(-1)
			q.checkCartCounts()
		}
	}

	var promoted bool
	var fullBufferWasEmpty bool
	if !wasClosed {
		buf := &q.fillBuffers[slot.Index]
		buf.values = append(buf.values, value)
		if len(buf.values) == q.cfg.Capacity {
			fullBufferWasEmpty = len(q.ready) == 0
			q.promoteLocked(slot)
			promoted = true
		}
		q.stats.recordEnqueued()
	}

	q.mu.Unlock()

	if promoted && fullBufferWasEmpty {
		q.condFull.Broadcast()
	}
	if wasClosed {
		q.stats.recordDropped()
		return ErrClosed
	}
	return nil
}

// promoteLocked moves slot's fill buffer into the ready-cart bag. Must
// be called with q.mu held; the caller is responsible for notifying
// condFull after releasing the lock.
func (q *Queue[T]) promoteLocked(slot SlotID) {
	buf := &q.fillBuffers[slot.Index]
	if len(buf.values) == 0 {
		return
	}
	q.ready = append(q.ready, readyCart[T]{slot: slot, values: buf.values})
	buf.values = nil
	q.fullCarts++
	q.stats.recordCartPromoted()
	q.checkCartCounts()
}

// Dequeue blocks until a full cart is available or the queue closes
// with nothing left to deliver, returning a [CartHandle]. After close,
// Dequeue first drains every previously promoted cart (including those
// drained by Close itself) before returning an invalid handle; every
// subsequent call then returns an invalid handle immediately.
func (q *Queue[T]) Dequeue() (*CartHandle[T], error) {
	q.mu.Lock()

	for q.fullCarts == 0 && !q.closed {
		q.condFull.Wait()
	}

	if q.fullCarts == 0 {
		q.mu.Unlock()
		return invalidHandle[T](q), nil
	}

	n := len(q.ready)
	rc := q.ready[n-1]
	q.ready = q.ready[:n-1]
	q.fullCarts--
	q.checkCartCounts()
	q.stats.recordCartDelivered()

	q.mu.Unlock()

	return validHandle(q, rc.slot, rc.values), nil
}

// Close is idempotent. It marks the queue closed, drains every
// non-empty slot fill buffer into the full-cart buffer as a partial
// cart (the only time a delivered cart may have fewer than Capacity
// values), and wakes every producer and consumer blocked in Enqueue or
// Dequeue.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	for i := range q.fillBuffers {
		if len(q.fillBuffers[i].values) > 0 {
			q.promoteLocked(SlotID{Index: i})
		}
	}
	q.mu.Unlock()

	q.logger.Info("scq: queue closed", zap.Int("slots", q.cfg.Slots), zap.Int("carts", q.cfg.Carts))

	q.condEmpty.Broadcast()
	q.condFull.Broadcast()
}

// Closed reports whether [Queue.Close] has been called. It takes the
// mutex briefly.
func (q *Queue[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// returnCart is called by a [CartHandle] on release to return one
// cart's worth of capacity to the empty pool.
func (q *Queue[T]) returnCart() {
	q.mu.Lock()
	wasEmpty := q.emptyCarts == 0
	q.emptyCarts++
	q.checkCartCounts()
	q.mu.Unlock()

	q.stats.recordCartReturned()

	if wasEmpty {
		q.condEmpty.Broadcast()
	}
}

// checkCartCounts asserts the E/F bookkeeping invariants. Must be
// called with q.mu held. A violation indicates a bug in this package,
// not a caller error, and panics via [InvariantError].
func (q *Queue[T]) checkCartCounts() {
	if q.emptyCarts < 0 || q.emptyCarts > q.cfg.Carts {
		q.logger.Error("scq: empty cart count out of range", zap.Int("emptyCarts", q.emptyCarts), zap.Int("carts", q.cfg.Carts))
		invariantViolation("empty-cart-count", "0 <= E <= K violated")
	}
	if q.fullCarts < 0 || q.fullCarts > q.cfg.Carts {
		q.logger.Error("scq: full cart count out of range", zap.Int("fullCarts", q.fullCarts), zap.Int("carts", q.cfg.Carts))
		invariantViolation("full-cart-count", "0 <= F <= K violated")
	}
}
