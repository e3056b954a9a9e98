// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package scq

import (
	"runtime"
	"sync/atomic"

	"go.uber.org/zap"
)

// CartHandle is the consumer-side delivery object returned by
// [Queue.Dequeue]. A valid handle carries one full cart's worth of
// values, all sharing one [SlotID]. Calling [CartHandle.Close] returns
// the cart's capacity to the queue's empty pool; the handle must not be
// used afterward.
//
// The C++ original returns this cart's capacity automatically when the
// handle's destructor runs. Go has no destructors, so the primary
// release path here is the explicit Close call — the same pattern
// [*os.File] and [*sql.Rows] use. A [runtime.SetFinalizer] is
// registered as a leak-detection safety net only: if a
// handle is garbage collected without Close having been called, the
// finalizer returns the cart late and logs a warning, rather than
// leaking that cart's capacity forever.
type CartHandle[T any] struct {
	q      *Queue[T]
	slot   SlotID
	values []T
	valid  bool
	closed atomic.Bool
}

func validHandle[T any](q *Queue[T], slot SlotID, values []T) *CartHandle[T] {
	h := &CartHandle[T]{q: q, slot: slot, values: values, valid: true}
	runtime.SetFinalizer(h, finalizeCartHandle[T])
	return h
}

func invalidHandle[T any](q *Queue[T]) *CartHandle[T] {
	return &CartHandle[T]{q: q, valid: false}
}

// Valid reports whether the handle carries a cart. Dequeue returns an
// invalid handle only when the queue is closed and no cart remains to
// deliver.
func (h *CartHandle[T]) Valid() bool {
	return h.valid
}

// Get returns the handle's slot identifier and its cart's values.
// Repeated calls are permitted and return the same view. Returns
// [ErrNoState] if the handle is invalid.
func (h *CartHandle[T]) Get() (SlotID, []T, error) {
	if !h.valid {
		return SlotID{}, nil, ErrNoState
	}
	return h.slot, h.values, nil
}

// Close returns the cart's capacity to the queue's empty pool. It is
// idempotent and safe to call on an invalid handle (a no-op). After
// Close, the handle must not be used again.
func (h *CartHandle[T]) Close() error {
	if !h.valid {
		return nil
	}
	if !h.closed.CompareAndSwap(false, true) {
		return nil
	}
	runtime.SetFinalizer(h, nil)
	h.q.returnCart()
	return nil
}

func finalizeCartHandle[T any](h *CartHandle[T]) {
	if !h.valid || h.closed.Load() {
		return
	}
	if h.closed.CompareAndSwap(false, true) {
		h.q.logger.Warn("scq: cart handle garbage collected without Close; returning cart late",
			zap.Int("slot", h.slot.Index))
		h.q.returnCart()
	}
}
