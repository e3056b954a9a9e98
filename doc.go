// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package scq provides a bounded, multi-producer/multi-consumer slotted
// cart queue.
//
// A slotted cart queue batches producer-supplied values by a
// producer-chosen slot identifier into fixed-capacity "carts", and
// delivers full carts to consumers. It differs from an ordinary bounded
// MPMC queue in its item granularity: producers enqueue one value at a
// time, while consumers receive a whole cart of up to C values that all
// share one slot.
//
// # Quick Start
//
//	q, err := scq.New[string](scq.SlotCount{Slots: 4}, scq.CartCount{Carts: 4}, scq.CartCapacity{Capacity: 8})
//	if err != nil {
//	    // configuration error: capacity == 0, or carts < slots
//	}
//
//	// Producer
//	if err := q.Enqueue(scq.SlotID{Index: 0}, "hello"); err != nil {
//	    // scq.ErrClosed: the queue is closed
//	}
//
//	// Consumer
//	cart, err := q.Dequeue()
//	if err == nil && cart.Valid() {
//	    defer cart.Close()
//	    slot, values, _ := cart.Get()
//	    process(slot, values)
//	}
//
//	// Shutdown: drains partial carts, wakes every blocked caller.
//	q.Close()
//
// # Builder
//
// The [Builder] mirrors the fluent configuration style used throughout
// this module's ecosystem:
//
//	q, err := scq.Build[string](scq.NewBuilder().
//	    Slots(4).
//	    Carts(8).
//	    Capacity(16).
//	    WithLogger(logger))
//
// # Batching semantics
//
// Values enqueued to the same slot accumulate in a per-slot fill buffer.
// Once the buffer reaches cart capacity it is promoted to the full-cart
// buffer as a unit and handed to the next blocked (or future) consumer.
// A slot's enqueue only consults the empty-cart pool on the first value
// added after the slot's buffer was empty — every later enqueue for that
// slot is non-blocking until the cart is full, because the reservation
// already belongs to that slot.
//
// # Backpressure and close
//
// Enqueue blocks when no empty cart is available; it is released by a
// consumer dropping a [CartHandle] or by [Queue.Close]. Dequeue blocks
// when no full cart is ready; it is released by a promotion or by
// [Queue.Close]. Close is idempotent, drains every non-empty slot buffer
// into the full-cart buffer as a partial cart, and wakes every blocked
// caller. After Close, Enqueue always fails with [ErrClosed] and Dequeue
// drains remaining carts before returning invalid handles forever.
//
// # Cart handle lifetime
//
// [CartHandle] carries the delivered cart's values. Its memory is
// returned to the queue's empty-cart pool when [CartHandle.Close] is
// called. Go has no destructors, so — unlike the C++ original this
// package is ported from — callers must call Close explicitly; a
// runtime cleanup is registered as a leak-detection safety net (see
// [CartHandle] for details), not as the primary release path.
//
// # Observability
//
// [Stats] mirrors the queue's empty and full cart counts and running
// totals in lock-free counters suitable for a metrics scrape path; see
// [Queue.Stats] and [Collector] for Prometheus integration.
package scq
