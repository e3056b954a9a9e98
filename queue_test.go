// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package scq_test

import (
	"errors"
	"testing"
	"time"

	"code.hybscloud.com/scq"
)

// =============================================================================
// Construction
// =============================================================================

func TestNewRejectsZeroCapacity(t *testing.T) {
	_, err := scq.New[int](scq.SlotCount{Slots: 5}, scq.CartCount{Carts: 5}, scq.CartCapacity{Capacity: 0})
	if !errors.Is(err, scq.ErrConfig) {
		t.Fatalf("New with capacity=0: got %v, want ErrConfig", err)
	}
}

func TestNewRejectsCartsBelowSlots(t *testing.T) {
	_, err := scq.New[int](scq.SlotCount{Slots: 5}, scq.CartCount{Carts: 4}, scq.CartCapacity{Capacity: 1})
	if !errors.Is(err, scq.ErrConfig) {
		t.Fatalf("New with carts<slots: got %v, want ErrConfig", err)
	}
}

func TestNewSingleSlotSingleCartSingleItem(t *testing.T) {
	q, err := scq.New[int](scq.SlotCount{Slots: 1}, scq.CartCount{Carts: 1}, scq.CartCapacity{Capacity: 1})
	if err != nil {
		t.Fatalf("New(1,1,1): %v", err)
	}
	if q.Slots() != 1 || q.Carts() != 1 || q.Cap() != 1 {
		t.Fatalf("New(1,1,1): got slots=%d carts=%d cap=%d", q.Slots(), q.Carts(), q.Cap())
	}

	if err := q.Enqueue(scq.SlotID{Index: 0}, 42); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	cart, err := q.Dequeue()
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if !cart.Valid() {
		t.Fatalf("Dequeue: handle invalid, want valid")
	}
	slot, values, err := cart.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if slot.Index != 0 || len(values) != 1 || values[0] != 42 {
		t.Fatalf("Get: got slot=%d values=%v, want slot=0 values=[42]", slot.Index, values)
	}
	if err := cart.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestNewFromConfig(t *testing.T) {
	q, err := scq.NewFromConfig[int](scq.Config{Slots: 3, Carts: 3, Capacity: 2})
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	if q.Slots() != 3 || q.Carts() != 3 || q.Cap() != 2 {
		t.Fatalf("NewFromConfig: got slots=%d carts=%d cap=%d", q.Slots(), q.Carts(), q.Cap())
	}
}

// =============================================================================
// Non-blocking enqueue within a single slot's reservation
// =============================================================================

// TestEnqueueFullCartNonBlocking verifies that enqueuing exactly Capacity
// values to one slot never blocks, even with no consumer present: the
// slot's single empty-cart reservation covers the whole cart.
func TestEnqueueFullCartNonBlocking(t *testing.T) {
	q, err := scq.New[int](scq.SlotCount{Slots: 5}, scq.CartCount{Carts: 5}, scq.CartCapacity{Capacity: 4})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := range 4 {
			if err := q.Enqueue(scq.SlotID{Index: 2}, 100+i); err != nil {
				t.Errorf("Enqueue(%d): %v", i, err)
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked filling exactly one cart with no consumer present")
	}

	cart, err := q.Dequeue()
	if err != nil || !cart.Valid() {
		t.Fatalf("Dequeue: cart=%v err=%v", cart, err)
	}
	_, values, _ := cart.Get()
	if len(values) != 4 {
		t.Fatalf("Get: got %d values, want 4", len(values))
	}
}

// TestEnqueueOverflowBlocksUntilConsumerReleases verifies that the
// (C+1)th value enqueued to a single slot with K=1 blocks until a
// consumer dequeues and releases its handle.
func TestEnqueueOverflowBlocksUntilConsumerReleases(t *testing.T) {
	q, err := scq.New[int](scq.SlotCount{Slots: 1}, scq.CartCount{Carts: 1}, scq.CartCapacity{Capacity: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	slot := scq.SlotID{Index: 0}
	if err := q.Enqueue(slot, 1); err != nil {
		t.Fatalf("Enqueue(1): %v", err)
	}
	if err := q.Enqueue(slot, 2); err != nil {
		t.Fatalf("Enqueue(2): %v", err)
	}

	blocked := make(chan struct{})
	unblocked := make(chan error, 1)
	go func() {
		close(blocked)
		unblocked <- q.Enqueue(slot, 3)
	}()

	<-blocked
	select {
	case err := <-unblocked:
		t.Fatalf("Enqueue(3) returned early (err=%v) with no cart available", err)
	case <-time.After(100 * time.Millisecond):
	}

	cart, err := q.Dequeue()
	if err != nil || !cart.Valid() {
		t.Fatalf("Dequeue: cart=%v err=%v", cart, err)
	}
	if err := cart.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	select {
	case err := <-unblocked:
		if err != nil {
			t.Fatalf("Enqueue(3) after release: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Enqueue(3) still blocked after consumer released its cart")
	}
}

func TestDequeueOnClosedEmptyQueueDoesNotBlock(t *testing.T) {
	q, err := scq.New[int](scq.SlotCount{Slots: 5}, scq.CartCount{Carts: 5}, scq.CartCapacity{Capacity: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	q.Close()

	done := make(chan *scq.CartHandle[int], 1)
	go func() {
		cart, _ := q.Dequeue()
		done <- cart
	}()

	select {
	case cart := <-done:
		if cart.Valid() {
			t.Fatalf("Dequeue on closed empty queue: got valid handle, want invalid")
		}
	case <-time.After(time.Second):
		t.Fatal("Dequeue on closed empty queue blocked")
	}
}

func TestCloseWithNoProducersOrConsumersIsNonBlocking(t *testing.T) {
	q, err := scq.New[int](scq.SlotCount{Slots: 5}, scq.CartCount{Carts: 5}, scq.CartCapacity{Capacity: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	q.Close()
	q.Close() // idempotent
}
