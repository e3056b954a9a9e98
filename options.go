// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package scq

import "go.uber.org/zap"

// Builder creates queues with fluent configuration, mirroring the
// builder style used across this module's ecosystem for constructing
// generic collections.
//
// Example:
//
//	q, err := scq.Build[Event](scq.NewBuilder().
//	    Slots(5).
//	    Carts(10).
//	    Capacity(8).
//	    WithLogger(logger))
type Builder struct {
	cfg    Config
	logger *zap.Logger
}

// NewBuilder creates an empty queue builder. Slots, Carts, and Capacity
// default to zero; callers must set Capacity (and normally Carts) before
// calling [Build], or construction fails with [ErrConfig].
func NewBuilder() *Builder {
	return &Builder{}
}

// Slots sets the number of batching buckets (S).
func (b *Builder) Slots(n int) *Builder {
	b.cfg.Slots = n
	return b
}

// Carts sets the total in-flight cart budget (K).
func (b *Builder) Carts(n int) *Builder {
	b.cfg.Carts = n
	return b
}

// Capacity sets the maximum number of values per cart (C).
func (b *Builder) Capacity(n int) *Builder {
	b.cfg.Capacity = n
	return b
}

// WithLogger attaches a structured logger used for close transitions,
// invariant-assertion failures, and cart-handle leak warnings. A nil
// logger (the default) makes the queue silent.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// Build creates a Queue[T] from the builder's accumulated configuration.
// Returns [ErrConfig] if Capacity is 0 or Carts < Slots.
func Build[T any](b *Builder) (*Queue[T], error) {
	return newQueue[T](b.cfg, b.logger)
}
