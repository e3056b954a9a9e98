// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package scq

import (
	"errors"
	"fmt"
)

// ErrConfig is returned by [New] and [Build] when the queue's
// construction parameters violate a precondition. Use errors.Is to test
// for it; the wrapped message names the specific violation.
var ErrConfig = errors.New("scq: invalid configuration")

// ErrClosed is returned by [Queue.Enqueue] when the queue is closed,
// either at the time of the call or after waking from a wait on an
// empty cart. A value rejected with ErrClosed was never inserted.
var ErrClosed = errors.New("scq: queue is closed")

// ErrNoState is returned by [CartHandle.Get] when the handle does not
// carry a cart, that is, when the handle is the product of a Dequeue on
// a closed, drained queue. Get on a valid handle that has already been
// closed still returns its values.
var ErrNoState = errors.New("scq: cart handle has no state")

// InvariantError reports a breach of the queue's internal bookkeeping
// invariants: the empty-cart count E and the full-cart count F must each
// stay within [0, Carts]. It is not meant to be recovered from; a caller
// that observes one has found a bug in this package.
type InvariantError struct {
	Invariant string
	Detail    string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("scq: invariant violated (%s): %s", e.Invariant, e.Detail)
}

func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}

func invariantViolation(invariant, detail string) {
	panic(&InvariantError{Invariant: invariant, Detail: detail})
}
