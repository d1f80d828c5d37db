// Package completion provides the one-shot handle through which a submitted
// payment reports its outcome.
package completion

import (
	"context"
	"errors"
	"sync"

	"github.com/go-petr/pet-payments/internal/domain"
)

// ErrCanceled indicates that the caller gave up on the payment before it completed.
var ErrCanceled = errors.New("transaction canceled")

// State is the lifecycle state of a Handle.
type State int

// Handle states. Succeeded, Failed and Canceled are terminal.
const (
	Pending State = iota
	Claimed
	Succeeded
	Failed
	Canceled
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Claimed:
		return "claimed"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Canceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Handle is resolved exactly once and may be read by any number of waiters.
type Handle struct {
	mu       sync.Mutex
	done     chan struct{}
	state    State
	tx       domain.Transaction
	err      error
	onCancel []func()
}

// New returns a pending Handle.
func New() *Handle {
	return &Handle{done: make(chan struct{})}
}

// Claim reserves the handle for the producer so that it can no longer be
// canceled. It returns false if the handle is not pending. A claimed handle
// must still be resolved with Resolve or Fail.
func (h *Handle) Claim() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != Pending {
		return false
	}

	h.state = Claimed

	return true
}

// Resolve completes the handle with tx. It returns false if the handle was already resolved.
func (h *Handle) Resolve(tx domain.Transaction) bool {
	return h.complete(Succeeded, tx, nil)
}

// Fail completes the handle with err. It returns false if the handle was already resolved.
func (h *Handle) Fail(err error) bool {
	return h.complete(Failed, domain.Transaction{}, err)
}

// Cancel moves a pending handle to Canceled and runs the OnCancel callbacks.
func (h *Handle) Cancel() bool {
	h.mu.Lock()

	if h.state != Pending {
		h.mu.Unlock()
		return false
	}

	h.finish(Canceled, domain.Transaction{}, ErrCanceled)
	callbacks := h.onCancel
	h.onCancel = nil
	h.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}

	return true
}

// OnCancel registers fn to run if the handle gets canceled.
// If the handle is already canceled fn runs immediately.
func (h *Handle) OnCancel(fn func()) {
	h.mu.Lock()

	switch h.state {
	case Pending, Claimed:
		h.onCancel = append(h.onCancel, fn)
		h.mu.Unlock()
	case Canceled:
		h.mu.Unlock()
		fn()
	default:
		h.mu.Unlock()
	}
}

// Done is closed once the handle is resolved.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// State returns the current state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.state
}

// Result returns the outcome. It must only be called after Done is closed.
func (h *Handle) Result() (domain.Transaction, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.tx, h.err
}

// Wait blocks until the handle is resolved or ctx is done. When ctx is done
// first the handle is canceled; if it was already claimed Wait keeps waiting
// for the producer's outcome.
func (h *Handle) Wait(ctx context.Context) (domain.Transaction, error) {
	select {
	case <-h.done:
	case <-ctx.Done():
		if !h.Cancel() {
			<-h.done
		}
	}

	return h.Result()
}

func (h *Handle) complete(s State, tx domain.Transaction, err error) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != Pending && h.state != Claimed {
		return false
	}

	h.finish(s, tx, err)

	return true
}

func (h *Handle) finish(s State, tx domain.Transaction, err error) {
	h.state = s
	h.tx = tx
	h.err = err
	close(h.done)
}
