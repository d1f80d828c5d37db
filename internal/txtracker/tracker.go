// Package txtracker counts the transactions currently in flight.
package txtracker

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrNotStarted indicates an End without a matching Start.
var ErrNotStarted = errors.New("no transaction in flight")

// Event is broadcast when the in-flight count crosses zero.
type Event int

// Edge events.
const (
	TransactionsStarted Event = iota + 1 // 0 -> 1
	TransactionsEnded                    // 1 -> 0
)

func (e Event) String() string {
	switch e {
	case TransactionsStarted:
		return "transactions_started"
	case TransactionsEnded:
		return "transactions_ended"
	default:
		return "unknown"
	}
}

// Tracker is a process-wide counter of in-flight executions.
type Tracker struct {
	active atomic.Int64

	mu        sync.RWMutex
	observers []func(Event)
}

// New returns a Tracker with no transaction in flight.
func New() *Tracker {
	return &Tracker{}
}

// Subscribe registers fn to be called on every edge event.
// Observers run synchronously on the goroutine that crossed the edge and must not block.
func (t *Tracker) Subscribe(fn func(Event)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.observers = append(t.observers, fn)
}

// Start registers the beginning of an execution.
func (t *Tracker) Start() {
	if t.active.Add(1) == 1 {
		t.notify(TransactionsStarted)
	}
}

// End registers the end of an execution. The count never drops below zero.
func (t *Tracker) End() error {
	for {
		n := t.active.Load()
		if n <= 0 {
			return ErrNotStarted
		}

		if t.active.CompareAndSwap(n, n-1) {
			if n == 1 {
				t.notify(TransactionsEnded)
			}

			return nil
		}
	}
}

// IsAnyActive reports whether any execution is in flight.
func (t *Tracker) IsAnyActive() bool {
	return t.active.Load() > 0
}

// ActiveCount returns the number of executions in flight.
func (t *Tracker) ActiveCount() int64 {
	return t.active.Load()
}

func (t *Tracker) notify(e Event) {
	t.mu.RLock()
	observers := t.observers
	t.mu.RUnlock()

	for _, fn := range observers {
		fn(e)
	}
}
