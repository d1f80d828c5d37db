// Package coordinator serializes conflicting payments with fail-fast, tiered
// per-entity locks and serves snapshot reads gated by an in-flight barrier.
//
// A payment first takes its client lock, then its debtor account lock, then
// its creditor account lock, each without waiting. Any failure releases what
// was already taken and rejects the payment, so no goroutine ever waits on a
// lock and deadlock is impossible regardless of account names.
package coordinator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/go-petr/pet-payments/internal/completion"
	"github.com/go-petr/pet-payments/internal/domain"
	"github.com/go-petr/pet-payments/internal/lockregistry"
	"github.com/go-petr/pet-payments/internal/txtracker"
)

// ErrClosed indicates that the coordinator no longer accepts payments.
var ErrClosed = errors.New("coordinator is closed")

// Repo provides the result store needed by the coordinator.
//
//go:generate mockgen -source coordinator.go -destination coordinator_mock.go -package coordinator
type Repo interface {
	Append(ctx context.Context, tx domain.Transaction) error
	ListByAccount(ctx context.Context, account string) ([]domain.Transaction, error)
}

// Effect performs the business effect of a payment. It runs while all of
// the payment's locks are held and must return once ctx is done.
type Effect func(ctx context.Context, p domain.Payment) error

// SimulatedEffect returns an Effect that takes d to complete.
func SimulatedEffect(d time.Duration) Effect {
	return func(ctx context.Context, p domain.Payment) error {
		timer := time.NewTimer(d)
		defer timer.Stop()

		select {
		case <-timer.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Stats holds diagnostic counters.
type Stats struct {
	ActiveTransactions int64 `json:"active_transactions"`
	ClientLocks        int64 `json:"client_locks"`
	AccountLocks       int64 `json:"account_locks"`
}

// Coordinator facilitates payment execution and snapshot reads.
type Coordinator struct {
	repo     Repo
	effect   Effect
	logger   zerolog.Logger
	registry *lockregistry.Registry
	tracker  *txtracker.Tracker

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// New returns a Coordinator that records completed transactions in repo.
func New(repo Repo, effect Effect, logger zerolog.Logger) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())

	return &Coordinator{
		repo:     repo,
		effect:   effect,
		logger:   logger,
		registry: lockregistry.New(),
		tracker:  txtracker.New(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Submit validates the lock preconditions of p, acquires its locks and starts
// the execution in the background. The returned handle resolves exactly once
// with the committed transaction or with an error matching
// domain.ErrValidation, domain.ErrLockConflict, domain.ErrInternalExecution,
// completion.ErrCanceled or ErrClosed.
func (c *Coordinator) Submit(ctx context.Context, p domain.Payment) *completion.Handle {
	h := completion.New()
	l := c.loggerFrom(ctx)

	if ctx.Err() != nil {
		h.Cancel()
		return h
	}

	if p.SameAccounts() {
		h.Fail(domain.ErrSameAccount)
		return h
	}

	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		h.Fail(ErrClosed)

		return h
	}
	c.wg.Add(1)
	c.mu.RUnlock()

	grant, err := c.tryAcquireAll(l, p)
	if err != nil {
		c.wg.Done()
		h.Fail(err)

		return h
	}

	// An admitted payment counts as in flight until execute ends it.
	c.tracker.Start()

	if p.Timestamp.IsZero() {
		p.Timestamp = time.Now().UTC()
	}

	execCtx, abort := context.WithCancel(c.ctx)
	h.OnCancel(abort)

	go func() {
		defer c.wg.Done()
		defer abort()

		c.execute(execCtx, l, h, p, grant)
	}()

	return h
}

// Subscribe registers fn for the in-flight edge events of the tracker.
func (c *Coordinator) Subscribe(fn func(txtracker.Event)) {
	c.tracker.Subscribe(fn)
}

// ActiveCount returns the number of executions in flight.
func (c *Coordinator) ActiveCount() int64 {
	return c.tracker.ActiveCount()
}

// Stats returns diagnostic counters.
func (c *Coordinator) Stats() Stats {
	clients, accounts := c.registry.Size()

	return Stats{
		ActiveTransactions: c.tracker.ActiveCount(),
		ClientLocks:        clients,
		AccountLocks:       accounts,
	}
}

// Close stops accepting payments and waits for in-flight executions.
// If ctx is done first the remaining effects are canceled and ctx.Err() is returned
// once they have cleaned up.
func (c *Coordinator) Close(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	done := make(chan struct{})

	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.cancel()
		return nil
	case <-ctx.Done():
		c.cancel()
		<-done

		return ctx.Err()
	}
}

// loggerFrom prefers the request logger carried by ctx.
func (c *Coordinator) loggerFrom(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}

	return &c.logger
}
