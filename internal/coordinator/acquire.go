package coordinator

import (
	"strconv"

	"github.com/rs/zerolog"

	"github.com/go-petr/pet-payments/internal/domain"
	"github.com/go-petr/pet-payments/internal/lockregistry"
)

type heldLock struct {
	tier domain.Tier
	lock *lockregistry.Lock
}

// Grant holds the locks of one payment in acquisition order.
type Grant struct {
	held []heldLock
}

// Locks returns the held locks in acquisition order.
func (g *Grant) Locks() []*lockregistry.Lock {
	locks := make([]*lockregistry.Lock, 0, len(g.held))
	for _, h := range g.held {
		locks = append(locks, h.lock)
	}

	return locks
}

// Release frees every held lock, most recent first. It is safe to call twice.
func (g *Grant) Release(l *zerolog.Logger) {
	for i := len(g.held) - 1; i >= 0; i-- {
		h := g.held[i]

		if err := h.lock.Release(); err != nil {
			l.Error().Err(err).Str("tier", string(h.tier)).Str("lock", h.lock.Name()).Msg("cannot release lock")
		}
	}

	g.held = nil
}

type tier struct {
	name domain.Tier
	key  string
	lock func() *lockregistry.Lock
}

// tryAcquireAll takes the client, debtor and creditor locks of p in that order
// without waiting. On failure nothing stays held.
func (c *Coordinator) tryAcquireAll(l *zerolog.Logger, p domain.Payment) (*Grant, error) {
	if p.SameAccounts() {
		return nil, domain.ErrSameAccount
	}

	tiers := []tier{
		{
			name: domain.TierClient,
			key:  strconv.FormatInt(int64(p.ClientID), 10),
			lock: func() *lockregistry.Lock { return c.registry.ClientLock(p.ClientID) },
		},
		{
			name: domain.TierDebtor,
			key:  p.DebtorAccount,
			lock: func() *lockregistry.Lock { return c.registry.AccountLock(p.DebtorAccount) },
		},
		{
			name: domain.TierCreditor,
			key:  p.CreditorAccount,
			lock: func() *lockregistry.Lock { return c.registry.AccountLock(p.CreditorAccount) },
		},
	}

	g := &Grant{held: make([]heldLock, 0, len(tiers))}

	for _, t := range tiers {
		lock := t.lock()

		if !lock.TryAcquire() {
			g.Release(l)

			err := &domain.ConflictError{Tier: t.name, Key: t.key}
			l.Warn().Err(err).Int32("client_id", p.ClientID).Send()

			return nil, err
		}

		g.held = append(g.held, heldLock{tier: t.name, lock: lock})
	}

	return g, nil
}
