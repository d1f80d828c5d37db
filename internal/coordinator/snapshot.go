package coordinator

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/go-petr/pet-payments/internal/domain"
)

// Snapshot returns every completed transaction touching account.
//
// It is rejected with an error matching domain.ErrSnapshotUnavailable while
// any transaction is in flight anywhere, or while the account lock is held.
// The account lock is held for the duration of the scan.
func (c *Coordinator) Snapshot(ctx context.Context, account string) (domain.Snapshot, error) {
	l := c.loggerFrom(ctx)

	if strings.TrimSpace(account) == "" {
		return domain.Snapshot{}, domain.ErrEmptyAccount
	}

	if c.tracker.IsAnyActive() {
		l.Info().Int64("active", c.tracker.ActiveCount()).Err(domain.ErrTransactionUnderway).Send()
		return domain.Snapshot{}, domain.ErrTransactionUnderway
	}

	lock := c.registry.AccountLock(account)
	if !lock.TryAcquire() {
		l.Info().Str("account", account).Err(domain.ErrAccountBusy).Send()
		return domain.Snapshot{}, domain.ErrAccountBusy
	}

	defer func() {
		if err := lock.Release(); err != nil {
			l.Error().Err(err).Str("lock", lock.Name()).Msg("cannot release lock")
		}
	}()

	capturedAt := time.Now().UTC()

	items, err := c.repo.ListByAccount(ctx, account)
	if err != nil {
		l.Error().Err(err).Send()
		return domain.Snapshot{}, err
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})

	return domain.Snapshot{CapturedAt: capturedAt, Transactions: items}, nil
}
