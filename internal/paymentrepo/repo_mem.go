// Package paymentrepo manages the append-only store of completed transactions.
package paymentrepo

import (
	"context"
	"sync"

	"github.com/go-petr/pet-payments/internal/domain"
)

// RepoMem keeps completed transactions in memory in commit order.
type RepoMem struct {
	mu    sync.RWMutex
	items []domain.Transaction
}

// NewRepoMem returns an empty RepoMem.
func NewRepoMem() *RepoMem {
	return &RepoMem{}
}

// Append stores tx.
func (r *RepoMem) Append(ctx context.Context, tx domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = append(r.items, tx)

	return nil
}

// ListByAccount returns copies of every transaction whose debtor or creditor is account.
func (r *RepoMem) ListByAccount(ctx context.Context, account string) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := []domain.Transaction{}

	for _, tx := range r.items {
		if tx.Touches(account) {
			items = append(items, tx)
		}
	}

	return items, nil
}

// Count returns the number of stored transactions.
func (r *RepoMem) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.items), nil
}

// Close is a no-op.
func (r *RepoMem) Close() error {
	return nil
}
