// Package lockregistry owns the per-client and per-account binary locks.
//
// Locks are created lazily on first reference and are never removed, so a
// key always maps to the same *Lock for the lifetime of the Registry.
package lockregistry

import (
	"errors"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// ErrNotHeld indicates that a lock was released while nobody held it.
var ErrNotHeld = errors.New("lock released while not held")

// Lock is a non-blocking binary lock.
type Lock struct {
	name string
	held atomic.Bool
}

// TryAcquire takes the lock if it is free. It never blocks.
func (l *Lock) TryAcquire() bool {
	return l.held.CompareAndSwap(false, true)
}

// Release frees the lock.
func (l *Lock) Release() error {
	if !l.held.CompareAndSwap(true, false) {
		return ErrNotHeld
	}

	return nil
}

// IsHeld reports whether somebody currently holds the lock.
func (l *Lock) IsHeld() bool {
	return l.held.Load()
}

// Name returns the key the lock was created for.
func (l *Lock) Name() string {
	return l.name
}

// Registry holds two independent keyspaces: client ids and account keys.
type Registry struct {
	clients  sync.Map // int32 -> *Lock
	accounts sync.Map // normalized string -> *Lock

	clientCount  atomic.Int64
	accountCount atomic.Int64
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{}
}

// ClientLock returns the lock of the given client, creating it on first use.
func (r *Registry) ClientLock(id int32) *Lock {
	if l, ok := r.clients.Load(id); ok {
		return l.(*Lock)
	}

	l, loaded := r.clients.LoadOrStore(id, &Lock{name: "client:" + strconv.FormatInt(int64(id), 10)})
	if !loaded {
		r.clientCount.Add(1)
	}

	return l.(*Lock)
}

// AccountLock returns the lock of the given account, creating it on first use.
// Account keys are compared case-insensitively.
func (r *Registry) AccountLock(key string) *Lock {
	k := NormalizeAccount(key)

	if l, ok := r.accounts.Load(k); ok {
		return l.(*Lock)
	}

	l, loaded := r.accounts.LoadOrStore(k, &Lock{name: "account:" + k})
	if !loaded {
		r.accountCount.Add(1)
	}

	return l.(*Lock)
}

// Size returns the number of client and account locks created so far.
func (r *Registry) Size() (clients, accounts int64) {
	return r.clientCount.Load(), r.accountCount.Load()
}

// NormalizeAccount returns the registry key of an account.
func NormalizeAccount(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
