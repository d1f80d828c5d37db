package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is matched by every input validation error.
	ErrValidation = errors.New("validation failed")
	// ErrLockConflict indicates that another in-flight payment holds a needed lock.
	ErrLockConflict = errors.New("transaction conflict detected, try again later")
	// ErrInternalExecution indicates that the transfer effect failed unexpectedly.
	ErrInternalExecution = errors.New("transaction execution failed")
	// ErrSnapshotUnavailable is matched by every snapshot rejection.
	ErrSnapshotUnavailable = errors.New("snapshot unavailable, try again later")
)

var (
	// ErrInvalidClientID indicates a missing or non-numeric client id.
	ErrInvalidClientID = validationError("missing or invalid client id")
	// ErrEmptyAccount indicates an empty debtor or creditor account.
	ErrEmptyAccount = validationError("debtor or creditor account cannot be empty")
	// ErrAccountTooLong indicates an account longer than MaxAccountLength.
	ErrAccountTooLong = validationError(fmt.Sprintf("account must be at most %d characters", MaxAccountLength))
	// ErrSameAccount indicates that debtor and creditor are the same account.
	ErrSameAccount = validationError("creditor and debtor accounts cannot be the same")
	// ErrInvalidAmount indicates invalid amount.
	ErrInvalidAmount = validationError("invalid amount")
	// ErrNegativeAmount indicates negative amount.
	ErrNegativeAmount = validationError("negative amount")
	// ErrInvalidCurrency indicates a currency that is not an ISO 4217 code.
	ErrInvalidCurrency = validationError("currency should be a valid ISO code")
)

var (
	// ErrTransactionUnderway indicates that a snapshot was requested while a transaction is in flight.
	ErrTransactionUnderway = fmt.Errorf("a transaction is already underway: %w", ErrSnapshotUnavailable)
	// ErrAccountBusy indicates that a snapshot was requested for a locked account.
	ErrAccountBusy = fmt.Errorf("a transaction with that account is underway: %w", ErrSnapshotUnavailable)
)

// MaxAccountLength is the longest accepted account identifier.
const MaxAccountLength = 32

func validationError(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrValidation)
}

// Tier names a step of the lock acquisition order.
type Tier string

// Lock tiers in acquisition order.
const (
	TierClient   Tier = "client"
	TierDebtor   Tier = "debtor"
	TierCreditor Tier = "creditor"
)

// ConflictError describes the lock a payment failed to acquire.
type ConflictError struct {
	Tier Tier
	Key  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("failed to acquire %s lock for %s: %v", e.Tier, e.Key, ErrLockConflict)
}

// Is makes every ConflictError match ErrLockConflict.
func (e *ConflictError) Is(target error) bool {
	return target == ErrLockConflict
}
