// Package domain provides definitions of all entities.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Payment holds a transfer request submitted by a client.
type Payment struct {
	ClientID        int32     `json:"client_id"`
	DebtorAccount   string    `json:"debtor_account"`
	CreditorAccount string    `json:"creditor_account"`
	Amount          string    `json:"instructed_amount"`
	Currency        string    `json:"currency"`
	Timestamp       time.Time `json:"timestamp"`
}

// SameAccounts reports whether debtor and creditor name the same account.
func (p Payment) SameAccounts() bool {
	return strings.EqualFold(strings.TrimSpace(p.DebtorAccount), strings.TrimSpace(p.CreditorAccount))
}

// Transaction holds a completed transfer. It is immutable once committed.
type Transaction struct {
	ID              uuid.UUID `json:"id"`
	ClientID        int32     `json:"client_id"`
	DebtorAccount   string    `json:"debtor_account"`
	CreditorAccount string    `json:"creditor_account"`
	Amount          string    `json:"amount"`
	Currency        string    `json:"currency"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewTransaction builds the committed record of p.
func NewTransaction(p Payment) Transaction {
	return Transaction{
		ID:              uuid.New(),
		ClientID:        p.ClientID,
		DebtorAccount:   p.DebtorAccount,
		CreditorAccount: p.CreditorAccount,
		Amount:          p.Amount,
		Currency:        strings.ToUpper(p.Currency),
		CreatedAt:       time.Now().UTC(),
	}
}

// Touches reports whether account is the debtor or the creditor of t.
func (t Transaction) Touches(account string) bool {
	return strings.EqualFold(t.DebtorAccount, account) || strings.EqualFold(t.CreditorAccount, account)
}

// Snapshot is a point-in-time view of the completed transactions of an account.
type Snapshot struct {
	CapturedAt   time.Time     `json:"snapshot_time"`
	Transactions []Transaction `json:"transactions"`
}
