package paymentservice

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/go-petr/pet-payments/internal/completion"
	"github.com/go-petr/pet-payments/internal/coordinator"
	"github.com/go-petr/pet-payments/internal/domain"
	"github.com/go-petr/pet-payments/pkg/randompkg"
)

func resolved(tx domain.Transaction) *completion.Handle {
	h := completion.New()
	h.Resolve(tx)

	return h
}

func failed(err error) *completion.Handle {
	h := completion.New()
	h.Fail(err)

	return h
}

func TestPay(t *testing.T) {
	clientID := randompkg.ClientID()
	debtor := randompkg.Account()
	creditor := randompkg.Account()

	valid := domain.Payment{
		ClientID:        clientID,
		DebtorAccount:   "  " + debtor + " ",
		CreditorAccount: creditor,
		Amount:          " 100.5 ",
		Currency:        "eur",
	}

	normalized := domain.Payment{
		ClientID:        clientID,
		DebtorAccount:   debtor,
		CreditorAccount: creditor,
		Amount:          "100.5",
		Currency:        "EUR",
	}

	tx := domain.Transaction{
		ID:              uuid.New(),
		ClientID:        clientID,
		DebtorAccount:   debtor,
		CreditorAccount: creditor,
		Amount:          "100.5",
		Currency:        "EUR",
		CreatedAt:       time.Now().UTC(),
	}

	with := func(mutate func(p *domain.Payment)) domain.Payment {
		p := valid
		mutate(&p)

		return p
	}

	testCases := []struct {
		name       string
		payment    domain.Payment
		buildStubs func(c *MockCoordinator)
		wantTx     domain.Transaction
		wantErr    error
	}{
		{
			name:    "OK",
			payment: valid,
			buildStubs: func(c *MockCoordinator) {
				c.EXPECT().Submit(gomock.Any(), gomock.Eq(normalized)).Times(1).Return(resolved(tx))
			},
			wantTx: tx,
		},
		{
			name:    "EmptyDebtor",
			payment: with(func(p *domain.Payment) { p.DebtorAccount = "   " }),
			wantErr: domain.ErrEmptyAccount,
		},
		{
			name:    "EmptyCreditor",
			payment: with(func(p *domain.Payment) { p.CreditorAccount = "" }),
			wantErr: domain.ErrEmptyAccount,
		},
		{
			name:    "AccountTooLong",
			payment: with(func(p *domain.Payment) { p.CreditorAccount = strings.Repeat("A", domain.MaxAccountLength+1) }),
			wantErr: domain.ErrAccountTooLong,
		},
		{
			name:    "SameAccount",
			payment: with(func(p *domain.Payment) { p.CreditorAccount = strings.ToLower(debtor) }),
			wantErr: domain.ErrSameAccount,
		},
		{
			name:    "MalformedAmount",
			payment: with(func(p *domain.Payment) { p.Amount = "!@#$" }),
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "TooManyDecimals",
			payment: with(func(p *domain.Payment) { p.Amount = "1.2345" }),
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "TooManyDigits",
			payment: with(func(p *domain.Payment) { p.Amount = "123456789012345" }),
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "NegativeAmount",
			payment: with(func(p *domain.Payment) { p.Amount = "-10" }),
			wantErr: domain.ErrNegativeAmount,
		},
		{
			name:    "ZeroAmount",
			payment: with(func(p *domain.Payment) { p.Amount = "0.000" }),
			wantErr: domain.ErrNegativeAmount,
		},
		{
			name:    "InvalidCurrency",
			payment: with(func(p *domain.Payment) { p.Currency = "XYZ" }),
			wantErr: domain.ErrInvalidCurrency,
		},
		{
			name:    "Conflict",
			payment: valid,
			buildStubs: func(c *MockCoordinator) {
				err := &domain.ConflictError{Tier: domain.TierDebtor, Key: debtor}
				c.EXPECT().Submit(gomock.Any(), gomock.Any()).Times(1).Return(failed(err))
			},
			wantErr: domain.ErrLockConflict,
		},
		{
			name:    "InternalExecution",
			payment: valid,
			buildStubs: func(c *MockCoordinator) {
				c.EXPECT().Submit(gomock.Any(), gomock.Any()).Times(1).Return(failed(domain.ErrInternalExecution))
			},
			wantErr: domain.ErrInternalExecution,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			c := NewMockCoordinator(ctrl)
			if tc.buildStubs != nil {
				tc.buildStubs(c)
			} else {
				c.EXPECT().Submit(gomock.Any(), gomock.Any()).Times(0)
			}

			got, err := New(c).Pay(context.Background(), tc.payment)

			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				require.Empty(t, got)

				if errors.Is(tc.wantErr, domain.ErrValidation) {
					require.ErrorIs(t, err, domain.ErrValidation)
				}

				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.wantTx, got)
		})
	}
}

func TestPayCanceledByContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pending := completion.New()

	c := NewMockCoordinator(ctrl)
	c.EXPECT().Submit(gomock.Any(), gomock.Any()).Times(1).Return(pending)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := New(c).Pay(ctx, domain.Payment{
		ClientID:        1,
		DebtorAccount:   "A",
		CreditorAccount: "B",
		Amount:          "1",
		Currency:        "USD",
	})
	require.ErrorIs(t, err, completion.ErrCanceled)
	require.Equal(t, completion.Canceled, pending.State())
}

func TestHistory(t *testing.T) {
	account := randompkg.Account()

	snapshot := domain.Snapshot{
		CapturedAt:   time.Now().UTC(),
		Transactions: []domain.Transaction{{ID: uuid.New(), DebtorAccount: account}},
	}

	testCases := []struct {
		name       string
		account    string
		buildStubs func(c *MockCoordinator)
		want       domain.Snapshot
		wantErr    error
	}{
		{
			name:    "OK",
			account: " " + account + " ",
			buildStubs: func(c *MockCoordinator) {
				c.EXPECT().Snapshot(gomock.Any(), gomock.Eq(account)).Times(1).Return(snapshot, nil)
			},
			want: snapshot,
		},
		{
			name:    "Empty",
			account: "  ",
			buildStubs: func(c *MockCoordinator) {
				c.EXPECT().Snapshot(gomock.Any(), gomock.Any()).Times(0)
			},
			wantErr: domain.ErrEmptyAccount,
		},
		{
			name:    "TooLong",
			account: strings.Repeat("x", 33),
			buildStubs: func(c *MockCoordinator) {
				c.EXPECT().Snapshot(gomock.Any(), gomock.Any()).Times(0)
			},
			wantErr: domain.ErrAccountTooLong,
		},
		{
			name:    "Unavailable",
			account: account,
			buildStubs: func(c *MockCoordinator) {
				c.EXPECT().Snapshot(gomock.Any(), gomock.Any()).Times(1).Return(domain.Snapshot{}, domain.ErrTransactionUnderway)
			},
			wantErr: domain.ErrSnapshotUnavailable,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			c := NewMockCoordinator(ctrl)
			tc.buildStubs(c)

			got, err := New(c).History(context.Background(), tc.account)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	want := coordinator.Stats{ActiveTransactions: 2, ClientLocks: 3, AccountLocks: 5}

	c := NewMockCoordinator(ctrl)
	c.EXPECT().Stats().Times(1).Return(want)

	require.Equal(t, want, New(c).Status(context.Background()))
}
