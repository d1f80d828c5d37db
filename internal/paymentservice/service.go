// Package paymentservice manages business logic layer of payments.
package paymentservice

import (
	"context"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-payments/internal/completion"
	"github.com/go-petr/pet-payments/internal/coordinator"
	"github.com/go-petr/pet-payments/internal/domain"
	"github.com/go-petr/pet-payments/pkg/currencypkg"
)

// Coordinator provides the execution layer interface needed by payment service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package paymentservice
type Coordinator interface {
	Submit(ctx context.Context, p domain.Payment) *completion.Handle
	Snapshot(ctx context.Context, account string) (domain.Snapshot, error)
	Stats() coordinator.Stats
}

var amountPattern = regexp.MustCompile(`^-?[0-9]{1,14}(\.[0-9]{1,3})?$`)

// Service facilitates payment service layer logic.
type Service struct {
	coordinator Coordinator
}

// New returns payment service struct to manage payment business logic.
func New(c Coordinator) *Service {
	return &Service{coordinator: c}
}

func validAccount(account string) error {
	switch {
	case account == "":
		return domain.ErrEmptyAccount
	case len(account) > domain.MaxAccountLength:
		return domain.ErrAccountTooLong
	default:
		return nil
	}
}

// normalize trims p and checks it field by field.
func (s *Service) normalize(ctx context.Context, p domain.Payment) (domain.Payment, error) {
	l := zerolog.Ctx(ctx)

	p.DebtorAccount = strings.TrimSpace(p.DebtorAccount)
	p.CreditorAccount = strings.TrimSpace(p.CreditorAccount)
	p.Amount = strings.TrimSpace(p.Amount)
	p.Currency = strings.ToUpper(strings.TrimSpace(p.Currency))

	for _, account := range []string{p.DebtorAccount, p.CreditorAccount} {
		if err := validAccount(account); err != nil {
			l.Info().Err(err).Send()
			return p, err
		}
	}

	if p.SameAccounts() {
		l.Info().Err(domain.ErrSameAccount).Send()
		return p, domain.ErrSameAccount
	}

	if !amountPattern.MatchString(p.Amount) {
		l.Info().Str("amount", p.Amount).Err(domain.ErrInvalidAmount).Send()
		return p, domain.ErrInvalidAmount
	}

	amount, err := decimal.NewFromString(p.Amount)
	if err != nil {
		l.Info().Err(err).Send()
		return p, domain.ErrInvalidAmount
	}

	if amount.LessThanOrEqual(decimal.Zero) {
		l.Info().Str("amount", p.Amount).Err(domain.ErrNegativeAmount).Send()
		return p, domain.ErrNegativeAmount
	}

	if !currencypkg.IsSupportedCurrency(p.Currency) {
		l.Info().Str("currency", p.Currency).Err(domain.ErrInvalidCurrency).Send()
		return p, domain.ErrInvalidCurrency
	}

	return p, nil
}

// Pay validates p, submits it and waits for its outcome. If ctx is done
// before the payment commits, the payment is canceled.
func (s *Service) Pay(ctx context.Context, p domain.Payment) (domain.Transaction, error) {
	p, err := s.normalize(ctx, p)
	if err != nil {
		return domain.Transaction{}, err
	}

	return s.coordinator.Submit(ctx, p).Wait(ctx)
}

// History returns the snapshot of the completed transactions of account.
func (s *Service) History(ctx context.Context, account string) (domain.Snapshot, error) {
	account = strings.TrimSpace(account)

	if err := validAccount(account); err != nil {
		zerolog.Ctx(ctx).Info().Err(err).Send()
		return domain.Snapshot{}, err
	}

	return s.coordinator.Snapshot(ctx, account)
}

// Status returns diagnostic counters of the coordinator.
func (s *Service) Status(ctx context.Context) coordinator.Stats {
	return s.coordinator.Stats()
}
