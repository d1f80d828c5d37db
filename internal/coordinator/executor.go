package coordinator

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-payments/internal/completion"
	"github.com/go-petr/pet-payments/internal/domain"
)

// execute runs the effect of p while grant is held and resolves h. The
// tracker must already count the execution.
//
// The tracker is decremented and every lock released before h is resolved,
// so a caller woken by h can immediately reuse the same keys.
func (c *Coordinator) execute(ctx context.Context, l *zerolog.Logger, h *completion.Handle, p domain.Payment, grant *Grant) {
	el := l.With().
		Int32("client_id", p.ClientID).
		Str("debtor_account", p.DebtorAccount).
		Str("creditor_account", p.CreditorAccount).
		Logger()

	var (
		tx  domain.Transaction
		err error
	)

	defer func() {
		if r := recover(); r != nil {
			perr := errors.Errorf("transfer effect panicked: %v", r)
			el.Error().Stack().Err(perr).Send()
			err = fmt.Errorf("%w: %v", domain.ErrInternalExecution, r)
		}

		if endErr := c.tracker.End(); endErr != nil {
			el.Error().Err(endErr).Msg("unbalanced tracker end")
		}

		grant.Release(&el)

		// Both are no-ops on a canceled handle.
		if err != nil {
			h.Fail(err)
		} else {
			h.Resolve(tx)
		}
	}()

	el.Debug().Msg("transaction underway")

	if err = c.effect(ctx, p); err != nil {
		if h.State() == completion.Canceled {
			el.Info().Msg("transaction canceled during execution")
			return
		}

		werr := errors.Wrap(err, "transfer effect")
		el.Error().Stack().Err(werr).Send()
		err = fmt.Errorf("%w: %v", domain.ErrInternalExecution, werr)

		return
	}

	if !h.Claim() {
		el.Info().Msg("transaction canceled before commit")
		err = completion.ErrCanceled

		return
	}

	tx = domain.NewTransaction(p)

	if aerr := c.repo.Append(el.WithContext(ctx), tx); aerr != nil {
		werr := errors.Wrap(aerr, "append transaction")
		el.Error().Stack().Err(werr).Send()
		err = fmt.Errorf("%w: %v", domain.ErrInternalExecution, werr)

		return
	}

	el.Debug().Str("id", tx.ID.String()).Msg("transaction completed")
}
