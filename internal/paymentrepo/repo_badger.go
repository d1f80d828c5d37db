package paymentrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-payments/internal/domain"
	"github.com/go-petr/pet-payments/internal/lockregistry"
	"github.com/go-petr/pet-payments/pkg/errorspkg"
)

const (
	txPrefix      = "tx:"
	accountPrefix = "acct:"
)

// RepoBadger keeps completed transactions in an in-memory badger instance.
//
// Every transaction is stored once under tx:<seq> and indexed under
// acct:<account>:<seq> for both of its accounts, so a history read is a
// prefix scan of one account.
type RepoBadger struct {
	db    *badger.DB
	seq   atomic.Uint64
	count atomic.Int64
}

// NewRepoBadger opens an in-memory badger store that logs through logger.
func NewRepoBadger(logger zerolog.Logger) (*RepoBadger, error) {
	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLogger(badgerLogger{logger.With().Str("component", "badger").Logger()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("cannot open badger: %w", err)
	}

	return &RepoBadger{db: db}, nil
}

// Append stores tx and its account index entries in one badger transaction.
func (r *RepoBadger) Append(ctx context.Context, tx domain.Transaction) error {
	l := zerolog.Ctx(ctx)

	val, err := json.Marshal(tx)
	if err != nil {
		l.Error().Err(err).Send()
		return errorspkg.ErrInternal
	}

	seq := r.seq.Add(1)
	txKey := []byte(fmt.Sprintf("%s%020d", txPrefix, seq))

	err = r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(txKey, val); err != nil {
			return err
		}

		if err := txn.Set(accountKey(tx.DebtorAccount, seq), txKey); err != nil {
			return err
		}

		return txn.Set(accountKey(tx.CreditorAccount, seq), txKey)
	})
	if err != nil {
		l.Error().Err(err).Str("id", tx.ID.String()).Msg("cannot append transaction")
		return errorspkg.ErrInternal
	}

	r.count.Add(1)

	return nil
}

// ListByAccount returns every transaction whose debtor or creditor is account, in commit order.
func (r *RepoBadger) ListByAccount(ctx context.Context, account string) ([]domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	items := []domain.Transaction{}
	prefix := []byte(accountPrefix + lockregistry.NormalizeAccount(account) + ":")

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true

		iter := txn.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
			txKey, err := iter.Item().ValueCopy(nil)
			if err != nil {
				return err
			}

			item, err := txn.Get(txKey)
			if err != nil {
				return err
			}

			var tx domain.Transaction

			err = item.Value(func(val []byte) error {
				return json.Unmarshal(val, &tx)
			})
			if err != nil {
				return err
			}

			// Account keys may contain the separator, so the prefix can over-match.
			if tx.Touches(account) {
				items = append(items, tx)
			}
		}

		return nil
	})
	if err != nil {
		l.Error().Err(err).Str("account", account).Msg("cannot list transactions")
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}

// Count returns the number of stored transactions.
func (r *RepoBadger) Count(ctx context.Context) (int, error) {
	return int(r.count.Load()), nil
}

// Close closes the badger instance.
func (r *RepoBadger) Close() error {
	return r.db.Close()
}

func accountKey(account string, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d", accountPrefix, lockregistry.NormalizeAccount(account), seq))
}

// badgerLogger routes badger's internal logging to zerolog.
type badgerLogger struct {
	l zerolog.Logger
}

func (b badgerLogger) Errorf(format string, args ...interface{}) {
	b.l.Error().Msgf(strings.TrimSuffix(format, "\n"), args...)
}

func (b badgerLogger) Warningf(format string, args ...interface{}) {
	b.l.Warn().Msgf(strings.TrimSuffix(format, "\n"), args...)
}

func (b badgerLogger) Infof(format string, args ...interface{}) {
	b.l.Debug().Msgf(strings.TrimSuffix(format, "\n"), args...)
}

func (b badgerLogger) Debugf(format string, args ...interface{}) {
	b.l.Trace().Msgf(strings.TrimSuffix(format, "\n"), args...)
}
