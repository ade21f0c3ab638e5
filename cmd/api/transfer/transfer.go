package transfer

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/tamasbrandstadter/bank-api/cmd/api/account"
	"github.com/tamasbrandstadter/bank-api/cmd/api/audit"
	"github.com/tamasbrandstadter/bank-api/internal/cache"
	"github.com/tamasbrandstadter/bank-api/internal/validate"
)

type Outcome string

const (
	Success           Outcome = "SUCCESS"
	InsufficientFunds Outcome = "INSUFFICIENT FUNDS"
	IDMismatch        Outcome = "ID MISMATCH"
)

// errAbort rolls the transaction back without reporting a failure.
var errAbort = errors.New("transfer aborted")

type Request struct {
	From   int             `json:"fromAccount"`
	To     int             `json:"toAccount"`
	Amount decimal.Decimal `json:"amount" validate:"gt=0,scale=4"`
}

// Validate checks the amount is positive and fits the stored precision.
func (r Request) Validate() validate.Errors {
	return validate.Struct(r)
}

// Ledger is the view of storage available inside a transfer transaction.
type Ledger interface {
	// AccountForUpdate locks the account row until the transaction ends.
	AccountForUpdate(ctx context.Context, id int) (account.Account, error)
	UpdateBalance(ctx context.Context, id int, balance decimal.Decimal, modifiedAt time.Time) error
	RecordTransfer(ctx context.Context, r audit.Record) (audit.Record, error)
}

type Repository interface {
	// WithinTransaction commits when fn returns nil and rolls back otherwise.
	WithinTransaction(ctx context.Context, fn func(Ledger) error) error
}

type Notifier interface {
	Notify(ctx context.Context, r audit.Record)
}

type Evicter interface {
	Evict(ctx context.Context, keys ...string) error
}

type Service struct {
	repo     Repository
	cache    Evicter
	notifier Notifier
}

func NewService(repo Repository, c Evicter, n Notifier) *Service {
	return &Service{repo: repo, cache: c, notifier: n}
}

func (s *Service) Transfer(ctx context.Context, req Request) (Outcome, error) {
	var (
		outcome Outcome
		rec     audit.Record
	)

	err := s.repo.WithinTransaction(ctx, func(l Ledger) error {
		accs, ok, err := lock(ctx, l, req.From, req.To)
		if err != nil {
			return err
		}
		if !ok {
			outcome = IDMismatch
			return errAbort
		}

		from, to := accs[req.From], accs[req.To]
		if req.Amount.GreaterThan(from.Balance) {
			outcome = InsufficientFunds
			return errAbort
		}

		now := time.Now().UTC()

		debited := from.Balance.Sub(req.Amount)
		if err := l.UpdateBalance(ctx, from.ID, debited, now); err != nil {
			return err
		}

		credit := to.Balance
		if from.ID == to.ID {
			credit = debited
		}
		if err := l.UpdateBalance(ctx, to.ID, credit.Add(req.Amount), now); err != nil {
			return err
		}

		rec, err = l.RecordTransfer(ctx, audit.New(from.ID, to.ID, req.Amount, now))
		if err != nil {
			return err
		}

		outcome = Success
		return nil
	})

	entry := log.WithFields(log.Fields{
		"fromAccount": req.From,
		"toAccount":   req.To,
		"amount":      req.Amount.String(),
	})

	if errors.Cause(err) == errAbort {
		entry.WithField("outcome", outcome).Info("transfer rejected")
		return outcome, nil
	}
	if err != nil {
		return "", errors.Wrap(err, "transfer funds")
	}

	entry.WithFields(log.Fields{
		"transferId":   rec.ID,
		"selfTransfer": rec.SelfTransfer(),
	}).Info("transfer completed")

	if s.cache != nil {
		if err := s.cache.Evict(ctx, cache.BalanceKey(req.From), cache.BalanceKey(req.To)); err != nil {
			entry.WithError(err).Warn("failed to evict cached balances")
		}
	}
	if s.notifier != nil {
		s.notifier.Notify(ctx, rec)
	}

	return Success, nil
}

// lock acquires the accounts in ascending id order and reports false if
// either id is unknown.
func lock(ctx context.Context, l Ledger, ids ...int) (map[int]account.Account, bool, error) {
	sorted := append([]int(nil), ids...)
	sort.Ints(sorted)

	accs := make(map[int]account.Account, len(sorted))
	for _, id := range sorted {
		if _, ok := accs[id]; ok {
			continue
		}

		acc, err := l.AccountForUpdate(ctx, id)
		if err != nil {
			if errors.Cause(err) == sql.ErrNoRows {
				return nil, false, nil
			}
			return nil, false, errors.Wrapf(err, "lock account %d", id)
		}
		accs[id] = acc
	}

	return accs, true, nil
}
