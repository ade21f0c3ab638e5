package account

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/tamasbrandstadter/bank-api/cmd/api/customer"
	"github.com/tamasbrandstadter/bank-api/internal/cache"
)

var (
	ErrInvalidCustomerCount = errors.New("invalid number of customers for account type")
	ErrUnknownType          = errors.New("unknown account type")
	ErrNegativeBalance      = errors.New("balance can't be negative")
)

type Type string

const (
	Saving  Type = "SAVING"
	Current Type = "CURRENT"
	Joint   Type = "JOINT"
)

func (t Type) Valid() bool {
	return t == Saving || t == Current || t == Joint
}

// Individual accounts belong to exactly one customer.
func (t Type) Individual() bool {
	return t == Saving || t == Current
}

func (t Type) acceptsCustomers(n int) bool {
	if t.Individual() {
		return n == 1
	}
	return n >= 2
}

type Account struct {
	ID         int                 `json:"accountId" db:"id"`
	Type       Type                `json:"accountType" db:"account_type"`
	Balance    decimal.Decimal     `json:"balance" db:"balance"`
	Customers  []customer.Customer `json:"customers" db:"-"`
	CreatedAt  time.Time           `json:"createdAt" db:"created_at"`
	ModifiedAt time.Time           `json:"modifiedAt" db:"modified_at"`
}

type Repository interface {
	// CreateWithCustomers persists the account and its customers atomically
	// and returns them with their assigned ids.
	CreateWithCustomers(ctx context.Context, acc Account) (Account, error)
	AccountByID(ctx context.Context, id int) (Account, error)
}

type Cache interface {
	Load(ctx context.Context, key string, v interface{}) error
	// Fill caches a value read from storage at readAt unless the key was
	// evicted since.
	Fill(ctx context.Context, key string, v interface{}, readAt time.Time) error
}

type Service struct {
	repo  Repository
	cache Cache
}

func NewService(repo Repository, c Cache) *Service {
	return &Service{repo: repo, cache: c}
}

func (s *Service) Create(ctx context.Context, t Type, balance decimal.Decimal, customers []customer.Customer) (Account, error) {
	if !t.Valid() {
		return Account{}, ErrUnknownType
	}
	if balance.IsNegative() {
		return Account{}, ErrNegativeBalance
	}
	if !t.acceptsCustomers(len(customers)) {
		return Account{}, errors.Wrapf(ErrInvalidCustomerCount, "%s with %d customers", t, len(customers))
	}

	now := time.Now().UTC()

	acc := Account{
		Type:       t,
		Balance:    balance,
		Customers:  make([]customer.Customer, 0, len(customers)),
		CreatedAt:  now,
		ModifiedAt: now,
	}

	for _, c := range customers {
		c.Email = strings.ToLower(c.Email)
		c.CreatedAt = now
		c.ModifiedAt = now
		acc.Customers = append(acc.Customers, c)
	}

	created, err := s.repo.CreateWithCustomers(ctx, acc)
	if err != nil {
		return Account{}, errors.Wrap(err, "create account")
	}

	log.WithFields(log.Fields{
		"accountId":   created.ID,
		"accountType": created.Type,
		"customers":   len(created.Customers),
	}).Info("created account")

	return created, nil
}

// Balance reports false when no account has the id.
func (s *Service) Balance(ctx context.Context, id int) (Account, bool, error) {
	key := cache.BalanceKey(id)

	var acc Account
	if err := s.cache.Load(ctx, key, &acc); err == nil {
		return acc, true, nil
	} else if err != cache.ErrMiss {
		log.WithError(err).Warnf("failed to get balance from cache for account id %d", id)
	}

	readAt := time.Now()

	acc, err := s.repo.AccountByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return Account{}, false, nil
		}
		return Account{}, false, errors.Wrapf(err, "find account %d", id)
	}

	if err := s.cache.Fill(ctx, key, acc, readAt); err != nil {
		log.WithError(err).Warnf("failed to cache balance for account id %d", id)
	}

	return acc, true, nil
}
