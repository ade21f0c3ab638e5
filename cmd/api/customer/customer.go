package customer

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/tamasbrandstadter/bank-api/internal/cache"
)

// ErrUpdateFailed is the cause of every error returned by Update.
var ErrUpdateFailed = errors.New("customer update failed")

type Customer struct {
	ID         int       `json:"customerId" db:"id"`
	FirstName  string    `json:"firstName" db:"first_name"`
	LastName   string    `json:"lastName" db:"last_name"`
	Email      string    `json:"email" db:"email"`
	AccountID  int       `json:"accountId" db:"account_id"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	ModifiedAt time.Time `json:"modifiedAt" db:"modified_at"`
}

// Fields are the mutable parts of a customer.
type Fields struct {
	FirstName string `json:"firstName" validate:"required,max=65"`
	LastName  string `json:"lastName" validate:"required,max=65"`
	Email     string `json:"email" validate:"required,email,max=100"`
}

type Repository interface {
	CustomerByID(ctx context.Context, id int) (Customer, error)
	Customers(ctx context.Context) ([]Customer, error)
	UpdateCustomer(ctx context.Context, id int, f Fields, modifiedAt time.Time) (Customer, error)
}

type Evicter interface {
	Evict(ctx context.Context, keys ...string) error
}

type Service struct {
	repo  Repository
	cache Evicter
}

func NewService(repo Repository, c Evicter) *Service {
	return &Service{repo: repo, cache: c}
}

// ByID reports false when no customer has the id.
func (s *Service) ByID(ctx context.Context, id int) (Customer, bool, error) {
	c, err := s.repo.CustomerByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return Customer{}, false, nil
		}
		return Customer{}, false, errors.Wrapf(err, "find customer %d", id)
	}

	return c, true, nil
}

func (s *Service) All(ctx context.Context) ([]Customer, error) {
	cs, err := s.repo.Customers(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list customers")
	}

	if cs == nil {
		cs = make([]Customer, 0)
	}

	return cs, nil
}

// Update replaces the name and email of customer id. The email is stored as given.
func (s *Service) Update(ctx context.Context, id int, f Fields) (Customer, error) {
	c, err := s.repo.UpdateCustomer(ctx, id, f, time.Now().UTC())
	if err != nil {
		return Customer{}, errors.Wrapf(ErrUpdateFailed, "customer %d: %v", id, err)
	}

	if s.cache != nil {
		if err := s.cache.Evict(ctx, cache.BalanceKey(c.AccountID)); err != nil {
			log.WithError(err).Warnf("failed to evict cached balance of account %d", c.AccountID)
		}
	}

	log.WithFields(log.Fields{
		"customerId": c.ID,
		"accountId":  c.AccountID,
	}).Info("updated customer")

	return c, nil
}
