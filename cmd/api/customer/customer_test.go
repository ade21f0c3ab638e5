package customer

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/tamasbrandstadter/bank-api/internal/cache"
)

var createdAt = time.Now().UTC()

type fakeRepo struct {
	customers map[int]Customer
	err       error
}

func (f *fakeRepo) CustomerByID(_ context.Context, id int) (Customer, error) {
	if f.err != nil {
		return Customer{}, f.err
	}
	c, ok := f.customers[id]
	if !ok {
		return Customer{}, errors.Wrap(sql.ErrNoRows, "select customer")
	}
	return c, nil
}

func (f *fakeRepo) Customers(_ context.Context) ([]Customer, error) {
	if f.err != nil {
		return nil, f.err
	}
	var cs []Customer
	for i := 1; i <= len(f.customers); i++ {
		cs = append(cs, f.customers[i])
	}
	return cs, nil
}

func (f *fakeRepo) UpdateCustomer(_ context.Context, id int, fl Fields, modifiedAt time.Time) (Customer, error) {
	if f.err != nil {
		return Customer{}, f.err
	}
	c, ok := f.customers[id]
	if !ok {
		return Customer{}, sql.ErrNoRows
	}
	c.FirstName, c.LastName, c.Email, c.ModifiedAt = fl.FirstName, fl.LastName, fl.Email, modifiedAt
	f.customers[id] = c
	return c, nil
}

type fakeEvicter struct {
	keys []string
}

func (f *fakeEvicter) Evict(_ context.Context, keys ...string) error {
	f.keys = append(f.keys, keys...)
	return nil
}

func newRepo() *fakeRepo {
	return &fakeRepo{customers: map[int]Customer{
		1: {ID: 1, FirstName: "first", LastName: "last", Email: "first@last.com", AccountID: 1, CreatedAt: createdAt, ModifiedAt: createdAt},
		2: {ID: 2, FirstName: "second", LastName: "last", Email: "second@last.com", AccountID: 2, CreatedAt: createdAt, ModifiedAt: createdAt},
	}}
}

func TestByID(t *testing.T) {
	s := NewService(newRepo(), nil)

	c, ok, err := s.ByID(context.Background(), 1)

	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "first@last.com", c.Email)
}

func TestByIDAbsent(t *testing.T) {
	s := NewService(newRepo(), nil)

	_, ok, err := s.ByID(context.Background(), 99)

	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestByIDError(t *testing.T) {
	s := NewService(&fakeRepo{err: sql.ErrConnDone}, nil)

	_, _, err := s.ByID(context.Background(), 1)

	assert.Equal(t, sql.ErrConnDone, errors.Cause(err))
}

func TestAll(t *testing.T) {
	s := NewService(newRepo(), nil)

	cs, err := s.All(context.Background())

	assert.NoError(t, err)
	assert.Len(t, cs, 2)
	assert.Equal(t, 1, cs[0].ID)
	assert.Equal(t, 2, cs[1].ID)
}

func TestAllEmpty(t *testing.T) {
	s := NewService(&fakeRepo{customers: map[int]Customer{}}, nil)

	cs, err := s.All(context.Background())

	assert.NoError(t, err)
	assert.NotNil(t, cs)
	assert.Empty(t, cs)
}

func TestUpdate(t *testing.T) {
	ev := &fakeEvicter{}
	s := NewService(newRepo(), ev)

	c, err := s.Update(context.Background(), 2, Fields{FirstName: "new", LastName: "name", Email: "New@Last.com"})

	assert.NoError(t, err)
	assert.Equal(t, "new", c.FirstName)
	assert.Equal(t, "name", c.LastName)
	assert.Equal(t, "New@Last.com", c.Email)
	assert.Equal(t, 2, c.AccountID)
	assert.True(t, !c.ModifiedAt.Before(createdAt))
	assert.Equal(t, []string{cache.BalanceKey(2)}, ev.keys)
}

func TestUpdateFailed(t *testing.T) {
	ev := &fakeEvicter{}
	s := NewService(&fakeRepo{err: errors.New("duplicate key")}, ev)

	_, err := s.Update(context.Background(), 1, Fields{FirstName: "a", LastName: "b", Email: "a@b.com"})

	assert.Equal(t, ErrUpdateFailed, errors.Cause(err))
	assert.Contains(t, err.Error(), "duplicate key")
	assert.Empty(t, ev.keys)
}
