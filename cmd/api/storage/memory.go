package storage

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/tamasbrandstadter/bank-api/cmd/api/account"
	"github.com/tamasbrandstadter/bank-api/cmd/api/audit"
	"github.com/tamasbrandstadter/bank-api/cmd/api/customer"
	"github.com/tamasbrandstadter/bank-api/cmd/api/transfer"
	"github.com/tamasbrandstadter/bank-api/internal/db"
)

// Memory is a process local store. A single mutex serializes every
// operation, transfers included.
type Memory struct {
	mu        sync.Mutex
	accounts  map[int]account.Account
	customers map[int]customer.Customer
	transfers []audit.Record

	lastAccountID  int
	lastCustomerID int
}

func NewMemory() *Memory {
	return &Memory{
		accounts:  make(map[int]account.Account),
		customers: make(map[int]customer.Customer),
	}
}

func (m *Memory) CustomerByID(_ context.Context, id int) (customer.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.customers[id]
	if !ok {
		return customer.Customer{}, errors.Wrapf(sql.ErrNoRows, "customer %d", id)
	}
	return c, nil
}

func (m *Memory) Customers(_ context.Context) ([]customer.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cs := make([]customer.Customer, 0, len(m.customers))
	for _, c := range m.customers {
		cs = append(cs, c)
	}
	sortCustomers(cs)

	return cs, nil
}

func (m *Memory) UpdateCustomer(_ context.Context, id int, f customer.Fields, modifiedAt time.Time) (customer.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.customers[id]
	if !ok {
		return customer.Customer{}, errors.Wrapf(sql.ErrNoRows, "customer %d", id)
	}

	if m.emailTaken(f.Email, id) {
		return customer.Customer{}, errors.Wrapf(db.ErrDuplicate, "email %s", f.Email)
	}

	c.FirstName = f.FirstName
	c.LastName = f.LastName
	c.Email = f.Email
	c.ModifiedAt = modifiedAt
	m.customers[id] = c

	return c, nil
}

func (m *Memory) CreateWithCustomers(_ context.Context, acc account.Account) (account.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]bool, len(acc.Customers))
	for _, c := range acc.Customers {
		if seen[c.Email] || m.emailTaken(c.Email, 0) {
			return account.Account{}, errors.Wrapf(db.ErrDuplicate, "email %s", c.Email)
		}
		seen[c.Email] = true
	}

	m.lastAccountID++
	acc.ID = m.lastAccountID

	customers := make([]customer.Customer, 0, len(acc.Customers))
	for _, c := range acc.Customers {
		m.lastCustomerID++
		c.ID = m.lastCustomerID
		c.AccountID = acc.ID
		m.customers[c.ID] = c
		customers = append(customers, c)
	}

	stored := acc
	stored.Customers = nil
	m.accounts[acc.ID] = stored

	acc.Customers = customers
	return acc, nil
}

func (m *Memory) AccountByID(_ context.Context, id int) (account.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	acc, ok := m.accounts[id]
	if !ok {
		return account.Account{}, errors.Wrapf(sql.ErrNoRows, "account %d", id)
	}

	acc.Customers = make([]customer.Customer, 0)
	for _, c := range m.customers {
		if c.AccountID == id {
			acc.Customers = append(acc.Customers, c)
		}
	}
	sortCustomers(acc.Customers)

	return acc, nil
}

// WithinTransaction stages the ledger writes and applies them only when fn succeeds.
func (m *Memory) WithinTransaction(_ context.Context, fn func(transfer.Ledger) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l := &memLedger{
		store:    m,
		balances: make(map[int]decimal.Decimal),
		modified: make(map[int]time.Time),
	}

	if err := fn(l); err != nil {
		return err
	}

	for id, b := range l.balances {
		acc := m.accounts[id]
		acc.Balance = b
		acc.ModifiedAt = l.modified[id]
		m.accounts[id] = acc
	}
	m.transfers = append(m.transfers, l.records...)

	return nil
}

func (m *Memory) emailTaken(email string, exceptID int) bool {
	for _, c := range m.customers {
		if c.ID != exceptID && c.Email == email {
			return true
		}
	}
	return false
}

type memLedger struct {
	store    *Memory
	balances map[int]decimal.Decimal
	modified map[int]time.Time
	records  []audit.Record
}

func (l *memLedger) AccountForUpdate(_ context.Context, id int) (account.Account, error) {
	acc, ok := l.store.accounts[id]
	if !ok {
		return account.Account{}, errors.Wrapf(sql.ErrNoRows, "account %d", id)
	}

	if b, ok := l.balances[id]; ok {
		acc.Balance = b
		acc.ModifiedAt = l.modified[id]
	}

	return acc, nil
}

func (l *memLedger) UpdateBalance(_ context.Context, id int, balance decimal.Decimal, modifiedAt time.Time) error {
	if _, ok := l.store.accounts[id]; !ok {
		return errors.Wrapf(sql.ErrNoRows, "account %d", id)
	}

	l.balances[id] = balance
	l.modified[id] = modifiedAt
	return nil
}

func (l *memLedger) RecordTransfer(_ context.Context, r audit.Record) (audit.Record, error) {
	r.ID = len(l.store.transfers) + len(l.records) + 1
	l.records = append(l.records, r)
	return r, nil
}

func sortCustomers(cs []customer.Customer) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].ID < cs[j].ID })
}
