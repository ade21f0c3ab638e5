package storage

import (
	"context"
	"database/sql"
	"io"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/tamasbrandstadter/bank-api/cmd/api/account"
	"github.com/tamasbrandstadter/bank-api/cmd/api/audit"
	"github.com/tamasbrandstadter/bank-api/cmd/api/customer"
	"github.com/tamasbrandstadter/bank-api/cmd/api/transfer"
)

// Postgres keeps accounts, customers and transfers in postgres tables.
type Postgres struct {
	DB *sqlx.DB
}

func NewPostgres(dbc *sqlx.DB) *Postgres {
	return &Postgres{DB: dbc}
}

func (p *Postgres) CustomerByID(ctx context.Context, id int) (customer.Customer, error) {
	var c customer.Customer

	pStmt, err := p.DB.PreparexContext(ctx, selectCustomerByID)
	if err != nil {
		return customer.Customer{}, errors.Wrap(err, "prepare select customer query")
	}
	defer closeStmt(pStmt, "select customer")

	if err := pStmt.QueryRowxContext(ctx, id).StructScan(&c); err != nil {
		return customer.Customer{}, errors.Wrap(err, "select singular row from customers table")
	}

	return c, nil
}

func (p *Postgres) Customers(ctx context.Context) ([]customer.Customer, error) {
	customers := make([]customer.Customer, 0)

	if err := p.DB.SelectContext(ctx, &customers, selectCustomers); err != nil {
		return nil, errors.Wrap(err, "select all rows from customers table")
	}

	return customers, nil
}

func (p *Postgres) UpdateCustomer(ctx context.Context, id int, f customer.Fields, modifiedAt time.Time) (customer.Customer, error) {
	var c customer.Customer

	pStmt, err := p.DB.PreparexContext(ctx, updateCustomer)
	if err != nil {
		return customer.Customer{}, errors.Wrap(err, "prepare update customer query")
	}
	defer closeStmt(pStmt, "update customer")

	row := pStmt.QueryRowxContext(ctx, f.FirstName, f.LastName, f.Email, modifiedAt, id)

	if err := row.StructScan(&c); err != nil {
		return customer.Customer{}, errors.Wrap(err, "update customer row")
	}

	return c, nil
}

func (p *Postgres) CreateWithCustomers(ctx context.Context, acc account.Account) (account.Account, error) {
	tx, err := p.DB.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return account.Account{}, errors.Wrap(err, "begin account creation")
	}

	row := tx.QueryRowxContext(ctx, insertAccount, acc.Type, acc.Balance, acc.CreatedAt, acc.ModifiedAt)
	if err := row.Scan(&acc.ID); err != nil {
		rollback(tx, "account creation")
		return account.Account{}, errors.Wrap(err, "get inserted row id for account")
	}

	stmt, err := tx.PreparexContext(ctx, insertCustomer)
	if err != nil {
		rollback(tx, "account creation")
		return account.Account{}, errors.Wrap(err, "prepare insert customer query")
	}
	defer closeStmt(stmt, "insert customer")

	for i := range acc.Customers {
		c := &acc.Customers[i]
		c.AccountID = acc.ID

		row := stmt.QueryRowxContext(ctx, c.AccountID, c.FirstName, c.LastName, c.Email, c.CreatedAt, c.ModifiedAt)
		if err := row.Scan(&c.ID); err != nil {
			rollback(tx, "account creation")
			return account.Account{}, errors.Wrap(err, "get inserted row id for customer")
		}
	}

	if err := tx.Commit(); err != nil {
		return account.Account{}, errors.Wrap(err, "account commit")
	}

	return acc, nil
}

func (p *Postgres) AccountByID(ctx context.Context, id int) (account.Account, error) {
	var acc account.Account

	pStmt, err := p.DB.PreparexContext(ctx, selectAccountByID)
	if err != nil {
		return account.Account{}, errors.Wrap(err, "prepare select account query")
	}
	defer closeStmt(pStmt, "select account")

	if err := pStmt.QueryRowxContext(ctx, id).StructScan(&acc); err != nil {
		return account.Account{}, errors.Wrap(err, "select singular row from accounts table")
	}

	acc.Customers = make([]customer.Customer, 0)
	if err := p.DB.SelectContext(ctx, &acc.Customers, selectCustomersByAccount, id); err != nil {
		return account.Account{}, errors.Wrap(err, "select customers of account")
	}

	return acc, nil
}

func (p *Postgres) WithinTransaction(ctx context.Context, fn func(transfer.Ledger) error) error {
	tx, err := p.DB.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return errors.Wrap(err, "begin transfer")
	}

	if err := fn(&pgLedger{tx: tx}); err != nil {
		rollback(tx, "transfer")
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "transfer commit")
	}

	return nil
}

type pgLedger struct {
	tx *sqlx.Tx
}

func (l *pgLedger) AccountForUpdate(ctx context.Context, id int) (account.Account, error) {
	var acc account.Account

	if err := l.tx.QueryRowxContext(ctx, selectAccountForUpdate, id).StructScan(&acc); err != nil {
		return account.Account{}, errors.Wrapf(err, "lock account %d", id)
	}

	return acc, nil
}

func (l *pgLedger) UpdateBalance(ctx context.Context, id int, balance decimal.Decimal, modifiedAt time.Time) error {
	if _, err := l.tx.ExecContext(ctx, updateBalance, balance, modifiedAt, id); err != nil {
		return errors.Wrapf(err, "update balance of account %d", id)
	}
	return nil
}

func (l *pgLedger) RecordTransfer(ctx context.Context, r audit.Record) (audit.Record, error) {
	row := l.tx.QueryRowxContext(ctx, insertTransfer, r.FromID, r.ToID, r.Amount, r.CreatedAt)
	if err := row.Scan(&r.ID); err != nil {
		return audit.Record{}, errors.Wrap(err, "get inserted row id for transfer")
	}

	log.Infof("saved transfer record with id %d", r.ID)
	return r, nil
}

func rollback(tx *sqlx.Tx, op string) {
	if err := tx.Rollback(); err != nil {
		log.WithError(errors.Wrap(err, "rollback")).Warn(op)
		return
	}
	log.Warnf("%s was rolled back", op)
}

func closeStmt(stmt io.Closer, op string) {
	if err := stmt.Close(); err != nil {
		log.WithError(errors.Wrap(err, "close psql statement")).Info(op)
	}
}
