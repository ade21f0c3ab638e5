// Package testdb holds fixtures shared by tests that talk to a stub database.
package testdb

import (
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
)

var TestTime = time.Now().UTC().Truncate(time.Millisecond)

var (
	AccountColumns  = []string{"id", "account_type", "balance", "created_at", "modified_at"}
	CustomerColumns = []string{"id", "account_id", "first_name", "last_name", "email", "created_at", "modified_at"}
)

// NewMockDb opens a sqlx handle backed by sqlmock.
func NewMockDb() (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		log.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}

	return sqlx.NewDb(db, "sqlmock"), mock
}

// IDRow is the result of an INSERT ... RETURNING id.
func IDRow(id int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id"}).AddRow(id)
}
