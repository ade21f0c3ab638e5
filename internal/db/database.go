package db

import (
	"fmt"
	"time"

	"github.com/avast/retry-go"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var PSQLErrUniqueConstraint = "23505"

// ErrDuplicate is returned by stores that enforce uniqueness without postgres.
var ErrDuplicate = errors.New("duplicate key value violates unique constraint")

type Config struct {
	Host       string
	User       string
	Pass       string
	Name       string
	Port       int
	MaxRetries uint
}

func NewConnection(cfg Config) (*sqlx.DB, error) {
	var db *sqlx.DB

	conn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		cfg.Host, cfg.User, cfg.Pass, cfg.Name, cfg.Port)

	attempts := cfg.MaxRetries
	if attempts == 0 {
		attempts = 1
	}

	log.Info("connecting to database...")
	err := retry.Do(
		func() error {
			var err error
			db, err = sqlx.Connect("postgres", conn)
			return err
		},
		retry.Attempts(attempts),
		retry.Delay(time.Second),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warnf("database connection attempt %d failed: %v", n+1, err)
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "connect to postgres")
	}

	log.Info("verifying connection...")
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "ping postgres")
	}

	log.Info("verified postgres connection")
	return db, nil
}

// IsUniqueViolation reports whether err was caused by a unique constraint.
func IsUniqueViolation(err error) bool {
	cause := errors.Cause(err)
	if cause == ErrDuplicate {
		return true
	}
	if pgErr, ok := cause.(*pq.Error); ok {
		return string(pgErr.Code) == PSQLErrUniqueConstraint
	}
	return false
}
