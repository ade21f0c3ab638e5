package mq

import (
	"fmt"
	"time"

	"github.com/avast/retry-go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

type Config struct {
	User         string
	Pass         string
	Host         string
	Port         int
	Concurrency  int
	MaxReconnect int
}

func (c Config) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", c.User, c.Pass, c.Host, c.Port)
}

type Conn struct {
	Connection *amqp.Connection
	Channel    *amqp.Channel
}

// NewConnection dials the broker, retrying up to MaxReconnect times.
func NewConnection(cfg Config) (Conn, error) {
	log.WithField("host", cfg.Host).Info("connecting to message broker")

	var conn *amqp.Connection
	err := retry.Do(
		func() error {
			c, err := amqp.Dial(cfg.URL())
			if err != nil {
				return err
			}
			conn = c
			return nil
		},
		retry.Attempts(attempts(cfg.MaxReconnect)),
		retry.Delay(time.Second),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.WithError(err).Warnf("message broker dial attempt %d failed", n+1)
		}),
	)
	if err != nil {
		return Conn{}, errors.Wrap(err, "dial message broker")
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return Conn{}, errors.Wrap(err, "open channel")
	}

	log.Info("connected to message broker")

	return Conn{Connection: conn, Channel: ch}, nil
}

// NotifyClose reports when the underlying connection goes away.
func (c Conn) NotifyClose() chan *amqp.Error {
	return c.Connection.NotifyClose(make(chan *amqp.Error, 1))
}

func (c Conn) Close() error {
	if c.Channel != nil {
		c.Channel.Close()
	}
	if c.Connection == nil {
		return nil
	}
	return c.Connection.Close()
}

func attempts(n int) uint {
	if n < 1 {
		return 1
	}
	return uint(n)
}
