package consumer

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
	"github.com/tamasbrandstadter/bank-api/cmd/api/transfer"
	"github.com/tamasbrandstadter/bank-api/internal/mq"
)

type Transferer interface {
	Transfer(ctx context.Context, req transfer.Request) (transfer.Outcome, error)
}

// TransferConsumer feeds queued transfer requests to the transfer service.
type TransferConsumer struct {
	Queue       amqp.Queue
	Concurrency int
	Transfers   Transferer

	// Reconnected is called with the new connection after a reconnect.
	Reconnected func(mq.Conn)
}

// StartConsume starts Concurrency workers on the transfer queue. The workers
// stop when the channel is closed.
func (tc TransferConsumer) StartConsume(ctx context.Context, conn mq.Conn) error {
	transfers, err := conn.Channel.Consume(tc.Queue.Name, "transfer-consumer", false, false,
		false, false, nil,
	)
	if err != nil {
		return errors.Wrap(err, "consume transfer queue")
	}

	workers := tc.Concurrency
	if workers < 1 {
		workers = 1
	}

	for i := 0; i < workers; i++ {
		go func() {
			for d := range transfers {
				tc.process(ctx, d)
			}
		}()
	}

	log.WithFields(log.Fields{
		"queue":   tc.Queue.Name,
		"workers": workers,
	}).Info("started transfer consumers")

	return nil
}

// ClosedConnectionListener reconnects when the mq connection drops and
// restarts the consumers on the new connection. It returns once ctx is done,
// closing any connection it opened.
func (tc TransferConsumer) ClosedConnectionListener(ctx context.Context, cfg mq.Config, closed <-chan *amqp.Error) {
	tc.listen(ctx, cfg, closed, nil)
}

func (tc TransferConsumer) listen(ctx context.Context, cfg mq.Config, closed <-chan *amqp.Error, owned io.Closer) {
	for {
		var err *amqp.Error

		select {
		case <-ctx.Done():
			closeOwned(owned)
			return
		case err = <-closed:
		}

		if err == nil {
			log.Info("mq connection closed normally, will not reconnect")
			return
		}

		log.Errorf("closed mq connection: %v", err)
		log.Info("attempting to reconnect to mq")

		conn, ok := tc.reconnect(ctx, cfg)
		if !ok {
			return
		}

		owned = conn
		closed = conn.NotifyClose()
	}
}

func (tc *TransferConsumer) reconnect(ctx context.Context, cfg mq.Config) (mq.Conn, bool) {
	conn, err := mq.NewConnection(cfg)
	if err != nil {
		log.WithError(err).Error("reached max attempts, unable to reconnect to mq")
		return mq.Conn{}, false
	}

	q, err := conn.DeclareTransfers(cfg.Concurrency)
	if err != nil {
		log.WithError(err).Error("unable to declare queues after reconnect")
		closeOwned(conn)
		return mq.Conn{}, false
	}
	tc.Queue = q

	if err := tc.StartConsume(ctx, conn); err != nil {
		log.WithError(err).Error("unable to restart transfer consumers")
		closeOwned(conn)
		return mq.Conn{}, false
	}

	log.Info("reconnected to mq")

	if tc.Reconnected != nil {
		tc.Reconnected(conn)
	}

	return conn, true
}

func closeOwned(c io.Closer) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		log.WithError(err).Warn("failed to close reconnected mq connection")
	}
}

func (tc TransferConsumer) process(ctx context.Context, d amqp.Delivery) {
	req, err := decodeMessage(d)
	if err != nil {
		log.WithError(err).Warn("rejecting transfer message")
		logAckErr(d.Nack(false, false))
		return
	}

	outcome, err := tc.Transfers.Transfer(ctx, req)
	if err != nil {
		log.WithError(err).Warn("transfer failed, requeueing message")
		logAckErr(d.Nack(false, true))
		return
	}

	entry := log.WithFields(log.Fields{
		"fromAccount": req.From,
		"toAccount":   req.To,
		"amount":      req.Amount.String(),
	})

	var ackErr error
	switch outcome {
	case transfer.Success:
		ackErr = d.Ack(false)
	case transfer.InsufficientFunds:
		entry.Info("queued transfer rejected for insufficient funds")
		ackErr = d.Ack(false)
	default:
		entry.Warnf("queued transfer rejected: %s", outcome)
		ackErr = d.Nack(false, false)
	}

	logAckErr(ackErr)
}

func decodeMessage(d amqp.Delivery) (transfer.Request, error) {
	var payload transfer.Request

	r := bytes.NewReader(d.Body)
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return transfer.Request{}, errors.New("invalid message payload, unable to parse")
	}

	if errs := payload.Validate(); errs != nil {
		return transfer.Request{}, errors.Wrap(errs, "invalid message payload")
	}

	return payload, nil
}

func logAckErr(err error) {
	if err != nil {
		log.WithError(err).Warn("failed to acknowledge transfer message")
	}
}
