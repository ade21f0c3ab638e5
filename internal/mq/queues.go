package mq

import (
	"github.com/pkg/errors"
	"github.com/streadway/amqp"
)

const (
	PaymentsExchange      = "payments"
	NotificationsExchange = "transfer-notifications"
	TransferQueue         = "transfers"
	TransferRouteKey      = "trnsfr"
	kind                  = "topic"
)

// DeclareTransfers sets up the inbound transfer queue and the outbound
// notification exchange.
func (conn Conn) DeclareTransfers(concurrency int) (amqp.Queue, error) {
	if err := conn.Channel.ExchangeDeclare(PaymentsExchange, kind, true, false, false, false, nil); err != nil {
		return amqp.Queue{}, errors.Wrap(err, "declare payments exchange")
	}

	if err := conn.Channel.ExchangeDeclare(NotificationsExchange, kind, true, false, false, false, nil); err != nil {
		return amqp.Queue{}, errors.Wrap(err, "declare notifications exchange")
	}

	transfer, err := conn.Channel.QueueDeclare(TransferQueue, true, false, false, false, nil)
	if err != nil {
		return amqp.Queue{}, errors.Wrap(err, "declare transfer queue")
	}

	if err := conn.Channel.QueueBind(TransferQueue, TransferRouteKey, PaymentsExchange, false, nil); err != nil {
		return amqp.Queue{}, errors.Wrap(err, "bind transfer queue")
	}

	prefetchCount := concurrency * 4
	if err := conn.Channel.Qos(prefetchCount, 0, false); err != nil {
		return amqp.Queue{}, errors.Wrap(err, "set qos")
	}

	return transfer, nil
}
