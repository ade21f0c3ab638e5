package notification

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
	"github.com/tamasbrandstadter/bank-api/cmd/api/audit"
	"github.com/tamasbrandstadter/bank-api/internal/mq"
)

const routeKey = "transfer"

type Notification struct {
	TransferID int             `json:"transferId"`
	FromID     int             `json:"fromId"`
	ToID       int             `json:"toId"`
	Amount     decimal.Decimal `json:"amount"`
	Display    string          `json:"display"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Channel is the part of *amqp.Channel used for publishing.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Publisher struct {
	Currency string

	mu sync.RWMutex
	ch Channel
}

func NewPublisher(ch Channel, currency string) *Publisher {
	return &Publisher{ch: ch, Currency: currency}
}

// SetChannel swaps the channel after a broker reconnect.
func (p *Publisher) SetChannel(ch Channel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ch = ch
}

func (p *Publisher) channel() Channel {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ch
}

// Notify publishes a completed transfer. Failures are logged, the transfer
// itself is already committed.
func (p *Publisher) Notify(_ context.Context, r audit.Record) {
	if p == nil {
		return
	}

	ch := p.channel()
	if ch == nil {
		return
	}

	n := Notification{
		TransferID: r.ID,
		FromID:     r.FromID,
		ToID:       r.ToID,
		Amount:     r.Amount,
		Display:    Display(r.Amount, p.Currency),
		CreatedAt:  r.CreatedAt,
	}

	body, err := json.Marshal(n)
	if err != nil {
		log.Warnf("failed to marshal notification: %v", err)
		return
	}

	err = ch.Publish(mq.NotificationsExchange, routeKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    uuid.New().String(),
		Timestamp:    r.CreatedAt,
		Body:         body,
		DeliveryMode: amqp.Transient,
	})
	if err != nil {
		log.Errorf("error sending notification to %s exchange: %v", mq.NotificationsExchange, err)
		return
	}

	log.WithField("transferId", r.ID).Debug("published transfer notification")
}

// Display formats amount in currency, e.g. $1,200.50.
func Display(amount decimal.Decimal, currency string) string {
	fraction := 2
	if c := money.GetCurrency(currency); c != nil {
		fraction = c.Fraction
	}

	minor := amount.Shift(int32(fraction)).Round(0).IntPart()

	return money.New(minor, currency).Display()
}
