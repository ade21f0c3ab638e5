package consumer

import (
	"context"
	"database/sql"
	"testing"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/tamasbrandstadter/bank-api/cmd/api/transfer"
	"github.com/tamasbrandstadter/bank-api/internal/mq"
)

func mqConfig() mq.Config {
	return mq.Config{User: "guest", Pass: "guest", Host: "localhost", Port: 5672, Concurrency: 1, MaxReconnect: 1}
}

type fakeAcknowledger struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (f *fakeAcknowledger) Ack(uint64, bool) error {
	f.acked = true
	return nil
}

func (f *fakeAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacked = true
	f.requeue = requeue
	return nil
}

func (f *fakeAcknowledger) Reject(_ uint64, requeue bool) error {
	f.nacked = true
	f.requeue = requeue
	return nil
}

type fakeTransferer struct {
	outcome transfer.Outcome
	err     error
	calls   []transfer.Request
}

func (f *fakeTransferer) Transfer(_ context.Context, req transfer.Request) (transfer.Outcome, error) {
	f.calls = append(f.calls, req)
	return f.outcome, f.err
}

func TestProcess(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		outcome     transfer.Outcome
		err         error
		wantAck     bool
		wantRequeue bool
		wantCalls   int
	}{
		{name: "success", body: `{"fromAccount":1,"toAccount":2,"amount":200}`, outcome: transfer.Success, wantAck: true, wantCalls: 1},
		{name: "insufficient funds", body: `{"fromAccount":1,"toAccount":2,"amount":600}`, outcome: transfer.InsufficientFunds, wantAck: true, wantCalls: 1},
		{name: "id mismatch", body: `{"fromAccount":1,"toAccount":9,"amount":1}`, outcome: transfer.IDMismatch, wantCalls: 1},
		{name: "storage error", body: `{"fromAccount":1,"toAccount":2,"amount":1}`, err: sql.ErrConnDone, wantRequeue: true, wantCalls: 1},
		{name: "malformed", body: `{"fromAccount":`},
		{name: "non positive amount", body: `{"fromAccount":1,"toAccount":2,"amount":0}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ack := &fakeAcknowledger{}
			tr := &fakeTransferer{outcome: tc.outcome, err: tc.err}
			c := TransferConsumer{Transfers: tr}

			c.process(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte(tc.body)})

			assert.Equal(t, tc.wantAck, ack.acked)
			assert.Equal(t, !tc.wantAck, ack.nacked)
			assert.Equal(t, tc.wantRequeue, ack.requeue)
			assert.Len(t, tr.calls, tc.wantCalls)
		})
	}
}

func TestDecodeMessage(t *testing.T) {
	req, err := decodeMessage(amqp.Delivery{Body: []byte(`{"fromAccount":3,"toAccount":4,"amount":12.5}`)})

	assert.NoError(t, err)
	assert.Equal(t, 3, req.From)
	assert.Equal(t, 4, req.To)
	assert.Equal(t, "12.5", req.Amount.String())
}

func TestClosedConnectionListenerStopsOnNormalClose(t *testing.T) {
	closed := make(chan *amqp.Error)
	close(closed)

	done := make(chan struct{})
	go func() {
		TransferConsumer{}.ClosedConnectionListener(context.Background(), mqConfig(), closed)
		close(done)
	}()

	<-done
}

func TestClosedConnectionListenerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	TransferConsumer{}.ClosedConnectionListener(ctx, mqConfig(), make(chan *amqp.Error))
}

type fakeCloser struct {
	closed int
}

func (f *fakeCloser) Close() error {
	f.closed++
	return nil
}

func TestListenClosesReconnectedConnectionOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	conn := &fakeCloser{}
	TransferConsumer{}.listen(ctx, mqConfig(), make(chan *amqp.Error), conn)

	assert.Equal(t, 1, conn.closed)
}

func TestListenLeavesNormallyClosedConnection(t *testing.T) {
	closed := make(chan *amqp.Error)
	close(closed)

	conn := &fakeCloser{}
	TransferConsumer{}.listen(context.Background(), mqConfig(), closed, conn)

	assert.Equal(t, 0, conn.closed)
}
