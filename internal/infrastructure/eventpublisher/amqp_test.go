package eventpublisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/gobank/internal/domain"
)

type fakeChannel struct {
	declared   []string
	declareErr error
	publishErr error
	exchange   string
	key        string
	msg        amqp.Publishing
	closed     bool
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	f.declared = append(f.declared, name+":"+kind)
	return f.declareErr
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.publishErr
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestAMQPPublisherPublish(t *testing.T) {
	ch := &fakeChannel{}
	p, err := newAMQPPublisher(ch, "gobank.events", zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, []string{"gobank.events:topic"}, ch.declared)

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	err = p.Publish(context.Background(), &domain.OutboxEvent{
		ID:            "evt-1",
		EventType:     domain.EventTypeTransactionApproved,
		AggregateType: domain.AggregateTypeTransaction,
		AggregateID:   "txn-1",
		Payload:       map[string]any{"status": "approved"},
		CreatedAt:     created,
	})
	require.NoError(t, err)

	assert.Equal(t, "gobank.events", ch.exchange)
	assert.Equal(t, domain.EventTypeTransactionApproved, ch.key)
	assert.Equal(t, "evt-1", ch.msg.MessageId)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)
	assert.Equal(t, "application/json", ch.msg.ContentType)

	var body envelope
	require.NoError(t, json.Unmarshal(ch.msg.Body, &body))
	assert.Equal(t, "txn-1", body.AggregateID)
	assert.Equal(t, "approved", body.Payload["status"])
	assert.True(t, body.CreatedAt.Equal(created))

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestAMQPPublisherErrors(t *testing.T) {
	ch := &fakeChannel{declareErr: errors.New("access refused")}
	_, err := newAMQPPublisher(ch, "gobank.events", zerolog.Nop())
	require.Error(t, err)
	assert.True(t, ch.closed)

	ch = &fakeChannel{publishErr: amqp.ErrClosed}
	p, err := newAMQPPublisher(ch, "gobank.events", zerolog.Nop())
	require.NoError(t, err)

	err = p.Publish(context.Background(), &domain.OutboxEvent{ID: "evt-1", EventType: "x"})
	assert.ErrorIs(t, err, amqp.ErrClosed)
}
