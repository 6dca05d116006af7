package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
	err      error
	closed   bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.exchange, f.key, f.msg = exchange, key, msg
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

type orderEvent struct {
	OrderNo string `json:"order_no"`
	Total   string `json:"total"`
}

func TestPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p := NewPublisherWithChannel(ch, "storefront.events", zaptest.NewLogger(t))

	err := p.Publish(context.Background(), "order.created", orderEvent{OrderNo: "ORD-2026-0000000001", Total: "18.79"})
	require.NoError(t, err)

	assert.Equal(t, "storefront.events", ch.exchange)
	assert.Equal(t, "order.created", ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)

	var got orderEvent
	require.NoError(t, json.Unmarshal(ch.msg.Body, &got))
	assert.Equal(t, "ORD-2026-0000000001", got.OrderNo)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestPublisher_PublishError(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	p := NewPublisherWithChannel(ch, "storefront.events", nil)

	err := p.Publish(context.Background(), "order.created", orderEvent{})
	assert.ErrorContains(t, err, "channel closed")
}

func TestPublisher_MarshalError(t *testing.T) {
	p := NewPublisherWithChannel(&fakeChannel{}, "storefront.events", nil)

	err := p.Publish(context.Background(), "order.created", make(chan int))
	assert.ErrorContains(t, err, "消息序列化失败")
}
