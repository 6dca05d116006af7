// Package messaging 订单事件发布(RabbitMQ)
package messaging

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/storefront/internal/domain/order"
	"github.com/xiebiao/storefront/pkg/circuitbreaker"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
	"github.com/xiebiao/storefront/pkg/metrics"
)

// Sender 底层消息发送能力(*mq.Publisher实现了该接口)
type Sender interface {
	Publish(ctx context.Context, routingKey string, message interface{}) error
}

// OrderEventPublisher 订单事件发布者
// 1. 发布经过熔断器,MQ持续不可用时快速失败,不拖慢下单
// 2. 每次发布记录messages_published_total
type OrderEventPublisher struct {
	sender  Sender
	breaker *circuitbreaker.CircuitBreaker
	timeout time.Duration
	logger  *zap.Logger
}

// NewOrderEventPublisher 创建订单事件发布者
func NewOrderEventPublisher(sender Sender, logger *zap.Logger) *OrderEventPublisher {
	metrics.InitMetrics()

	breaker := circuitbreaker.NewCircuitBreaker("order-events", circuitbreaker.Config{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
	})
	breaker.SetStateChangeCallback(func(name string, from, to circuitbreaker.State) {
		logger.Warn("circuit breaker state changed",
			zap.String("name", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
		metrics.SetGaugeVec(metrics.CircuitBreakerState, map[string]string{"name": name}, float64(to))
	})

	return &OrderEventPublisher{
		sender:  sender,
		breaker: breaker,
		timeout: 3 * time.Second,
		logger:  logger,
	}
}

// Publish 发布订单事件
func (p *OrderEventPublisher) Publish(ctx context.Context, event order.Event) error {
	err := p.breaker.ExecuteContext(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()
		return p.sender.Publish(ctx, event.Type, event)
	})

	result := "success"
	switch {
	case err == nil:
	case errors.Is(err, circuitbreaker.ErrOpenState):
		result = "rejected"
	default:
		result = "failure"
	}
	metrics.IncCounterVec(metrics.CircuitBreakerRequests, map[string]string{"name": p.breaker.Name(), "result": result})

	if err != nil {
		metrics.IncCounterVec(metrics.MessagesPublishedTotal, map[string]string{"routing_key": event.Type, "result": "failure"})
		return apperrors.ErrMQError.WithCause(err)
	}
	metrics.IncCounterVec(metrics.MessagesPublishedTotal, map[string]string{"routing_key": event.Type, "result": "success"})
	return nil
}

// State 熔断器当前状态
func (p *OrderEventPublisher) State() circuitbreaker.State {
	return p.breaker.State()
}

// LogPublisher MQ未启用时使用:只记录日志
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher 创建日志发布者
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish 记录事件
func (p *LogPublisher) Publish(_ context.Context, event order.Event) error {
	p.logger.Info("order event",
		zap.String("type", event.Type),
		zap.String("order_id", event.OrderID),
		zap.String("order_no", event.OrderNo),
		zap.String("status", event.Status.String()),
	)
	return nil
}
