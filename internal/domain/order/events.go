package order

import (
	"context"
	"time"
)

// 订单事件Routing Key
const (
	EventOrderCreated       = "order.created"
	EventOrderCancelled     = "order.cancelled"
	EventOrderStatusChanged = "order.status_changed"
)

// 事件触发方
const (
	ActorBuyer = "buyer"
	ActorAdmin = "admin"
)

// Event 订单事件
// 事务提交后发布,发布失败不影响业务结果
type Event struct {
	Type           string    `json:"type"`
	OrderID        string    `json:"order_id"`
	OrderNo        string    `json:"order_no"`
	UserID         string    `json:"user_id"`
	Status         Status    `json:"status"`
	PreviousStatus Status    `json:"previous_status,omitempty"`
	TotalAmount    string    `json:"total_amount"`
	Currency       string    `json:"currency"`
	Actor          string    `json:"actor,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// NewEvent 根据订单当前状态构造事件
func NewEvent(eventType string, o *Order, previous Status, actor string) Event {
	return Event{
		Type:           eventType,
		OrderID:        o.ID,
		OrderNo:        o.OrderNo,
		UserID:         o.UserID,
		Status:         o.Status,
		PreviousStatus: previous,
		TotalAmount:    o.TotalAmount.StringFixed(2),
		Currency:       o.Currency,
		Actor:          actor,
		OccurredAt:     time.Now().UTC(),
	}
}

// EventPublisher 订单事件发布接口(由infrastructure层实现)
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}
