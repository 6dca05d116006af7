package order

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/storefront/internal/domain/order"
	"github.com/xiebiao/storefront/internal/domain/user"
)

// CreateOrderRequest 下单请求
type CreateOrderRequest struct {
	UserID          string            // 买家ID(从JWT中提取)
	Items           []CreateOrderItem // 订单明细
	PaymentMethod   string            // card | paypal | bank_transfer,为空时默认card
	BillingAddress  order.Address
	ShippingAddress *order.Address // 为空时使用账单地址
	Notes           string
	CouponCode      string
	IdempotencyKey  string // 可选,同一买家相同Key只下一单
}

// CreateOrderItem 下单明细
type CreateOrderItem struct {
	ProductID string
	Quantity  int
	// ClientPrice 客户端提交的单价,只用于记录差异,不参与计算
	ClientPrice decimal.NullDecimal
}

// CancelOrderRequest 取消订单请求
type CancelOrderRequest struct {
	OrderID string
	UserID  string
}

// UpdateOrderStatusRequest 管理员更新订单状态请求
type UpdateOrderStatusRequest struct {
	OrderID        string
	Status         string
	TrackingNumber string
	AdminNotes     string
}

// ListUserOrdersRequest 买家订单列表请求
type ListUserOrdersRequest struct {
	UserID   string
	Status   string
	Page     int
	PageSize int
}

// ListOrdersRequest 管理端订单列表请求
type ListOrdersRequest struct {
	Status        string
	PaymentStatus string
	Search        string
	Page          int
	PageSize      int
}

// OrderDTO 订单响应
type OrderDTO struct {
	ID              string         `json:"id"`
	OrderNo         string         `json:"order_no"`
	Status          string         `json:"status"`
	PaymentStatus   string         `json:"payment_status"`
	PaymentMethod   string         `json:"payment_method"`
	Subtotal        string         `json:"subtotal"`
	TaxRate         string         `json:"tax_rate"`
	TaxAmount       string         `json:"tax_amount"`
	ShippingAmount  string         `json:"shipping_amount"`
	DiscountAmount  string         `json:"discount_amount"`
	TotalAmount     string         `json:"total_amount"`
	Currency        string         `json:"currency"`
	BillingAddress  order.Address  `json:"billing_address"`
	ShippingAddress order.Address  `json:"shipping_address"`
	Notes           string         `json:"notes,omitempty"`
	AdminNotes      string         `json:"admin_notes,omitempty"`
	TrackingNumber  string         `json:"tracking_number,omitempty"`
	CouponCode      string         `json:"coupon_code,omitempty"`
	Items           []OrderItemDTO `json:"items"`
	Buyer           *BuyerDTO      `json:"buyer,omitempty"`
	ConfirmedAt     *time.Time     `json:"confirmed_at,omitempty"`
	ShippedAt       *time.Time     `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time     `json:"delivered_at,omitempty"`
	CancelledAt     *time.Time     `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	Replayed        bool           `json:"replayed,omitempty"` // 幂等重放返回的已有订单
}

// OrderItemDTO 订单明细响应
type OrderItemDTO struct {
	ID          string            `json:"id"`
	ProductID   string            `json:"product_id"`
	ProductName string            `json:"product_name"`
	ProductSKU  string            `json:"product_sku"`
	Details     order.ItemDetails `json:"product_details"`
	Quantity    int               `json:"quantity"`
	Price       string            `json:"price"`
	Total       string            `json:"total"`
}

// BuyerDTO 买家摘要
type BuyerDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// toOrderDTO 领域实体 → 响应DTO
func toOrderDTO(o *order.Order, buyer *user.Summary) *OrderDTO {
	items := make([]OrderItemDTO, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItemDTO{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			ProductSKU:  it.ProductSKU,
			Details:     it.ProductDetails,
			Quantity:    it.Quantity,
			Price:       money(it.Price),
			Total:       money(it.Total),
		}
	}

	dto := &OrderDTO{
		ID:              o.ID,
		OrderNo:         o.OrderNo,
		Status:          o.Status.String(),
		PaymentStatus:   string(o.PaymentStatus),
		PaymentMethod:   string(o.PaymentMethod),
		Subtotal:        money(o.Subtotal),
		TaxRate:         o.TaxRate.String(),
		TaxAmount:       money(o.TaxAmount),
		ShippingAmount:  money(o.ShippingAmount),
		DiscountAmount:  money(o.DiscountAmount),
		TotalAmount:     money(o.TotalAmount),
		Currency:        o.Currency,
		BillingAddress:  o.BillingAddress,
		ShippingAddress: o.ShippingAddress,
		Notes:           o.Notes,
		AdminNotes:      o.AdminNotes,
		TrackingNumber:  o.TrackingNumber,
		CouponCode:      o.CouponCode,
		Items:           items,
		ConfirmedAt:     o.ConfirmedAt,
		ShippedAt:       o.ShippedAt,
		DeliveredAt:     o.DeliveredAt,
		CancelledAt:     o.CancelledAt,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	if buyer != nil {
		dto.Buyer = &BuyerDTO{ID: buyer.ID, Name: buyer.Name, Email: buyer.Email}
	}
	return dto
}
