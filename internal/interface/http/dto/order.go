package dto

import "github.com/shopspring/decimal"

// CreateOrderRequest HTTP下单请求
// 明细中的price字段只用于记录差异，实际单价以服务端商品价格为准
type CreateOrderRequest struct {
	Items           []CreateOrderItem `json:"items" binding:"required,min=1,max=50,dive"`
	PaymentMethod   string            `json:"payment_method" binding:"omitempty,oneof=card paypal bank_transfer" example:"card"`
	BillingAddress  AddressRequest    `json:"billing_address"`
	ShippingAddress *AddressRequest   `json:"shipping_address"`
	Notes           string            `json:"notes" binding:"max=1000"`
	CouponCode      string            `json:"coupon_code" binding:"max=50"`
}

// CreateOrderItem HTTP下单明细
type CreateOrderItem struct {
	ProductID string              `json:"product_id" binding:"required" example:"5b0c3f0e-8a4e-4d0f-9d6b-8c1f2a3b4c5d"`
	Quantity  int                 `json:"quantity" binding:"required,min=1,max=999" example:"2"`
	Price     decimal.NullDecimal `json:"price" swaggertype:"string" example:"8.00"`
}

// AddressRequest 地址
type AddressRequest struct {
	Name         string `json:"name" binding:"required,max=100" example:"Alice"`
	Email        string `json:"email" binding:"omitempty,email"`
	Phone        string `json:"phone" binding:"max=30"`
	AddressLine1 string `json:"address_line_1" binding:"required,max=255" example:"1 Main St"`
	AddressLine2 string `json:"address_line_2" binding:"max=255"`
	City         string `json:"city" binding:"required,max=100" example:"Springfield"`
	State        string `json:"state" binding:"max=100"`
	PostalCode   string `json:"postal_code" binding:"required,max=20" example:"12345"`
	Country      string `json:"country" binding:"required,max=2" example:"US"`
}

// ListOrdersRequest HTTP买家订单列表请求
type ListOrdersRequest struct {
	Status   string `form:"status" example:"PENDING"`
	Page     int    `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize int    `form:"per_page" binding:"omitempty,min=1,max=100" example:"15"`
}

// AdminListOrdersRequest HTTP管理端订单列表请求
type AdminListOrdersRequest struct {
	Status        string `form:"status" example:"PENDING"`
	PaymentStatus string `form:"payment_status" example:"PAID"`
	Search        string `form:"search" binding:"max=100" example:"ORD-2026"`
	Page          int    `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize      int    `form:"per_page" binding:"omitempty,min=1,max=100" example:"15"`
}

// UpdateOrderStatusRequest HTTP更新订单状态请求
type UpdateOrderStatusRequest struct {
	Status         string `json:"status" binding:"required" example:"SHIPPED"`
	TrackingNumber string `json:"tracking_number" binding:"max=100" example:"1Z999AA10123456784"`
	AdminNotes     string `json:"admin_notes" binding:"max=1000"`
}
