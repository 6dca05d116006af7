package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xiebiao/storefront/internal/domain/pricing"
	"github.com/xiebiao/storefront/internal/domain/product"
)

// Order 订单实体(聚合根)
// 设计说明:
// 1. Order是聚合根,Item是子实体,明细创建后不再单独修改
// 2. 金额字段在创建时一次性计算并冻结,之后不再按商品当前价格重算
// 3. 地址以快照形式保存,地址簿后续修改不影响历史订单
// 4. 生命周期时间戳各自最多设置一次
type Order struct {
	ID              string
	OrderNo         string // 订单号(对外展示,全局唯一)
	UserID          string // 买家ID,创建后不可变
	Status          Status
	PaymentStatus   PaymentStatus
	PaymentMethod   PaymentMethod
	Subtotal        decimal.Decimal
	TaxRate         decimal.Decimal
	TaxAmount       decimal.Decimal
	ShippingAmount  decimal.Decimal
	DiscountAmount  decimal.Decimal
	TotalAmount     decimal.Decimal
	Currency        string
	BillingAddress  Address
	ShippingAddress Address
	Notes           string
	AdminNotes      string
	TrackingNumber  string
	CouponCode      string
	Items           []Item
	ConfirmedAt     *time.Time
	ShippedAt       *time.Time
	DeliveredAt     *time.Time
	CancelledAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Address 地址快照
type Address struct {
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	AddressLine1 string `json:"address_line_1"`
	AddressLine2 string `json:"address_line_2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state,omitempty"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
}

// Item 订单明细
// ProductID是弱引用:商品之后被修改或删除,明细仍保留下单时的名称、SKU、价格快照
type Item struct {
	ID             string
	OrderID        string
	ProductID      string
	ProductName    string
	ProductSKU     string
	ProductDetails ItemDetails
	Quantity       int
	Price          decimal.Decimal // 下单时的有效单价
	Total          decimal.Decimal // Price × Quantity
}

// ItemDetails 商品信息快照
type ItemDetails struct {
	Image    string `json:"image,omitempty"`
	Category string `json:"category,omitempty"`
	Brand    string `json:"brand,omitempty"`
}

// NewItem 按商品当前价格生成明细快照
func NewItem(orderID string, p *product.Product, quantity int) Item {
	unit := pricing.EffectiveUnitPrice(p.Price, p.SalePrice)
	return Item{
		ID:          uuid.NewString(),
		OrderID:     orderID,
		ProductID:   p.ID,
		ProductName: p.Name,
		ProductSKU:  p.SKU,
		ProductDetails: ItemDetails{
			Image:    p.FirstImage(),
			Category: p.CategoryName,
			Brand:    p.BrandName,
		},
		Quantity: quantity,
		Price:    unit,
		Total:    pricing.LineTotal(unit, quantity),
	}
}

// Subtotal 明细小计之和
func Subtotal(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Total)
	}
	return sum
}

// NewOrder 创建新订单(工厂方法)
// 初始状态PENDING,支付状态PENDING;订单号由调用方生成
func NewOrder(id, userID string, items []Item, totals pricing.Totals) *Order {
	now := time.Now()
	return &Order{
		ID:             id,
		UserID:         userID,
		Status:         StatusPending,
		PaymentStatus:  PaymentStatusPending,
		PaymentMethod:  PaymentMethodCard,
		Subtotal:       totals.Subtotal,
		TaxRate:        totals.TaxRate,
		TaxAmount:      totals.TaxAmount,
		ShippingAmount: totals.ShippingAmount,
		DiscountAmount: totals.DiscountAmount,
		TotalAmount:    totals.TotalAmount,
		Currency:       totals.Currency,
		Items:          items,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// IsOwnedBy 检查订单是否属于指定用户
func (o *Order) IsOwnedBy(userID string) bool {
	return o.UserID == userID
}

// TotalsConsistent 校验金额不变量
// subtotal == Σ item.total 且 total == subtotal + tax + shipping − discount
func (o *Order) TotalsConsistent() bool {
	if !Subtotal(o.Items).Equal(o.Subtotal) {
		return false
	}
	expected := o.Subtotal.Add(o.TaxAmount).Add(o.ShippingAmount).Sub(o.DiscountAmount)
	return expected.Equal(o.TotalAmount)
}

// TransitionTo 状态转换
// 1. 目标状态与当前状态相同:幂等,不修改任何字段,返回changed=false
// 2. 按转换表校验,非法转换返回ErrInvalidStatusTransition
// 3. 设置对应时间戳(已设置的不覆盖);发货时可附带物流单号
func (o *Order) TransitionTo(target Status, trackingNumber string, now time.Time) (bool, error) {
	if !target.IsValid() {
		return false, ErrInvalidStatus
	}
	if o.Status == target {
		return false, nil
	}
	if !o.Status.CanTransitionTo(target) {
		return false, ErrInvalidStatusTransition.WithMessagef("订单状态不能从%s变更为%s", o.Status, target)
	}

	switch target {
	case StatusConfirmed:
		if o.Status == StatusPending && o.ConfirmedAt == nil {
			o.ConfirmedAt = &now
		}
	case StatusShipped:
		if o.ShippedAt == nil {
			o.ShippedAt = &now
		}
		if trackingNumber != "" {
			o.TrackingNumber = trackingNumber
		}
	case StatusDelivered:
		if o.DeliveredAt == nil {
			o.DeliveredAt = &now
		}
	case StatusCancelled:
		o.CancelledAt = &now
	}

	o.Status = target
	o.UpdatedAt = now
	return true, nil
}

// Cancel 买家取消订单
// 只有PENDING/CONFIRMED可以取消,库存回补由应用层在同一事务内完成
func (o *Order) Cancel(now time.Time) error {
	if !o.Status.IsCancellable() {
		return ErrOrderNotCancellable.WithMessagef("订单%s当前状态为%s,不可取消", o.OrderNo, o.Status)
	}
	_, err := o.TransitionTo(StatusCancelled, "", now)
	return err
}
