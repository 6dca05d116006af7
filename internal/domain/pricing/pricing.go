// Package pricing 订单定价策略
//
// 纯计算，不做任何I/O：
//   - 单价：有促销价且低于原价时取促销价
//   - 行小计：单价 × 数量
//   - 税费：小计 × 税率（保留2位小数）
//   - 运费：小计达到免运费门槛为0，否则为固定运费
//   - 合计：小计 + 税费 + 运费 − 优惠
package pricing

import (
	"context"

	"github.com/shopspring/decimal"
)

// Config 定价配置
type Config struct {
	TaxRate               decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	FlatShippingCost      decimal.Decimal
	Currency              string
}

// DefaultConfig 默认定价配置
func DefaultConfig() Config {
	return Config{
		TaxRate:               decimal.RequireFromString("0.08"),
		FreeShippingThreshold: decimal.NewFromInt(50),
		FlatShippingCost:      decimal.RequireFromString("9.99"),
		Currency:              "USD",
	}
}

// Discounter 优惠计算扩展点
// 返回的金额会被截断到[0, subtotal]
type Discounter interface {
	Discount(ctx context.Context, subtotal decimal.Decimal, couponCode string) (decimal.Decimal, error)
}

// Totals 订单金额明细
type Totals struct {
	Subtotal       decimal.Decimal
	TaxRate        decimal.Decimal
	TaxAmount      decimal.Decimal
	ShippingAmount decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalAmount    decimal.Decimal
	Currency       string
}

// Policy 定价策略
type Policy struct {
	cfg        Config
	discounter Discounter
}

// Option 定价策略选项
type Option func(*Policy)

// WithDiscounter 挂载优惠计算
func WithDiscounter(d Discounter) Option {
	return func(p *Policy) {
		p.discounter = d
	}
}

// NewPolicy 创建定价策略
func NewPolicy(cfg Config, opts ...Option) *Policy {
	p := &Policy{cfg: cfg}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Currency 结算币种
func (p *Policy) Currency() string {
	return p.cfg.Currency
}

// EffectiveUnitPrice 有效单价
func EffectiveUnitPrice(price decimal.Decimal, salePrice decimal.NullDecimal) decimal.Decimal {
	if salePrice.Valid && salePrice.Decimal.LessThan(price) {
		return salePrice.Decimal
	}
	return price
}

// LineTotal 行小计
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// Totals 计算订单金额
// 没有挂载Discounter时优惠为0，couponCode被忽略
func (p *Policy) Totals(ctx context.Context, subtotal decimal.Decimal, couponCode string) (Totals, error) {
	tax := subtotal.Mul(p.cfg.TaxRate).Round(2)

	shipping := p.cfg.FlatShippingCost
	if subtotal.GreaterThanOrEqual(p.cfg.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	discount := decimal.Zero
	if p.discounter != nil {
		d, err := p.discounter.Discount(ctx, subtotal, couponCode)
		if err != nil {
			return Totals{}, err
		}
		discount = clamp(d, decimal.Zero, subtotal)
	}

	return Totals{
		Subtotal:       subtotal,
		TaxRate:        p.cfg.TaxRate,
		TaxAmount:      tax,
		ShippingAmount: shipping,
		DiscountAmount: discount,
		TotalAmount:    subtotal.Add(tax).Add(shipping).Sub(discount),
		Currency:       p.cfg.Currency,
	}, nil
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}
