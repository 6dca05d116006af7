package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product 商品实体(聚合根)
// DDD设计说明:
// 1. 金额使用decimal,避免浮点误差
// 2. ManageStock=true时库存数量是权威数据,下单扣减、取消回补
// 3. InStock在每次库存变更时由存储层按库存数量重新计算,不单独设置
type Product struct {
	ID                string
	Name              string
	SKU               string
	Description       string
	Price             decimal.Decimal
	SalePrice         decimal.NullDecimal // 促销价(可选)
	StockQuantity     int
	ManageStock       bool
	InStock           bool
	LowStockThreshold int
	IsActive          bool
	SalesCount        int
	CategoryName      string
	BrandName         string
	Images            []string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewProduct 创建新商品(工厂方法)
// 新商品默认上架;不管理库存的商品始终有货
func NewProduct(name, sku string, price decimal.Decimal, salePrice decimal.NullDecimal, stock int, manageStock bool) *Product {
	now := time.Now()
	p := &Product{
		ID:                uuid.NewString(),
		Name:              name,
		SKU:               sku,
		Price:             price,
		SalePrice:         salePrice,
		StockQuantity:     stock,
		ManageStock:       manageStock,
		LowStockThreshold: 5,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	p.InStock = !manageStock || stock > 0
	return p
}

// FirstImage 首图(订单快照使用)
func (p *Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// IsLowStock 是否低库存
func (p *Product) IsLowStock() bool {
	return p.ManageStock && p.StockQuantity <= p.LowStockThreshold
}

// CheckPurchasable 校验商品能否购买指定数量
// 校验顺序:已下架 → 缺货 → 库存不足,错误信息带上商品名
func (p *Product) CheckPurchasable(quantity int) error {
	if !p.IsActive {
		return ErrProductUnavailable.WithMessagef("商品「%s」已下架", p.Name)
	}
	if !p.InStock {
		return ErrProductOutOfStock.WithMessagef("商品「%s」已售罄", p.Name)
	}
	if p.ManageStock && p.StockQuantity < quantity {
		return ErrInsufficientStock.WithMessagef("商品「%s」库存不足,剩余%d件", p.Name, p.StockQuantity)
	}
	return nil
}
