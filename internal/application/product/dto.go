package product

import (
	"time"

	"github.com/xiebiao/storefront/internal/domain/product"
)

// ProductDTO 商品响应DTO
// 金额统一格式化为两位小数的字符串
type ProductDTO struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	SKU               string    `json:"sku"`
	Description       string    `json:"description,omitempty"`
	Price             string    `json:"price"`
	SalePrice         *string   `json:"sale_price,omitempty"`
	StockQuantity     int       `json:"stock_quantity"`
	ManageStock       bool      `json:"manage_stock"`
	InStock           bool      `json:"in_stock"`
	LowStock          bool      `json:"low_stock"`
	LowStockThreshold int       `json:"low_stock_threshold"`
	IsActive          bool      `json:"is_active"`
	SalesCount        int       `json:"sales_count"`
	CategoryName      string    `json:"category_name,omitempty"`
	BrandName         string    `json:"brand_name,omitempty"`
	Images            []string  `json:"images"`
	CreatedAt         time.Time `json:"created_at"`
}

// InventoryLogDTO 库存流水响应DTO
type InventoryLogDTO struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"product_id"`
	OrderID     string    `json:"order_id,omitempty"`
	ChangeType  string    `json:"change_type"`
	Quantity    int       `json:"quantity"`
	BeforeStock int       `json:"before_stock"`
	AfterStock  int       `json:"after_stock"`
	Remark      string    `json:"remark,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toProductDTO(p *product.Product) *ProductDTO {
	dto := &ProductDTO{
		ID:                p.ID,
		Name:              p.Name,
		SKU:               p.SKU,
		Description:       p.Description,
		Price:             p.Price.StringFixed(2),
		StockQuantity:     p.StockQuantity,
		ManageStock:       p.ManageStock,
		InStock:           p.InStock,
		LowStock:          p.IsLowStock(),
		LowStockThreshold: p.LowStockThreshold,
		IsActive:          p.IsActive,
		SalesCount:        p.SalesCount,
		CategoryName:      p.CategoryName,
		BrandName:         p.BrandName,
		Images:            p.Images,
		CreatedAt:         p.CreatedAt,
	}
	if p.SalePrice.Valid {
		sale := p.SalePrice.Decimal.StringFixed(2)
		dto.SalePrice = &sale
	}
	if dto.Images == nil {
		dto.Images = []string{}
	}
	return dto
}

func toInventoryLogDTO(l *product.InventoryLog) InventoryLogDTO {
	return InventoryLogDTO{
		ID:          l.ID,
		ProductID:   l.ProductID,
		OrderID:     l.OrderID,
		ChangeType:  string(l.ChangeType),
		Quantity:    l.Quantity,
		BeforeStock: l.BeforeStock,
		AfterStock:  l.AfterStock,
		Remark:      l.Remark,
		CreatedAt:   l.CreatedAt,
	}
}
