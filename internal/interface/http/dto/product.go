package dto

import "github.com/shopspring/decimal"

// CreateProductRequest HTTP商品上架请求
// 金额接受字符串或数字("19.99"/19.99)，由decimal解析
type CreateProductRequest struct {
	Name              string              `json:"name" binding:"required,max=255" example:"Coffee Mug"`
	SKU               string              `json:"sku" binding:"required,max=64" example:"MUG-001"`
	Description       string              `json:"description" binding:"max=5000"`
	Price             decimal.Decimal     `json:"price" swaggertype:"string" example:"10.00"`
	SalePrice         decimal.NullDecimal `json:"sale_price" swaggertype:"string" example:"8.00"`
	StockQuantity     int                 `json:"stock_quantity" binding:"min=0" example:"100"`
	ManageStock       *bool               `json:"manage_stock" example:"true"` // 默认true
	LowStockThreshold int                 `json:"low_stock_threshold" binding:"min=0" example:"5"`
	CategoryName      string              `json:"category_name" binding:"max=100" example:"Kitchen"`
	BrandName         string              `json:"brand_name" binding:"max=100" example:"Acme"`
	Images            []string            `json:"images" binding:"max=20,dive,max=500"`
}

// ListProductsRequest HTTP商品列表请求
type ListProductsRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize int    `form:"per_page" binding:"omitempty,min=1,max=100" example:"20"`
	Keyword  string `form:"keyword" binding:"omitempty,max=100" example:"mug"`
}

// ListInventoryLogsRequest HTTP库存流水查询请求
type ListInventoryLogsRequest struct {
	Page     int `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize int `form:"per_page" binding:"omitempty,min=1,max=100" example:"20"`
}
