package product

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xiebiao/storefront/internal/domain/product"
)

// CreateProductUseCase 商品上架用例(管理员)
// 业务规则校验由领域服务负责,应用层只做流程编排
type CreateProductUseCase struct {
	productService product.Service
	logger         *zap.Logger
}

// NewCreateProductUseCase 创建上架用例
func NewCreateProductUseCase(productService product.Service, logger *zap.Logger) *CreateProductUseCase {
	return &CreateProductUseCase{
		productService: productService,
		logger:         logger,
	}
}

// CreateProductRequest 上架请求
type CreateProductRequest struct {
	Name              string
	SKU               string
	Description       string
	Price             decimal.Decimal
	SalePrice         decimal.NullDecimal
	StockQuantity     int
	ManageStock       bool
	LowStockThreshold int
	CategoryName      string
	BrandName         string
	Images            []string
}

// Execute 执行上架用例
func (uc *CreateProductUseCase) Execute(ctx context.Context, req CreateProductRequest) (*ProductDTO, error) {
	p, err := uc.productService.CreateProduct(ctx, product.CreateParams{
		Name:              req.Name,
		SKU:               req.SKU,
		Description:       req.Description,
		Price:             req.Price,
		SalePrice:         req.SalePrice,
		StockQuantity:     req.StockQuantity,
		ManageStock:       req.ManageStock,
		LowStockThreshold: req.LowStockThreshold,
		CategoryName:      req.CategoryName,
		BrandName:         req.BrandName,
		Images:            req.Images,
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("product created",
		zap.String("product_id", p.ID),
		zap.String("sku", p.SKU),
		zap.Int("stock", p.StockQuantity),
	)
	return toProductDTO(p), nil
}
