package product

import (
	"context"

	"github.com/xiebiao/storefront/internal/domain/product"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ListProductsUseCase 商品列表查询用例
// 公开接口只返回上架商品
type ListProductsUseCase struct {
	productService product.Service
}

// NewListProductsUseCase 创建列表查询用例
func NewListProductsUseCase(productService product.Service) *ListProductsUseCase {
	return &ListProductsUseCase{productService: productService}
}

// ListProductsRequest 列表查询请求
type ListProductsRequest struct {
	Page     int
	PageSize int
	Keyword  string // 匹配名称或SKU
}

// ProductPage 商品分页结果
type ProductPage struct {
	Products []*ProductDTO
	Total    int64
	Page     int
	PageSize int
}

// Execute 执行列表查询
// page默认1,pageSize默认20、最大100
func (uc *ListProductsUseCase) Execute(ctx context.Context, req ListProductsRequest) (*ProductPage, error) {
	page, pageSize := normalizePage(req.Page, req.PageSize)

	products, total, err := uc.productService.ListProducts(ctx, product.ListParams{
		Page:       page,
		PageSize:   pageSize,
		Keyword:    req.Keyword,
		OnlyActive: true,
	})
	if err != nil {
		return nil, err
	}

	list := make([]*ProductDTO, len(products))
	for i, p := range products {
		list[i] = toProductDTO(p)
	}
	return &ProductPage{Products: list, Total: total, Page: page, PageSize: pageSize}, nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
