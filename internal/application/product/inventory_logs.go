package product

import (
	"context"

	"github.com/xiebiao/storefront/internal/domain/product"
)

// ListInventoryLogsUseCase 查询商品库存流水(管理员)
type ListInventoryLogsUseCase struct {
	productService product.Service
	logRepo        product.InventoryLogRepository
}

// NewListInventoryLogsUseCase 创建库存流水查询用例
func NewListInventoryLogsUseCase(productService product.Service, logRepo product.InventoryLogRepository) *ListInventoryLogsUseCase {
	return &ListInventoryLogsUseCase{productService: productService, logRepo: logRepo}
}

// InventoryLogPage 库存流水分页结果
type InventoryLogPage struct {
	Logs     []InventoryLogDTO
	Total    int64
	Page     int
	PageSize int
}

// Execute 按时间倒序分页返回流水,商品不存在返回ErrProductNotFound
func (uc *ListInventoryLogsUseCase) Execute(ctx context.Context, productID string, page, pageSize int) (*InventoryLogPage, error) {
	if _, err := uc.productService.GetProduct(ctx, productID); err != nil {
		return nil, err
	}

	page, pageSize = normalizePage(page, pageSize)
	logs, total, err := uc.logRepo.ListByProductID(ctx, productID, page, pageSize)
	if err != nil {
		return nil, err
	}

	list := make([]InventoryLogDTO, len(logs))
	for i, l := range logs {
		list[i] = toInventoryLogDTO(l)
	}
	return &InventoryLogPage{Logs: list, Total: total, Page: page, PageSize: pageSize}, nil
}
