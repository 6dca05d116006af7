package product

import (
	"context"
)

// Repository 商品仓储接口(依赖倒置原则)
// 设计说明:
// 1. 由domain层定义接口,infrastructure层实现
// 2. 事务通过context传递,GetForOrder/AdjustStock必须在事务内调用才有锁语义
type Repository interface {
	// Create 创建商品
	// SKU重复返回ErrSKUDuplicate
	Create(ctx context.Context, p *Product) error

	// FindByID 根据ID查找商品
	FindByID(ctx context.Context, id string) (*Product, error)

	// GetForOrder 加锁读取商品(SELECT ... FOR UPDATE)
	// 下单与取消时使用,锁持有到事务结束
	GetForOrder(ctx context.Context, id string) (*Product, error)

	// AdjustStock 原子调整库存
	// 单条UPDATE完成:stock_quantity += delta, sales_count -= delta,
	// in_stock = 调整后库存 > 0,且WHERE条件保证库存不会减到负数
	// 返回调整后的库存;商品不存在返回ErrProductNotFound,库存不足返回ErrInsufficientStock
	AdjustStock(ctx context.Context, id string, delta int) (int, error)

	// List 分页查询商品列表
	List(ctx context.Context, params ListParams) ([]*Product, int64, error)
}

// ListParams 列表查询参数
type ListParams struct {
	Page       int    // 页码(从1开始)
	PageSize   int    // 每页数量
	Keyword    string // 搜索关键词(名称、SKU)
	OnlyActive bool   // 只返回上架商品
}

// InventoryLogRepository 库存流水仓储
type InventoryLogRepository interface {
	// Append 追加一条流水(与库存变更在同一事务内)
	Append(ctx context.Context, log *InventoryLog) error

	// ListByProductID 分页查询商品的库存流水(按时间倒序)
	ListByProductID(ctx context.Context, productID string, page, pageSize int) ([]*InventoryLog, int64, error)

	// ListByOrderID 查询订单相关的库存流水
	ListByOrderID(ctx context.Context, orderID string) ([]*InventoryLog, error)
}
