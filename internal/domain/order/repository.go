package order

import (
	"context"
)

// Repository 订单仓储接口(依赖倒置原则)
// 设计说明:
// 1. 由domain层定义接口,infrastructure层实现
// 2. 支持事务操作(通过context传递事务)
type Repository interface {
	// Create 创建订单(包含订单明细)
	// 订单和明细在同一事务中写入;订单号重复返回ErrOrderNoConflict
	Create(ctx context.Context, order *Order) error

	// FindByID 根据ID查找订单(包含订单明细)
	FindByID(ctx context.Context, id string) (*Order, error)

	// FindByOrderNo 根据订单号查找订单
	FindByOrderNo(ctx context.Context, orderNo string) (*Order, error)

	// UpdateStatus 更新订单状态及相关字段
	// 以from作为条件更新(WHERE status = from),状态已被并发修改时返回ErrStatusConflict
	UpdateStatus(ctx context.Context, order *Order, from Status) error

	// ListByUserID 查询用户的订单列表
	ListByUserID(ctx context.Context, userID string, params ListParams) ([]*Order, int64, error)

	// List 管理端订单列表
	List(ctx context.Context, params ListParams) ([]*Order, int64, error)
}

// ListParams 列表查询参数
type ListParams struct {
	Page          int
	PageSize      int
	Status        Status        // 为空表示不过滤
	PaymentStatus PaymentStatus // 为空表示不过滤
	Search        string        // 匹配订单号、买家姓名、买家邮箱
}

// DefaultPageSize 订单列表默认每页数量
const DefaultPageSize = 15

// Normalize 规范化分页参数
func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}
