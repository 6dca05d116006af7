package order

import (
	"context"
	"errors"
	"strings"

	"github.com/xiebiao/storefront/internal/domain/order"
	"github.com/xiebiao/storefront/internal/domain/user"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

// GetOrderUseCase 买家查看订单详情
type GetOrderUseCase struct {
	orderRepo order.Repository
	userRepo  user.Repository
}

// NewGetOrderUseCase 创建查看订单用例
func NewGetOrderUseCase(orderRepo order.Repository, userRepo user.Repository) *GetOrderUseCase {
	return &GetOrderUseCase{orderRepo: orderRepo, userRepo: userRepo}
}

// Execute 查询订单,只能查看本人订单
func (uc *GetOrderUseCase) Execute(ctx context.Context, orderID, userID string) (*OrderDTO, error) {
	o, err := uc.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.IsOwnedBy(userID) {
		return nil, order.ErrUnauthorized
	}

	buyer, err := uc.userRepo.FindByID(ctx, o.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return toOrderDTO(o, nil), nil
		}
		return nil, err
	}
	summary := buyer.Summary()
	return toOrderDTO(o, &summary), nil
}

// OrderPage 订单分页结果
type OrderPage struct {
	Orders   []*OrderDTO
	Total    int64
	Page     int
	PageSize int
}

// ListUserOrdersUseCase 买家订单列表
type ListUserOrdersUseCase struct {
	orderRepo order.Repository
}

// NewListUserOrdersUseCase 创建买家订单列表用例
func NewListUserOrdersUseCase(orderRepo order.Repository) *ListUserOrdersUseCase {
	return &ListUserOrdersUseCase{orderRepo: orderRepo}
}

// Execute 查询买家本人的订单(按创建时间倒序,默认每页15条)
func (uc *ListUserOrdersUseCase) Execute(ctx context.Context, req ListUserOrdersRequest) (*OrderPage, error) {
	params := order.ListParams{Page: req.Page, PageSize: req.PageSize}
	if req.Status != "" {
		status, ok := order.ParseStatus(strings.ToUpper(req.Status))
		if !ok {
			return nil, order.ErrInvalidStatus
		}
		params.Status = status
	}
	params.Normalize()

	orders, total, err := uc.orderRepo.ListByUserID(ctx, req.UserID, params)
	if err != nil {
		return nil, err
	}

	dtos := make([]*OrderDTO, len(orders))
	for i, o := range orders {
		dtos[i] = toOrderDTO(o, nil)
	}
	return &OrderPage{Orders: dtos, Total: total, Page: params.Page, PageSize: params.PageSize}, nil
}

// ListOrdersUseCase 管理端订单列表
type ListOrdersUseCase struct {
	orderRepo order.Repository
	userRepo  user.Repository
}

// NewListOrdersUseCase 创建管理端订单列表用例
func NewListOrdersUseCase(orderRepo order.Repository, userRepo user.Repository) *ListOrdersUseCase {
	return &ListOrdersUseCase{orderRepo: orderRepo, userRepo: userRepo}
}

// Execute 按状态、支付状态过滤,Search匹配订单号、买家姓名、买家邮箱
func (uc *ListOrdersUseCase) Execute(ctx context.Context, req ListOrdersRequest) (*OrderPage, error) {
	params := order.ListParams{
		Page:     req.Page,
		PageSize: req.PageSize,
		Search:   strings.TrimSpace(req.Search),
	}
	if req.Status != "" {
		status, ok := order.ParseStatus(strings.ToUpper(req.Status))
		if !ok {
			return nil, order.ErrInvalidStatus
		}
		params.Status = status
	}
	if req.PaymentStatus != "" {
		ps := order.PaymentStatus(strings.ToUpper(req.PaymentStatus))
		if !ps.IsValid() {
			return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "未知的支付状态")
		}
		params.PaymentStatus = ps
	}
	params.Normalize()

	orders, total, err := uc.orderRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	// 同一页内的买家只查一次
	buyers := make(map[string]*user.Summary)
	dtos := make([]*OrderDTO, len(orders))
	for i, o := range orders {
		summary, ok := buyers[o.UserID]
		if !ok {
			if u, err := uc.userRepo.FindByID(ctx, o.UserID); err == nil {
				s := u.Summary()
				summary = &s
			} else if !errors.Is(err, apperrors.ErrUserNotFound) {
				return nil, err
			}
			buyers[o.UserID] = summary
		}
		dtos[i] = toOrderDTO(o, summary)
	}
	return &OrderPage{Orders: dtos, Total: total, Page: params.Page, PageSize: params.PageSize}, nil
}
