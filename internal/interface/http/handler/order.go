package handler

import (
	"github.com/gin-gonic/gin"

	apporder "github.com/xiebiao/storefront/internal/application/order"
	"github.com/xiebiao/storefront/internal/domain/order"
	"github.com/xiebiao/storefront/internal/interface/http/dto"
	"github.com/xiebiao/storefront/internal/interface/http/middleware"
	"github.com/xiebiao/storefront/pkg/response"
)

// IdempotencyKeyHeader 下单幂等键请求头
const IdempotencyKeyHeader = "Idempotency-Key"

// OrderHandler 订单HTTP处理器(买家)
type OrderHandler struct {
	createUseCase *apporder.CreateOrderUseCase
	cancelUseCase *apporder.CancelOrderUseCase
	getUseCase    *apporder.GetOrderUseCase
	listUseCase   *apporder.ListUserOrdersUseCase
}

// NewOrderHandler 创建订单处理器
func NewOrderHandler(
	createUseCase *apporder.CreateOrderUseCase,
	cancelUseCase *apporder.CancelOrderUseCase,
	getUseCase *apporder.GetOrderUseCase,
	listUseCase *apporder.ListUserOrdersUseCase,
) *OrderHandler {
	return &OrderHandler{
		createUseCase: createUseCase,
		cancelUseCase: cancelUseCase,
		getUseCase:    getUseCase,
		listUseCase:   listUseCase,
	}
}

// CreateOrder 创建订单
// @Summary      创建订单
// @Description  下单并扣减库存（需要登录）。单价、税费、运费全部由服务端计算，客户端提交的price只用于记录差异
// @Tags         订单
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key header string false "幂等键，同一买家相同Key只下一单"
// @Param        request body dto.CreateOrderRequest true "订单信息"
// @Success      200 {object} response.Response{data=apporder.OrderDTO} "下单成功"
// @Failure      200 {object} response.Response "40001库存不足 / 40006商品已下架 / 40007商品已售罄 / 40402商品不存在 / 50001事务中止"
// @Router       /api/v1/orders [post]
//
// 防超卖：事务内SELECT ... FOR UPDATE逐行锁定商品，再用单条条件UPDATE扣减库存
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.InvalidParams(c, err)
		return
	}

	items := make([]apporder.CreateOrderItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = apporder.CreateOrderItem{
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			ClientPrice: item.Price,
		}
	}

	appReq := apporder.CreateOrderRequest{
		UserID:         middleware.GetUserID(c),
		Items:          items,
		PaymentMethod:  req.PaymentMethod,
		BillingAddress: toAddress(req.BillingAddress),
		Notes:          req.Notes,
		CouponCode:     req.CouponCode,
		IdempotencyKey: c.GetHeader(IdempotencyKeyHeader),
	}
	if req.ShippingAddress != nil {
		shipping := toAddress(*req.ShippingAddress)
		appReq.ShippingAddress = &shipping
	}

	result, err := h.createUseCase.Execute(c.Request.Context(), appReq)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ListOrders 我的订单
// @Summary      我的订单列表
// @Description  按创建时间倒序，可按状态过滤
// @Tags         订单
// @Produce      json
// @Security     BearerAuth
// @Param        status   query string false "订单状态"
// @Param        page     query int    false "页码" default(1)
// @Param        per_page query int    false "每页数量" default(15)
// @Success      200 {object} response.Response{data=response.PageData{list=[]apporder.OrderDTO}}
// @Router       /api/v1/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var req dto.ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.InvalidParams(c, err)
		return
	}

	page, err := h.listUseCase.Execute(c.Request.Context(), apporder.ListUserOrdersRequest{
		UserID:   middleware.GetUserID(c),
		Status:   req.Status,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, page.Orders, page.Total, page.Page, page.PageSize)
}

// GetOrder 订单详情
// @Summary      订单详情
// @Tags         订单
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "订单ID"
// @Success      200 {object} response.Response{data=apporder.OrderDTO}
// @Failure      200 {object} response.Response "40403订单不存在 / 40104无权查看"
// @Router       /api/v1/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	result, err := h.getUseCase.Execute(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// CancelOrder 取消订单
// @Summary      取消订单
// @Description  PENDING/CONFIRMED状态的订单可以取消，库存在同一事务内回补
// @Tags         订单
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "订单ID"
// @Success      200 {object} response.Response{data=apporder.OrderDTO}
// @Failure      200 {object} response.Response "40008订单不可取消 / 40104无权操作"
// @Router       /api/v1/orders/{id}/cancel [post]
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	result, err := h.cancelUseCase.Execute(c.Request.Context(), apporder.CancelOrderRequest{
		OrderID: c.Param("id"),
		UserID:  middleware.GetUserID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func toAddress(a dto.AddressRequest) order.Address {
	return order.Address{
		Name:         a.Name,
		Email:        a.Email,
		Phone:        a.Phone,
		AddressLine1: a.AddressLine1,
		AddressLine2: a.AddressLine2,
		City:         a.City,
		State:        a.State,
		PostalCode:   a.PostalCode,
		Country:      a.Country,
	}
}
