package handler

import (
	"github.com/gin-gonic/gin"

	apporder "github.com/xiebiao/storefront/internal/application/order"
	"github.com/xiebiao/storefront/internal/interface/http/dto"
	"github.com/xiebiao/storefront/pkg/response"
)

// AdminOrderHandler 管理端订单处理器
type AdminOrderHandler struct {
	listUseCase   *apporder.ListOrdersUseCase
	updateUseCase *apporder.UpdateOrderStatusUseCase
}

// NewAdminOrderHandler 创建管理端订单处理器
func NewAdminOrderHandler(listUseCase *apporder.ListOrdersUseCase, updateUseCase *apporder.UpdateOrderStatusUseCase) *AdminOrderHandler {
	return &AdminOrderHandler{listUseCase: listUseCase, updateUseCase: updateUseCase}
}

// ListOrders 订单列表(管理端)
// @Summary      订单列表
// @Description  按状态、支付状态过滤，search匹配订单号、买家姓名或邮箱
// @Tags         管理端
// @Produce      json
// @Security     BearerAuth
// @Param        status         query string false "订单状态"
// @Param        payment_status query string false "支付状态"
// @Param        search         query string false "订单号/买家姓名/买家邮箱"
// @Param        page           query int    false "页码" default(1)
// @Param        per_page       query int    false "每页数量" default(15)
// @Success      200 {object} response.Response{data=response.PageData{list=[]apporder.OrderDTO}}
// @Router       /api/v1/admin/orders [get]
func (h *AdminOrderHandler) ListOrders(c *gin.Context) {
	var req dto.AdminListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.InvalidParams(c, err)
		return
	}

	page, err := h.listUseCase.Execute(c.Request.Context(), apporder.ListOrdersRequest{
		Status:        req.Status,
		PaymentStatus: req.PaymentStatus,
		Search:        req.Search,
		Page:          req.Page,
		PageSize:      req.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, page.Orders, page.Total, page.Page, page.PageSize)
}

// UpdateOrderStatus 更新订单状态
// @Summary      更新订单状态
// @Description  状态只能按流转表前进；转为CANCELLED时回补库存
// @Tags         管理端
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string                       true "订单ID"
// @Param        request body dto.UpdateOrderStatusRequest true "目标状态"
// @Success      200 {object} response.Response{data=apporder.OrderDTO}
// @Failure      200 {object} response.Response "40002非法状态流转 / 40008订单不可取消"
// @Router       /api/v1/admin/orders/{id}/status [patch]
func (h *AdminOrderHandler) UpdateOrderStatus(c *gin.Context) {
	var req dto.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.InvalidParams(c, err)
		return
	}

	result, err := h.updateUseCase.Execute(c.Request.Context(), apporder.UpdateOrderStatusRequest{
		OrderID:        c.Param("id"),
		Status:         req.Status,
		TrackingNumber: req.TrackingNumber,
		AdminNotes:     req.AdminNotes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
