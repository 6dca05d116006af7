package handler

import (
	"github.com/gin-gonic/gin"

	appproduct "github.com/xiebiao/storefront/internal/application/product"
	"github.com/xiebiao/storefront/internal/interface/http/dto"
	"github.com/xiebiao/storefront/pkg/response"
)

// ProductHandler 商品HTTP处理器
type ProductHandler struct {
	createUseCase *appproduct.CreateProductUseCase
	listUseCase   *appproduct.ListProductsUseCase
	logsUseCase   *appproduct.ListInventoryLogsUseCase
}

// NewProductHandler 创建商品处理器
func NewProductHandler(
	createUseCase *appproduct.CreateProductUseCase,
	listUseCase *appproduct.ListProductsUseCase,
	logsUseCase *appproduct.ListInventoryLogsUseCase,
) *ProductHandler {
	return &ProductHandler{
		createUseCase: createUseCase,
		listUseCase:   listUseCase,
		logsUseCase:   logsUseCase,
	}
}

// CreateProduct 商品上架
// @Summary      商品上架
// @Description  管理员创建商品，金额按两位小数处理
// @Tags         商品
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CreateProductRequest true "商品信息"
// @Success      200 {object} response.Response{data=appproduct.ProductDTO}
// @Failure      200 {object} response.Response "40004 SKU已存在 / 40104无权限"
// @Router       /api/v1/products [post]
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req dto.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.InvalidParams(c, err)
		return
	}

	manageStock := true
	if req.ManageStock != nil {
		manageStock = *req.ManageStock
	}

	result, err := h.createUseCase.Execute(c.Request.Context(), appproduct.CreateProductRequest{
		Name:              req.Name,
		SKU:               req.SKU,
		Description:       req.Description,
		Price:             req.Price,
		SalePrice:         req.SalePrice,
		StockQuantity:     req.StockQuantity,
		ManageStock:       manageStock,
		LowStockThreshold: req.LowStockThreshold,
		CategoryName:      req.CategoryName,
		BrandName:         req.BrandName,
		Images:            req.Images,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ListProducts 商品列表
// @Summary      商品列表
// @Description  公开接口，只返回上架商品，按创建时间倒序
// @Tags         商品
// @Produce      json
// @Param        page     query int    false "页码" default(1)
// @Param        per_page query int    false "每页数量" default(20)
// @Param        keyword  query string false "名称或SKU关键词"
// @Success      200 {object} response.Response{data=response.PageData{list=[]appproduct.ProductDTO}}
// @Router       /api/v1/products [get]
func (h *ProductHandler) ListProducts(c *gin.Context) {
	var req dto.ListProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.InvalidParams(c, err)
		return
	}

	page, err := h.listUseCase.Execute(c.Request.Context(), appproduct.ListProductsRequest{
		Page:     req.Page,
		PageSize: req.PageSize,
		Keyword:  req.Keyword,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, page.Products, page.Total, page.Page, page.PageSize)
}

// ListInventoryLogs 商品库存流水
// @Summary      库存流水
// @Description  管理员查询商品库存变更流水，按时间倒序
// @Tags         管理端
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string true  "商品ID"
// @Param        page     query int    false "页码" default(1)
// @Param        per_page query int    false "每页数量" default(20)
// @Success      200 {object} response.Response{data=response.PageData{list=[]appproduct.InventoryLogDTO}}
// @Router       /api/v1/admin/products/{id}/inventory-logs [get]
func (h *ProductHandler) ListInventoryLogs(c *gin.Context) {
	var req dto.ListInventoryLogsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.InvalidParams(c, err)
		return
	}

	page, err := h.logsUseCase.Execute(c.Request.Context(), c.Param("id"), req.Page, req.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, page.Logs, page.Total, page.Page, page.PageSize)
}
