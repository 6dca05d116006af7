// Package router 注册HTTP路由
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/xiebiao/storefront/internal/interface/http/handler"
	"github.com/xiebiao/storefront/internal/interface/http/middleware"
	"github.com/xiebiao/storefront/pkg/response"
)

// Options 路由选项
type Options struct {
	Mode          string // debug | release | test
	MetricsPath   string // 为空时不暴露Prometheus指标
	EnableSwagger bool
}

// Handlers 所有HTTP处理器
type Handlers struct {
	User       *handler.UserHandler
	Product    *handler.ProductHandler
	Order      *handler.OrderHandler
	AdminOrder *handler.AdminOrderHandler
}

// New 创建Gin引擎并注册路由
// 中间件顺序：Recovery → Tracing → Logger → Metrics → 业务路由
func New(opts Options, h Handlers, auth *middleware.AuthMiddleware, log *zap.Logger) *gin.Engine {
	switch opts.Mode {
	case gin.ReleaseMode, gin.TestMode:
		gin.SetMode(opts.Mode)
	}

	r := gin.New()
	r.Use(
		middleware.Recovery(log),
		middleware.Tracing(),
		middleware.Logger(log),
		middleware.Metrics(),
	)

	// 健康检查
	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})
	if opts.MetricsPath != "" {
		r.GET(opts.MetricsPath, gin.WrapH(promhttp.Handler()))
	}
	if opts.EnableSwagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/api/v1")
	requireAuth := auth.RequireAuth()

	// 用户模块
	users := v1.Group("/users")
	{
		users.POST("/register", h.User.Register)
		users.POST("/login", h.User.Login)
		users.POST("/logout", requireAuth, h.User.Logout)
	}

	// 商品模块
	products := v1.Group("/products")
	{
		products.GET("", h.Product.ListProducts)
		products.POST("", requireAuth, middleware.RequireAdmin(), h.Product.CreateProduct)
	}

	// 订单模块（需要登录）
	orders := v1.Group("/orders", requireAuth)
	{
		orders.POST("", h.Order.CreateOrder)
		orders.GET("", h.Order.ListOrders)
		orders.GET("/:id", h.Order.GetOrder)
		orders.POST("/:id/cancel", h.Order.CancelOrder)
	}

	// 管理端（需要管理员角色）
	admin := v1.Group("/admin", requireAuth, middleware.RequireAdmin())
	{
		admin.GET("/orders", h.AdminOrder.ListOrders)
		admin.PATCH("/orders/:id/status", h.AdminOrder.UpdateOrderStatus)
		admin.GET("/products/:id/inventory-logs", h.Product.ListInventoryLogs)
	}

	return r
}
