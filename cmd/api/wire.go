//go:build wireinject
// +build wireinject

// Wire依赖注入配置
// 运行 `wire gen ./cmd/api` 生成wire_gen.go；app.go中的buildApp是同一依赖图的手写版本

package main

import (
	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	"go.uber.org/zap"

	apporder "github.com/xiebiao/storefront/internal/application/order"
	appproduct "github.com/xiebiao/storefront/internal/application/product"
	appuser "github.com/xiebiao/storefront/internal/application/user"
	"github.com/xiebiao/storefront/internal/domain/product"
	"github.com/xiebiao/storefront/internal/infrastructure/config"
	"github.com/xiebiao/storefront/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/storefront/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/storefront/internal/interface/http/handler"
	"github.com/xiebiao/storefront/internal/interface/http/router"
)

// infrastructureSet 基础设施层依赖
var infrastructureSet = wire.NewSet(
	mysql.NewDB,
	redis.NewClient,
	redis.NewSessionStore,
	provideIdempotencyStore,
	provideEventPublisher,
	provideJWTManager,
)

// repositorySet 仓储层依赖
var repositorySet = wire.NewSet(
	mysql.NewUserRepository,
	mysql.NewProductRepository,
	mysql.NewInventoryLogRepository,
	mysql.NewOrderRepository,
	mysql.NewTxManager,
)

// domainSet 领域层依赖
var domainSet = wire.NewSet(
	provideUserService,
	product.NewService,
	providePricingPolicy,
)

// applicationSet 应用层依赖
var applicationSet = wire.NewSet(
	wire.Bind(new(appuser.SessionStore), new(*redis.SessionStore)),
	appuser.NewRegisterUseCase,
	appuser.NewLoginUseCase,
	appuser.NewLogoutUseCase,
	appproduct.NewCreateProductUseCase,
	appproduct.NewListProductsUseCase,
	appproduct.NewListInventoryLogsUseCase,
	provideCreateOrderConfig,
	apporder.NewCreateOrderUseCase,
	apporder.NewCancelOrderUseCase,
	apporder.NewUpdateOrderStatusUseCase,
	apporder.NewGetOrderUseCase,
	apporder.NewListUserOrdersUseCase,
	apporder.NewListOrdersUseCase,
)

// interfaceSet 接口层依赖
var interfaceSet = wire.NewSet(
	handler.NewUserHandler,
	handler.NewProductHandler,
	handler.NewOrderHandler,
	handler.NewAdminOrderHandler,
	wire.Struct(new(router.Handlers), "*"),
	provideAuthMiddleware,
	provideRouter,
)

// InitializeApp 初始化整个应用
// 返回配置好的Gin引擎与释放连接的cleanup函数
func InitializeApp(cfg *config.Config, log *zap.Logger) (*gin.Engine, func(), error) {
	wire.Build(
		infrastructureSet,
		repositorySet,
		domainSet,
		applicationSet,
		interfaceSet,
	)
	return nil, nil, nil
}
