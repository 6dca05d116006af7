package main

import (
	"github.com/gin-gonic/gin"
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

// buildApp 手动组装依赖，与wire.go中的InitializeApp保持一致
// 依赖链：Repository ← Service ← UseCase ← Handler ← Router
func buildApp(cfg *config.Config, log *zap.Logger) (*gin.Engine, func(), error) {
	// 1. 基础设施层
	db, err := mysql.NewDB(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	redisClient, err := redis.NewClient(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	publisher, closePublisher, err := provideEventPublisher(cfg, log)
	if err != nil {
		_ = redisClient.Close()
		return nil, nil, err
	}
	cleanup := func() {
		closePublisher()
		if err := redisClient.Close(); err != nil {
			log.Warn("close redis failed", zap.Error(err))
		}
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	userRepo := mysql.NewUserRepository(db)
	productRepo := mysql.NewProductRepository(db)
	logRepo := mysql.NewInventoryLogRepository(db)
	orderRepo := mysql.NewOrderRepository(db)
	txManager := mysql.NewTxManager(db)
	sessionStore := redis.NewSessionStore(redisClient)
	jwtManager := provideJWTManager(cfg)

	// 2. 领域层
	userService := provideUserService(userRepo)
	productService := product.NewService(productRepo)
	policy := providePricingPolicy(cfg)

	// 3. 应用层
	handlers := router.Handlers{
		User: handler.NewUserHandler(
			appuser.NewRegisterUseCase(userService, log),
			appuser.NewLoginUseCase(userService, jwtManager, sessionStore, log),
			appuser.NewLogoutUseCase(sessionStore, log),
		),
		Product: handler.NewProductHandler(
			appproduct.NewCreateProductUseCase(productService, log),
			appproduct.NewListProductsUseCase(productService),
			appproduct.NewListInventoryLogsUseCase(productService, logRepo),
		),
		Order: handler.NewOrderHandler(
			apporder.NewCreateOrderUseCase(orderRepo, productRepo, logRepo, userRepo, policy, txManager,
				publisher, provideIdempotencyStore(redisClient), provideCreateOrderConfig(cfg), log),
			apporder.NewCancelOrderUseCase(orderRepo, productRepo, logRepo, txManager, publisher, log),
			apporder.NewGetOrderUseCase(orderRepo, userRepo),
			apporder.NewListUserOrdersUseCase(orderRepo),
		),
		AdminOrder: handler.NewAdminOrderHandler(
			apporder.NewListOrdersUseCase(orderRepo, userRepo),
			apporder.NewUpdateOrderStatusUseCase(orderRepo, productRepo, logRepo, txManager, publisher, log),
		),
	}

	// 4. 接口层
	auth := provideAuthMiddleware(jwtManager, sessionStore)
	return provideRouter(cfg, handlers, auth, log), cleanup, nil
}
