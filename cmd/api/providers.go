package main

import (
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apporder "github.com/xiebiao/storefront/internal/application/order"
	"github.com/xiebiao/storefront/internal/domain/order"
	"github.com/xiebiao/storefront/internal/domain/pricing"
	"github.com/xiebiao/storefront/internal/domain/user"
	"github.com/xiebiao/storefront/internal/infrastructure/config"
	"github.com/xiebiao/storefront/internal/infrastructure/messaging"
	"github.com/xiebiao/storefront/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/storefront/internal/interface/http/middleware"
	"github.com/xiebiao/storefront/internal/interface/http/router"
	"github.com/xiebiao/storefront/pkg/jwt"
	"github.com/xiebiao/storefront/pkg/mq"
)

// provideJWTManager 从配置创建JWT管理器
func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpire,
		cfg.JWT.RefreshTokenExpire,
	)
}

// provideUserService 用户领域服务(默认bcrypt cost)
func provideUserService(repo user.Repository) user.Service {
	return user.NewService(repo, user.DefaultBcryptCost)
}

// provideIdempotencyStore 下单幂等键存储
func provideIdempotencyStore(client *goredis.Client) apporder.IdempotencyStore {
	return redis.NewIdempotencyStore(client, redis.DefaultIdempotencyTTL)
}

// providePricingPolicy 从order配置构建定价策略
// 金额字段已在config.Load中校验，RequireFromString不会panic
func providePricingPolicy(cfg *config.Config) *pricing.Policy {
	return pricing.NewPolicy(pricing.Config{
		TaxRate:               decimal.RequireFromString(cfg.Order.TaxRate),
		FreeShippingThreshold: decimal.RequireFromString(cfg.Order.FreeShippingThreshold),
		FlatShippingCost:      decimal.RequireFromString(cfg.Order.FlatShippingCost),
		Currency:              cfg.Order.Currency,
	})
}

// provideCreateOrderConfig 订单号配置
func provideCreateOrderConfig(cfg *config.Config) apporder.CreateOrderConfig {
	return apporder.CreateOrderConfig{
		OrderNoPrefix:  cfg.Order.OrderNoPrefix,
		OrderNoRetries: cfg.Order.OrderNoRetries,
	}
}

// provideEventPublisher 订单事件发布
// mq未启用时事件只写日志；cleanup在退出时关闭RabbitMQ连接
func provideEventPublisher(cfg *config.Config, log *zap.Logger) (order.EventPublisher, func(), error) {
	if !cfg.MQ.Enabled {
		log.Info("mq disabled, order events go to log")
		return messaging.NewLogPublisher(log), func() {}, nil
	}

	publisher, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange, cfg.MQ.ExchangeType, log)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := publisher.Close(); err != nil {
			log.Warn("close mq publisher failed", zap.Error(err))
		}
	}
	return messaging.NewOrderEventPublisher(publisher, log), cleanup, nil
}

// provideAuthMiddleware 认证中间件，黑名单由redis会话存储提供
func provideAuthMiddleware(jwtManager *jwt.Manager, sessions *redis.SessionStore) *middleware.AuthMiddleware {
	return middleware.NewAuthMiddleware(jwtManager, sessions)
}

// provideRouter 创建Gin引擎并注册路由
func provideRouter(cfg *config.Config, h router.Handlers, auth *middleware.AuthMiddleware, log *zap.Logger) *gin.Engine {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return router.New(router.Options{
		Mode:          cfg.Server.Mode,
		MetricsPath:   metricsPath,
		EnableSwagger: cfg.Server.Mode != gin.ReleaseMode,
	}, h, auth, log)
}
