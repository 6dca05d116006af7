package order

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xiebiao/storefront/internal/domain/order"
	"github.com/xiebiao/storefront/internal/domain/pricing"
	"github.com/xiebiao/storefront/internal/domain/product"
	"github.com/xiebiao/storefront/internal/domain/user"
	"github.com/xiebiao/storefront/internal/infrastructure/persistence/mysql"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
	"github.com/xiebiao/storefront/pkg/metrics"
	"github.com/xiebiao/storefront/pkg/tracing"
)

const tracerName = "storefront/order"

// IdempotencyStore 下单幂等键存储(由redis实现)
type IdempotencyStore interface {
	Reserve(ctx context.Context, scope, key string) (orderID string, reserved bool, err error)
	Complete(ctx context.Context, scope, key, orderID string) error
	Release(ctx context.Context, scope, key string) error
}

// CreateOrderConfig 下单配置
type CreateOrderConfig struct {
	OrderNoPrefix  string // 订单号前缀
	OrderNoRetries int    // 订单号冲突时的重试次数
}

// CreateOrderUseCase 创建订单用例
// 涉及:事务处理、并发控制、业务规则校验、价格计算
type CreateOrderUseCase struct {
	orderRepo   order.Repository
	userRepo    user.Repository
	inventory   inventory
	policy      *pricing.Policy
	txManager   *mysql.TxManager
	publisher   order.EventPublisher
	idempotency IdempotencyStore
	cfg         CreateOrderConfig
	logger      *zap.Logger
}

// NewCreateOrderUseCase 创建下单用例
// idempotency为nil时忽略幂等键
func NewCreateOrderUseCase(
	orderRepo order.Repository,
	productRepo product.Repository,
	logRepo product.InventoryLogRepository,
	userRepo user.Repository,
	policy *pricing.Policy,
	txManager *mysql.TxManager,
	publisher order.EventPublisher,
	idempotency IdempotencyStore,
	cfg CreateOrderConfig,
	logger *zap.Logger,
) *CreateOrderUseCase {
	metrics.InitMetrics()
	if cfg.OrderNoPrefix == "" {
		cfg.OrderNoPrefix = order.DefaultOrderNoPrefix
	}
	if cfg.OrderNoRetries < 0 {
		cfg.OrderNoRetries = 0
	}
	return &CreateOrderUseCase{
		orderRepo:   orderRepo,
		userRepo:    userRepo,
		inventory:   inventory{productRepo: productRepo, logRepo: logRepo},
		policy:      policy,
		txManager:   txManager,
		publisher:   publisher,
		idempotency: idempotency,
		cfg:         cfg,
		logger:      logger,
	}
}

// Execute 执行下单用例
// 防止超卖的完整流程(全部在一个事务内):
//  1. SELECT ... FOR UPDATE 逐行锁定商品,校验上架/有货/库存
//  2. 按商品当前价格生成明细快照(忽略客户端价格)
//  3. 单条条件UPDATE扣减库存(stock_quantity + delta >= 0),写入DEDUCT流水
//  4. 计算税费、运费、优惠与总价
//  5. 生成订单号并写入订单与明细,订单号冲突时在SAVEPOINT内重新生成
//  6. COMMIT释放锁
//
// 任一步失败整个事务回滚:不会留下扣减的库存,也不会留下订单
func (uc *CreateOrderUseCase) Execute(ctx context.Context, req CreateOrderRequest) (result *OrderDTO, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "CreateOrder")
	defer func() {
		tracing.RecordError(span, err)
		span.End()
	}()

	start := time.Now()
	metrics.IncGauge(metrics.OrdersInProgress)
	defer func() {
		err = apperrors.AsTransactionAborted(err)
		metrics.DecGauge(metrics.OrdersInProgress)
		metrics.ObserveHistogram(metrics.OrderCreationDuration, time.Since(start).Seconds())
		if err != nil {
			metrics.IncCounterVec(metrics.OrdersFailedTotal, map[string]string{"reason": failureReason(err)})
		}
	}()

	// 1. 参数校验
	method, err := uc.validate(&req)
	if err != nil {
		return nil, err
	}

	// 2. 买家摘要(随订单返回)
	buyer, err := uc.userRepo.FindByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	summary := buyer.Summary()

	// 3. 幂等键占位
	if key := strings.TrimSpace(req.IdempotencyKey); key != "" && uc.idempotency != nil {
		existingID, reserved, reserveErr := uc.idempotency.Reserve(ctx, req.UserID, key)
		if reserveErr != nil {
			return nil, reserveErr
		}
		if !reserved {
			if existingID == "" {
				return nil, apperrors.ErrRequestInProgress
			}
			existing, findErr := uc.orderRepo.FindByID(ctx, existingID)
			if findErr != nil {
				return nil, findErr
			}
			dto := toOrderDTO(existing, &summary)
			dto.Replayed = true
			return dto, nil
		}
		defer func() {
			uc.finishIdempotency(ctx, req.UserID, key, result, err)
		}()
	}

	// 4. 事务内下单
	var created *order.Order
	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		o, err := uc.placeOrder(txCtx, req, method)
		if err != nil {
			return err
		}
		created = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 5. 提交后:指标、日志、事件
	metrics.IncCounter(metrics.OrdersCreatedTotal)
	uc.logger.Info("order created",
		zap.String("order_no", created.OrderNo),
		zap.String("user_id", created.UserID),
		zap.String("total", money(created.TotalAmount)),
		zap.Int("items", len(created.Items)),
		zap.String("trace_id", tracing.ExtractTraceID(ctx)),
	)
	publishEvent(ctx, uc.publisher, uc.logger, order.NewEvent(order.EventOrderCreated, created, "", order.ActorBuyer))

	return toOrderDTO(created, &summary), nil
}

// validate 校验请求并返回支付方式
func (uc *CreateOrderUseCase) validate(req *CreateOrderRequest) (order.PaymentMethod, error) {
	if len(req.Items) == 0 {
		return "", order.ErrInvalidOrderItems
	}
	for _, item := range req.Items {
		if item.ProductID == "" {
			return "", order.ErrInvalidOrderItems.WithMessagef("订单明细缺少商品ID")
		}
		if item.Quantity <= 0 {
			return "", order.ErrInvalidQuantity
		}
	}

	method := order.PaymentMethodCard
	if req.PaymentMethod != "" {
		method = order.PaymentMethod(req.PaymentMethod)
		if !method.IsValid() {
			return "", order.ErrInvalidPaymentMethod
		}
	}

	a := req.BillingAddress
	if a.Name == "" || a.AddressLine1 == "" || a.City == "" || a.PostalCode == "" || a.Country == "" {
		return "", apperrors.New(apperrors.ErrCodeInvalidParams, "账单地址不完整")
	}
	return method, nil
}

// placeOrder 事务内的下单步骤
func (uc *CreateOrderUseCase) placeOrder(ctx context.Context, req CreateOrderRequest, method order.PaymentMethod) (*order.Order, error) {
	orderID := uuid.NewString()

	// 1. 锁定商品并校验,生成明细快照
	items := make([]order.Item, 0, len(req.Items))
	for _, line := range req.Items {
		p, err := uc.inventory.productRepo.GetForOrder(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, product.ErrProductNotFound) {
				return nil, product.ErrProductNotFound.WithMessagef("商品%s不存在", line.ProductID)
			}
			return nil, err
		}
		if err := p.CheckPurchasable(line.Quantity); err != nil {
			return nil, err
		}

		item := order.NewItem(orderID, p, line.Quantity)
		if line.ClientPrice.Valid && !line.ClientPrice.Decimal.Equal(item.Price) {
			uc.logger.Warn("client price ignored",
				zap.String("product_id", p.ID),
				zap.String("client_price", line.ClientPrice.Decimal.String()),
				zap.String("server_price", money(item.Price)),
			)
		}
		items = append(items, item)

		// 2. 扣减库存(单条条件UPDATE)
		if p.ManageStock {
			if err := uc.inventory.deduct(ctx, p, orderID, line.Quantity); err != nil {
				return nil, err
			}
		}
	}

	// 3. 计算金额
	totals, err := uc.policy.Totals(ctx, order.Subtotal(items), req.CouponCode)
	if err != nil {
		return nil, err
	}

	o := order.NewOrder(orderID, req.UserID, items, totals)
	o.PaymentMethod = method
	o.BillingAddress = req.BillingAddress
	o.ShippingAddress = req.BillingAddress
	if req.ShippingAddress != nil {
		o.ShippingAddress = *req.ShippingAddress
	}
	o.Notes = req.Notes
	o.CouponCode = req.CouponCode

	// 4. 写入订单(订单号冲突时重新生成)
	if err := uc.createWithOrderNo(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// createWithOrderNo 生成订单号并写入订单
// 每次尝试包在嵌套事务(SAVEPOINT)里,唯一索引冲突只回滚本次INSERT
func (uc *CreateOrderUseCase) createWithOrderNo(ctx context.Context, o *order.Order) error {
	var err error
	for attempt := 0; attempt <= uc.cfg.OrderNoRetries; attempt++ {
		o.OrderNo = order.GenerateOrderNo(uc.cfg.OrderNoPrefix, time.Now())
		err = uc.txManager.Transaction(ctx, func(ctx context.Context) error {
			return uc.orderRepo.Create(ctx, o)
		})
		if !errors.Is(err, order.ErrOrderNoConflict) {
			return err
		}
		uc.logger.Warn("order number collision, regenerating",
			zap.String("order_no", o.OrderNo),
			zap.Int("attempt", attempt+1),
		)
	}
	return err
}

// finishIdempotency 下单结束后更新幂等键:成功记录订单ID,失败释放占位
func (uc *CreateOrderUseCase) finishIdempotency(ctx context.Context, scope, key string, result *OrderDTO, err error) {
	ctx = context.WithoutCancel(ctx)
	var storeErr error
	if err == nil && result != nil {
		storeErr = uc.idempotency.Complete(ctx, scope, key, result.ID)
	} else {
		storeErr = uc.idempotency.Release(ctx, scope, key)
	}
	if storeErr != nil {
		uc.logger.Warn("update idempotency key failed", zap.String("key", key), zap.Error(storeErr))
	}
}

// failureReason 下单失败原因(metrics标签)
func failureReason(err error) string {
	switch {
	case errors.Is(err, product.ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, product.ErrProductUnavailable):
		return "product_unavailable"
	case errors.Is(err, product.ErrProductOutOfStock):
		return "out_of_stock"
	case errors.Is(err, product.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, order.ErrOrderNoConflict):
		return "order_no_conflict"
	case errors.Is(err, apperrors.ErrRequestInProgress):
		return "in_progress"
	}
	if appErr := apperrors.GetAppError(err); appErr.Code == apperrors.ErrCodeInvalidParams {
		return "invalid_request"
	}
	return "aborted"
}
