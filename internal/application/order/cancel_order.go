package order

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/storefront/internal/domain/order"
	"github.com/xiebiao/storefront/internal/domain/product"
	"github.com/xiebiao/storefront/internal/infrastructure/persistence/mysql"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
	"github.com/xiebiao/storefront/pkg/metrics"
	"github.com/xiebiao/storefront/pkg/tracing"
)

// CancelOrderUseCase 买家取消订单用例
type CancelOrderUseCase struct {
	orderRepo order.Repository
	inventory inventory
	txManager *mysql.TxManager
	publisher order.EventPublisher
	logger    *zap.Logger
}

// NewCancelOrderUseCase 创建取消订单用例
func NewCancelOrderUseCase(
	orderRepo order.Repository,
	productRepo product.Repository,
	logRepo product.InventoryLogRepository,
	txManager *mysql.TxManager,
	publisher order.EventPublisher,
	logger *zap.Logger,
) *CancelOrderUseCase {
	metrics.InitMetrics()
	return &CancelOrderUseCase{
		orderRepo: orderRepo,
		inventory: inventory{productRepo: productRepo, logRepo: logRepo},
		txManager: txManager,
		publisher: publisher,
		logger:    logger,
	}
}

// Execute 取消订单
// 校验顺序:订单不存在 → 非本人订单 → 状态不可取消
// 状态以CAS方式更新(WHERE status = 原状态),并发重复取消不会重复回补库存
func (uc *CancelOrderUseCase) Execute(ctx context.Context, req CancelOrderRequest) (result *OrderDTO, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "CancelOrder")
	defer func() {
		tracing.RecordError(span, err)
		span.End()
	}()

	var (
		cancelled *order.Order
		from      order.Status
	)
	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		o, err := uc.orderRepo.FindByID(txCtx, req.OrderID)
		if err != nil {
			return err
		}
		if !o.IsOwnedBy(req.UserID) {
			return order.ErrUnauthorized
		}

		from = o.Status
		if err := cancelInTx(txCtx, uc.orderRepo, uc.inventory, o, "买家取消订单", uc.logger); err != nil {
			return err
		}
		cancelled = o
		return nil
	})
	if err != nil {
		return nil, apperrors.AsTransactionAborted(err)
	}

	metrics.IncCounterVec(metrics.OrdersCancelledTotal, map[string]string{"actor": order.ActorBuyer})
	recordTransition(from, order.StatusCancelled)
	uc.logger.Info("order cancelled",
		zap.String("order_no", cancelled.OrderNo),
		zap.String("actor", order.ActorBuyer),
		zap.String("previous_status", from.String()),
	)
	publishEvent(ctx, uc.publisher, uc.logger, order.NewEvent(order.EventOrderCancelled, cancelled, from, order.ActorBuyer))

	return toOrderDTO(cancelled, nil), nil
}

// cancelInTx 取消订单并回补库存(买家取消与管理员取消共用)
// 1. 领域校验:只有PENDING/CONFIRMED可以取消
// 2. CAS更新状态,失败说明订单已被并发修改
// 3. 回补库存并写入RELEASE流水
func cancelInTx(ctx context.Context, orderRepo order.Repository, inv inventory, o *order.Order, remark string, logger *zap.Logger) error {
	from := o.Status
	if err := o.Cancel(time.Now().UTC()); err != nil {
		return err
	}
	if err := orderRepo.UpdateStatus(ctx, o, from); err != nil {
		return err
	}
	return inv.release(ctx, o, remark, logger)
}
