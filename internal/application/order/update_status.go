package order

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/storefront/internal/domain/order"
	"github.com/xiebiao/storefront/internal/domain/product"
	"github.com/xiebiao/storefront/internal/infrastructure/persistence/mysql"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
	"github.com/xiebiao/storefront/pkg/metrics"
	"github.com/xiebiao/storefront/pkg/tracing"
)

// UpdateOrderStatusUseCase 管理员更新订单状态用例
type UpdateOrderStatusUseCase struct {
	orderRepo order.Repository
	inventory inventory
	txManager *mysql.TxManager
	publisher order.EventPublisher
	logger    *zap.Logger
}

// NewUpdateOrderStatusUseCase 创建更新订单状态用例
func NewUpdateOrderStatusUseCase(
	orderRepo order.Repository,
	productRepo product.Repository,
	logRepo product.InventoryLogRepository,
	txManager *mysql.TxManager,
	publisher order.EventPublisher,
	logger *zap.Logger,
) *UpdateOrderStatusUseCase {
	metrics.InitMetrics()
	return &UpdateOrderStatusUseCase{
		orderRepo: orderRepo,
		inventory: inventory{productRepo: productRepo, logRepo: logRepo},
		txManager: txManager,
		publisher: publisher,
		logger:    logger,
	}
}

// Execute 更新订单状态
// 1. 目标状态按转换表校验,不允许回退
// 2. 目标状态与当前状态相同:不做任何修改,直接返回订单
// 3. 转为CANCELLED时与买家取消走同一回补库存流程(不校验归属)
// 4. 发货时可附带物流单号;管理员备注随状态变更一起保存
func (uc *UpdateOrderStatusUseCase) Execute(ctx context.Context, req UpdateOrderStatusRequest) (result *OrderDTO, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "UpdateOrderStatus")
	defer func() {
		tracing.RecordError(span, err)
		span.End()
	}()

	target, ok := order.ParseStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	if !ok {
		return nil, order.ErrInvalidStatus
	}

	var (
		updated *order.Order
		from    order.Status
		changed bool
	)
	err = uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		o, err := uc.orderRepo.FindByID(txCtx, req.OrderID)
		if err != nil {
			return err
		}
		from = o.Status
		updated = o

		if o.Status == target {
			return nil
		}
		changed = true
		if req.AdminNotes != "" {
			o.AdminNotes = req.AdminNotes
		}

		if target == order.StatusCancelled {
			return cancelInTx(txCtx, uc.orderRepo, uc.inventory, o, "管理员取消订单", uc.logger)
		}

		if _, err := o.TransitionTo(target, strings.TrimSpace(req.TrackingNumber), time.Now().UTC()); err != nil {
			return err
		}
		return uc.orderRepo.UpdateStatus(txCtx, o, from)
	})
	if err != nil {
		return nil, apperrors.AsTransactionAborted(err)
	}

	if !changed {
		return toOrderDTO(updated, nil), nil
	}

	recordTransition(from, target)
	eventType := order.EventOrderStatusChanged
	if target == order.StatusCancelled {
		eventType = order.EventOrderCancelled
		metrics.IncCounterVec(metrics.OrdersCancelledTotal, map[string]string{"actor": order.ActorAdmin})
	}
	uc.logger.Info("order status updated",
		zap.String("order_no", updated.OrderNo),
		zap.String("from", from.String()),
		zap.String("to", target.String()),
	)
	publishEvent(ctx, uc.publisher, uc.logger, order.NewEvent(eventType, updated, from, order.ActorAdmin))

	return toOrderDTO(updated, nil), nil
}
