package order

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/storefront/internal/domain/order"
	"github.com/xiebiao/storefront/internal/domain/product"
	"github.com/xiebiao/storefront/pkg/metrics"
)

// inventory 下单扣减与取消回补库存
// 所有方法必须在事务内调用,库存变更与流水在同一事务提交
type inventory struct {
	productRepo product.Repository
	logRepo     product.InventoryLogRepository
}

// deduct 扣减一行明细的库存并写入DEDUCT流水
// 库存不足时返回带商品名的ErrInsufficientStock
func (inv inventory) deduct(ctx context.Context, p *product.Product, orderID string, quantity int) error {
	after, err := inv.productRepo.AdjustStock(ctx, p.ID, -quantity)
	if err != nil {
		if errors.Is(err, product.ErrInsufficientStock) {
			return product.ErrInsufficientStock.WithMessagef("商品「%s」库存不足,剩余%d件", p.Name, after)
		}
		return err
	}
	if err := inv.logRepo.Append(ctx, product.NewDeductLog(p.ID, orderID, quantity, after)); err != nil {
		return err
	}
	metrics.IncCounterVec(metrics.StockAdjustmentsTotal, map[string]string{"type": string(product.ChangeTypeDeduct)})
	return nil
}

// release 回补订单全部明细的库存
// 1. 商品已删除:跳过(明细快照仍保留)
// 2. 商品不再管理库存:跳过
// 3. 其余商品库存+quantity,销量-quantity,in_stock恢复为true
func (inv inventory) release(ctx context.Context, o *order.Order, remark string, logger *zap.Logger) error {
	for _, item := range o.Items {
		p, err := inv.productRepo.GetForOrder(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, product.ErrProductNotFound) {
				logger.Info("product removed, skip stock release",
					zap.String("order_no", o.OrderNo),
					zap.String("product_id", item.ProductID),
				)
				continue
			}
			return err
		}
		if !p.ManageStock {
			continue
		}

		after, err := inv.productRepo.AdjustStock(ctx, p.ID, item.Quantity)
		if err != nil {
			return err
		}
		if err := inv.logRepo.Append(ctx, product.NewReleaseLog(p.ID, o.ID, item.Quantity, after, remark)); err != nil {
			return err
		}
		metrics.IncCounterVec(metrics.StockAdjustmentsTotal, map[string]string{"type": string(product.ChangeTypeRelease)})
	}
	return nil
}

// publishEvent 事务提交后发布订单事件
// 发布失败只记录日志,不影响业务结果
func publishEvent(ctx context.Context, publisher order.EventPublisher, logger *zap.Logger, event order.Event) {
	if publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := publisher.Publish(ctx, event); err != nil {
		logger.Warn("publish order event failed",
			zap.String("type", event.Type),
			zap.String("order_no", event.OrderNo),
			zap.Error(err),
		)
	}
}

// recordTransition 记录状态流转指标
func recordTransition(from, to order.Status) {
	metrics.IncCounterVec(metrics.OrderStatusTransitionsTotal, map[string]string{"from": from.String(), "to": to.String()})
}
