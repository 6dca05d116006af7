package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/xiebiao/storefront/internal/domain/product"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

type inventoryLogRepository struct {
	db *gorm.DB
}

// NewInventoryLogRepository 创建库存流水仓储
func NewInventoryLogRepository(db *gorm.DB) product.InventoryLogRepository {
	return &inventoryLogRepository{db: db}
}

// Append 追加库存流水
// 必须与库存变更处于同一事务
func (r *inventoryLogRepository) Append(ctx context.Context, log *product.InventoryLog) error {
	model := &InventoryLogModel{
		ID:          log.ID,
		ProductID:   log.ProductID,
		OrderID:     log.OrderID,
		ChangeType:  string(log.ChangeType),
		Quantity:    log.Quantity,
		BeforeStock: log.BeforeStock,
		AfterStock:  log.AfterStock,
		Remark:      log.Remark,
		CreatedAt:   log.CreatedAt,
	}
	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		return apperrors.Wrap(err, "写入库存流水失败")
	}
	return nil
}

func (r *inventoryLogRepository) ListByProductID(ctx context.Context, productID string, page, pageSize int) ([]*product.InventoryLog, int64, error) {
	var models []InventoryLogModel
	var total int64

	query := getDB(ctx, r.db).Model(&InventoryLogModel{}).Where("product_id = ?", productID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询库存流水总数失败")
	}

	err := query.Order("created_at DESC").
		Limit(pageSize).
		Offset(offset(page, pageSize)).
		Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询库存流水失败")
	}

	return toInventoryLogs(models), total, nil
}

func (r *inventoryLogRepository) ListByOrderID(ctx context.Context, orderID string) ([]*product.InventoryLog, error) {
	var models []InventoryLogModel
	err := getDB(ctx, r.db).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询库存流水失败")
	}
	return toInventoryLogs(models), nil
}

func toInventoryLogs(models []InventoryLogModel) []*product.InventoryLog {
	logs := make([]*product.InventoryLog, len(models))
	for i, m := range models {
		logs[i] = &product.InventoryLog{
			ID:          m.ID,
			ProductID:   m.ProductID,
			OrderID:     m.OrderID,
			ChangeType:  product.ChangeType(m.ChangeType),
			Quantity:    m.Quantity,
			BeforeStock: m.BeforeStock,
			AfterStock:  m.AfterStock,
			Remark:      m.Remark,
			CreatedAt:   m.CreatedAt,
		}
	}
	return logs
}
