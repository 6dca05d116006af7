package product

import (
	"time"

	"github.com/google/uuid"
)

// InventoryLog 库存变更流水
// 只增不改:每次库存变更与流水写入在同一事务内,记录变更前后库存与关联订单
type InventoryLog struct {
	ID          string
	ProductID   string
	OrderID     string
	ChangeType  ChangeType
	Quantity    int // 正数=增加,负数=减少
	BeforeStock int
	AfterStock  int
	Remark      string
	CreatedAt   time.Time
}

// ChangeType 库存变更类型
type ChangeType string

const (
	ChangeTypeDeduct  ChangeType = "DEDUCT"  // 下单扣减
	ChangeTypeRelease ChangeType = "RELEASE" // 取消回补
)

// NewDeductLog 创建扣减流水
// after为扣减后的库存
func NewDeductLog(productID, orderID string, quantity, after int) *InventoryLog {
	return newLog(productID, orderID, ChangeTypeDeduct, -quantity, after, "")
}

// NewReleaseLog 创建回补流水
func NewReleaseLog(productID, orderID string, quantity, after int, reason string) *InventoryLog {
	return newLog(productID, orderID, ChangeTypeRelease, quantity, after, reason)
}

func newLog(productID, orderID string, changeType ChangeType, delta, after int, remark string) *InventoryLog {
	return &InventoryLog{
		ID:          uuid.NewString(),
		ProductID:   productID,
		OrderID:     orderID,
		ChangeType:  changeType,
		Quantity:    delta,
		BeforeStock: after - delta,
		AfterStock:  after,
		Remark:      remark,
		CreatedAt:   time.Now(),
	}
}
