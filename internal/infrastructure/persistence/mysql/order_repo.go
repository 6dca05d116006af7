package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xiebiao/storefront/internal/domain/order"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) order.Repository {
	return &orderRepository{db: db}
}

// Create 创建订单
// 1. 订单与明细一次写入(GORM自动创建has-many关联)
// 2. 订单号唯一索引冲突转换为ErrOrderNoConflict,由调用方重新生成订单号
func (r *orderRepository) Create(ctx context.Context, o *order.Order) error {
	model := toOrderModel(o)

	if err := getDB(ctx, r.db).Create(model).Error; err != nil {
		if isDuplicateError(err) {
			return order.ErrOrderNoConflict.WithCause(err)
		}
		return apperrors.Wrap(err, "创建订单失败")
	}

	o.CreatedAt = model.CreatedAt
	o.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *orderRepository) FindByOrderNo(ctx context.Context, orderNo string) (*order.Order, error) {
	return r.findOne(ctx, "order_no = ?", orderNo)
}

func (r *orderRepository) findOne(ctx context.Context, cond string, arg interface{}) (*order.Order, error) {
	var model OrderModel
	err := getDB(ctx, r.db).Preload("Items").Where(cond, arg).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.ErrOrderNotFound
		}
		return nil, apperrors.Wrap(err, "查询订单失败")
	}

	return toOrderEntity(&model), nil
}

// UpdateStatus 更新订单状态及生命周期字段
// 以 WHERE status = from 作为乐观条件,状态已被并发修改时返回ErrStatusConflict
func (r *orderRepository) UpdateStatus(ctx context.Context, o *order.Order, from order.Status) error {
	db := getDB(ctx, r.db)

	result := db.Model(&OrderModel{}).
		Where("id = ? AND status = ?", o.ID, string(from)).
		Updates(map[string]interface{}{
			"status":          string(o.Status),
			"payment_status":  string(o.PaymentStatus),
			"tracking_number": o.TrackingNumber,
			"admin_notes":     o.AdminNotes,
			"confirmed_at":    o.ConfirmedAt,
			"shipped_at":      o.ShippedAt,
			"delivered_at":    o.DeliveredAt,
			"cancelled_at":    o.CancelledAt,
			"updated_at":      o.UpdatedAt,
		})
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新订单状态失败")
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := db.Model(&OrderModel{}).Where("id = ?", o.ID).Count(&count).Error; err != nil {
			return apperrors.Wrap(err, "查询订单失败")
		}
		if count == 0 {
			return order.ErrOrderNotFound
		}
		return order.ErrStatusConflict
	}

	return nil
}

// ListByUserID 买家订单列表(按创建时间倒序)
func (r *orderRepository) ListByUserID(ctx context.Context, userID string, params order.ListParams) ([]*order.Order, int64, error) {
	query := getDB(ctx, r.db).Model(&OrderModel{}).Where("orders.user_id = ?", userID)
	return r.list(ctx, query, params)
}

// List 管理端订单列表
// Search匹配订单号、买家姓名、买家邮箱
func (r *orderRepository) List(ctx context.Context, params order.ListParams) ([]*order.Order, int64, error) {
	query := getDB(ctx, r.db).Model(&OrderModel{})
	if params.Search != "" {
		keyword := "%" + params.Search + "%"
		buyers := getDB(ctx, r.db).Model(&UserModel{}).
			Select("id").
			Where("name LIKE ? OR email LIKE ?", keyword, keyword)
		query = query.Where("orders.order_no LIKE ? OR orders.user_id IN (?)", keyword, buyers)
	}
	return r.list(ctx, query, params)
}

func (r *orderRepository) list(_ context.Context, query *gorm.DB, params order.ListParams) ([]*order.Order, int64, error) {
	var models []OrderModel
	var total int64

	if params.Status != "" {
		query = query.Where("orders.status = ?", string(params.Status))
	}
	if params.PaymentStatus != "" {
		query = query.Where("orders.payment_status = ?", string(params.PaymentStatus))
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询订单总数失败")
	}

	err := query.Preload("Items").
		Order("orders.created_at DESC").
		Limit(params.PageSize).
		Offset(offset(params.Page, params.PageSize)).
		Find(&models).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(err, "查询订单列表失败")
	}

	orders := make([]*order.Order, len(models))
	for i := range models {
		orders[i] = toOrderEntity(&models[i])
	}

	return orders, total, nil
}

func toOrderModel(o *order.Order) *OrderModel {
	items := make([]OrderItemModel, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemModel{
			ID:          item.ID,
			OrderID:     o.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			ProductSKU:  item.ProductSKU,
			ProductDetails: ItemDetailsJSON{
				Image:    item.ProductDetails.Image,
				Category: item.ProductDetails.Category,
				Brand:    item.ProductDetails.Brand,
			},
			Quantity: item.Quantity,
			Price:    item.Price,
			Total:    item.Total,
		}
	}

	return &OrderModel{
		ID:              o.ID,
		OrderNo:         o.OrderNo,
		UserID:          o.UserID,
		Status:          string(o.Status),
		PaymentStatus:   string(o.PaymentStatus),
		PaymentMethod:   string(o.PaymentMethod),
		Subtotal:        o.Subtotal,
		TaxRate:         o.TaxRate,
		TaxAmount:       o.TaxAmount,
		ShippingAmount:  o.ShippingAmount,
		DiscountAmount:  o.DiscountAmount,
		TotalAmount:     o.TotalAmount,
		Currency:        o.Currency,
		BillingAddress:  AddressJSON(o.BillingAddress),
		ShippingAddress: AddressJSON(o.ShippingAddress),
		Notes:           o.Notes,
		AdminNotes:      o.AdminNotes,
		TrackingNumber:  o.TrackingNumber,
		CouponCode:      o.CouponCode,
		Items:           items,
		ConfirmedAt:     o.ConfirmedAt,
		ShippedAt:       o.ShippedAt,
		DeliveredAt:     o.DeliveredAt,
		CancelledAt:     o.CancelledAt,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func toOrderEntity(model *OrderModel) *order.Order {
	items := make([]order.Item, len(model.Items))
	for i, item := range model.Items {
		items[i] = order.Item{
			ID:          item.ID,
			OrderID:     item.OrderID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			ProductSKU:  item.ProductSKU,
			ProductDetails: order.ItemDetails{
				Image:    item.ProductDetails.Image,
				Category: item.ProductDetails.Category,
				Brand:    item.ProductDetails.Brand,
			},
			Quantity: item.Quantity,
			Price:    item.Price,
			Total:    item.Total,
		}
	}

	return &order.Order{
		ID:              model.ID,
		OrderNo:         model.OrderNo,
		UserID:          model.UserID,
		Status:          order.Status(model.Status),
		PaymentStatus:   order.PaymentStatus(model.PaymentStatus),
		PaymentMethod:   order.PaymentMethod(model.PaymentMethod),
		Subtotal:        model.Subtotal,
		TaxRate:         model.TaxRate,
		TaxAmount:       model.TaxAmount,
		ShippingAmount:  model.ShippingAmount,
		DiscountAmount:  model.DiscountAmount,
		TotalAmount:     model.TotalAmount,
		Currency:        model.Currency,
		BillingAddress:  order.Address(model.BillingAddress),
		ShippingAddress: order.Address(model.ShippingAddress),
		Notes:           model.Notes,
		AdminNotes:      model.AdminNotes,
		TrackingNumber:  model.TrackingNumber,
		CouponCode:      model.CouponCode,
		Items:           items,
		ConfirmedAt:     model.ConfirmedAt,
		ShippedAt:       model.ShippedAt,
		DeliveredAt:     model.DeliveredAt,
		CancelledAt:     model.CancelledAt,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}
