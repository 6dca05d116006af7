package order

import (
	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

// 订单领域错误定义
var (
	// ErrOrderNotFound 订单不存在
	ErrOrderNotFound = apperrors.New(apperrors.ErrCodeOrderNotFound, "订单不存在")

	// ErrUnauthorized 无权操作此订单
	ErrUnauthorized = apperrors.New(apperrors.ErrCodeForbidden, "无权操作此订单")

	// ErrOrderNotCancellable 订单当前状态不可取消
	ErrOrderNotCancellable = apperrors.New(apperrors.ErrCodeOrderNotCancellable, "订单当前状态不可取消")

	// ErrInvalidStatusTransition 非法的状态转换
	ErrInvalidStatusTransition = apperrors.New(apperrors.ErrCodeInvalidOrderStatus, "订单状态不允许此操作")

	// ErrInvalidStatus 未知的订单状态
	ErrInvalidStatus = apperrors.New(apperrors.ErrCodeInvalidParams, "未知的订单状态")

	// ErrStatusConflict 订单状态已被并发修改
	ErrStatusConflict = apperrors.New(apperrors.ErrCodeTransactionAborted, "订单状态已变更,请刷新后重试")

	// ErrOrderNoConflict 订单号冲突(重试耗尽)
	ErrOrderNoConflict = apperrors.New(apperrors.ErrCodeDuplicateEntry, "订单号冲突")

	// ErrInvalidOrderItems 订单明细不合法
	ErrInvalidOrderItems = apperrors.New(apperrors.ErrCodeInvalidParams, "订单明细不能为空")

	// ErrInvalidQuantity 购买数量不合法
	ErrInvalidQuantity = apperrors.New(apperrors.ErrCodeInvalidParams, "购买数量必须大于0")

	// ErrInvalidPaymentMethod 不支持的支付方式
	ErrInvalidPaymentMethod = apperrors.New(apperrors.ErrCodeInvalidParams, "不支持的支付方式")
)
