package errors

import (
	"errors"
	"fmt"
)

// AppError 自定义应用错误
// 设计说明：
// 1. Code用于客户端判断错误类型（不要直接暴露HTTP状态码）
// 2. Message是用户友好的提示信息
// 3. Err是内部错误，仅记录到日志，不返回给客户端
type AppError struct {
	Code    int    `json:"code"`    // 业务错误码
	Message string `json:"message"` // 用户友好的错误提示
	Err     error  `json:"-"`       // 内部错误（不序列化）

	// origin 派生错误指向的原始预定义错误，供errors.Is匹配
	origin *AppError
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持errors.Is和errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 派生错误与其原始预定义错误视为同一种错误
// 例如：ErrInsufficientStock.WithMessagef("商品%s库存不足", name) 仍满足 errors.Is(err, ErrInsufficientStock)
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e == t || (e.origin != nil && e.origin == t)
}

// WithMessagef 基于预定义错误派生一个带具体信息的错误（保留错误码）
func (e *AppError) WithMessagef(format string, args ...interface{}) *AppError {
	origin := e
	if e.origin != nil {
		origin = e.origin
	}
	return &AppError{
		Code:    e.Code,
		Message: fmt.Sprintf(format, args...),
		Err:     e.Err,
		origin:  origin,
	}
}

// WithCause 基于预定义错误派生一个携带内部原因的错误
func (e *AppError) WithCause(err error) *AppError {
	origin := e
	if e.origin != nil {
		origin = e.origin
	}
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
		origin:  origin,
	}
}

// New 创建新的AppError
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装系统错误（如数据库错误、网络错误）
// 用途：将底层错误转换为业务错误，隐藏实现细节
func Wrap(err error, message string) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
		Err:     err,
	}
}

// Wrapf 格式化包装错误
func Wrapf(err error, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// =========================================
// 错误码定义
// =========================================
// 规范：
// - 4xxxx: 客户端错误（参数错误、业务规则校验失败）
// - 5xxxx: 服务端错误（数据库异常、外部服务调用失败）

const (
	// 系统级错误码（50000-50099）
	ErrCodeInternal           = 50000 // 内部错误
	ErrCodeTransactionAborted = 50001 // 事务中止（存储不可用、冲突）
	ErrCodeRedisError         = 50002 // Redis错误
	ErrCodeMQError            = 50003 // 消息队列错误

	// 认证授权错误（40100-40199）
	ErrCodeUnauthorized    = 40100 // 未登录
	ErrCodeInvalidToken    = 40101 // Token无效
	ErrCodeTokenExpired    = 40102 // Token过期
	ErrCodeInvalidPassword = 40103 // 密码错误
	ErrCodeForbidden       = 40104 // 无权限

	// 资源错误（40400-40499）
	ErrCodeNotFound        = 40400 // 资源不存在(通用)
	ErrCodeUserNotFound    = 40401 // 用户不存在
	ErrCodeProductNotFound = 40402 // 商品不存在
	ErrCodeOrderNotFound   = 40403 // 订单不存在

	// 业务规则错误（40000-40099）
	ErrCodeBusinessError       = 40000 // 业务错误(通用)
	ErrCodeInsufficientStock   = 40001 // 库存不足
	ErrCodeInvalidOrderStatus  = 40002 // 订单状态非法
	ErrCodeEmailDuplicate      = 40003 // 邮箱已存在
	ErrCodeSKUDuplicate        = 40004 // SKU已存在
	ErrCodeWeakPassword        = 40005 // 密码强度不足
	ErrCodeProductUnavailable  = 40006 // 商品已下架
	ErrCodeProductOutOfStock   = 40007 // 商品缺货
	ErrCodeOrderNotCancellable = 40008 // 订单不可取消
	ErrCodeDuplicateEntry      = 40009 // 重复记录(通用)
	ErrCodeRequestInProgress   = 40010 // 相同幂等键的请求正在处理

	// 参数错误（40900-40999）
	ErrCodeInvalidParams = 40900 // 参数错误
	ErrCodeBindError     = 40901 // 参数绑定失败
)

// =========================================
// 预定义错误（避免每次都New）
// =========================================

var (
	// 系统错误
	ErrInternal           = New(ErrCodeInternal, "系统内部错误")
	ErrTransactionAborted = New(ErrCodeTransactionAborted, "事务执行失败，请稍后重试")
	ErrRedisError         = New(ErrCodeRedisError, "缓存服务错误")
	ErrMQError            = New(ErrCodeMQError, "消息发布失败")

	// 认证授权
	ErrUnauthorized    = New(ErrCodeUnauthorized, "请先登录")
	ErrInvalidToken    = New(ErrCodeInvalidToken, "无效的Token")
	ErrTokenExpired    = New(ErrCodeTokenExpired, "Token已过期")
	ErrInvalidPassword = New(ErrCodeInvalidPassword, "密码错误")
	ErrForbidden       = New(ErrCodeForbidden, "无权限访问")

	// 资源不存在
	ErrUserNotFound = New(ErrCodeUserNotFound, "用户不存在")

	// 业务规则
	ErrEmailDuplicate = New(ErrCodeEmailDuplicate, "邮箱已被注册")
	ErrWeakPassword   = New(ErrCodeWeakPassword, "密码强度不足（需8-20位，包含字母和数字）")

	// 幂等
	ErrRequestInProgress = New(ErrCodeRequestInProgress, "请求处理中，请勿重复提交")

	// 参数错误
	ErrInvalidParams = New(ErrCodeInvalidParams, "参数错误")
	ErrBindError     = New(ErrCodeBindError, "参数格式错误")
)

// =========================================
// 辅助函数
// =========================================

// IsAppError 判断是否为AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError 提取AppError（如果不是AppError则包装成Internal错误）
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, "系统内部错误")
}

// AsTransactionAborted 将非业务错误归类为事务中止
// 已经是AppError的业务错误原样返回（保留具体错误码）
func AsTransactionAborted(err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != ErrCodeInternal {
		return err
	}
	return ErrTransactionAborted.WithCause(err)
}
