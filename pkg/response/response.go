// Package response 统一HTTP响应
//
// 所有接口都返回HTTP 200，通过body中的code区分成功(0)与业务错误。
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/xiebiao/storefront/pkg/errors"
)

// RequestIDKey 请求ID在gin.Context中的键，由日志中间件写入
const RequestIDKey = "request_id"

// Response 统一响应结构
// Code是业务错误码（非HTTP状态码），Data失败时为null
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// Success 成功响应（Code=0）
func Success(c *gin.Context, data interface{}) {
	write(c, 0, "success", data)
}

// Error 错误响应
// 非AppError统一转为内部错误；带底层原因的错误只写日志，不把原因返回给客户端
func Error(c *gin.Context, err error) {
	appErr := apperrors.GetAppError(err)
	if appErr.Err != nil {
		zap.L().Error("request failed",
			zap.Int("code", appErr.Code),
			zap.String("request_id", c.GetString(RequestIDKey)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(appErr.Err),
		)
	}
	write(c, appErr.Code, appErr.Message, nil)
}

// ErrorWithCode 自定义错误码和消息
func ErrorWithCode(c *gin.Context, code int, message string) {
	write(c, code, message, nil)
}

// InvalidParams 请求绑定/校验失败
func InvalidParams(c *gin.Context, err error) {
	write(c, apperrors.ErrCodeInvalidParams, "参数错误: "+err.Error(), nil)
}

func write(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: code, Message: message, Data: data})
}

// PageData 分页数据
type PageData struct {
	List       interface{} `json:"list"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
}

// NewPageData 创建分页数据，pageSize<=0时总页数为0
func NewPageData(list interface{}, total int64, page, pageSize int) *PageData {
	var totalPages int
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return &PageData{
		List:       list,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

// SuccessWithPage 分页成功响应
func SuccessWithPage(c *gin.Context, list interface{}, total int64, page, pageSize int) {
	Success(c, NewPageData(list, total, page, pageSize))
}
