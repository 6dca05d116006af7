package user

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/storefront/internal/domain/user"
)

// RegisterUseCase 用户注册用例
// 设计说明：
// 1. Application层负责用例编排，协调领域服务
// 2. 校验与密码加密由领域服务完成
type RegisterUseCase struct {
	userService user.Service
	logger      *zap.Logger
}

// NewRegisterUseCase 创建注册用例
func NewRegisterUseCase(userService user.Service, logger *zap.Logger) *RegisterUseCase {
	return &RegisterUseCase{
		userService: userService,
		logger:      logger,
	}
}

// Execute 执行注册
// 返回应用层DTO，不返回领域实体
func (uc *RegisterUseCase) Execute(ctx context.Context, req RegisterRequest) (*UserInfo, error) {
	u, err := uc.userService.Register(ctx, req.Email, req.Password, req.Name, req.Phone)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("user registered", zap.String("user_id", u.ID))
	return toUserInfo(u), nil
}

// =========================================
// 应用层DTO（数据传输对象）
// =========================================

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email    string
	Password string
	Name     string
	Phone    string
}

// UserInfo 用户信息
// 说明：不返回密码字段
type UserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Role  string `json:"role"`
}

func toUserInfo(u *user.User) *UserInfo {
	return &UserInfo{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Phone: u.Phone,
		Role:  string(u.Role),
	}
}
