package dto

// RegisterRequest HTTP层注册请求
// 说明：HTTP层的DTO，包含参数验证tag；密码强度等业务规则由领域服务校验
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email" example:"alice@example.com"`
	Password string `json:"password" binding:"required,min=8,max=20" example:"password123"`
	Name     string `json:"name" binding:"required,min=2,max=50" example:"Alice"`
	Phone    string `json:"phone" binding:"omitempty,max=30" example:"555-0100"`
}

// LoginRequest HTTP层登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"alice@example.com"`
	Password string `json:"password" binding:"required" example:"password123"`
}

// UserResponse 用户响应（不包含密码）
type UserResponse struct {
	ID    string `json:"id" example:"5b0c3f0e-8a4e-4d0f-9d6b-8c1f2a3b4c5d"`
	Email string `json:"email" example:"alice@example.com"`
	Name  string `json:"name" example:"Alice"`
	Phone string `json:"phone,omitempty" example:"555-0100"`
	Role  string `json:"role" example:"customer"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in" example:"7200"` // Access Token过期时间（秒）
}
