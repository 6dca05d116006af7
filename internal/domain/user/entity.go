package user

import (
	"time"

	"github.com/google/uuid"
)

// Role 用户角色
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// User 用户实体（聚合根）
// DDD设计说明：
// 1. 密码已加密存储（bcrypt），不提供任何暴露明文的方法
// 2. 领域实体不依赖GORM tag（infrastructure层的Repository实现时会处理映射）
type User struct {
	ID        string
	Email     string
	Password  string // bcrypt哈希值
	Name      string
	Phone     string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser 创建新用户（工厂方法）
// hashedPassword必须是bcrypt加密后的密码，新用户默认为customer
func NewUser(email, hashedPassword, name, phone string) *User {
	now := time.Now()
	return &User{
		ID:        uuid.NewString(),
		Email:     email,
		Password:  hashedPassword,
		Name:      name,
		Phone:     phone,
		Role:      RoleCustomer,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsAdmin 是否为管理员
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Summary 买家摘要（订单详情中展示）
type Summary struct {
	ID    string
	Name  string
	Email string
}

// Summary 返回买家摘要
func (u *User) Summary() Summary {
	return Summary{ID: u.ID, Name: u.Name, Email: u.Email}
}
