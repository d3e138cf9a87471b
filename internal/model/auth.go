package model

import "time"

// Role 表示后端返回的账号角色。
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User 是后端 /auth/me 返回的账号信息，客户端只读。
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// DisplayName 优先返回用户名，没有时回退到邮箱。
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// IsAdmin reports whether the account may use the dashboard.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// LoginCredentials 登录表单。
type LoginCredentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterCredentials 注册表单，用户名可选。
type RegisterCredentials struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username,omitempty" validate:"omitempty,min=3,max=64"`
	Password string `json:"password" validate:"required,min=6"`
}

// AuthResponse 是登录/注册成功后后端返回的载荷。
type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}
