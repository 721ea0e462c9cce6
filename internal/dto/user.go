package dto

import (
	"time"

	"github.com/mirabelleagency/ChattersDashboard/internal/model"
)

// CreateUserRequest 创建后台用户请求
type CreateUserRequest struct {
	Email    string   `json:"email" binding:"required,email"`
	Password string   `json:"password" binding:"required,min=8"`
	FullName string   `json:"full_name"`
	Roles    []string `json:"roles"`
}

// UpdateUserRequest 更新后台用户请求，nil 字段不修改
type UpdateUserRequest struct {
	FullName *string   `json:"full_name"`
	Password *string   `json:"password" binding:"omitempty,min=8"`
	IsActive *bool     `json:"is_active"`
	Roles    *[]string `json:"roles"`
}

// ResetUserPasswordRequest 管理员重置用户密码请求
type ResetUserPasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// UserResponse 后台用户响应
type UserResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	IsActive  bool      `json:"is_active"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserResponse 从模型构造用户响应
func NewUserResponse(u *model.User) UserResponse {
	resp := UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		IsActive:  u.IsActive,
		Roles:     u.RoleNames(),
		CreatedAt: u.CreatedAt,
	}
	if u.FullName != nil {
		resp.FullName = *u.FullName
	}
	return resp
}
