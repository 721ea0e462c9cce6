package dto

// CreateChatterRequest 创建主播请求，TeamName 非空时按需创建团队
type CreateChatterRequest struct {
	Name     string `json:"name" binding:"required"`
	TeamName string `json:"team_name"`
	Handle   string `json:"handle"`
	Email    string `json:"email" binding:"omitempty,email"`
	Phone    string `json:"phone"`
	IsActive *bool  `json:"is_active"`
}

// UpdateChatterRequest 更新主播请求，nil 字段不修改
type UpdateChatterRequest struct {
	Name     *string `json:"name"`
	TeamName *string `json:"team_name"`
	Handle   *string `json:"handle"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Phone    *string `json:"phone"`
	IsActive *bool   `json:"is_active"`
}

// ListChattersQuery 主播列表查询参数
type ListChattersQuery struct {
	TeamID         *int64 `form:"team_id"`
	IsActive       *bool  `form:"is_active"`
	IncludeDeleted bool   `form:"include_deleted"`
	Keyword        string `form:"keyword"`
}
