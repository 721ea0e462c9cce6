package dto

// CreateOffenseRequest 创建违规记录请求
type CreateOffenseRequest struct {
	ChatterID   int64  `json:"chatter_id" binding:"required"`
	OffenseType string `json:"offense_type"`
	Offense     string `json:"offense"`
	OffenseDate string `json:"offense_date"`
	Details     string `json:"details"`
	Sanction    string `json:"sanction"`
}

// UpdateOffenseRequest 更新违规记录请求，nil 字段不修改
type UpdateOffenseRequest struct {
	OffenseType *string `json:"offense_type"`
	Offense     *string `json:"offense"`
	OffenseDate *string `json:"offense_date"`
	Details     *string `json:"details"`
	Sanction    *string `json:"sanction"`
}

// ListOffensesQuery 违规记录查询参数
type ListOffensesQuery struct {
	ChatterID *int64 `form:"chatter_id"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}
