package dto

// CreateShiftRequest 创建班次请求
type CreateShiftRequest struct {
	ChatterID      int64    `json:"chatter_id" binding:"required"`
	ShiftDate      string   `json:"shift_date" binding:"required"`
	ShiftDay       string   `json:"shift_day"`
	ScheduledHours *float64 `json:"scheduled_hours"`
	ActualHours    *float64 `json:"actual_hours"`
	Remarks        string   `json:"remarks"`
}

// UpdateShiftRequest 更新班次请求，nil 字段不修改
type UpdateShiftRequest struct {
	ShiftDay       *string  `json:"shift_day"`
	ScheduledHours *float64 `json:"scheduled_hours"`
	ActualHours    *float64 `json:"actual_hours"`
	Remarks        *string  `json:"remarks"`
}

// ListShiftsQuery 班次列表查询参数
type ListShiftsQuery struct {
	ChatterID *int64 `form:"chatter_id"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}
