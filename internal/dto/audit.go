package dto

// ListAuditQuery 审计日志查询参数
type ListAuditQuery struct {
	UserID    *int64 `form:"user_id"`
	Entity    string `form:"entity"`
	Action    string `form:"action"`
	StartTime string `form:"start_time"`
	EndTime   string `form:"end_time"`
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
}
