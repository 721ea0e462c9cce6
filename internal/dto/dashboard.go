package dto

// DashboardQuery 看板快照查询参数
type DashboardQuery struct {
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	TeamID    *int64 `form:"team_id"`
}

// DashboardRow 看板快照行：聚合结果与覆盖行合并后的展示形态
type DashboardRow struct {
	ChatterName string   `json:"chatter_name"`
	TeamName    string   `json:"team_name,omitempty"`
	TotalSales  float64  `json:"total_sales"`
	WorkedHours float64  `json:"worked_hours"`
	StartDate   string   `json:"start_date,omitempty"`
	EndDate     string   `json:"end_date,omitempty"`
	SPH         *float64 `json:"sph"`
	ART         string   `json:"art,omitempty"`
	GR          *float64 `json:"gr"`
	UR          *float64 `json:"ur"`
	Ranking     int      `json:"ranking"`
	Shift       string   `json:"shift,omitempty"`
	Overridden  bool     `json:"overridden"`
	OverrideID  *int64   `json:"override_id,omitempty"`
}

// DashboardSnapshot 看板快照响应
type DashboardSnapshot struct {
	Rows       []DashboardRow     `json:"rows"`
	Thresholds ThresholdsResponse `json:"thresholds"`
}

// UpsertDashboardMetricRequest 创建/更新看板覆盖行请求
type UpsertDashboardMetricRequest struct {
	ChatterName string   `json:"chatter_name" binding:"required"`
	TotalSales  *float64 `json:"total_sales"`
	WorkedHours *float64 `json:"worked_hours"`
	StartDate   *string  `json:"start_date"`
	EndDate     *string  `json:"end_date"`
	SPH         *float64 `json:"sph"`
	ART         *string  `json:"art"`
	GR          *float64 `json:"gr"`
	UR          *float64 `json:"ur"`
	Ranking     *int     `json:"ranking"`
	Shift       *string  `json:"shift"`
}

// ThresholdsResponse 看板阈值响应
type ThresholdsResponse struct {
	ExcellentMin float64 `json:"excellent_min"`
	ReviewMax    float64 `json:"review_max"`
}

// UpdateThresholdsRequest 更新看板阈值请求，需满足 review_max < excellent_min
type UpdateThresholdsRequest struct {
	ExcellentMin float64 `json:"excellent_min" binding:"required,gt=0"`
	ReviewMax    float64 `json:"review_max" binding:"required,gte=0"`
}
