package dto

// ReportConfig 报表运行配置。DatePreset 非空时覆盖显式起止日期，
// 取值 today / last7 / last30 / this_month / last_month
type ReportConfig struct {
	StartDate  string   `json:"start_date"`
	EndDate    string   `json:"end_date"`
	DatePreset string   `json:"date_preset"`
	GroupBy    string   `json:"group_by"`
	ChatterIDs []int64  `json:"chatter_ids"`
	TeamIDs    []int64  `json:"team_ids"`
	Metrics    []string `json:"metrics"`
}

// RunReportRequest 运行报表请求
type RunReportRequest struct {
	Config ReportConfig `json:"config" binding:"required"`
}

// ReportRow 报表结果行，Values 的键为请求的指标名
type ReportRow struct {
	GroupKey  string             `json:"group_key"`
	GroupName string             `json:"group_name"`
	Values    map[string]float64 `json:"values"`
}

// ReportResult 报表运行结果
type ReportResult struct {
	StartDate string      `json:"start_date"`
	EndDate   string      `json:"end_date"`
	GroupBy   string      `json:"group_by"`
	Rows      []ReportRow `json:"rows"`
}

// SaveReportRequest 保存报表配置请求
type SaveReportRequest struct {
	Name        string       `json:"name" binding:"required"`
	Description string       `json:"description"`
	IsPublic    bool         `json:"is_public"`
	Config      ReportConfig `json:"config" binding:"required"`
}
