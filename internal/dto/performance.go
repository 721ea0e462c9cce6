package dto

// UpsertPerformanceRequest 手工录入/修正某主播某日业绩。
// 已有行时非 nil 字段覆盖旧值，派生指标随之重算
type UpsertPerformanceRequest struct {
	ChatterID      int64    `json:"chatter_id" binding:"required"`
	ShiftDate      string   `json:"shift_date" binding:"required"`
	SalesAmount    *float64 `json:"sales_amount"`
	SoldCount      *int     `json:"sold_count"`
	RetentionCount *int     `json:"retention_count"`
	UnlockCount    *int     `json:"unlock_count"`
	TotalSales     *float64 `json:"total_sales"`
	SPH            *float64 `json:"sph"`
	ART            *string  `json:"art"`
	GoldenRatio    *float64 `json:"golden_ratio"`
	HingeTopUp     *float64 `json:"hinge_top_up"`
	TricksTSF      *float64 `json:"tricks_tsf"`
}

// ListPerformanceQuery 业绩列表查询参数
type ListPerformanceQuery struct {
	ChatterID *int64 `form:"chatter_id"`
	TeamID    *int64 `form:"team_id"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

// KPISummary 区间 KPI 汇总
type KPISummary struct {
	TotalSales     float64  `json:"total_sales"`
	TotalSold      int      `json:"total_sold"`
	TotalRetention int      `json:"total_retention"`
	TotalUnlock    int      `json:"total_unlock"`
	AvgSPH         *float64 `json:"avg_sph"`
	AvgGoldenRatio *float64 `json:"avg_golden_ratio"`
	AvgConversion  *float64 `json:"avg_conversion_rate"`
	AvgUnlockRatio *float64 `json:"avg_unlock_ratio"`
	ActiveChatters int      `json:"active_chatters"`
	RecordCount    int      `json:"record_count"`
}

// RankingsQuery 排名查询参数
type RankingsQuery struct {
	Metric    string `form:"metric" binding:"required"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	Limit     int    `form:"limit"`
}

// RankingEntry 排名条目
type RankingEntry struct {
	Rank        int     `json:"rank"`
	ChatterID   int64   `json:"chatter_id"`
	ChatterName string  `json:"chatter_name"`
	TeamName    string  `json:"team_name,omitempty"`
	Metric      string  `json:"metric"`
	Value       float64 `json:"value"`
}

// RebuildRankingsRequest 重建某日排名快照请求
type RebuildRankingsRequest struct {
	Date   string `json:"date" binding:"required"`
	Metric string `json:"metric" binding:"required"`
}
