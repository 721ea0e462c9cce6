package model

import "time"

// DashboardMetric 看板覆盖行 — 对应 dashboard_metrics
// 按 chatter_name 字符串与计算快照匹配，不走外键：
// 主播改名后覆盖行会静默失联，这是有意的取舍
type DashboardMetric struct {
	ID          int64      `gorm:"primaryKey"                 json:"id"`
	ChatterName string     `gorm:"type:varchar(255);not null" json:"chatter_name"`
	TotalSales  *float64   `gorm:"type:numeric(12,2)"         json:"total_sales,omitempty"`
	WorkedHours *float64   `gorm:"type:numeric(10,2)"         json:"worked_hours,omitempty"`
	StartDate   *time.Time `gorm:"type:date"                  json:"start_date,omitempty"`
	EndDate     *time.Time `gorm:"type:date"                  json:"end_date,omitempty"`
	SPH         *float64   `gorm:"type:numeric(10,2);column:sph" json:"sph,omitempty"`
	ART         *string    `gorm:"type:varchar(50);column:art" json:"art,omitempty"`
	GR          *float64   `gorm:"type:numeric(10,2);column:gr" json:"gr,omitempty"`
	UR          *float64   `gorm:"type:numeric(10,2);column:ur" json:"ur,omitempty"`
	Ranking     *int       `json:"ranking,omitempty"`
	Shift       *string    `gorm:"type:varchar(100)"          json:"shift,omitempty"`
	CreatedAt   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName 指定表名
func (DashboardMetric) TableName() string { return "dashboard_metrics" }

// DashboardThresholds 看板阈值单例 — 对应 dashboard_thresholds（id 固定为 1）
// 首次读取时按默认值懒创建
type DashboardThresholds struct {
	ID           int64   `gorm:"primaryKey"                  json:"id"`
	ExcellentMin float64 `gorm:"type:numeric(12,2);not null" json:"excellent_min"`
	ReviewMax    float64 `gorm:"type:numeric(12,2);not null" json:"review_max"`
}

// TableName 指定表名
func (DashboardThresholds) TableName() string { return "dashboard_thresholds" }
