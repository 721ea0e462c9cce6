package model

import "time"

// PerformanceDaily 每日业绩表 — 对应 performance_daily
// 唯一约束 (chatter_id, shift_date) 是存储层为核心逻辑兜底的唯一硬不变量
type PerformanceDaily struct {
	ID             int64      `gorm:"primaryKey"          json:"id"`
	ChatterID      int64      `gorm:"not null;uniqueIndex:uq_perf_chatter_date" json:"chatter_id"`
	TeamID         *int64     `json:"team_id,omitempty"`
	ShiftDate      time.Time  `gorm:"type:date;not null;uniqueIndex:uq_perf_chatter_date" json:"shift_date"`
	SalesAmount    *float64   `gorm:"type:numeric(12,2)"  json:"sales_amount,omitempty"`
	SoldCount      *int       `json:"sold_count,omitempty"`
	RetentionCount *int       `json:"retention_count,omitempty"`
	UnlockCount    *int       `json:"unlock_count,omitempty"`
	TotalSales     *float64   `gorm:"type:numeric(12,2)"  json:"total_sales,omitempty"`
	SPH            *float64   `gorm:"type:numeric(10,2);column:sph" json:"sph,omitempty"`
	ARTSeconds     *Seconds   `gorm:"column:art_seconds"  json:"art_seconds,omitempty"`
	GoldenRatio    *float64   `gorm:"type:numeric(10,4)"  json:"golden_ratio,omitempty"`
	HingeTopUp     *float64   `gorm:"type:numeric(12,2)"  json:"hinge_top_up,omitempty"`
	TricksTSF      *float64   `gorm:"type:numeric(12,2);column:tricks_tsf" json:"tricks_tsf,omitempty"`
	ConversionRate *float64   `gorm:"type:numeric(10,4)"  json:"conversion_rate,omitempty"`
	UnlockRatio    *float64   `gorm:"type:numeric(10,4)"  json:"unlock_ratio,omitempty"`
	CreatedAt      time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt      *time.Time `gorm:"index"               json:"deleted_at,omitempty"`

	// 关联
	Chatter *Chatter `gorm:"foreignKey:ChatterID" json:"chatter,omitempty"`
	Team    *Team    `gorm:"foreignKey:TeamID"    json:"team,omitempty"`
}

// TableName 指定表名
func (PerformanceDaily) TableName() string { return "performance_daily" }
