package model

import "time"

// RankingDaily 每日排名快照表 — 对应 rankings_daily
// 由重建操作按 (日期, 指标) 批量生成，唯一键 (shift_date, metric, chatter_id)
type RankingDaily struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	ShiftDate   time.Time `gorm:"type:date;not null;uniqueIndex:uq_ranking_date_metric_chatter" json:"shift_date"`
	Metric      string    `gorm:"type:varchar(50);not null;uniqueIndex:uq_ranking_date_metric_chatter" json:"metric"`
	ChatterID   int64     `gorm:"not null;uniqueIndex:uq_ranking_date_metric_chatter" json:"chatter_id"`
	Rank        int       `gorm:"not null" json:"rank"`
	MetricValue float64   `gorm:"type:numeric(14,4);not null" json:"metric_value"`
	CreatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	// 关联
	Chatter *Chatter `gorm:"foreignKey:ChatterID" json:"chatter,omitempty"`
}

// TableName 指定表名
func (RankingDaily) TableName() string { return "rankings_daily" }
