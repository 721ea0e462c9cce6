package model

import "time"

// Shift 班次表 — 对应 shifts
// 导入语义上 (chatter_id, shift_date) 至多对应一条"当日班次"，
// 但底层未加唯一约束（历史数据存在重复，排查中由业务层去重）
type Shift struct {
	ID             int64      `gorm:"primaryKey"         json:"id"`
	ChatterID      int64      `gorm:"not null;index:ix_shifts_chatter_date" json:"chatter_id"`
	TeamID         *int64     `json:"team_id,omitempty"`
	ShiftDate      time.Time  `gorm:"type:date;not null;index:ix_shifts_chatter_date" json:"shift_date"`
	ShiftDay       *string    `gorm:"type:varchar(50)"   json:"shift_day,omitempty"`
	ScheduledStart *time.Time `json:"scheduled_start,omitempty"`
	ScheduledEnd   *time.Time `json:"scheduled_end,omitempty"`
	ActualStart    *time.Time `json:"actual_start,omitempty"`
	ActualEnd      *time.Time `json:"actual_end,omitempty"`
	ScheduledHours *float64   `gorm:"type:numeric(6,2)"  json:"scheduled_hours,omitempty"`
	ActualHours    *float64   `gorm:"type:numeric(6,2)"  json:"actual_hours,omitempty"`
	Remarks        *string    `gorm:"type:text"          json:"remarks,omitempty"`
	DeletedAt      *time.Time `gorm:"index"              json:"deleted_at,omitempty"`

	// 关联
	Chatter *Chatter `gorm:"foreignKey:ChatterID" json:"chatter,omitempty"`
	Team    *Team    `gorm:"foreignKey:TeamID"    json:"team,omitempty"`
}

// TableName 指定表名
func (Shift) TableName() string { return "shifts" }
