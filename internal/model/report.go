package model

import "time"

// SavedReport 保存的报表配置表 — 对应 saved_reports
type SavedReport struct {
	ID          int64     `gorm:"primaryKey"             json:"id"`
	OwnerUserID *int64    `json:"owner_user_id,omitempty"`
	Name        string    `gorm:"type:text;not null"     json:"name"`
	Description *string   `gorm:"type:text"              json:"description,omitempty"`
	ConfigJSON  JSONMap   `gorm:"type:jsonb;not null"    json:"config_json"`
	IsPublic    bool      `gorm:"not null;default:false" json:"is_public"`
	CreatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName 指定表名
func (SavedReport) TableName() string { return "saved_reports" }
