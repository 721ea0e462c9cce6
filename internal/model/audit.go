package model

import "time"

// AuditLog 审计日志表 — 对应 audit_logs（只追加，不修改）
type AuditLog struct {
	ID         int64     `gorm:"primaryKey"                        json:"id"`
	OccurredAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"occurred_at"`
	UserID     *int64    `json:"user_id,omitempty"`
	Action     string    `gorm:"type:text;not null" json:"action"`
	Entity     string    `gorm:"type:text;not null" json:"entity"`
	EntityID   *string   `gorm:"type:text"          json:"entity_id,omitempty"`
	BeforeJSON JSONMap   `gorm:"type:jsonb"         json:"before_json,omitempty"`
	AfterJSON  JSONMap   `gorm:"type:jsonb"         json:"after_json,omitempty"`
	IP         *string   `gorm:"type:varchar(100)"  json:"ip,omitempty"`
	UserAgent  *string   `gorm:"type:text"          json:"user_agent,omitempty"`

	// 关联
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (AuditLog) TableName() string { return "audit_logs" }
