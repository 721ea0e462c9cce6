package model

import "time"

// Chatter 主播（销售客服）表 — 对应 chatters
// 名称是导入去重的自然键：仅做 trim 后的精确匹配
type Chatter struct {
	ID         int64      `gorm:"primaryKey"                 json:"id"`
	ExternalID *string    `gorm:"type:varchar(255)"          json:"external_id,omitempty"`
	Name       string     `gorm:"type:varchar(255);not null" json:"name"`
	Handle     *string    `gorm:"type:varchar(255)"          json:"handle,omitempty"`
	Email      *string    `gorm:"type:varchar(255)"          json:"email,omitempty"`
	Phone      *string    `gorm:"type:varchar(50)"           json:"phone,omitempty"`
	TeamID     *int64     `json:"team_id,omitempty"`
	IsActive   bool       `gorm:"not null;default:true"      json:"is_active"`
	HiredAt    *time.Time `json:"hired_at,omitempty"`
	LeftAt     *time.Time `json:"left_at,omitempty"`
	DeletedAt  *time.Time `gorm:"index"                      json:"deleted_at,omitempty"`

	// 关联
	Team *Team `gorm:"foreignKey:TeamID" json:"team,omitempty"`
}

// TableName 指定表名
func (Chatter) TableName() string { return "chatters" }
