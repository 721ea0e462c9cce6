package model

import "time"

// Offense 违规记录表 — 对应 offenses
type Offense struct {
	ID          int64      `gorm:"primaryKey"        json:"id"`
	ChatterID   int64      `gorm:"not null"          json:"chatter_id"`
	OffenseType *string    `gorm:"type:varchar(100)" json:"offense_type,omitempty"`
	Offense     *string    `gorm:"type:text"         json:"offense,omitempty"`
	OffenseDate *time.Time `gorm:"type:date"         json:"offense_date,omitempty"`
	Details     *string    `gorm:"type:text"         json:"details,omitempty"`
	Sanction    *string    `gorm:"type:text"         json:"sanction,omitempty"`
	DeletedAt   *time.Time `gorm:"index"             json:"deleted_at,omitempty"`

	// 关联
	Chatter *Chatter `gorm:"foreignKey:ChatterID" json:"chatter,omitempty"`
}

// TableName 指定表名
func (Offense) TableName() string { return "offenses" }
