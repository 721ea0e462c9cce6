package model

// Team 团队表 — 对应 teams
// 导入或编辑主播时按名称按需创建
type Team struct {
	ID   int64  `gorm:"primaryKey"                        json:"id"`
	Name string `gorm:"type:varchar(255);not null;unique" json:"name"`
}

// TableName 指定表名
func (Team) TableName() string { return "teams" }
