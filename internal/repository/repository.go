package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	Team         TeamRepository
	Chatter      ChatterRepository
	Shift        ShiftRepository
	Performance  PerformanceRepository
	Offense      OffenseRepository
	Ranking      RankingRepository
	User         UserRepository
	RefreshToken RefreshTokenRepository
	Audit        AuditRepository
	Report       ReportRepository
	Dashboard    DashboardRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:           db,
		Team:         NewTeamRepo(db),
		Chatter:      NewChatterRepo(db),
		Shift:        NewShiftRepo(db),
		Performance:  NewPerformanceRepo(db),
		Offense:      NewOffenseRepo(db),
		Ranking:      NewRankingRepo(db),
		User:         NewUserRepo(db),
		RefreshToken: NewRefreshTokenRepo(db),
		Audit:        NewAuditRepo(db),
		Report:       NewReportRepo(db),
		Dashboard:    NewDashboardRepo(db),
	}
}

// Transaction 在单个数据库事务中执行 fn。
// fn 收到的是绑定在事务连接上的 Repository：fn 返回错误即整体回滚，
// 导入流水线依赖这一点保证"整个文件要么全部可见要么全部不可见"。
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	if r.db == nil {
		// 测试中以 mock 聚合直接调用，无真实事务可开
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
