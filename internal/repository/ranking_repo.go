package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mirabelleagency/ChattersDashboard/internal/model"
)

// RankingRepository 每日排名快照数据访问接口
type RankingRepository interface {
	// ReplaceForDateMetric 先清掉 (日期, 指标) 下的旧快照再整批写入新行
	ReplaceForDateMetric(ctx context.Context, date time.Time, metric string, rows []model.RankingDaily) error
	List(ctx context.Context, date time.Time, metric string) ([]model.RankingDaily, error)
}

type rankingRepo struct {
	db *gorm.DB
}

// NewRankingRepo 创建排名快照 Repository
func NewRankingRepo(db *gorm.DB) RankingRepository {
	return &rankingRepo{db: db}
}

func (r *rankingRepo) ReplaceForDateMetric(ctx context.Context, date time.Time, metric string, rows []model.RankingDaily) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("shift_date = ? AND metric = ?", date, metric).
		Delete(&model.RankingDaily{}).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	// 删除和写入之间撞唯一键时按新值覆盖
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "shift_date"}, {Name: "metric"}, {Name: "chatter_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rank", "metric_value"}),
	}).Create(&rows).Error
}

func (r *rankingRepo) List(ctx context.Context, date time.Time, metric string) ([]model.RankingDaily, error) {
	var rows []model.RankingDaily
	err := r.db.WithContext(ctx).Preload("Chatter").
		Where("shift_date = ? AND metric = ?", date, metric).
		Order("rank").Find(&rows).Error
	return rows, err
}
