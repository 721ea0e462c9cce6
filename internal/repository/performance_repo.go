package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mirabelleagency/ChattersDashboard/internal/model"
)

// PerformanceFilter 业绩列表筛选条件
type PerformanceFilter struct {
	ChatterID *int64
	TeamID    *int64
	StartDate *time.Time
	EndDate   *time.Time
}

// PerformanceRepository 每日业绩数据访问接口
type PerformanceRepository interface {
	Create(ctx context.Context, perf *model.PerformanceDaily) error
	GetByID(ctx context.Context, id int64) (*model.PerformanceDaily, error)
	// GetByChatterDate 取指定主播指定日期的业绩行，不存在返回 nil
	GetByChatterDate(ctx context.Context, chatterID int64, date time.Time) (*model.PerformanceDaily, error)
	List(ctx context.Context, filter PerformanceFilter) ([]model.PerformanceDaily, error)
	Update(ctx context.Context, perf *model.PerformanceDaily) error
	Delete(ctx context.Context, id int64) error
}

type performanceRepo struct {
	db *gorm.DB
}

// NewPerformanceRepo 创建业绩 Repository
func NewPerformanceRepo(db *gorm.DB) PerformanceRepository {
	return &performanceRepo{db: db}
}

func (r *performanceRepo) Create(ctx context.Context, perf *model.PerformanceDaily) error {
	return r.db.WithContext(ctx).Create(perf).Error
}

func (r *performanceRepo) GetByID(ctx context.Context, id int64) (*model.PerformanceDaily, error) {
	var perf model.PerformanceDaily
	err := r.db.WithContext(ctx).Preload("Chatter").Preload("Chatter.Team").First(&perf, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &perf, nil
}

func (r *performanceRepo) GetByChatterDate(ctx context.Context, chatterID int64, date time.Time) (*model.PerformanceDaily, error) {
	var perf model.PerformanceDaily
	err := r.db.WithContext(ctx).
		Where("chatter_id = ? AND shift_date = ?", chatterID, date).
		First(&perf).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &perf, nil
}

func (r *performanceRepo) List(ctx context.Context, filter PerformanceFilter) ([]model.PerformanceDaily, error) {
	query := r.db.WithContext(ctx).Model(&model.PerformanceDaily{}).
		Preload("Chatter").Preload("Chatter.Team").
		Where("performance_daily.deleted_at IS NULL")
	if filter.ChatterID != nil {
		query = query.Where("chatter_id = ?", *filter.ChatterID)
	}
	if filter.TeamID != nil {
		query = query.Where("chatter_id IN (?)",
			r.db.Model(&model.Chatter{}).Select("id").Where("team_id = ?", *filter.TeamID))
	}
	if filter.StartDate != nil {
		query = query.Where("shift_date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("shift_date <= ?", *filter.EndDate)
	}

	var perfs []model.PerformanceDaily
	err := query.Order("shift_date DESC, chatter_id").Find(&perfs).Error
	return perfs, err
}

func (r *performanceRepo) Update(ctx context.Context, perf *model.PerformanceDaily) error {
	return r.db.WithContext(ctx).Save(perf).Error
}

func (r *performanceRepo) Delete(ctx context.Context, id int64) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&model.PerformanceDaily{}).Where("id = ?", id).
		Update("deleted_at", now).Error
}
