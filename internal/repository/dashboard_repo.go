package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mirabelleagency/ChattersDashboard/internal/model"
)

// 阈值单例的默认值，首次读取时落库
const (
	defaultExcellentMin = 100
	defaultReviewMax    = 40
)

// DashboardRepository 看板覆盖行与阈值单例数据访问接口
type DashboardRepository interface {
	CreateMetric(ctx context.Context, metric *model.DashboardMetric) error
	GetMetric(ctx context.Context, id int64) (*model.DashboardMetric, error)
	ListMetrics(ctx context.Context) ([]model.DashboardMetric, error)
	// ListOverlapping 返回与 [start, end] 区间有交集的覆盖行，
	// 无日期的覆盖行视为覆盖任意区间
	ListOverlapping(ctx context.Context, start, end *time.Time) ([]model.DashboardMetric, error)
	UpdateMetric(ctx context.Context, metric *model.DashboardMetric) error
	DeleteMetric(ctx context.Context, id int64) error
	// GetThresholds 读取 id=1 的阈值单例，不存在则按默认值创建
	GetThresholds(ctx context.Context) (*model.DashboardThresholds, error)
	SaveThresholds(ctx context.Context, t *model.DashboardThresholds) error
}

type dashboardRepo struct {
	db *gorm.DB
}

// NewDashboardRepo 创建看板 Repository
func NewDashboardRepo(db *gorm.DB) DashboardRepository {
	return &dashboardRepo{db: db}
}

func (r *dashboardRepo) CreateMetric(ctx context.Context, metric *model.DashboardMetric) error {
	return r.db.WithContext(ctx).Create(metric).Error
}

func (r *dashboardRepo) GetMetric(ctx context.Context, id int64) (*model.DashboardMetric, error) {
	var metric model.DashboardMetric
	err := r.db.WithContext(ctx).First(&metric, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &metric, nil
}

func (r *dashboardRepo) ListMetrics(ctx context.Context) ([]model.DashboardMetric, error) {
	var metrics []model.DashboardMetric
	err := r.db.WithContext(ctx).Order("chatter_name").Find(&metrics).Error
	return metrics, err
}

func (r *dashboardRepo) ListOverlapping(ctx context.Context, start, end *time.Time) ([]model.DashboardMetric, error) {
	query := r.db.WithContext(ctx).Model(&model.DashboardMetric{})
	if start != nil {
		query = query.Where("end_date IS NULL OR end_date >= ?", *start)
	}
	if end != nil {
		query = query.Where("start_date IS NULL OR start_date <= ?", *end)
	}

	var metrics []model.DashboardMetric
	err := query.Order("updated_at DESC, id DESC").Find(&metrics).Error
	return metrics, err
}

func (r *dashboardRepo) UpdateMetric(ctx context.Context, metric *model.DashboardMetric) error {
	metric.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(metric).Error
}

func (r *dashboardRepo) DeleteMetric(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.DashboardMetric{}, id).Error
}

func (r *dashboardRepo) GetThresholds(ctx context.Context) (*model.DashboardThresholds, error) {
	var t model.DashboardThresholds
	err := r.db.WithContext(ctx).First(&t, 1).Error
	if err == nil {
		return &t, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	t = model.DashboardThresholds{ID: 1, ExcellentMin: defaultExcellentMin, ReviewMax: defaultReviewMax}
	if err := r.db.WithContext(ctx).Create(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var existing model.DashboardThresholds
			if gerr := r.db.WithContext(ctx).First(&existing, 1).Error; gerr == nil {
				return &existing, nil
			}
		}
		return nil, err
	}
	return &t, nil
}

func (r *dashboardRepo) SaveThresholds(ctx context.Context, t *model.DashboardThresholds) error {
	t.ID = 1
	return r.db.WithContext(ctx).Save(t).Error
}
