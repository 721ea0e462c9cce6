package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mirabelleagency/ChattersDashboard/internal/model"
)

// OffenseFilter 违规记录筛选条件
type OffenseFilter struct {
	ChatterID *int64
	StartDate *time.Time
	EndDate   *time.Time
}

// OffenseRepository 违规记录数据访问接口
type OffenseRepository interface {
	Create(ctx context.Context, offense *model.Offense) error
	GetByID(ctx context.Context, id int64) (*model.Offense, error)
	List(ctx context.Context, filter OffenseFilter) ([]model.Offense, error)
	Update(ctx context.Context, offense *model.Offense) error
	Delete(ctx context.Context, id int64) error
}

type offenseRepo struct {
	db *gorm.DB
}

// NewOffenseRepo 创建违规记录 Repository
func NewOffenseRepo(db *gorm.DB) OffenseRepository {
	return &offenseRepo{db: db}
}

func (r *offenseRepo) Create(ctx context.Context, offense *model.Offense) error {
	return r.db.WithContext(ctx).Create(offense).Error
}

func (r *offenseRepo) GetByID(ctx context.Context, id int64) (*model.Offense, error) {
	var offense model.Offense
	err := r.db.WithContext(ctx).Preload("Chatter").
		Where("deleted_at IS NULL").First(&offense, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &offense, nil
}

func (r *offenseRepo) List(ctx context.Context, filter OffenseFilter) ([]model.Offense, error) {
	query := r.db.WithContext(ctx).Model(&model.Offense{}).Preload("Chatter").
		Where("deleted_at IS NULL")
	if filter.ChatterID != nil {
		query = query.Where("chatter_id = ?", *filter.ChatterID)
	}
	if filter.StartDate != nil {
		query = query.Where("offense_date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("offense_date <= ?", *filter.EndDate)
	}

	var offenses []model.Offense
	err := query.Order("offense_date DESC, id DESC").Find(&offenses).Error
	return offenses, err
}

func (r *offenseRepo) Update(ctx context.Context, offense *model.Offense) error {
	return r.db.WithContext(ctx).Save(offense).Error
}

func (r *offenseRepo) Delete(ctx context.Context, id int64) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&model.Offense{}).Where("id = ?", id).
		Update("deleted_at", now).Error
}
