package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mirabelleagency/ChattersDashboard/internal/model"
)

// ShiftFilter 班次列表筛选条件
type ShiftFilter struct {
	ChatterID *int64
	StartDate *time.Time
	EndDate   *time.Time
}

// ShiftRepository 班次数据访问接口
type ShiftRepository interface {
	Create(ctx context.Context, shift *model.Shift) error
	GetByID(ctx context.Context, id int64) (*model.Shift, error)
	// GetByChatterDate 取指定主播指定日期的未删除班次，不存在返回 nil
	GetByChatterDate(ctx context.Context, chatterID int64, date time.Time) (*model.Shift, error)
	List(ctx context.Context, filter ShiftFilter) ([]model.Shift, error)
	Update(ctx context.Context, shift *model.Shift) error
	SoftDelete(ctx context.Context, id int64) error
	HardDelete(ctx context.Context, id int64) error
}

type shiftRepo struct {
	db *gorm.DB
}

// NewShiftRepo 创建班次 Repository
func NewShiftRepo(db *gorm.DB) ShiftRepository {
	return &shiftRepo{db: db}
}

func (r *shiftRepo) Create(ctx context.Context, shift *model.Shift) error {
	return r.db.WithContext(ctx).Create(shift).Error
}

func (r *shiftRepo) GetByID(ctx context.Context, id int64) (*model.Shift, error) {
	var shift model.Shift
	err := r.db.WithContext(ctx).First(&shift, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shift, nil
}

func (r *shiftRepo) GetByChatterDate(ctx context.Context, chatterID int64, date time.Time) (*model.Shift, error) {
	var shift model.Shift
	err := r.db.WithContext(ctx).
		Where("chatter_id = ? AND shift_date = ? AND deleted_at IS NULL", chatterID, date).
		First(&shift).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shift, nil
}

func (r *shiftRepo) List(ctx context.Context, filter ShiftFilter) ([]model.Shift, error) {
	query := r.db.WithContext(ctx).Model(&model.Shift{}).Where("deleted_at IS NULL")
	if filter.ChatterID != nil {
		query = query.Where("chatter_id = ?", *filter.ChatterID)
	}
	if filter.StartDate != nil {
		query = query.Where("shift_date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("shift_date <= ?", *filter.EndDate)
	}

	var shifts []model.Shift
	err := query.Order("shift_date DESC, chatter_id").Find(&shifts).Error
	return shifts, err
}

func (r *shiftRepo) Update(ctx context.Context, shift *model.Shift) error {
	return r.db.WithContext(ctx).Save(shift).Error
}

func (r *shiftRepo) SoftDelete(ctx context.Context, id int64) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&model.Shift{}).Where("id = ?", id).
		Update("deleted_at", now).Error
}

func (r *shiftRepo) HardDelete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Shift{}, id).Error
}
