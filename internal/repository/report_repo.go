package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mirabelleagency/ChattersDashboard/internal/model"
)

// ReportRepository 保存的报表配置数据访问接口
type ReportRepository interface {
	Create(ctx context.Context, report *model.SavedReport) error
	GetByID(ctx context.Context, id int64) (*model.SavedReport, error)
	// ListVisible 返回公开报表与指定用户自己的报表
	ListVisible(ctx context.Context, userID int64) ([]model.SavedReport, error)
	Delete(ctx context.Context, id int64) error
}

type reportRepo struct {
	db *gorm.DB
}

// NewReportRepo 创建报表配置 Repository
func NewReportRepo(db *gorm.DB) ReportRepository {
	return &reportRepo{db: db}
}

func (r *reportRepo) Create(ctx context.Context, report *model.SavedReport) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *reportRepo) GetByID(ctx context.Context, id int64) (*model.SavedReport, error) {
	var report model.SavedReport
	err := r.db.WithContext(ctx).First(&report, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &report, nil
}

func (r *reportRepo) ListVisible(ctx context.Context, userID int64) ([]model.SavedReport, error) {
	var reports []model.SavedReport
	err := r.db.WithContext(ctx).
		Where("is_public = TRUE OR owner_user_id = ?", userID).
		Order("created_at DESC").Find(&reports).Error
	return reports, err
}

func (r *reportRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.SavedReport{}, id).Error
}
