package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mirabelleagency/ChattersDashboard/internal/model"
)

// AuditFilter 审计日志筛选条件
type AuditFilter struct {
	UserID    *int64
	Entity    string
	Action    string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int
	Offset    int
}

// AuditRepository 审计日志数据访问接口（只追加）
type AuditRepository interface {
	Create(ctx context.Context, entry *model.AuditLog) error
	List(ctx context.Context, filter AuditFilter) ([]model.AuditLog, int64, error)
}

type auditRepo struct {
	db *gorm.DB
}

// NewAuditRepo 创建审计日志 Repository
func NewAuditRepo(db *gorm.DB) AuditRepository {
	return &auditRepo{db: db}
}

func (r *auditRepo) Create(ctx context.Context, entry *model.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditRepo) List(ctx context.Context, filter AuditFilter) ([]model.AuditLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.AuditLog{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Entity != "" {
		query = query.Where("entity = ?", filter.Entity)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.StartTime != nil {
		query = query.Where("occurred_at >= ?", *filter.StartTime)
	}
	if filter.EndTime != nil {
		query = query.Where("occurred_at <= ?", *filter.EndTime)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	var entries []model.AuditLog
	err := query.Order("occurred_at DESC, id DESC").
		Limit(filter.Limit).Offset(filter.Offset).
		Find(&entries).Error
	return entries, total, err
}
