package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mirabelleagency/ChattersDashboard/internal/model"
)

// ChatterFilter 主播列表筛选条件
type ChatterFilter struct {
	TeamID         *int64
	IsActive       *bool
	IncludeDeleted bool
	Keyword        string
}

// ChatterRepository 主播数据访问接口
type ChatterRepository interface {
	Create(ctx context.Context, chatter *model.Chatter) error
	GetByID(ctx context.Context, id int64) (*model.Chatter, error)
	GetByName(ctx context.Context, name string) (*model.Chatter, error)
	// EnsureByName 按名称获取主播，不存在则创建，返回是否新建
	EnsureByName(ctx context.Context, name string, teamID *int64) (*model.Chatter, bool, error)
	List(ctx context.Context, filter ChatterFilter) ([]model.Chatter, error)
	Update(ctx context.Context, chatter *model.Chatter) error
	SoftDelete(ctx context.Context, id int64) error
	HardDelete(ctx context.Context, id int64) error
}

type chatterRepo struct {
	db *gorm.DB
}

// NewChatterRepo 创建主播 Repository
func NewChatterRepo(db *gorm.DB) ChatterRepository {
	return &chatterRepo{db: db}
}

func (r *chatterRepo) Create(ctx context.Context, chatter *model.Chatter) error {
	return r.db.WithContext(ctx).Create(chatter).Error
}

func (r *chatterRepo) GetByID(ctx context.Context, id int64) (*model.Chatter, error) {
	var chatter model.Chatter
	err := r.db.WithContext(ctx).Preload("Team").First(&chatter, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &chatter, nil
}

func (r *chatterRepo) GetByName(ctx context.Context, name string) (*model.Chatter, error) {
	var chatter model.Chatter
	err := r.db.WithContext(ctx).Where("name = ? AND deleted_at IS NULL", name).First(&chatter).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &chatter, nil
}

func (r *chatterRepo) EnsureByName(ctx context.Context, name string, teamID *int64) (*model.Chatter, bool, error) {
	chatter, err := r.GetByName(ctx, name)
	if err != nil {
		return nil, false, err
	}
	if chatter != nil {
		// 本次给出团队且与现归属不同时改挂新团队
		if teamID != nil && (chatter.TeamID == nil || *chatter.TeamID != *teamID) {
			chatter.TeamID = teamID
			if err := r.Update(ctx, chatter); err != nil {
				return nil, false, err
			}
		}
		return chatter, false, nil
	}
	chatter = &model.Chatter{Name: name, TeamID: teamID, IsActive: true}
	if err := r.Create(ctx, chatter); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			existing, gerr := r.GetByName(ctx, name)
			if gerr != nil {
				return nil, false, gerr
			}
			if existing != nil {
				return existing, false, nil
			}
		}
		return nil, false, err
	}
	return chatter, true, nil
}

func (r *chatterRepo) List(ctx context.Context, filter ChatterFilter) ([]model.Chatter, error) {
	query := r.db.WithContext(ctx).Model(&model.Chatter{}).Preload("Team")
	if !filter.IncludeDeleted {
		query = query.Where("deleted_at IS NULL")
	}
	if filter.TeamID != nil {
		query = query.Where("team_id = ?", *filter.TeamID)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Keyword != "" {
		query = query.Where("name ILIKE ?", "%"+filter.Keyword+"%")
	}

	var chatters []model.Chatter
	err := query.Order("name").Find(&chatters).Error
	return chatters, err
}

func (r *chatterRepo) Update(ctx context.Context, chatter *model.Chatter) error {
	return r.db.WithContext(ctx).Save(chatter).Error
}

func (r *chatterRepo) SoftDelete(ctx context.Context, id int64) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&model.Chatter{}).Where("id = ?", id).
		Updates(map[string]interface{}{"deleted_at": now, "is_active": false}).Error
}

func (r *chatterRepo) HardDelete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Chatter{}, id).Error
}
