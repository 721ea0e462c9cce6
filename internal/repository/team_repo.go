package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mirabelleagency/ChattersDashboard/internal/model"
)

// TeamRepository 团队数据访问接口
type TeamRepository interface {
	Create(ctx context.Context, team *model.Team) error
	GetByID(ctx context.Context, id int64) (*model.Team, error)
	GetByName(ctx context.Context, name string) (*model.Team, error)
	// EnsureByName 按名称获取团队，不存在则创建，返回是否新建
	EnsureByName(ctx context.Context, name string) (*model.Team, bool, error)
	List(ctx context.Context) ([]model.Team, error)
	Delete(ctx context.Context, id int64) error
}

type teamRepo struct {
	db *gorm.DB
}

// NewTeamRepo 创建团队 Repository
func NewTeamRepo(db *gorm.DB) TeamRepository {
	return &teamRepo{db: db}
}

func (r *teamRepo) Create(ctx context.Context, team *model.Team) error {
	return r.db.WithContext(ctx).Create(team).Error
}

func (r *teamRepo) GetByID(ctx context.Context, id int64) (*model.Team, error) {
	var team model.Team
	err := r.db.WithContext(ctx).First(&team, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &team, nil
}

func (r *teamRepo) GetByName(ctx context.Context, name string) (*model.Team, error) {
	var team model.Team
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&team).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &team, nil
}

func (r *teamRepo) EnsureByName(ctx context.Context, name string) (*model.Team, bool, error) {
	team, err := r.GetByName(ctx, name)
	if err != nil {
		return nil, false, err
	}
	if team != nil {
		return team, false, nil
	}
	team = &model.Team{Name: name}
	if err := r.Create(ctx, team); err != nil {
		// 并发创建撞唯一键时读回已有行
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
	return team, true, nil
}

func (r *teamRepo) List(ctx context.Context) ([]model.Team, error) {
	var teams []model.Team
	err := r.db.WithContext(ctx).Order("name").Find(&teams).Error
	return teams, err
}

func (r *teamRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Team{}, id).Error
}
