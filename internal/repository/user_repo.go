package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mirabelleagency/ChattersDashboard/internal/model"
)

// UserRepository 后台用户与角色数据访问接口
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id int64) error
	// EnsureRole 按名称取角色，不存在则创建
	EnsureRole(ctx context.Context, name string) (*model.Role, error)
	// SetRoles 用给定角色集合整体替换用户现有角色
	SetRoles(ctx context.Context, user *model.User, roles []model.Role) error
	// CountActiveWithRole 统计拥有某角色且未被停用的用户数，excludeID 非零时排除该用户
	CountActiveWithRole(ctx context.Context, roleName string, excludeID int64) (int64, error)
}

type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建用户 Repository
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Preload("Roles").First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Preload("Roles").Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).Preload("Roles").Order("id").Find(&users).Error
	return users, err
}

func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Omit("Roles").Save(user).Error
}

func (r *userRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.User{}, id).Error
}

func (r *userRepo) EnsureRole(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error
	if err == nil {
		return &role, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	role = model.Role{Name: name}
	if err := r.db.WithContext(ctx).Create(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var existing model.Role
			if gerr := r.db.WithContext(ctx).Where("name = ?", name).First(&existing).Error; gerr == nil {
				return &existing, nil
			}
		}
		return nil, err
	}
	return &role, nil
}

func (r *userRepo) SetRoles(ctx context.Context, user *model.User, roles []model.Role) error {
	if err := r.db.WithContext(ctx).Model(user).Association("Roles").Replace(roles); err != nil {
		return err
	}
	user.Roles = roles
	return nil
}

func (r *userRepo) CountActiveWithRole(ctx context.Context, roleName string, excludeID int64) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&model.User{}).
		Joins("JOIN user_roles ur ON ur.user_id = users.id").
		Joins("JOIN roles ro ON ro.id = ur.role_id").
		Where("ro.name = ? AND users.is_active = TRUE", roleName)
	if excludeID != 0 {
		query = query.Where("users.id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count, err
}
