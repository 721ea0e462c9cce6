package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mirabelleagency/ChattersDashboard/internal/dto"
	"github.com/mirabelleagency/ChattersDashboard/internal/model"
	"github.com/mirabelleagency/ChattersDashboard/internal/repository"
)

// ── 用户管理模块业务错误 ──

var (
	ErrUserNotFound   = errors.New("用户不存在")
	ErrEmailExists    = errors.New("邮箱已被注册")
	ErrLastAdmin      = errors.New("系统必须保留至少一名可用管理员")
	ErrSelfDeactivate = errors.New("不能停用或删除当前登录账号")
)

// UserService 后台用户管理业务接口
type UserService interface {
	Create(ctx context.Context, req *dto.CreateUserRequest, actor *Actor) (*dto.UserResponse, error)
	GetByID(ctx context.Context, id int64) (*dto.UserResponse, error)
	List(ctx context.Context) ([]dto.UserResponse, error)
	Update(ctx context.Context, id int64, req *dto.UpdateUserRequest, actor *Actor) (*dto.UserResponse, error)
	// ResetPassword 管理员重置密码，该用户已签发的刷新令牌全部作废
	ResetPassword(ctx context.Context, id int64, newPassword string, actor *Actor) error
	Delete(ctx context.Context, id int64, actor *Actor) error
}

// Actor 发起操作的登录用户，用于审计与自操作保护
type Actor struct {
	UserID    int64
	IP        string
	UserAgent string
}

type userService struct {
	repo   *repository.Repository
	audit  AuditService
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, audit AuditService, logger *zap.Logger) UserService {
	return &userService{repo: repo, audit: audit, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *userService) Create(ctx context.Context, req *dto.CreateUserRequest, actor *Actor) (*dto.UserResponse, error) {
	existing, err := s.repo.User.GetByEmail(ctx, req.Email)
	if err != nil {
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &model.User{Email: req.Email, PasswordHash: string(hash), IsActive: true}
	if req.FullName != "" {
		user.FullName = &req.FullName
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		s.logger.Error("创建用户失败", zap.Error(err))
		return nil, err
	}
	if len(req.Roles) > 0 {
		roles, err := s.ensureRoles(ctx, req.Roles)
		if err != nil {
			return nil, err
		}
		if err := s.repo.User.SetRoles(ctx, user, roles); err != nil {
			return nil, err
		}
	}

	resp := dto.NewUserResponse(user)
	s.recordAudit(ctx, actor, "user.create", user.ID, nil, resp)
	return &resp, nil
}

// ────────────────────── Read ──────────────────────

func (s *userService) GetByID(ctx context.Context, id int64) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	resp := dto.NewUserResponse(user)
	return &resp, nil
}

func (s *userService) List(ctx context.Context) ([]dto.UserResponse, error) {
	users, err := s.repo.User.List(ctx)
	if err != nil {
		return nil, err
	}
	resps := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		resps = append(resps, dto.NewUserResponse(&users[i]))
	}
	return resps, nil
}

// ────────────────────── Update ──────────────────────

func (s *userService) Update(ctx context.Context, id int64, req *dto.UpdateUserRequest, actor *Actor) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	before := dto.NewUserResponse(user)

	deactivating := req.IsActive != nil && !*req.IsActive && user.IsActive
	droppingAdmin := req.Roles != nil && user.HasRole(AdminRole) && !containsString(*req.Roles, AdminRole)
	if deactivating || droppingAdmin {
		if actor != nil && actor.UserID == id && deactivating {
			return nil, ErrSelfDeactivate
		}
		if user.HasRole(AdminRole) {
			others, err := s.repo.User.CountActiveWithRole(ctx, AdminRole, id)
			if err != nil {
				return nil, err
			}
			if others == 0 {
				return nil, ErrLastAdmin
			}
		}
	}

	if req.FullName != nil {
		user.FullName = req.FullName
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.Password != nil && *req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = string(hash)
	}
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("更新用户失败", zap.Error(err))
		return nil, err
	}
	if req.Roles != nil {
		roles, err := s.ensureRoles(ctx, *req.Roles)
		if err != nil {
			return nil, err
		}
		if err := s.repo.User.SetRoles(ctx, user, roles); err != nil {
			return nil, err
		}
	}

	resp := dto.NewUserResponse(user)
	s.recordAudit(ctx, actor, "user.update", user.ID, before, resp)
	return &resp, nil
}

// ────────────────────── ResetPassword ──────────────────────

func (s *userService) ResetPassword(ctx context.Context, id int64, newPassword string, actor *Actor) error {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("重置密码失败", zap.Error(err))
		return err
	}
	if err := s.repo.RefreshToken.RevokeAllForUser(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actor, "user.reset_password", id, nil, nil)
	return nil
}

// ────────────────────── Delete ──────────────────────

func (s *userService) Delete(ctx context.Context, id int64, actor *Actor) error {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if actor != nil && actor.UserID == id {
		return ErrSelfDeactivate
	}
	if user.HasRole(AdminRole) {
		others, err := s.repo.User.CountActiveWithRole(ctx, AdminRole, id)
		if err != nil {
			return err
		}
		if others == 0 {
			return ErrLastAdmin
		}
	}

	before := dto.NewUserResponse(user)
	if err := s.repo.User.Delete(ctx, id); err != nil {
		s.logger.Error("删除用户失败", zap.Error(err))
		return err
	}
	s.recordAudit(ctx, actor, "user.delete", id, before, nil)
	return nil
}

// ────────────────────── helpers ──────────────────────

func (s *userService) ensureRoles(ctx context.Context, names []string) ([]model.Role, error) {
	roles := make([]model.Role, 0, len(names))
	for _, name := range names {
		role, err := s.repo.User.EnsureRole(ctx, name)
		if err != nil {
			return nil, err
		}
		roles = append(roles, *role)
	}
	return roles, nil
}

func (s *userService) recordAudit(ctx context.Context, actor *Actor, action string, targetID int64, before, after interface{}) {
	entry := AuditEntry{Action: action, Entity: "user", EntityID: entityID(targetID), Before: before, After: after}
	if actor != nil {
		uid := actor.UserID
		entry.UserID = &uid
		entry.IP = actor.IP
		entry.UserAgent = actor.UserAgent
	}
	s.audit.Record(ctx, entry)
}

func containsString(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
