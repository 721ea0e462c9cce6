package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mirabelleagency/ChattersDashboard/config"
	"github.com/mirabelleagency/ChattersDashboard/internal/dto"
	"github.com/mirabelleagency/ChattersDashboard/internal/model"
	"github.com/mirabelleagency/ChattersDashboard/internal/repository"
	"github.com/mirabelleagency/ChattersDashboard/pkg/jwt"
	"github.com/mirabelleagency/ChattersDashboard/pkg/redis"
)

// ── 认证模块业务错误 ──

var (
	ErrInvalidCredentials  = errors.New("邮箱或密码错误")
	ErrUserDisabled        = errors.New("账号已停用")
	ErrRefreshTokenInvalid = errors.New("刷新令牌无效或已过期")
	ErrOldPasswordWrong    = errors.New("原密码不正确")
)

// AdminRole 管理员角色名
const AdminRole = "admin"

// TokenPair 一次签发的令牌组，由接口层写入 Cookie
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	CSRFToken        string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// AuthService 认证业务接口
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest, ip, userAgent string) (*dto.LoginResponse, *TokenPair, error)
	// Refresh 校验刷新令牌并轮换：旧 jti 吊销，签发新令牌组
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
	Me(ctx context.Context, userID int64) (*dto.UserResponse, error)
	ChangePassword(ctx context.Context, userID int64, req *dto.ChangePasswordRequest) error
	// SeedAdmin 无任何用户时创建初始管理员，幂等
	SeedAdmin(ctx context.Context, email, password string) error
}

type authService struct {
	cfg    *config.Config
	repo   *repository.Repository
	jwtMgr *jwt.Manager
	cache  *redis.Client
	logger *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(cfg *config.Config, repo *repository.Repository, jwtMgr *jwt.Manager, cache *redis.Client, logger *zap.Logger) AuthService {
	return &authService{cfg: cfg, repo: repo, jwtMgr: jwtMgr, cache: cache, logger: logger}
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest, ip, userAgent string) (*dto.LoginResponse, *TokenPair, error) {
	user, err := s.repo.User.GetByEmail(ctx, req.Email)
	if err != nil {
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, nil, ErrUserDisabled
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	resp := &dto.LoginResponse{
		AccessToken: pair.AccessToken,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.jwtMgr.AccessTokenTTL().Seconds()),
		User:        dto.NewUserResponse(user),
	}
	s.logger.Info("用户登录", zap.Int64("user_id", user.ID), zap.String("email", user.Email))
	return resp, pair, nil
}

// issueTokens 签发访问+刷新令牌组并落库刷新 jti
func (s *authService) issueTokens(ctx context.Context, user *model.User) (*TokenPair, error) {
	now := time.Now()
	accessToken, err := s.jwtMgr.GenerateAccessToken(user.ID, user.Email, user.RoleNames())
	if err != nil {
		s.logger.Error("签发访问令牌失败", zap.Error(err))
		return nil, err
	}

	jti := uuid.NewString()
	refreshToken, err := s.jwtMgr.GenerateRefreshToken(user.ID, user.Email, jti)
	if err != nil {
		s.logger.Error("签发刷新令牌失败", zap.Error(err))
		return nil, err
	}

	refreshExpires := now.Add(s.jwtMgr.RefreshTokenTTL())
	record := &model.RefreshToken{JTI: jti, UserID: user.ID, ExpiresAt: &refreshExpires}
	if err := s.repo.RefreshToken.Create(ctx, record); err != nil {
		s.logger.Error("保存刷新令牌失败", zap.Error(err))
		return nil, err
	}

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		CSRFToken:        uuid.NewString(),
		AccessExpiresAt:  now.Add(s.jwtMgr.AccessTokenTTL()),
		RefreshExpiresAt: refreshExpires,
	}, nil
}

// ────────────────────── Refresh ──────────────────────

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.jwtMgr.ParseToken(refreshToken)
	if err != nil || claims.TokenType != jwt.TokenTypeRefresh {
		return nil, ErrRefreshTokenInvalid
	}

	record, err := s.repo.RefreshToken.GetByJTI(ctx, claims.ID)
	if err != nil {
		s.logger.Error("查询刷新令牌失败", zap.Error(err))
		return nil, err
	}
	if record == nil || record.Revoked {
		return nil, ErrRefreshTokenInvalid
	}
	if record.ExpiresAt != nil && record.ExpiresAt.Before(time.Now()) {
		return nil, ErrRefreshTokenInvalid
	}

	user, err := s.repo.User.GetByID(ctx, record.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, ErrUserDisabled
	}

	// 轮换：旧 jti 立刻吊销
	if err := s.repo.RefreshToken.Revoke(ctx, claims.ID); err != nil {
		s.logger.Error("吊销旧刷新令牌失败", zap.Error(err))
		return nil, err
	}
	return s.issueTokens(ctx, user)
}

// ────────────────────── Logout ──────────────────────

func (s *authService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if accessToken != "" {
		if claims, err := s.jwtMgr.ParseToken(accessToken); err == nil && claims.ExpiresAt != nil {
			ttl := time.Until(claims.ExpiresAt.Time)
			if ttl > 0 && s.cache != nil {
				if err := s.cache.BlacklistToken(ctx, accessToken, ttl); err != nil {
					s.logger.Warn("访问令牌拉黑失败", zap.Error(err))
				}
			}
		}
	}
	if refreshToken != "" {
		if claims, err := s.jwtMgr.ParseToken(refreshToken); err == nil && claims.ID != "" {
			if err := s.repo.RefreshToken.Revoke(ctx, claims.ID); err != nil {
				s.logger.Warn("吊销刷新令牌失败", zap.Error(err))
			}
		}
	}
	return nil
}

// ────────────────────── Me / ChangePassword ──────────────────────

func (s *authService) Me(ctx context.Context, userID int64) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	resp := dto.NewUserResponse(user)
	return &resp, nil
}

func (s *authService) ChangePassword(ctx context.Context, userID int64, req *dto.ChangePasswordRequest) error {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return ErrOldPasswordWrong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("更新密码失败", zap.Error(err))
		return err
	}
	// 改密后已签发的刷新令牌全部作废
	return s.repo.RefreshToken.RevokeAllForUser(ctx, userID)
}

// ────────────────────── SeedAdmin ──────────────────────

func (s *authService) SeedAdmin(ctx context.Context, email, password string) error {
	users, err := s.repo.User.List(ctx)
	if err != nil {
		return err
	}
	if len(users) > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	fullName := "Administrator"
	user := &model.User{Email: email, FullName: &fullName, PasswordHash: string(hash), IsActive: true}
	if err := s.repo.User.Create(ctx, user); err != nil {
		return err
	}
	role, err := s.repo.User.EnsureRole(ctx, AdminRole)
	if err != nil {
		return err
	}
	if err := s.repo.User.SetRoles(ctx, user, []model.Role{*role}); err != nil {
		return err
	}
	s.logger.Info("初始管理员已创建", zap.String("email", email))
	return nil
}
