package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mirabelleagency/ChattersDashboard/internal/model"
)

// RefreshTokenRepository 刷新令牌数据访问接口
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	GetByJTI(ctx context.Context, jti string) (*model.RefreshToken, error)
	Revoke(ctx context.Context, jti string) error
	RevokeAllForUser(ctx context.Context, userID int64) error
}

type refreshTokenRepo struct {
	db *gorm.DB
}

// NewRefreshTokenRepo 创建刷新令牌 Repository
func NewRefreshTokenRepo(db *gorm.DB) RefreshTokenRepository {
	return &refreshTokenRepo{db: db}
}

func (r *refreshTokenRepo) Create(ctx context.Context, token *model.RefreshToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *refreshTokenRepo) GetByJTI(ctx context.Context, jti string) (*model.RefreshToken, error) {
	var token model.RefreshToken
	err := r.db.WithContext(ctx).Where("jti = ?", jti).First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &token, nil
}

func (r *refreshTokenRepo) Revoke(ctx context.Context, jti string) error {
	return r.db.WithContext(ctx).Model(&model.RefreshToken{}).
		Where("jti = ?", jti).Update("revoked", true).Error
}

func (r *refreshTokenRepo) RevokeAllForUser(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).Model(&model.RefreshToken{}).
		Where("user_id = ? AND revoked = FALSE", userID).Update("revoked", true).Error
}
