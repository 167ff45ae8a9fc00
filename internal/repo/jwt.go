package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/content_auth/internal/models"
)

func (r *GormRepo) CreateRefreshToken(ctx context.Context, rt *models.RefreshToken) error {
	return translate(r.DB.WithContext(ctx).Create(rt).Error)
}

// FindRefreshToken loads the record with its owner.
func (r *GormRepo) FindRefreshToken(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	var rt models.RefreshToken
	err := r.DB.WithContext(ctx).
		Preload("User").
		Where("token_hash = ?", tokenHash).
		First(&rt).Error
	if err != nil {
		return nil, translate(err)
	}
	return &rt, nil
}

func (r *GormRepo) DeleteRefreshToken(ctx context.Context, tokenHash string) error {
	return translate(r.DB.WithContext(ctx).
		Where("token_hash = ?", tokenHash).
		Delete(&models.RefreshToken{}).Error)
}

func (r *GormRepo) DeleteRefreshTokensForUser(ctx context.Context, userID string) (int64, error) {
	res := r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.RefreshToken{})
	return res.RowsAffected, translate(res.Error)
}

// RotateRefreshToken swaps the record for oldHash with next. When another
// request already removed oldHash nothing is written and ErrNotFound is
// returned.
func (r *GormRepo) RotateRefreshToken(ctx context.Context, oldHash string, next *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("token_hash = ?", oldHash).Delete(&models.RefreshToken{})
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return translate(tx.Create(next).Error)
	})
}
