package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/content_auth/internal/models"
)

// SaveOTP stores code as the only code of the user, resetting consumption
// and attempts.
func (r *GormRepo) SaveOTP(ctx context.Context, userID, code string, expiresAt time.Time) error {
	rec := models.OTP{
		UserID:    userID,
		Code:      code,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: time.Now().UTC(),
	}
	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"code", "expires_at", "consumed", "attempts", "created_at"}),
	}).Create(&rec).Error
	return translate(err)
}

func (r *GormRepo) FindActiveOTP(ctx context.Context, userID string, now time.Time, maxAttempts int) (*models.OTP, error) {
	var rec models.OTP
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND consumed = ? AND expires_at > ? AND attempts < ?", userID, false, now.UTC(), maxAttempts).
		First(&rec).Error
	if err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

// ConsumeOTP marks the code consumed in a single conditional update, so of
// any number of concurrent callers at most one gets true. A miss counts as
// an attempt against the live code.
func (r *GormRepo) ConsumeOTP(ctx context.Context, userID, code string, now time.Time, maxAttempts int) (bool, error) {
	now = now.UTC()
	db := r.DB.WithContext(ctx)

	res := db.Model(&models.OTP{}).
		Where("user_id = ? AND code = ? AND consumed = ? AND expires_at > ? AND attempts < ?",
			userID, code, false, now, maxAttempts).
		Update("consumed", true)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	res = db.Model(&models.OTP{}).
		Where("user_id = ? AND consumed = ? AND expires_at > ?", userID, false, now).
		Update("attempts", gorm.Expr("attempts + 1"))
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return false, nil
}
