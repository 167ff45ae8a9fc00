package repo

import (
	"context"

	"github.com/Skotchmaster/content_auth/internal/models"
)

func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	return translate(r.DB.WithContext(ctx).Create(u).Error)
}

func (r *GormRepo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *GormRepo) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// UpdateUserStatus keeps is_verified in step with the status.
func (r *GormRepo) UpdateUserStatus(ctx context.Context, id string, status models.Status) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":      status,
			"is_verified": status == models.StatusActive,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetPendingUser overwrites the profile of a user that has not verified
// yet. It reports ErrNotFound once the user is active.
func (r *GormRepo) ResetPendingUser(ctx context.Context, id, fullName, passwordHash string) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND status = ?", id, models.StatusInactive).
		Updates(map[string]any{
			"full_name":     fullName,
			"password_hash": passwordHash,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
