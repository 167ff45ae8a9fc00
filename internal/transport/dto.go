package transport

import (
	"time"

	"github.com/Skotchmaster/content_auth/internal/models"
	"github.com/Skotchmaster/content_auth/internal/service"
)

type RegisterRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

// Validate normalizes the request in place.
func (r *RegisterRequest) Validate() error {
	email, err := service.NormalizeEmail(r.Email)
	if err != nil {
		return err
	}
	name, err := service.ValidateFullName(r.FullName)
	if err != nil {
		return err
	}
	if err := service.ValidatePassword(r.Password); err != nil {
		return err
	}
	r.Email, r.FullName = email, name
	return nil
}

type VerifyRequest struct {
	UserID string `param:"userId" json:"-"`
	OTP    string `json:"otp"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	if r.Email == "" || r.Password == "" {
		return service.ErrValidation
	}
	return nil
}

type RefreshRequest struct {
	Token string `json:"token"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type RegisterResponse struct {
	Message string       `json:"message"`
	User    *models.User `json:"user"`
}

type LoginResponse struct {
	AccessToken      string       `json:"access_token"`
	RefreshToken     string       `json:"refresh_token"`
	AccessExpiresAt  time.Time    `json:"access_expires_at"`
	RefreshExpiresAt time.Time    `json:"refresh_expires_at"`
	User             *models.User `json:"user"`
}

type RefreshResponse struct {
	AccessToken      string     `json:"access_token"`
	AccessExpiresAt  time.Time  `json:"access_expires_at"`
	RefreshToken     string     `json:"refresh_token,omitempty"`
	RefreshExpiresAt *time.Time `json:"refresh_expires_at,omitempty"`
}
