package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleOwner      Role = "owner"
	RoleSupervisor Role = "supervisor"
	RoleAdmin      Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleSupervisor, RoleAdmin:
		return true
	}
	return false
}

type Status string

const (
	StatusInactive Status = "inactive"
	StatusActive   Status = "active"
)

type User struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)"          json:"id"`
	Email        string    `gorm:"uniqueIndex;not null"                 json:"email"`
	FullName     string    `gorm:"not null"                             json:"full_name"`
	PasswordHash string    `gorm:"not null"                             json:"-"`
	Status       Status    `gorm:"type:varchar(16);not null"            json:"status"`
	IsVerified   bool      `gorm:"not null"                             json:"is_verified"`
	Role         Role      `gorm:"type:varchar(16);not null"            json:"role"`
	CreatedAt    time.Time `                                            json:"created_at"`
	UpdatedAt    time.Time `                                            json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Status == "" {
		u.Status = StatusInactive
	}
	if u.Role == "" {
		u.Role = RoleOwner
	}
	return nil
}

// OTP is keyed by user, so saving a new code always replaces the previous one.
type OTP struct {
	UserID    string    `gorm:"primaryKey;type:varchar(36)" json:"user_id"`
	Code      string    `gorm:"not null"                    json:"-"`
	ExpiresAt time.Time `gorm:"not null"                    json:"expires_at"`
	Consumed  bool      `gorm:"not null"                    json:"consumed"`
	Attempts  int       `gorm:"not null"                    json:"attempts"`
	CreatedAt time.Time `                                   json:"created_at"`
}

func (OTP) TableName() string { return "otps" }

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"                            json:"id"`
	TokenHash string    `gorm:"uniqueIndex;not null"                  json:"-"`
	JTI       string    `gorm:"uniqueIndex;not null"                  json:"jti"`
	UserID    string    `gorm:"index;not null;type:varchar(36)"       json:"user_id"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE"           json:"user,omitempty"`
	ExpiresAt time.Time `gorm:"not null"                              json:"expires_at"`
	CreatedAt time.Time `                                             json:"created_at"`
}

func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
