package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Skotchmaster/content_auth/internal/audit"
	"github.com/Skotchmaster/content_auth/internal/guard"
	"github.com/Skotchmaster/content_auth/internal/hash"
	"github.com/Skotchmaster/content_auth/internal/logging"
	"github.com/Skotchmaster/content_auth/internal/models"
	"github.com/Skotchmaster/content_auth/internal/notify"
	"github.com/Skotchmaster/content_auth/internal/otp"
	"github.com/Skotchmaster/content_auth/internal/refresh"
	"github.com/Skotchmaster/content_auth/internal/repo"
	"github.com/Skotchmaster/content_auth/internal/tokens"
)

type UserRepository interface {
	CreateUser(ctx context.Context, u *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateUserStatus(ctx context.Context, id string, status models.Status) error
	ResetPendingUser(ctx context.Context, id, fullName, passwordHash string) error
}

type AuthService struct {
	Users    UserRepository
	OTP      *otp.Engine
	Tokens   *tokens.Issuer
	Refresh  *refresh.Store
	Notifier notify.Sink
	Audit    audit.Recorder

	// RotateRefresh replaces the presented refresh token on every refresh.
	RotateRefresh bool
	// RequireActive rejects logins of users that never verified.
	RequireActive bool
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	User         *models.User
}

// RefreshResult carries a new access token. RefreshToken is set only when
// rotation is enabled.
type RefreshResult struct {
	AccessToken  string
	AccessExp    time.Time
	RefreshToken string
	RefreshExp   time.Time
}

// dummyHash is compared against when the email is unknown so that a miss
// costs as much as a wrong password.
var dummyHash = sync.OnceValue(func() string {
	h, _ := hash.HashPassword("timing-equalizer-password")
	return h
})

func (s *AuthService) record(ctx context.Context, ev audit.Event) {
	if s.Audit == nil {
		return
	}
	if err := s.Audit.Record(ctx, ev); err != nil {
		logging.FromContext(ctx).Warn("audit_failed", "action", ev.Action, "error", err)
	}
}

func (s *AuthService) Register(ctx context.Context, email, fullName, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if fullName, err = ValidateFullName(fullName); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	fail := func(status int, reason string, err error) error {
		l.Error("register_error", "status", status, "reason", reason, "error", err)
		s.record(ctx, audit.Event{Action: "register", Email: email, Outcome: audit.Failure, Reason: reason})
		return fmt.Errorf("%w: %s", ErrRegistrationFailed, reason)
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return nil, fail(500, "cannot hash the password", err)
	}

	user, err := s.Users.FindUserByEmail(ctx, email)
	switch {
	case err == nil && user.Status == models.StatusActive:
		l.Warn("register_error", "status", 409, "reason", "email already registered")
		s.record(ctx, audit.Event{Action: "register", UserID: user.ID, Email: email, Outcome: audit.Failure, Reason: "email taken"})
		return nil, fmt.Errorf("%w: %w", ErrRegistrationFailed, ErrEmailTaken)

	case err == nil:
		// Not verified yet: the newest registration wins.
		if err := s.Users.ResetPendingUser(ctx, user.ID, fullName, pwHash); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, fmt.Errorf("%w: %w", ErrRegistrationFailed, ErrEmailTaken)
			}
			return nil, fail(500, "cannot update pending user", err)
		}
		user.FullName = fullName
		user.PasswordHash = pwHash

	case errors.Is(err, repo.ErrNotFound):
		user = &models.User{
			Email:        email,
			FullName:     fullName,
			PasswordHash: pwHash,
			Status:       models.StatusInactive,
			Role:         models.RoleOwner,
		}
		if err := s.Users.CreateUser(ctx, user); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return nil, fmt.Errorf("%w: %w", ErrRegistrationFailed, ErrEmailTaken)
			}
			return nil, fail(500, "cannot create user", err)
		}

	default:
		return nil, fail(500, "cannot look up user", err)
	}

	code, _, err := s.OTP.Issue(ctx, user.ID)
	if err != nil {
		return nil, fail(500, "cannot issue otp", err)
	}
	if err := s.Notifier.SendOTP(ctx, email, code); err != nil {
		return nil, fail(502, "cannot send otp", err)
	}

	l.Info("registered", "user_id", user.ID)
	s.record(ctx, audit.Event{Action: "register", UserID: user.ID, Email: email, Outcome: audit.Success})
	return user, nil
}

func (s *AuthService) Verify(ctx context.Context, userID, code string) error {
	l := logging.FromContext(ctx).With("svc", "auth.verify", "user_id", userID)

	invalid := func(reason string) error {
		l.Warn("verify_failed", "status", 401, "reason", reason)
		s.record(ctx, audit.Event{Action: "verify", UserID: userID, Outcome: audit.Failure, Reason: reason})
		return ErrInvalidOTP
	}

	if err := s.OTP.Verify(ctx, userID, code); err != nil {
		if errors.Is(err, otp.ErrInvalidOTP) {
			return invalid("otp rejected")
		}
		l.Error("verify_error", "status", 500, "error", err)
		return ErrInternal
	}

	if err := s.Users.UpdateUserStatus(ctx, userID, models.StatusActive); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return invalid("user vanished")
		}
		l.Error("verify_error", "status", 500, "error", err)
		return ErrInternal
	}

	l.Info("verified")
	s.record(ctx, audit.Event{Action: "verify", UserID: userID, Outcome: audit.Success})
	return nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	l = l.With("email", email)

	invalid := func(reason string, userID string) error {
		l.Warn("login_failed", "status", 401, "reason", reason)
		s.record(ctx, audit.Event{Action: "login", UserID: userID, Email: email, Outcome: audit.Failure, Reason: reason})
		return ErrInvalidCredentials
	}

	user, err := s.Users.FindUserByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		hash.CheckPassword(dummyHash(), password)
		return nil, invalid("unknown email", "")
	}
	if err != nil {
		l.Error("login_error", "status", 500, "error", err)
		return nil, ErrInternal
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, invalid("wrong password", user.ID)
	}
	if s.RequireActive && user.Status != models.StatusActive {
		return nil, invalid("account not verified", user.ID)
	}

	sub := tokens.Subject{UserID: user.ID, Email: user.Email, Role: user.Role}
	access, err := s.Tokens.IssueAccess(sub)
	if err != nil {
		l.Error("login_error", "status", 500, "error", err)
		return nil, ErrInternal
	}
	refreshTok, err := s.Tokens.IssueRefresh(sub)
	if err != nil {
		l.Error("login_error", "status", 500, "error", err)
		return nil, ErrInternal
	}
	if _, err := s.Refresh.Store(ctx, refreshTok, user.ID); err != nil {
		l.Error("login_error", "status", 500, "error", err)
		return nil, ErrInternal
	}

	l.Info("logged_in", "user_id", user.ID)
	s.record(ctx, audit.Event{Action: "login", UserID: user.ID, Email: email, Outcome: audit.Success})
	return &LoginResult{
		AccessToken:  access.Value,
		RefreshToken: refreshTok.Value,
		AccessExp:    access.ExpiresAt,
		RefreshExp:   refreshTok.ExpiresAt,
		User:         user,
	}, nil
}

// RefreshAccessToken exchanges a stored refresh token for a new access
// token. Claims come from the refresh token, so the role is the one the
// user had at login.
func (s *AuthService) RefreshAccessToken(ctx context.Context, raw string) (*RefreshResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	invalid := func(reason string, userID string) error {
		l.Warn("refresh_failed", "status", 401, "reason", reason)
		s.record(ctx, audit.Event{Action: "refresh", UserID: userID, Outcome: audit.Failure, Reason: reason})
		return ErrInvalidRefreshToken
	}

	if raw == "" {
		return nil, invalid("empty token", "")
	}

	rec, err := s.Refresh.Find(ctx, raw)
	if errors.Is(err, refresh.ErrNotFound) {
		return nil, invalid("not stored", "")
	}
	if err != nil {
		l.Error("refresh_error", "status", 500, "error", err)
		return nil, ErrInternal
	}

	claims, err := s.Tokens.VerifyRefresh(raw)
	if err != nil {
		return nil, invalid("bad token", rec.UserID)
	}
	if rec.User == nil || rec.UserID != claims.Holder().UserID {
		return nil, invalid("owner mismatch", rec.UserID)
	}

	sub := claims.Holder()
	access, err := s.Tokens.IssueAccess(sub)
	if err != nil {
		l.Error("refresh_error", "status", 500, "error", err)
		return nil, ErrInternal
	}
	res := &RefreshResult{AccessToken: access.Value, AccessExp: access.ExpiresAt}

	if s.RotateRefresh {
		next, err := s.Tokens.IssueRefresh(sub)
		if err != nil {
			l.Error("refresh_error", "status", 500, "error", err)
			return nil, ErrInternal
		}
		if _, err := s.Refresh.Rotate(ctx, raw, next, rec.UserID); err != nil {
			if errors.Is(err, refresh.ErrNotFound) {
				return nil, invalid("rotated concurrently", rec.UserID)
			}
			l.Error("refresh_error", "status", 500, "error", err)
			return nil, ErrInternal
		}
		res.RefreshToken = next.Value
		res.RefreshExp = next.ExpiresAt
	}

	s.record(ctx, audit.Event{Action: "refresh", UserID: rec.UserID, Outcome: audit.Success})
	return res, nil
}

// Logout revokes every refresh token of userID. Logging out twice is fine.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout", "user_id", userID)

	if userID == "" {
		return fmt.Errorf("%w: user id is required", ErrValidation)
	}
	n, err := s.Refresh.RevokeAll(ctx, userID)
	if err != nil {
		l.Error("logout_error", "status", 500, "error", err)
		return ErrInternal
	}

	l.Info("logged_out", "revoked", n)
	s.record(ctx, audit.Event{Action: "logout", UserID: userID, Outcome: audit.Success})
	return nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.Users.FindUserByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		logging.FromContext(ctx).Error("me_error", "svc", "auth.me", "status", 500, "error", err)
		return nil, ErrInternal
	}
	return user, nil
}

// Authenticate turns an access token into the identity the guard checks.
func (s *AuthService) Authenticate(raw string) (guard.Identity, error) {
	claims, err := s.Tokens.VerifyAccess(raw)
	if err != nil {
		return guard.Identity{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	sub := claims.Holder()
	return guard.Identity{UserID: sub.UserID, Email: sub.Email, Role: sub.Role}, nil
}
