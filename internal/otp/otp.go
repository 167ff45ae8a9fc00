// Package otp issues and checks the six digit codes that activate accounts.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/Skotchmaster/content_auth/internal/models"
)

const Length = 6

// ErrInvalidOTP covers every reason a code does not verify.
var ErrInvalidOTP = errors.New("invalid otp")

type Repository interface {
	SaveOTP(ctx context.Context, userID, code string, expiresAt time.Time) error
	FindActiveOTP(ctx context.Context, userID string, now time.Time, maxAttempts int) (*models.OTP, error)
	ConsumeOTP(ctx context.Context, userID, code string, now time.Time, maxAttempts int) (bool, error)
}

type Engine struct {
	Repo        Repository
	TTL         time.Duration
	MaxAttempts int
	Now         func() time.Time
	Rand        io.Reader
}

func New(repo Repository, ttl time.Duration, maxAttempts int) *Engine {
	return &Engine{
		Repo:        repo,
		TTL:         ttl,
		MaxAttempts: maxAttempts,
		Now:         time.Now,
		Rand:        rand.Reader,
	}
}

var maxCode = big.NewInt(1_000_000)

func (e *Engine) Generate() (string, error) {
	n, err := rand.Int(e.Rand, maxCode)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", Length, n.Int64()), nil
}

// Save stores code for the user, replacing any earlier code, and returns
// when it stops being valid.
func (e *Engine) Save(ctx context.Context, userID, code string) (time.Time, error) {
	if !WellFormed(code) {
		return time.Time{}, fmt.Errorf("save otp: malformed code")
	}
	expiresAt := e.Now().UTC().Add(e.TTL)
	if err := e.Repo.SaveOTP(ctx, userID, code, expiresAt); err != nil {
		return time.Time{}, fmt.Errorf("save otp: %w", err)
	}
	return expiresAt, nil
}

// Issue generates and saves a fresh code.
func (e *Engine) Issue(ctx context.Context, userID string) (string, time.Time, error) {
	code, err := e.Generate()
	if err != nil {
		return "", time.Time{}, err
	}
	exp, err := e.Save(ctx, userID, code)
	if err != nil {
		return "", time.Time{}, err
	}
	return code, exp, nil
}

// Verify consumes the code. Any mismatch, expiry, exhausted attempts or
// missing record yields ErrInvalidOTP; storage failures are returned as is.
func (e *Engine) Verify(ctx context.Context, userID, code string) error {
	if userID == "" || !WellFormed(code) {
		return ErrInvalidOTP
	}
	ok, err := e.Repo.ConsumeOTP(ctx, userID, code, e.Now().UTC(), e.MaxAttempts)
	if err != nil {
		return fmt.Errorf("consume otp: %w", err)
	}
	if !ok {
		return ErrInvalidOTP
	}
	return nil
}

func (e *Engine) Active(ctx context.Context, userID string) (*models.OTP, error) {
	return e.Repo.FindActiveOTP(ctx, userID, e.Now().UTC(), e.MaxAttempts)
}

func WellFormed(code string) bool {
	if len(code) != Length {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
