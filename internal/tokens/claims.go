package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Skotchmaster/content_auth/internal/models"
)

type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
	Type  Kind        `json:"typ"`
	jwt.RegisteredClaims
}

// Subject is what a token says about its holder.
type Subject struct {
	UserID string
	Email  string
	Role   models.Role
}

func (c *Claims) Holder() Subject {
	return Subject{UserID: c.RegisteredClaims.Subject, Email: c.Email, Role: c.Role}
}

type Token struct {
	Value     string
	ID        string
	ExpiresAt time.Time
}

func Sign(sub Subject, kind Kind, secret []byte, ttl time.Duration, now time.Time) (Token, error) {
	if len(secret) == 0 {
		return Token{}, errors.New("empty signing secret")
	}
	if sub.UserID == "" {
		return Token{}, errors.New("empty subject")
	}

	now = now.UTC().Truncate(time.Second)
	exp := now.Add(ttl)
	jti := uuid.NewString()

	claims := Claims{
		Email: sub.Email,
		Role:  sub.Role,
		Type:  kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub.UserID,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign %s token: %w", kind, err)
	}
	return Token{Value: signed, ID: jti, ExpiresAt: exp}, nil
}

// Parse checks signature, algorithm, expiry and token kind. Every failure
// is reported as ErrInvalidToken with the cause attached.
func Parse(raw string, kind Kind, secret []byte, now time.Time) (*Claims, error) {
	if raw == "" {
		return nil, ErrInvalidToken
	}

	var claims Claims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tkn.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != kind {
		return nil, fmt.Errorf("%w: expected %s token, got %q", ErrInvalidToken, kind, claims.Type)
	}
	if claims.RegisteredClaims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return &claims, nil
}
