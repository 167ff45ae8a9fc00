// Package guard decides whether an authenticated caller may run an
// operation. It knows nothing about HTTP.
package guard

import (
	"context"
	"errors"
	"slices"

	"github.com/Skotchmaster/content_auth/internal/models"
)

var (
	ErrNoIdentity = errors.New("no identity")
	ErrForbidden  = errors.New("forbidden")
)

// Policy lists the roles an operation accepts. An empty policy admits any
// authenticated caller.
type Policy []models.Role

func Roles(roles ...models.Role) Policy { return Policy(roles) }

// Authenticated admits every caller that has an identity.
var Authenticated = Policy{}

type Identity struct {
	UserID string
	Email  string
	Role   models.Role
}

func Allow(role models.Role, required Policy) bool {
	return len(required) == 0 || slices.Contains(required, role)
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	if !ok || id.UserID == "" {
		return Identity{}, false
	}
	return id, true
}

// Authorize fails closed: without an identity in ctx every policy denies.
func Authorize(ctx context.Context, required Policy) (Identity, error) {
	id, ok := IdentityFrom(ctx)
	if !ok {
		return Identity{}, ErrNoIdentity
	}
	if !Allow(id.Role, required) {
		return id, ErrForbidden
	}
	return id, nil
}
