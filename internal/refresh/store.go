// Package refresh persists issued refresh tokens. Only the SHA-256 of a
// token is stored.
package refresh

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/Skotchmaster/content_auth/internal/models"
	"github.com/Skotchmaster/content_auth/internal/repo"
	"github.com/Skotchmaster/content_auth/internal/tokens"
)

var ErrNotFound = errors.New("refresh token not found")

type Repository interface {
	CreateRefreshToken(ctx context.Context, rt *models.RefreshToken) error
	FindRefreshToken(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, tokenHash string) error
	DeleteRefreshTokensForUser(ctx context.Context, userID string) (int64, error)
	RotateRefreshToken(ctx context.Context, oldHash string, next *models.RefreshToken) error
}

type Store struct {
	Repo Repository
	Now  func() time.Time
}

func NewStore(r Repository) *Store {
	return &Store{Repo: r, Now: time.Now}
}

func Sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func record(tok tokens.Token, userID string) *models.RefreshToken {
	return &models.RefreshToken{
		TokenHash: Sha256Hex(tok.Value),
		JTI:       tok.ID,
		UserID:    userID,
		ExpiresAt: tok.ExpiresAt.UTC(),
	}
}

// Store records tok for userID. Tokens are never deduplicated or capped per
// user.
func (s *Store) Store(ctx context.Context, tok tokens.Token, userID string) (*models.RefreshToken, error) {
	rec := record(tok, userID)
	if err := s.Repo.CreateRefreshToken(ctx, rec); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return rec, nil
}

// Find looks raw up with its owner. Expired records are deleted on sight
// and reported as ErrNotFound.
func (s *Store) Find(ctx context.Context, raw string) (*models.RefreshToken, error) {
	if raw == "" {
		return nil, ErrNotFound
	}
	h := Sha256Hex(raw)

	rec, err := s.Repo.FindRefreshToken(ctx, h)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find refresh token: %w", err)
	}

	if rec.Expired(s.Now()) {
		if err := s.Repo.DeleteRefreshToken(ctx, h); err != nil {
			return nil, fmt.Errorf("delete expired refresh token: %w", err)
		}
		return nil, ErrNotFound
	}
	return rec, nil
}

// RevokeAll deletes every token of userID. Revoking nothing is not an error.
func (s *Store) RevokeAll(ctx context.Context, userID string) (int64, error) {
	n, err := s.Repo.DeleteRefreshTokensForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("revoke refresh tokens: %w", err)
	}
	return n, nil
}

// Rotate replaces oldRaw with next atomically. Of two concurrent rotations
// of the same token only one succeeds; the other gets ErrNotFound.
func (s *Store) Rotate(ctx context.Context, oldRaw string, next tokens.Token, userID string) (*models.RefreshToken, error) {
	rec := record(next, userID)
	err := s.Repo.RotateRefreshToken(ctx, Sha256Hex(oldRaw), rec)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}
	return rec, nil
}
