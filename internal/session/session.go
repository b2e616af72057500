// Package session keeps short-lived authentication state in Valkey: the
// denylist of revoked bearer tokens and single-use password reset tokens.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultResetTTL is how long a password reset token stays valid.
	DefaultResetTTL = time.Hour

	// revokedPrefix namespaces revoked token ids in Valkey.
	revokedPrefix = "revoked:"

	// resetPrefix namespaces password reset tokens in Valkey.
	resetPrefix = "reset:"

	// idLength is the byte length of random reset tokens (32 bytes = 64 hex chars).
	idLength = 32
)

// ErrInvalidToken is returned when a reset token is unknown, expired or
// already used.
var ErrInvalidToken = errors.New("invalid or expired token")

// Store manages token state in Valkey.
type Store struct {
	client   *redis.Client
	resetTTL time.Duration
}

// NewStore creates a token store backed by the given Valkey client.
func NewStore(client *redis.Client) *Store {
	return &Store{
		client:   client,
		resetTTL: DefaultResetTTL,
	}
}

// Revoke denylists a bearer token id until its expiry. Tokens already
// expired need no entry.
func (s *Store) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, revokedPrefix+tokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether a bearer token id has been revoked.
func (s *Store) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return n > 0, nil
}

// CreateReset issues a password reset token for a user.
func (s *Store) CreateReset(ctx context.Context, userID uuid.UUID) (string, error) {
	token, err := generateID()
	if err != nil {
		return "", fmt.Errorf("reset token: %w", err)
	}
	if err := s.client.Set(ctx, resetPrefix+token, userID.String(), s.resetTTL).Err(); err != nil {
		return "", fmt.Errorf("reset token store: %w", err)
	}
	return token, nil
}

// ConsumeReset returns the user a reset token was issued for and deletes
// the token. Returns ErrInvalidToken if the token is unknown.
func (s *Store) ConsumeReset(ctx context.Context, token string) (uuid.UUID, error) {
	val, err := s.client.GetDel(ctx, resetPrefix+token).Result()
	if err == redis.Nil {
		return uuid.Nil, ErrInvalidToken
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("reset token get: %w", err)
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}

// generateID creates a cryptographically random token.
func generateID() (string, error) {
	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
