// Package redis backs the auth session store: refresh tokens are stored
// with a TTL so logout and rotation revoke them server-side. The realtime
// broadcast path is deliberately in-memory and single-process; redis is
// not part of event fan-out.
package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned when a refresh token is unknown or revoked.
var ErrSessionNotFound = errors.New("redis: session not found")

type SessionStore struct {
	client *redis.Client
}

func New(ctx context.Context, addr, password string, db int) (*SessionStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis.New: ping: %w", err)
	}

	return &SessionStore{client: client}, nil
}

func (s *SessionStore) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("redis.SessionStore.Close: %w", err)
	}
	return nil
}

// SessionKey returns the redis key for a refresh token. Tokens are stored
// by SHA-256 digest so a redis dump never leaks usable tokens.
func SessionKey(refreshToken string) string {
	sum := sha256.Sum256([]byte(refreshToken))
	return "session:" + hex.EncodeToString(sum[:])
}

// Save records a refresh token for a user with the given TTL.
func (s *SessionStore) Save(ctx context.Context, refreshToken string, userID uuid.UUID, ttl time.Duration) error {
	if err := s.client.Set(ctx, SessionKey(refreshToken), userID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("redis.SessionStore.Save: %w", err)
	}
	return nil
}

// Lookup returns the user a refresh token belongs to, or ErrSessionNotFound
// when the token was never issued, expired, or was revoked.
func (s *SessionStore) Lookup(ctx context.Context, refreshToken string) (uuid.UUID, error) {
	val, err := s.client.Get(ctx, SessionKey(refreshToken)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, fmt.Errorf("redis.SessionStore.Lookup: %w", ErrSessionNotFound)
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("redis.SessionStore.Lookup: %w", err)
	}

	userID, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, fmt.Errorf("redis.SessionStore.Lookup: parse user id: %w", err)
	}
	return userID, nil
}

// Revoke deletes a refresh token. Revoking an unknown token is not an error.
func (s *SessionStore) Revoke(ctx context.Context, refreshToken string) error {
	if err := s.client.Del(ctx, SessionKey(refreshToken)).Err(); err != nil {
		return fmt.Errorf("redis.SessionStore.Revoke: %w", err)
	}
	return nil
}
