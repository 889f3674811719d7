package redis

// Package redis provides the Redis-backed durable session slot storage.

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/mhmdnab/tolabi/internal/errors"
	"github.com/mhmdnab/tolabi/internal/ports"
)

var _ ports.SessionStorage = (*SessionStorage)(nil)

// DefaultPrefix namespaces slot keys.
const DefaultPrefix = "tolabi-session:"

// ErrNotFound is returned when a slot holds no session.
var ErrNotFound error = apperrors.NotFound("session not found")

// SessionStorage keeps serialized sessions in Redis, one key per browser slot.
// Values are stored verbatim; decoding is the caller's concern.
type SessionStorage struct {
	client redis.UniversalClient
	prefix string
}

// NewSessionStorage creates a Redis session storage using DefaultPrefix.
func NewSessionStorage(client redis.UniversalClient) *SessionStorage {
	return &SessionStorage{
		client: client,
		prefix: DefaultPrefix,
	}
}

// NewSessionStorageWithPrefix creates a Redis session storage with a custom key prefix.
func NewSessionStorageWithPrefix(client redis.UniversalClient, prefix string) *SessionStorage {
	return &SessionStorage{
		client: client,
		prefix: prefix,
	}
}

// Load returns the raw value stored in slot.
func (s *SessionStorage) Load(ctx context.Context, slot string) ([]byte, error) {
	if slot == "" {
		return nil, ErrNotFound
	}

	data, err := s.client.Get(ctx, s.prefix+slot).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return data, nil
}

// Store writes value into slot. A zero ttl keeps the key until it is deleted.
func (s *SessionStorage) Store(ctx context.Context, slot string, value []byte, ttl time.Duration) error {
	if slot == "" {
		return errors.New("session slot cannot be empty")
	}
	if ttl < 0 {
		return errors.New("session ttl cannot be negative")
	}
	if err := s.client.Set(ctx, s.prefix+slot, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes slot. Deleting an empty slot is not an error.
func (s *SessionStorage) Delete(ctx context.Context, slot string) error {
	if slot == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.prefix+slot).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Ping verifies Redis is reachable.
func (s *SessionStorage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
