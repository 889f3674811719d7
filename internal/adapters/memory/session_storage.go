// Package memory provides a process-local session storage for single-instance
// deployments and development. Sessions do not survive a restart.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	apperrors "github.com/mhmdnab/tolabi/internal/errors"
	"github.com/mhmdnab/tolabi/internal/ports"
)

var (
	_ ports.SessionStorage = (*SessionStorage)(nil)
	_ ports.SessionSweeper = (*SessionStorage)(nil)
)

// ErrNotFound is returned when a slot holds no session.
var ErrNotFound error = apperrors.NotFound("session not found")

type entry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// SessionStorage is a mutex-guarded map of slot to value with lazy expiry.
type SessionStorage struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// NewSessionStorage creates an empty storage.
func NewSessionStorage() *SessionStorage {
	return &SessionStorage{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// WithClock overrides the time source; used by tests.
func (s *SessionStorage) WithClock(now func() time.Time) *SessionStorage {
	s.now = now
	return s
}

// Load returns a copy of the value stored in slot.
func (s *SessionStorage) Load(_ context.Context, slot string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[slot]
	if !ok {
		return nil, ErrNotFound
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		delete(s.entries, slot)
		return nil, ErrNotFound
	}
	return append([]byte(nil), e.value...), nil
}

// Store writes value into slot. A zero ttl never expires.
func (s *SessionStorage) Store(_ context.Context, slot string, value []byte, ttl time.Duration) error {
	if slot == "" {
		return errors.New("session slot cannot be empty")
	}
	if ttl < 0 {
		return errors.New("session ttl cannot be negative")
	}

	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[slot] = e
	s.mu.Unlock()
	return nil
}

// Delete removes slot.
func (s *SessionStorage) Delete(_ context.Context, slot string) error {
	s.mu.Lock()
	delete(s.entries, slot)
	s.mu.Unlock()
	return nil
}

// Ping always succeeds.
func (s *SessionStorage) Ping(context.Context) error { return nil }

// Sweep drops expired entries and reports how many were removed.
func (s *SessionStorage) Sweep(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for slot, e := range s.entries {
		if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
			delete(s.entries, slot)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of stored slots, including expired ones not yet swept.
func (s *SessionStorage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
