package ports

// Package ports defines interfaces (hexagonal ports) for session and backend behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"time"

	domainauth "github.com/mhmdnab/tolabi/internal/domain/auth"
)

// SessionStorage persists the serialized session of one browser slot.
// Values are opaque bytes so callers can detect and discard corrupt entries.
// Load returns an error satisfying errors.IsNotFound when the slot is empty.
type SessionStorage interface {
	Load(ctx context.Context, slot string) ([]byte, error)
	Store(ctx context.Context, slot string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, slot string) error
	Ping(ctx context.Context) error
}

// SessionSweeper is implemented by storages that need expired slots purged periodically.
type SessionSweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// RoleMirror writes the best-effort role cookie seen by the edge gate.
// It is only ever driven by the session service.
type RoleMirror interface {
	MirrorRole(role domainauth.Role)
	ClearRole()
}

// Authenticator exchanges credentials for a session with the backend.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (domainauth.Session, error)
}
