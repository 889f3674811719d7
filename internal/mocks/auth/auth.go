package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"strings"
	"sync"
	"time"

	domainauth "github.com/mhmdnab/tolabi/internal/domain/auth"
	apperrors "github.com/mhmdnab/tolabi/internal/errors"
	"github.com/mhmdnab/tolabi/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.Authenticator  = (*FakeAuthenticator)(nil)
	_ ports.RoleMirror     = (*RecordingMirror)(nil)
	_ ports.SessionStorage = (*FlakyStorage)(nil)
)

// Account is one credential pair known to FakeAuthenticator.
type Account struct {
	Password string
	Role     domainauth.Role
	Token    string
}

// FakeAuthenticator checks credentials against a fixed account table.
type FakeAuthenticator struct {
	LoginFunc func(ctx context.Context, username, password string) (domainauth.Session, error)

	Accounts map[string]Account

	mu    sync.Mutex
	calls int
}

// NewFakeAuthenticator creates an authenticator with one account per dashboard role.
func NewFakeAuthenticator() *FakeAuthenticator {
	return &FakeAuthenticator{
		Accounts: map[string]Account{
			"super":  {Password: "pw", Role: domainauth.RoleSuperadmin, Token: "t1"},
			"editor": {Password: "pw", Role: domainauth.RoleEditor, Token: "t2"},
			"desk":   {Password: "pw", Role: domainauth.RoleAttendant, Token: "t3"},
		},
	}
}

func (f *FakeAuthenticator) Login(ctx context.Context, username, password string) (domainauth.Session, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.LoginFunc != nil {
		return f.LoginFunc(ctx, username, password)
	}

	name := strings.ToLower(strings.TrimSpace(username))
	acct, ok := f.Accounts[name]
	if !ok || acct.Password != password {
		return domainauth.Session{}, apperrors.Business(401, "Invalid credentials")
	}
	return domainauth.Session{Identity: name, Role: acct.Role, Token: acct.Token}, nil
}

// Calls returns how many times Login was invoked.
func (f *FakeAuthenticator) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// RecordingMirror remembers the last role written and every call made.
type RecordingMirror struct {
	mu      sync.Mutex
	role    domainauth.Role
	set     bool
	history []string
}

func (m *RecordingMirror) MirrorRole(role domainauth.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.role, m.set = role, true
	m.history = append(m.history, "set:"+string(role))
}

func (m *RecordingMirror) ClearRole() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.role, m.set = "", false
	m.history = append(m.history, "clear")
}

// Role returns the mirrored role and whether one is currently set.
func (m *RecordingMirror) Role() (domainauth.Role, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.role, m.set
}

// History lists calls in order, e.g. "set:editor", "clear".
func (m *RecordingMirror) History() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.history...)
}

// FlakyStorage wraps a storage and fails selected operations on demand.
type FlakyStorage struct {
	ports.SessionStorage

	mu        sync.Mutex
	LoadErr   error
	StoreErr  error
	DeleteErr error
	PingErr   error
}

// NewFlakyStorage wraps inner.
func NewFlakyStorage(inner ports.SessionStorage) *FlakyStorage {
	return &FlakyStorage{SessionStorage: inner}
}

// Fail sets or clears (with nil) the error of every operation.
func (f *FlakyStorage) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LoadErr, f.StoreErr, f.DeleteErr, f.PingErr = err, err, err, err
}

func (f *FlakyStorage) errs() (load, store, del, ping error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.LoadErr, f.StoreErr, f.DeleteErr, f.PingErr
}

func (f *FlakyStorage) Load(ctx context.Context, slot string) ([]byte, error) {
	if err, _, _, _ := f.errs(); err != nil {
		return nil, err
	}
	return f.SessionStorage.Load(ctx, slot)
}

func (f *FlakyStorage) Store(ctx context.Context, slot string, value []byte, ttl time.Duration) error {
	if _, err, _, _ := f.errs(); err != nil {
		return err
	}
	return f.SessionStorage.Store(ctx, slot, value, ttl)
}

func (f *FlakyStorage) Delete(ctx context.Context, slot string) error {
	if _, _, err, _ := f.errs(); err != nil {
		return err
	}
	return f.SessionStorage.Delete(ctx, slot)
}

func (f *FlakyStorage) Ping(ctx context.Context) error {
	if _, _, _, err := f.errs(); err != nil {
		return err
	}
	return f.SessionStorage.Ping(ctx)
}
