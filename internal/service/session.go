package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	domainauth "github.com/mhmdnab/tolabi/internal/domain/auth"
	apperrors "github.com/mhmdnab/tolabi/internal/errors"
	"github.com/mhmdnab/tolabi/internal/observability/metrics"
	"github.com/mhmdnab/tolabi/internal/ports"
)

// DefaultCacheTTL bounds how long a cached session is trusted before it is
// re-read from durable storage.
const DefaultCacheTTL = 30 * time.Second

const slotStripes = 64

// EventKind names a session lifecycle transition.
type EventKind string

const (
	EventLogin     EventKind = "login"
	EventLogout    EventKind = "logout"
	EventDiscarded EventKind = "discarded"
)

// Event is delivered to subscribers after a transition completed.
// Session is nil for logout and discard events.
type Event struct {
	Kind    EventKind
	Slot    string
	Session *domainauth.Session
}

// SessionState is the outcome of a restore. Known is false when storage
// could not be read; Session is nil when the slot is logged out.
type SessionState struct {
	Known   bool
	Session *domainauth.Session
}

// Auth converts the state into the input of the shared authorization policy.
func (s SessionState) Auth() domainauth.State {
	if !s.Known {
		return domainauth.Pending()
	}
	if s.Session == nil {
		return domainauth.Known("")
	}
	return domainauth.Known(s.Session.Role)
}

// LoggedIn reports whether the state carries a session.
func (s SessionState) LoggedIn() bool { return s.Known && s.Session != nil }

// SessionServiceOptions groups dependencies for SessionService.
type SessionServiceOptions struct {
	API     ports.Authenticator
	Storage ports.SessionStorage
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	// TTL is the durable storage expiry of a session. Zero keeps it until logout.
	TTL time.Duration
	// CacheTTL bounds the in-process cache; defaults to DefaultCacheTTL.
	CacheTTL time.Duration
	Now      func() time.Time
}

// LoginInput groups parameters for Login.
type LoginInput struct {
	Slot     string
	Username string
	Password string
	// Mirror receives the role cookie; optional for non-browser callers.
	Mirror ports.RoleMirror
}

type cacheEntry struct {
	session  domainauth.Session
	loadedAt time.Time
}

// SessionService owns the session of every browser slot. It keeps an
// in-process cache in front of durable storage and is the only writer of
// storage and of the mirrored role cookie.
type SessionService struct {
	api      ports.Authenticator
	storage  ports.SessionStorage
	logger   *slog.Logger
	metrics  *metrics.Metrics
	ttl      time.Duration
	cacheTTL time.Duration
	now      func() time.Time

	locks [slotStripes]sync.RWMutex
	group singleflight.Group

	mu     sync.RWMutex
	cache  map[string]cacheEntry
	closed bool

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(Event)
}

var errServiceClosed = apperrors.Internalf("session service is closed")

// NewSessionService constructs a SessionService. Metrics, when set, is
// subscribed to lifecycle events.
func NewSessionService(opts SessionServiceOptions) *SessionService {
	s := &SessionService{
		api:      opts.API,
		storage:  opts.Storage,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		ttl:      opts.TTL,
		cacheTTL: opts.CacheTTL,
		now:      opts.Now,
		cache:    make(map[string]cacheEntry),
		subs:     make(map[int]func(Event)),
	}
	if s.cacheTTL <= 0 {
		s.cacheTTL = DefaultCacheTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.metrics != nil {
		m := s.metrics
		s.Subscribe(func(e Event) { m.SessionEvent(string(e.Kind)) })
	}
	return s
}

func (s *SessionService) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

// Init verifies that durable storage is reachable.
func (s *SessionService) Init(ctx context.Context) error {
	if s.api == nil || s.storage == nil {
		return errors.New("session service requires an API client and a storage")
	}
	if err := s.storage.Ping(ctx); err != nil {
		return fmt.Errorf("ping session storage: %w", err)
	}
	return nil
}

// Close drops subscribers and the cache. Further calls fail.
func (s *SessionService) Close() {
	s.mu.Lock()
	s.closed = true
	s.cache = make(map[string]cacheEntry)
	s.mu.Unlock()

	s.subMu.Lock()
	s.subs = make(map[int]func(Event))
	s.subMu.Unlock()

	s.metrics.CachedSessions(0)
}

// Subscribe registers fn for lifecycle events and returns a function that
// removes it. fn runs synchronously on the goroutine that made the change
// and must not call back into the service.
func (s *SessionService) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *SessionService) emit(e Event) {
	s.subMu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}

func (s *SessionService) lockFor(slot string) *sync.RWMutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(slot))
	return &s.locks[h.Sum32()%slotStripes]
}

// Restore returns the session of slot, reading durable storage when the
// cache has nothing fresh. An empty slot is logged out. A stored value that
// does not decode into a complete session is deleted and reported as logged
// out. When storage cannot be read the state is not Known and the error is
// returned; callers must treat that as indeterminate, never as logged out.
func (s *SessionService) Restore(ctx context.Context, slot string) (SessionState, error) {
	if slot == "" {
		return SessionState{Known: true}, nil
	}

	lock := s.lockFor(slot)
	lock.RLock()
	defer lock.RUnlock()

	if s.isClosed() {
		return SessionState{}, errServiceClosed
	}
	if sess, ok := s.cached(slot); ok {
		return SessionState{Known: true, Session: &sess}, nil
	}

	// Restores of one slot share a single storage read. The read is detached
	// from the first caller's cancellation so its disconnect does not fail the others.
	v, err, _ := s.group.Do(slot, func() (any, error) {
		return s.load(context.WithoutCancel(ctx), slot)
	})
	if err != nil {
		return SessionState{}, err
	}
	return v.(SessionState), nil
}

func (s *SessionService) load(ctx context.Context, slot string) (SessionState, error) {
	start := s.now()

	raw, err := s.storage.Load(ctx, slot)
	switch {
	case apperrors.IsNotFound(err):
		s.metrics.SessionRestore("miss", s.now().Sub(start))
		s.forget(slot)
		return SessionState{Known: true}, nil
	case err != nil:
		s.metrics.SessionRestore(metrics.ResultError, s.now().Sub(start))
		s.log().WarnContext(ctx, "session storage unreadable", "slot", slot, "error", err)
		return SessionState{}, fmt.Errorf("load session: %w", err)
	}

	sess, ok := decodeSession(raw)
	if !ok {
		s.metrics.SessionRestore("discarded", s.now().Sub(start))
		s.log().WarnContext(ctx, "discarding malformed stored session", "slot", slot)
		if delErr := s.storage.Delete(ctx, slot); delErr != nil {
			s.log().WarnContext(ctx, "delete malformed session", "slot", slot, "error", delErr)
		}
		s.forget(slot)
		s.emit(Event{Kind: EventDiscarded, Slot: slot})
		return SessionState{Known: true}, nil
	}

	s.metrics.SessionRestore(metrics.ResultSuccess, s.now().Sub(start))
	s.remember(slot, sess)
	return SessionState{Known: true, Session: &sess}, nil
}

func decodeSession(raw []byte) (domainauth.Session, bool) {
	var sess domainauth.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return domainauth.Session{}, false
	}
	role, ok := domainauth.ParseRole(string(sess.Role))
	if !ok {
		return domainauth.Session{}, false
	}
	sess.Role = role
	return sess, sess.Complete()
}

// Login authenticates against the backend and, on success, writes the
// session to the cache, then durable storage, then the role cookie. If
// storage rejects the write the cache is rolled back and no cookie is set.
func (s *SessionService) Login(ctx context.Context, in LoginInput) (domainauth.Session, error) {
	if in.Slot == "" {
		return domainauth.Session{}, apperrors.Internalf("login requires a session slot")
	}
	if strings.TrimSpace(in.Username) == "" || in.Password == "" {
		return domainauth.Session{}, apperrors.Validation("Username and password are required")
	}
	if s.isClosed() {
		return domainauth.Session{}, errServiceClosed
	}

	sess, err := s.api.Login(ctx, in.Username, in.Password)
	if err == nil && domainauth.DashboardPath(sess.Role) == "" {
		err = apperrors.Business(http.StatusForbidden,
			fmt.Sprintf("No dashboard is available for role %s", sess.Role))
	}
	s.metrics.LoginAttempt(err)
	if err != nil {
		s.log().InfoContext(ctx, "login rejected", "slot", in.Slot, "code", apperrors.GetCode(err))
		return domainauth.Session{}, err
	}

	raw, err := json.Marshal(sess)
	if err != nil {
		return domainauth.Session{}, fmt.Errorf("encode session: %w", err)
	}

	lock := s.lockFor(in.Slot)
	lock.Lock()
	prev, hadPrev := s.swap(in.Slot, &sess)
	if storeErr := s.storage.Store(ctx, in.Slot, raw, s.ttl); storeErr != nil {
		if hadPrev {
			s.swap(in.Slot, &prev)
		} else {
			s.swap(in.Slot, nil)
		}
		lock.Unlock()
		s.log().ErrorContext(ctx, "persist session failed", "slot", in.Slot, "error", storeErr)
		return domainauth.Session{}, fmt.Errorf("store session: %w", storeErr)
	}
	if in.Mirror != nil {
		in.Mirror.MirrorRole(sess.Role)
	}
	lock.Unlock()

	s.log().InfoContext(ctx, "session established", "slot", in.Slot, "role", string(sess.Role), "identity", sess.Identity)
	s.emit(Event{Kind: EventLogin, Slot: in.Slot, Session: &sess})
	return sess, nil
}

// Logout clears the cache entry, durable storage and the role cookie of
// slot. The cache and cookie are cleared even when storage fails; the
// storage error is returned so the caller can rotate the slot.
func (s *SessionService) Logout(ctx context.Context, slot string, mirror ports.RoleMirror) error {
	if slot == "" {
		if mirror != nil {
			mirror.ClearRole()
		}
		return nil
	}

	lock := s.lockFor(slot)
	lock.Lock()
	s.swap(slot, nil)
	err := s.storage.Delete(ctx, slot)
	if mirror != nil {
		mirror.ClearRole()
	}
	lock.Unlock()

	if err != nil {
		s.log().ErrorContext(ctx, "delete stored session failed", "slot", slot, "error", err)
		err = fmt.Errorf("delete session: %w", err)
	} else {
		s.log().InfoContext(ctx, "session cleared", "slot", slot)
	}
	s.emit(Event{Kind: EventLogout, Slot: slot})
	return err
}

// Remirror restores the session of slot and writes its role to mirror again.
// It repairs a role cookie the browser lost or altered while the stored
// session is still valid. A logged-out slot has its role cleared instead.
func (s *SessionService) Remirror(ctx context.Context, slot string, mirror ports.RoleMirror) (SessionState, error) {
	state, err := s.Restore(ctx, slot)
	if err != nil || mirror == nil {
		return state, err
	}

	lock := s.lockFor(slot)
	lock.Lock()
	defer lock.Unlock()
	if state.LoggedIn() {
		mirror.MirrorRole(state.Session.Role)
		s.log().DebugContext(ctx, "role mirror restored", "slot", slot, "role", string(state.Session.Role))
	} else {
		mirror.ClearRole()
	}
	return state, nil
}

// Prune evicts cache entries older than the cache TTL and returns how many were removed.
func (s *SessionService) Prune() int {
	cutoff := s.now().Add(-s.cacheTTL)

	s.mu.Lock()
	removed := 0
	for slot, e := range s.cache {
		if e.loadedAt.Before(cutoff) {
			delete(s.cache, slot)
			removed++
		}
	}
	n := len(s.cache)
	s.mu.Unlock()

	s.metrics.CachedSessions(n)
	return removed
}

func (s *SessionService) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *SessionService) cached(slot string) (domainauth.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.cache[slot]
	if !ok || s.now().Sub(e.loadedAt) > s.cacheTTL {
		return domainauth.Session{}, false
	}
	return e.session, true
}

func (s *SessionService) remember(slot string, sess domainauth.Session) {
	s.swap(slot, &sess)
}

func (s *SessionService) forget(slot string) {
	s.swap(slot, nil)
}

// swap replaces the cache entry of slot (nil removes it) and returns the previous one.
func (s *SessionService) swap(slot string, sess *domainauth.Session) (domainauth.Session, bool) {
	s.mu.Lock()
	prev, had := s.cache[slot]
	if sess == nil {
		delete(s.cache, slot)
	} else {
		s.cache[slot] = cacheEntry{session: *sess, loadedAt: s.now()}
	}
	n := len(s.cache)
	s.mu.Unlock()

	s.metrics.CachedSessions(n)
	return prev.session, had
}
