package config

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// SessionStoreMode selects the durable storage behind sessions.
type SessionStoreMode string

const (
	// SessionStoreMemory keeps sessions in process; they do not survive a restart.
	SessionStoreMemory SessionStoreMode = "memory"
	// SessionStoreRedis keeps sessions in Redis.
	SessionStoreRedis SessionStoreMode = "redis"
	// SessionStorePostgres keeps sessions in Postgres.
	SessionStorePostgres SessionStoreMode = "postgres"
)

// UnmarshalText implements encoding.TextUnmarshaler for SessionStoreMode.
func (m *SessionStoreMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "memory", "redis", "postgres":
		*m = SessionStoreMode(v)
		return nil
	default:
		return fmt.Errorf("invalid SessionStoreMode: %q (valid options: memory, redis, postgres)", v)
	}
}

// SessionConfig controls session persistence and the cookies that identify it.
type SessionConfig struct {
	Store SessionStoreMode `env:"SESSION_STORE" envDefault:"memory"`

	// TTL is how long a stored session lives; it matches the role cookie max-age by default.
	TTL time.Duration `env:"SESSION_TTL" envDefault:"168h"`

	// CacheTTL bounds how long a session is served from process memory before storage is re-read.
	CacheTTL time.Duration `env:"SESSION_CACHE_TTL" envDefault:"30s"`

	// SweepInterval is how often expired sessions are purged from storages that need it.
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"5m"`

	// KeyPrefix namespaces Redis keys.
	KeyPrefix string `env:"SESSION_KEY_PREFIX" envDefault:"tolabi-session:"`

	// CookieDomain is the domain for session cookies.
	// Leave empty to use the request domain.
	CookieDomain string `env:"APP_COOKIE_DOMAIN" envDefault:""`

	// CookieSecure marks cookies Secure; enable behind TLS.
	CookieSecure bool `env:"SESSION_COOKIE_SECURE" envDefault:"false"`
}

// Sanitize normalizes durations and the cookie domain.
func (s *SessionConfig) Sanitize() {
	if s.Store == "" {
		s.Store = SessionStoreMemory
	}
	if s.TTL < 0 {
		s.TTL = 0
	}
	if s.CacheTTL <= 0 {
		s.CacheTTL = 30 * time.Second
	}
	if s.SweepInterval <= 0 {
		s.SweepInterval = 5 * time.Minute
	}
	if s.KeyPrefix == "" {
		s.KeyPrefix = "tolabi-session:"
	}
	s.CookieDomain = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s.CookieDomain)), ".")
}

// Validate rejects a cookie domain that is a public suffix: browsers drop such
// cookies, which would leave every visitor logged out.
func (s *SessionConfig) Validate() error {
	if s.CookieDomain == "" {
		return nil
	}
	if suffix, _ := publicsuffix.PublicSuffix(s.CookieDomain); suffix == s.CookieDomain {
		return fmt.Errorf("APP_COOKIE_DOMAIN %q is a public suffix", s.CookieDomain)
	}
	return nil
}
