package httpx

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/mhmdnab/tolabi/internal/adapters/memory"
	authmocks "github.com/mhmdnab/tolabi/internal/mocks/auth"
	"github.com/mhmdnab/tolabi/internal/service"
)

const testCSRFToken = "test-csrf-token"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// RequireTemplateRenderer creates a TemplateRenderer for tests, skipping the
// test if the template tree is not reachable from the package directory.
func RequireTemplateRenderer(t *testing.T) *TemplateRenderer {
	t.Helper()
	SkipIfNoTemplates(t)
	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: os.DirFS(TemplatePathFromTest),
		Logger:     discardLogger(),
	})
	require.NoError(t, err)
	return tr
}

// SkipIfNoTemplates skips the test when templates are not available.
func SkipIfNoTemplates(t *testing.T) {
	t.Helper()
	if _, err := os.Stat(TemplatePathFromTest); os.IsNotExist(err) {
		t.Skip("Templates not available, skipping")
	}
}

// testEnv is a router wired to real services over in-memory storage.
type testEnv struct {
	handler  http.Handler
	api      *authmocks.FakeAuthenticator
	storage  *authmocks.FlakyStorage
	sessions *service.SessionService
}

type envOption func(*RouterServices)

func withUsers(u UserManager) envOption {
	return func(s *RouterServices) { s.Users = u }
}

func withLimiter(l *LoginRateLimiter) envOption {
	return func(s *RouterServices) { s.LoginLimiter = l }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	SkipIfNoTemplates(t)

	api := authmocks.NewFakeAuthenticator()
	storage := authmocks.NewFlakyStorage(memory.NewSessionStorage())
	sessions := service.NewSessionService(service.SessionServiceOptions{
		API:     api,
		Storage: storage,
		Logger:  discardLogger(),
	})
	t.Cleanup(sessions.Close)

	static := fstest.MapFS{
		"css/app.css":        {Data: []byte("body{}")},
		"js/app.1a2b3c4d.js": {Data: []byte("void 0")},
	}
	services := RouterServices{
		Sessions:   sessions,
		Users:      service.NewUserService(service.UserServiceOptions{Logger: discardLogger()}),
		Storage:    storage,
		TemplateFS: os.DirFS(TemplatePathFromTest),
		StaticFS:   static,
		Logger:     discardLogger(),
	}
	for _, opt := range opts {
		opt(&services)
	}
	h, err := NewRouter(services)
	require.NoError(t, err)

	return &testEnv{handler: h, api: api, storage: storage, sessions: sessions}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// login signs username in through POST /login and returns the cookies a
// browser would send afterwards.
func (e *testEnv) login(t *testing.T, username string) []*http.Cookie {
	t.Helper()
	rec := e.do(postForm("/login", url.Values{"username": {username}, "password": {"pw"}}))
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())

	var jar []*http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == SlotCookieName || c.Name == RoleCookieName {
			jar = append(jar, c)
		}
	}
	require.Len(t, jar, 2)
	return jar
}

// postForm builds a form POST carrying a matching CSRF cookie and field.
func postForm(target string, form url.Values, cookies ...*http.Cookie) *http.Request {
	if form == nil {
		form = url.Values{}
	}
	form.Set(DefaultCSRFCookieName, testCSRFToken)
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: testCSRFToken})
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func get(target string, cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func slotCookie(slot string) *http.Cookie {
	return &http.Cookie{Name: SlotCookieName, Value: slot}
}

func roleCookie(role string) *http.Cookie {
	return &http.Cookie{Name: RoleCookieName, Value: role}
}

// ContainsAll checks if a string contains all the given substrings.
func ContainsAll(s string, subs []string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
