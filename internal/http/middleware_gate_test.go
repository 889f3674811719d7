package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/mhmdnab/tolabi/internal/domain/auth"
	"github.com/mhmdnab/tolabi/internal/service"
)

var errStorageDown = errors.New("storage down")

type stubRestorer struct {
	state service.SessionState
	err   error
	calls int
}

func (s *stubRestorer) Restore(_ context.Context, _ string) (service.SessionState, error) {
	s.calls++
	return s.state, s.err
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("protected"))
	})
}

func TestEdgeGate_PassesUnprotectedPaths(t *testing.T) {
	h := EdgeGate(discardLogger(), nil)(okHandler())
	for _, path := range []string{"/", "/login", "/healthz", "/static/css/app.css", "/auth/status"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, get(path))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestEdgeGate_RoleMatrix(t *testing.T) {
	h := EdgeGate(discardLogger(), nil)(okHandler())
	paths := map[string]domainauth.Role{
		"/admin":             domainauth.RoleSuperadmin,
		"/admin/users":       domainauth.RoleSuperadmin,
		"/editor":            domainauth.RoleEditor,
		"/attendant/history": domainauth.RoleAttendant,
	}
	roles := []string{"superadmin", "editor", "attendant", "attendent", "SUPERADMIN", "visitor", "bogus", ""}

	for path, required := range paths {
		for _, raw := range roles {
			req := get(path)
			if raw != "" {
				req.AddCookie(roleCookie(raw))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if domainauth.Role(raw) == required {
				assert.Equal(t, http.StatusOK, rec.Code, "role %q on %s", raw, path)
				continue
			}
			assert.Equal(t, http.StatusSeeOther, rec.Code, "role %q on %s", raw, path)
			assert.Equal(t, "/login", rec.Header().Get("Location"))
		}
	}
}

func TestEdgeGate_HTMXRedirect(t *testing.T) {
	h := EdgeGate(discardLogger(), nil)(okHandler())
	req := get("/admin")
	req.Header.Set("Hx-Request", "true")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Hx-Redirect"))
	assert.NotContains(t, rec.Body.String(), "protected")
}

func TestRoleGuard_Decisions(t *testing.T) {
	slot := uuid.NewString()
	editor := &domainauth.Session{Identity: "ed", Role: domainauth.RoleEditor, Token: "t"}

	tests := []struct {
		name       string
		slot       string
		state      service.SessionState
		err        error
		wantStatus int
		wantBody   string
		wantCalls  int
	}{
		{
			name:       "no slot is logged out",
			wantStatus: http.StatusSeeOther,
		},
		{
			name:       "allowed role renders",
			slot:       slot,
			state:      service.SessionState{Known: true, Session: editor},
			wantStatus: http.StatusOK,
			wantBody:   "protected",
			wantCalls:  1,
		},
		{
			name:       "other role is redirected",
			slot:       slot,
			state:      service.SessionState{Known: true, Session: &domainauth.Session{Role: domainauth.RoleAttendant}},
			wantStatus: http.StatusSeeOther,
			wantCalls:  1,
		},
		{
			name:       "logged out slot is redirected",
			slot:       slot,
			state:      service.SessionState{Known: true},
			wantStatus: http.StatusSeeOther,
			wantCalls:  1,
		},
		{
			name:       "unreadable storage shows placeholder",
			slot:       slot,
			err:        errStorageDown,
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "Checking access",
			wantCalls:  1,
		},
		{
			name:       "malformed slot is ignored",
			slot:       "not-a-uuid",
			wantStatus: http.StatusSeeOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			restorer := &stubRestorer{state: tt.state, err: tt.err}
			h := RoleGuard(GuardConfig{Sessions: restorer, Logger: discardLogger()}, domainauth.RoleEditor)(okHandler())

			req := get("/editor")
			if tt.slot != "" {
				req.AddCookie(slotCookie(tt.slot))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCalls, restorer.calls)
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
			if tt.wantStatus != http.StatusOK {
				assert.NotContains(t, rec.Body.String(), "protected")
			}
			if tt.wantStatus == http.StatusSeeOther {
				assert.Equal(t, "/login", rec.Header().Get("Location"))
			}
		})
	}
}

func TestRoleGuard_PutsSessionInContext(t *testing.T) {
	slot := uuid.NewString()
	sess := &domainauth.Session{Identity: "root", Role: domainauth.RoleSuperadmin, Token: "t"}
	restorer := &stubRestorer{state: service.SessionState{Known: true, Session: sess}}

	var gotSession *domainauth.Session
	var gotSlot string
	next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		gotSession = GetSessionFromContext(r.Context())
		gotSlot = SlotFromContext(r.Context())
	})
	h := RoleGuard(GuardConfig{Sessions: restorer}, domainauth.RoleSuperadmin)(next)
	h.ServeHTTP(httptest.NewRecorder(), get("/admin", slotCookie(slot)))

	require.NotNil(t, gotSession)
	assert.Equal(t, "root", gotSession.Identity)
	assert.Equal(t, slot, gotSlot)
}

func TestRoleGuard_PlaceholderTemplate(t *testing.T) {
	tr := RequireTemplateRenderer(t)
	restorer := &stubRestorer{err: errStorageDown}
	h := RoleGuard(GuardConfig{Sessions: restorer, Renderer: tr, Logger: discardLogger()}, domainauth.RoleSuperadmin)(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, get("/admin/users?edit=a", slotCookie(uuid.NewString())))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	body := rec.Body.String()
	assert.True(t, ContainsAll(body, []string{`http-equiv="refresh"`, "Checking access", "/admin/users?edit=a"}), body)
}

// Both gates must agree before protected content renders.
func TestGates_ThroughRouter(t *testing.T) {
	env := newTestEnv(t)
	pages := map[string]domainauth.Role{
		"/admin":     domainauth.RoleSuperadmin,
		"/editor":    domainauth.RoleEditor,
		"/attendant": domainauth.RoleAttendant,
	}
	accounts := map[string]domainauth.Role{
		"super":  domainauth.RoleSuperadmin,
		"editor": domainauth.RoleEditor,
		"desk":   domainauth.RoleAttendant,
	}

	for name, role := range accounts {
		jar := env.login(t, name)
		for path, required := range pages {
			rec := env.do(get(path, jar...))
			if role == required {
				assert.Equal(t, http.StatusOK, rec.Code, "%s on %s", name, path)
			} else {
				assert.Equal(t, http.StatusSeeOther, rec.Code, "%s on %s", name, path)
			}
		}
	}
}

func TestGates_ForgedRoleCookieIsNotEnough(t *testing.T) {
	env := newTestEnv(t)
	jar := env.login(t, "editor")

	var slot *http.Cookie
	for _, c := range jar {
		if c.Name == SlotCookieName {
			slot = c
		}
	}
	require.NotNil(t, slot)

	rec := env.do(get("/admin", slot, roleCookie("superadmin")))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestGates_StaleRoleCookieIsRejectedAtTheEdge(t *testing.T) {
	env := newTestEnv(t)
	jar := env.login(t, "super")

	var slot *http.Cookie
	for _, c := range jar {
		if c.Name == SlotCookieName {
			slot = c
		}
	}
	rec := env.do(get("/admin", slot, roleCookie("editor")))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestGates_IndeterminateWhileStorageIsDown(t *testing.T) {
	env := newTestEnv(t)
	env.storage.Fail(errStorageDown)

	rec := env.do(get("/admin", slotCookie(uuid.NewString()), roleCookie("superadmin")))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "Checking access")

	env.storage.Fail(nil)
	rec = env.do(get("/admin", slotCookie(uuid.NewString()), roleCookie("superadmin")))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}
