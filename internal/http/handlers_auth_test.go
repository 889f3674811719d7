package httpx

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginForm_Renders(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(get("/login"))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, ContainsAll(body, []string{`name="username"`, `name="password"`, `name="csrf_token"`, "Sign In"}), body)
	assert.NotNil(t, findCookie(rec, DefaultCSRFCookieName))
}

func TestLoginSubmit_SetsCookiesAndRedirects(t *testing.T) {
	tests := []struct {
		username string
		wantRole string
		wantDest string
	}{
		{username: "super", wantRole: "superadmin", wantDest: "/admin"},
		{username: "editor", wantRole: "editor", wantDest: "/editor"},
		{username: "desk", wantRole: "attendant", wantDest: "/attendant"},
	}
	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			env := newTestEnv(t)
			rec := env.do(postForm("/login", url.Values{"username": {tt.username}, "password": {"pw"}}))

			require.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, tt.wantDest, rec.Header().Get("Location"))

			role := findCookie(rec, RoleCookieName)
			require.NotNil(t, role)
			assert.Equal(t, tt.wantRole, role.Value)
			assert.Equal(t, "/", role.Path)
			assert.Equal(t, RoleCookieMaxAge, role.MaxAge)
			assert.Equal(t, http.SameSiteLaxMode, role.SameSite)
			assert.False(t, role.HttpOnly)

			slot := findCookie(rec, SlotCookieName)
			require.NotNil(t, slot)
			assert.True(t, slot.HttpOnly)
			_, err := uuid.Parse(slot.Value)
			assert.NoError(t, err)
		})
	}
}

func TestLoginSubmit_ReusesExistingSlot(t *testing.T) {
	env := newTestEnv(t)
	slot := uuid.NewString()
	rec := env.do(postForm("/login", url.Values{"username": {"super"}, "password": {"pw"}}, slotCookie(slot)))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Nil(t, findCookie(rec, SlotCookieName))

	state, err := env.sessions.Restore(t.Context(), slot)
	require.NoError(t, err)
	require.True(t, state.LoggedIn())
	assert.Equal(t, "super", state.Session.Identity)
}

func TestLoginSubmit_Failures(t *testing.T) {
	tests := []struct {
		name       string
		form       url.Values
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "wrong password",
			form:       url.Values{"username": {"super"}, "password": {"nope"}},
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "Invalid credentials",
		},
		{
			name:       "missing fields",
			form:       url.Values{"username": {""}, "password": {""}},
			wantStatus: http.StatusUnprocessableEntity,
			wantMsg:    "Username and password are required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rec := env.do(postForm("/login", tt.form))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantMsg)
			assert.Nil(t, findCookie(rec, RoleCookieName))
		})
	}
}

func TestLoginSubmit_KeepsUsernameOnError(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(postForm("/login", url.Values{"username": {"super"}, "password": {"bad"}}))
	assert.Contains(t, rec.Body.String(), `value="super"`)
}

func TestLoginSubmit_JSON(t *testing.T) {
	env := newTestEnv(t)

	req := postForm("/login", url.Values{"username": {"editor"}, "password": {"pw"}})
	req.Header.Set("Accept", "application/json")
	rec := env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	var ok map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ok))
	assert.Equal(t, map[string]string{"status": "success", "redirect_to": "/editor"}, ok)

	req = postForm("/login", url.Values{"username": {"editor"}, "password": {"bad"}})
	req.Header.Set("Accept", "application/json")
	rec = env.do(req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var failed map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &failed))
	assert.Equal(t, "business", failed["error"])
	assert.Equal(t, "Invalid credentials", failed["message"])
}

func TestLoginSubmit_HTMXRedirect(t *testing.T) {
	env := newTestEnv(t)
	req := postForm("/login", url.Values{"username": {"super"}, "password": {"pw"}})
	req.Header.Set("Hx-Request", "true")
	rec := env.do(req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Hx-Redirect"))
}

func TestLoginSubmit_RequiresCSRF(t *testing.T) {
	env := newTestEnv(t)
	req := postForm("/login", url.Values{"username": {"super"}, "password": {"pw"}})
	req.Header.Del("Cookie")

	rec := env.do(req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, env.api.Calls())
}

func TestLoginForm_RedirectsSignedInCaller(t *testing.T) {
	env := newTestEnv(t)
	jar := env.login(t, "desk")

	rec := env.do(get("/login", jar...))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/attendant", rec.Header().Get("Location"))
}

func TestLoginForm_RestoresMissingRoleCookie(t *testing.T) {
	env := newTestEnv(t)
	var slot *http.Cookie
	for _, c := range env.login(t, "super") {
		if c.Name == SlotCookieName {
			slot = c
		}
	}
	require.NotNil(t, slot)

	for _, stale := range [][]*http.Cookie{{slot}, {slot, roleCookie("editor")}, {slot, roleCookie("SUPERADMIN")}} {
		rec := env.do(get("/login", stale...))
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/admin", rec.Header().Get("Location"))

		role := findCookie(rec, RoleCookieName)
		require.NotNil(t, role, "role cookie is written again")
		assert.Equal(t, "superadmin", role.Value)
		assert.Equal(t, RoleCookieMaxAge, role.MaxAge)

		// The dashboard now opens instead of bouncing back to /login.
		rec = env.do(get("/admin", slot, role))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestLoginForm_MatchingRoleCookieIsLeftAlone(t *testing.T) {
	env := newTestEnv(t)
	jar := env.login(t, "editor")

	rec := env.do(get("/login", jar...))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Nil(t, findCookie(rec, RoleCookieName))
}

func TestLogout_ClearsSessionAndCookies(t *testing.T) {
	env := newTestEnv(t)
	jar := env.login(t, "super")

	rec := env.do(postForm("/logout", nil, jar...))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	role := findCookie(rec, RoleCookieName)
	require.NotNil(t, role)
	assert.Empty(t, role.Value)
	assert.Negative(t, role.MaxAge)
	slot := findCookie(rec, SlotCookieName)
	require.NotNil(t, slot)
	assert.Negative(t, slot.MaxAge)

	// The old slot no longer opens protected pages.
	rec = env.do(get("/admin", jar...))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestLogout_JSON(t *testing.T) {
	env := newTestEnv(t)
	jar := env.login(t, "editor")

	req := postForm("/logout", nil, jar...)
	req.Header.Set("Accept", "application/json")
	rec := env.do(req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"success","redirect_to":"/login"}`, rec.Body.String())
}

func TestLogout_WithoutSlotStillClearsRole(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(postForm("/logout", nil, roleCookie("editor")))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	role := findCookie(rec, RoleCookieName)
	require.NotNil(t, role)
	assert.Empty(t, role.Value)
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(get("/auth/status"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"authenticated":false}`, rec.Body.String())

	jar := env.login(t, "editor")
	rec = env.do(get("/auth/status", jar...))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"authenticated":true,"user":{"identity":"editor","role":"editor"},"dashboard":"/editor"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "t2")

	env.storage.Fail(errStorageDown)
	rec = env.do(get("/auth/status", slotCookie(uuid.NewString())))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"authenticated":false,"pending":true}`, rec.Body.String())
}
