package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	domainauth "github.com/mhmdnab/tolabi/internal/domain/auth"
	apperrors "github.com/mhmdnab/tolabi/internal/errors"
	"github.com/mhmdnab/tolabi/internal/ports"
	"github.com/mhmdnab/tolabi/internal/service"
)

// SessionManager is the session service surface used by the auth handlers.
type SessionManager interface {
	SessionRestorer
	Login(ctx context.Context, in service.LoginInput) (domainauth.Session, error)
	Logout(ctx context.Context, slot string, mirror ports.RoleMirror) error
	Remirror(ctx context.Context, slot string, mirror ports.RoleMirror) (service.SessionState, error)
}

var _ SessionManager = (*service.SessionService)(nil)

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc     SessionManager
	UI      *UIHandlers
	Cookies CookiePolicy
	Logger  *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// LoginForm renders the login page. A caller that already holds a session
// with a dashboard is sent there instead; when its role cookie is missing or
// stale the session service writes it again first, otherwise the edge gate
// would send the browser straight back here.
// GET /login.
func (h *AuthHandlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	if slot := slotFromRequest(r); slot != "" {
		state, err := h.Svc.Restore(r.Context(), slot)
		if err == nil && state.LoggedIn() && roleFromRequest(r) != state.Session.Role {
			state, err = h.Svc.Remirror(r.Context(), slot, NewCookieMirror(w, r, h.Cookies))
		}
		if err == nil && state.LoggedIn() {
			if dest := domainauth.DashboardPath(state.Session.Role); dest != "" {
				http.Redirect(w, r, dest, http.StatusSeeOther)
				return
			}
		}
	}
	h.renderLogin(w, r, "", nil)
}

// LoginSubmit exchanges the submitted credentials for a session and sends
// the browser to the role's dashboard. Callers accepting JSON get
// {status, redirect_to} or {error, message} instead of a page.
// POST /login.
func (h *AuthHandlers) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLogin(w, r, "", apperrors.Validation("Could not read the login form"))
		return
	}
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")

	start := time.Now()
	slot := h.Cookies.ensureSlot(w, r)
	session, err := h.Svc.Login(r.Context(), service.LoginInput{
		Slot:     slot,
		Username: username,
		Password: password,
		Mirror:   NewCookieMirror(w, r, h.Cookies),
	})
	if err != nil {
		h.logger().InfoContext(r.Context(), "login failed",
			slog.String("code", string(apperrors.GetCode(err))),
			slog.Duration("duration", time.Since(start)),
		)
		if acceptsJSON(r) {
			WriteError(w, ErrorParams{Code: statusForError(err), ErrCode: string(apperrors.GetCode(err)), Err: err})
			return
		}
		h.renderLogin(w, r, username, err)
		return
	}

	dest := domainauth.DashboardPath(session.Role)
	if acceptsJSON(r) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "success", "redirect_to": dest})
		return
	}
	redirectAfterPost(w, r, dest)
}

func (h *AuthHandlers) renderLogin(w http.ResponseWriter, r *http.Request, username string, err error) {
	b := NewTemplateData(r, PageMeta{Title: "Login", CurrentPage: PageLogin}).
		With("Username", username)
	status := http.StatusOK
	if err != nil {
		b.WithError(apperrors.UserMessage(err, "Invalid credentials. Please try again."))
		status = statusForError(err)
	}
	h.UI.renderPage(w, r, status, b.Build())
}

// Logout clears the session of the caller's slot and expires both cookies.
// Scripts receive {status, redirect_to}; navigations are sent to /login.
// POST /logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	mirror := NewCookieMirror(w, r, h.Cookies)
	slot := slotFromRequest(r)
	if slot == "" {
		mirror.ClearRole()
	} else if err := h.Svc.Logout(r.Context(), slot, mirror); err != nil {
		h.logger().WarnContext(r.Context(), "logout failed", slog.String("slot", slot), slog.Any("error", err))
	}
	h.Cookies.expireSlot(w, r)

	if wantsJSON(r) {
		WriteJSON(w, http.StatusOK, map[string]string{
			"status":      "success",
			"redirect_to": domainauth.LoginPath,
		})
		return
	}
	http.Redirect(w, r, domainauth.LoginPath, http.StatusSeeOther)
}

// Status reports the caller's session without exposing the token.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	slot := slotFromRequest(r)
	if slot == "" {
		WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	state, err := h.Svc.Restore(r.Context(), slot)
	if err != nil {
		w.Header().Set("Retry-After", "2")
		WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
			"authenticated": false,
			"pending":       true,
		})
		return
	}
	if !state.LoggedIn() {
		WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user": map[string]string{
			"identity": state.Session.Identity,
			"role":     string(state.Session.Role),
		},
		"dashboard": domainauth.DashboardPath(state.Session.Role),
	})
}
