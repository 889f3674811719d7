package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	domainauth "github.com/mhmdnab/tolabi/internal/domain/auth"
	"github.com/mhmdnab/tolabi/internal/observability/metrics"
	"github.com/mhmdnab/tolabi/internal/service"
)

// Gate names used in logs and metrics.
const (
	gateEdge  = "edge"
	gateGuard = "guard"
)

// retryAfterSeconds is how long the placeholder waits before re-checking.
const retryAfterSeconds = 2

// SessionRestorer is the part of the session service the route guard needs.
type SessionRestorer interface {
	Restore(ctx context.Context, slot string) (service.SessionState, error)
}

var _ SessionRestorer = (*service.SessionService)(nil)

// EdgeGate intercepts requests under a protected prefix before any page
// handler runs. It only sees the mirrored role cookie, so it can reject early
// but never grants more than the route guard behind it.
func EdgeGate(logger *slog.Logger, m *metrics.Metrics) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !domainauth.IsProtected(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			role := roleFromRequest(r)
			decision := domainauth.AuthorizePath(domainauth.Known(role), r.URL.Path)
			m.GateDecision(gateEdge, decision.String())
			if decision != domainauth.Authorized {
				logger.DebugContext(r.Context(), "edge gate redirect",
					slog.String("path", r.URL.Path),
					slog.String("role", string(role)),
				)
				redirectToLogin(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GuardConfig groups dependencies of RoleGuard.
type GuardConfig struct {
	Sessions SessionRestorer
	Renderer *TemplateRenderer
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
}

// RoleGuard restores the caller's session and applies the shared policy with
// the allowed roles. While the session cannot be read it renders a
// placeholder that retries; it never renders the protected handler without
// an Authorized decision.
func RoleGuard(cfg GuardConfig, allowed ...domainauth.Role) Middleware {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			slot := slotFromRequest(r)
			state := service.SessionState{Known: true}
			if slot != "" {
				var err error
				state, err = cfg.Sessions.Restore(r.Context(), slot)
				if err != nil {
					logger.WarnContext(r.Context(), "session restore failed",
						slog.String("slot", slot),
						slog.Any("error", err),
					)
				}
			}

			decision := domainauth.Authorize(state.Auth(), allowed)
			cfg.Metrics.GateDecision(gateGuard, decision.String())
			switch decision {
			case domainauth.Authorized:
				ctx := SetSessionInContext(r.Context(), state.Session)
				ctx = setSlotInContext(ctx, slot)
				next.ServeHTTP(w, r.WithContext(ctx))
			case domainauth.Indeterminate:
				renderCheckingAccess(w, r, cfg.Renderer)
			default:
				redirectToLogin(w, r)
			}
		})
	}
}

// redirectToLogin sends the browser to the login page, replacing the current
// history entry. htmx requests get an Hx-Redirect so the whole page changes.
func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	if IsHTMX(r) {
		SetHXRedirect(w, domainauth.LoginPath)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, domainauth.LoginPath, http.StatusSeeOther)
}

// renderCheckingAccess writes the non-terminal placeholder shown while the
// session is indeterminate. The page refreshes itself after a short delay.
func renderCheckingAccess(w http.ResponseWriter, r *http.Request, tr *TemplateRenderer) {
	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	w.Header().Set("Cache-Control", "no-store")
	if tr != nil {
		data := map[string]any{
			"Title":       "Checking access…",
			"RetryAfter":  retryAfterSeconds,
			"RefreshURL":  r.URL.RequestURI(),
			"CurrentPage": PageCheckingAccess,
		}
		if err := tr.RenderStatus(w, http.StatusServiceUnavailable, "checking-access", data); err == nil {
			return
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte(`<!doctype html><meta http-equiv="refresh" content="` +
		strconv.Itoa(retryAfterSeconds) + `"><p>Checking access…</p>`))
}
