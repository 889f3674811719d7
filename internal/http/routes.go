package httpx

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"regexp"

	tolabi "github.com/mhmdnab/tolabi"
	domainauth "github.com/mhmdnab/tolabi/internal/domain/auth"
	"github.com/mhmdnab/tolabi/internal/observability/metrics"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Sessions SessionManager
	Users    UserManager
	// Storage backs the health check; optional.
	Storage Pinger
	Metrics *metrics.Metrics
	// MetricsPath exposes Metrics when both are set.
	MetricsPath  string
	Cookies      CookiePolicy
	LoginLimiter *LoginRateLimiter
	// TemplateFS and StaticFS override the embedded assets (tests, dev mode).
	TemplateFS fs.FS
	StaticFS   fs.FS
	IsDev      bool
	Logger     *slog.Logger
}

// NewRouter builds the console mux behind the edge gate.
func NewRouter(services RouterServices) (http.Handler, error) {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	templateFS, staticFS, err := resolveAssets(services)
	if err != nil {
		return nil, err
	}
	tr, err := NewTemplateRenderer(TemplateRendererConfig{TemplateFS: templateFS, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("create template renderer: %w", err)
	}

	ui := &UIHandlers{T: tr, Users: services.Users, Logger: logger}
	auth := &AuthHandlers{
		Svc:     services.Sessions,
		UI:      ui,
		Cookies: services.Cookies,
		Logger:  logger,
	}

	mux := http.NewServeMux()
	csrf := CSRFProtection(CSRFConfig{Cookies: services.Cookies})
	guard := func(role domainauth.Role, h http.HandlerFunc) http.Handler {
		return RoleGuard(GuardConfig{
			Sessions: services.Sessions,
			Renderer: tr,
			Logger:   logger,
			Metrics:  services.Metrics,
		}, role)(csrf(h))
	}

	mux.Handle("GET /static/", staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServerFS(staticFS))))
	health := healthHandler(services.Storage, logger)
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)
	if services.Metrics != nil && services.MetricsPath != "" {
		mux.Handle("GET "+services.MetricsPath, services.Metrics.Handler())
	}

	mux.HandleFunc("GET /auth/status", auth.Status)
	mux.Handle("GET "+domainauth.LoginPath, csrf(http.HandlerFunc(auth.LoginForm)))
	mux.Handle("POST "+domainauth.LoginPath, services.LoginLimiter.Middleware(csrf(http.HandlerFunc(auth.LoginSubmit))))
	mux.Handle("POST /logout", csrf(http.HandlerFunc(auth.Logout)))

	registerAdminRoutes(mux, ui, guard)
	mux.Handle("GET "+domainauth.EditorPath, guard(domainauth.RoleEditor, ui.Editor))
	mux.Handle("GET "+domainauth.AttendantPath, guard(domainauth.RoleAttendant, ui.Attendant))

	mux.Handle("/", csrf(http.HandlerFunc(ui.NotFound)))

	return EdgeGate(logger, services.Metrics)(mux), nil
}

func registerAdminRoutes(
	mux *http.ServeMux,
	ui *UIHandlers,
	guard func(domainauth.Role, http.HandlerFunc) http.Handler,
) {
	admin := func(h http.HandlerFunc) http.Handler { return guard(domainauth.RoleSuperadmin, h) }

	mux.Handle("GET /{$}", admin(ui.Home))
	mux.Handle("GET "+domainauth.AdminPath, admin(ui.Admin))
	mux.Handle("GET "+domainauth.AdminPath+"/current", admin(ui.AdminCurrent))
	mux.Handle("GET "+domainauth.AdminPath+"/visitoes", admin(ui.AdminHistory))
	mux.Handle("GET "+usersPath, admin(ui.UsersPage))
	mux.Handle("POST "+usersPath, admin(ui.CreateUser))
	mux.Handle("POST "+usersPath+"/{username}", admin(ui.UpdateUser))
	mux.Handle("POST "+usersPath+"/{username}/delete", admin(ui.DeleteUser))
}

// resolveAssets picks template and static filesystems: explicit overrides
// first, then the working tree in dev mode, then the embedded copies.
func resolveAssets(services RouterServices) (fs.FS, fs.FS, error) {
	templateFS, staticFS := services.TemplateFS, services.StaticFS
	if services.IsDev {
		if templateFS == nil {
			templateFS = os.DirFS(TemplatePathFromRoot)
		}
		if staticFS == nil {
			staticFS = os.DirFS("frontend/static")
		}
	}
	if templateFS == nil {
		sub, err := fs.Sub(tolabi.TemplateFS, TemplatePathFromRoot)
		if err != nil {
			return nil, nil, fmt.Errorf("open embedded templates: %w", err)
		}
		templateFS = sub
	}
	if staticFS == nil {
		sub, err := fs.Sub(tolabi.StaticFS, "frontend/static")
		if err != nil {
			return nil, nil, fmt.Errorf("open embedded static assets: %w", err)
		}
		staticFS = sub
	}
	return templateFS, staticFS, nil
}

//nolint:gochecknoglobals // compiled once
var hashedFilePattern = regexp.MustCompile(`\.[a-f0-9]{8}\.(?:js|css)(?:\.map)?$`)

// staticWithCacheHeaders lets content-hashed assets be cached for a year and
// forces revalidation of everything else.
func staticWithCacheHeaders(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hashedFilePattern.MatchString(r.URL.Path) {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		} else {
			w.Header().Set("Cache-Control", "no-cache")
		}
		handler.ServeHTTP(w, r)
	})
}
