package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mhmdnab/tolabi/config"
	httpx "github.com/mhmdnab/tolabi/internal/http"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services *ServiceContainer
	Logger   *slog.Logger
}

// BuildHTTPHandler wires the router and its middleware.
func BuildHTTPHandler(cfg *HTTPServerConfig) (http.Handler, error) {
	if cfg == nil || cfg.Config == nil || cfg.Services == nil {
		return nil, errors.New("http server config requires AppConfig and services")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config
	svc := cfg.Services

	metricsPath := ""
	if svc.Metrics != nil {
		metricsPath = appCfg.Observability.Metrics.Path
	}

	router, err := httpx.NewRouter(httpx.RouterServices{
		Sessions:    svc.Sessions,
		Users:       svc.Users,
		Storage:     svc.Storage,
		Metrics:     svc.Metrics,
		MetricsPath: metricsPath,
		Cookies: httpx.CookiePolicy{
			Domain:     appCfg.Session.CookieDomain,
			Secure:     appCfg.Session.CookieSecure,
			SlotMaxAge: appCfg.Session.TTL,
		},
		LoginLimiter: svc.Limiter,
		IsDev:        appCfg.IsDev,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build router: %w", err)
	}

	// Order: RequestID -> Recover -> Logging -> Compression -> Router.
	// Nothing between Logging and the mux may copy the request, or r.Pattern is lost.
	h := router
	if appCfg.HTTP.CompressionEnabled {
		logger.Info("HTTP compression enabled", "level", appCfg.HTTP.CompressionLevel)
		h = httpx.Compression(httpx.CompressionConfig{Level: appCfg.HTTP.CompressionLevel, Logger: logger})(h)
	}
	return httpx.Chain(h,
		httpx.RequestID(),
		httpx.Recover(logger),
		httpx.Logging(logger, svc.Metrics),
	), nil
}

// NewHTTPServer builds the server without starting it.
func NewHTTPServer(httpCfg config.HTTPConfig, handler http.Handler) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	addr := httpCfg.Addr
	if addr == "" {
		addr = ":8080"
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: httpCfg.ReadHeaderTimeout,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// ShutdownHTTPServer gracefully shuts down the HTTP server within timeout.
func ShutdownHTTPServer(ctx context.Context, server *http.Server, timeout time.Duration, logger *slog.Logger) error {
	if server == nil {
		return nil
	}
	if logger != nil {
		logger.Info("shutting down HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	if logger != nil {
		logger.Info("HTTP server stopped")
	}
	return nil
}
