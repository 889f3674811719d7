package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/mhmdnab/tolabi/config"
	"github.com/mhmdnab/tolabi/internal/adapters/memory"
	"github.com/mhmdnab/tolabi/internal/adapters/postgres"
	redisadapter "github.com/mhmdnab/tolabi/internal/adapters/redis"
	"github.com/mhmdnab/tolabi/internal/adapters/restapi"
	httpx "github.com/mhmdnab/tolabi/internal/http"
	"github.com/mhmdnab/tolabi/internal/observability/metrics"
	"github.com/mhmdnab/tolabi/internal/ports"
	"github.com/mhmdnab/tolabi/internal/service"
)

// ServiceContainer holds the long-lived services of one console process.
type ServiceContainer struct {
	Sessions *service.SessionService
	Users    *service.UserService
	Backend  *restapi.Client
	Storage  ports.SessionStorage
	// Sweeper is nil when the storage expires sessions on its own.
	Sweeper ports.SessionSweeper
	Limiter *httpx.LoginRateLimiter
	Metrics *metrics.Metrics
	// Tracing is nil unless OBSERVABILITY_TRACING_ENABLED is set.
	Tracing *sdktrace.TracerProvider

	closers []func() error
}

// Close releases the session service and the storage connections.
func (c *ServiceContainer) Close() error {
	if c == nil {
		return nil
	}
	if c.Sessions != nil {
		c.Sessions.Close()
	}
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config *config.AppConfig
	Logger *slog.Logger
	// Storage overrides the storage selected by Config.Session.Store.
	Storage ports.SessionStorage
	// API overrides the REST client (tests).
	API ports.AdminAPI
	// TraceWriter overrides the stream spans are exported to.
	TraceWriter io.Writer
}

// BuildServices connects the configured session storage and wires the
// session and user services over the REST backend.
func BuildServices(ctx context.Context, deps ServiceDeps) (*ServiceContainer, error) {
	if deps.Config == nil {
		return nil, errors.New("service deps missing AppConfig")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &ServiceContainer{}
	if cfg.Observability.Metrics.Enabled {
		c.Metrics = metrics.New(metrics.WithNamespace(cfg.Observability.Metrics.Namespace))
	}

	if cfg.Observability.Tracing.Enabled {
		w := deps.TraceWriter
		if w == nil {
			w = tracingWriter(cfg.Observability.Tracing)
		}
		tp, err := NewTracerProvider(cfg.Observability.Tracing, w)
		if err != nil {
			return nil, err
		}
		otel.SetTracerProvider(tp)
		c.Tracing = tp
		c.closers = append(c.closers, shutdownTracer(tp))
	}

	c.Storage = deps.Storage
	if c.Storage == nil {
		storage, closer, err := buildStorage(ctx, cfg, logger)
		if err != nil {
			return nil, errors.Join(err, c.Close())
		}
		c.Storage = storage
		if closer != nil {
			c.closers = append(c.closers, closer)
		}
	}
	if sw, ok := c.Storage.(ports.SessionSweeper); ok {
		c.Sweeper = sw
	}

	api := deps.API
	if api == nil {
		var tp trace.TracerProvider
		if c.Tracing != nil {
			tp = c.Tracing
		}
		c.Backend = restapi.New(restapi.Config{
			BaseURL:        cfg.Backend.BaseURL,
			Timeout:        cfg.Backend.Timeout,
			Logger:         logger.With("component", "restapi"),
			TracerProvider: tp,
		})
		api = c.Backend
	}

	c.Sessions = service.NewSessionService(service.SessionServiceOptions{
		API:      api,
		Storage:  c.Storage,
		Logger:   logger.With("component", "sessions"),
		Metrics:  c.Metrics,
		TTL:      cfg.Session.TTL,
		CacheTTL: cfg.Session.CacheTTL,
	})
	if err := c.Sessions.Init(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("init session service: %w", err), c.Close())
	}
	c.Sessions.Subscribe(logSessionEvents(logger))

	c.Users = service.NewUserService(service.UserServiceOptions{
		Directory: api,
		Logger:    logger.With("component", "users"),
	})

	if cfg.HTTP.LoginLimitEnabled() {
		c.Limiter = httpx.NewLoginRateLimiter(cfg.HTTP.LoginRatePerMinute, cfg.HTTP.LoginBurst, cfg.HTTP.TrustedProxyPrefixes()...)
	}

	logger.InfoContext(ctx, "services ready",
		"session_store", string(cfg.Session.Store),
		"backend", cfg.Backend.BaseURL,
		"metrics", c.Metrics != nil,
		"tracing", c.Tracing != nil,
	)
	return c, nil
}

// buildStorage connects the storage named by SESSION_STORE and returns a closer for it.
//
//nolint:ireturn // the storage kind is picked at runtime.
func buildStorage(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (ports.SessionStorage, func() error, error) {
	switch cfg.Session.Store {
	case config.SessionStoreRedis:
		client, err := ConnectRedis(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return redisadapter.NewSessionStorageWithPrefix(client, cfg.Session.KeyPrefix), closeRedis(client), nil

	case config.SessionStorePostgres:
		db, err := ConnectDB(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		if cfg.Postgres.RunMigrationsOnStart {
			if err := RunMigrations(ctx, db, logger); err != nil {
				return nil, nil, errors.Join(err, db.Close())
			}
		}
		return postgres.NewSessionStorage(db), closeDB(db), nil

	default:
		logger.WarnContext(ctx, "sessions are kept in memory and will not survive a restart")
		return memory.NewSessionStorage(), nil, nil
	}
}

func closeRedis(client redis.UniversalClient) func() error {
	return func() error {
		if err := client.Close(); err != nil {
			return fmt.Errorf("close redis client: %w", err)
		}
		return nil
	}
}

func closeDB(db *sql.DB) func() error {
	return func() error {
		if err := db.Close(); err != nil {
			return fmt.Errorf("close database: %w", err)
		}
		return nil
	}
}

// logSessionEvents logs session lifecycle changes; tokens never reach the log.
func logSessionEvents(logger *slog.Logger) func(service.Event) {
	return func(e service.Event) {
		attrs := []any{"event", string(e.Kind), "slot", e.Slot}
		if e.Session != nil {
			attrs = append(attrs, "role", string(e.Session.Role), "identity", e.Session.Identity)
		}
		logger.Info("session event", attrs...)
	}
}
