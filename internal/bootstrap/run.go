package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mhmdnab/tolabi/config"
)

// RunConfig groups what Run needs.
type RunConfig struct {
	Config   *config.AppConfig
	Services *ServiceContainer
	Logger   *slog.Logger
	// Listener overrides Config.HTTP.Addr (tests bind to port 0).
	Listener net.Listener
}

// Run serves HTTP and sweeps expired sessions until ctx is canceled or a
// component fails, then shuts the server down within HTTP.ShutdownTimeout.
func Run(ctx context.Context, rc RunConfig) error {
	if rc.Config == nil || rc.Services == nil {
		return errors.New("run config requires AppConfig and services")
	}
	logger := rc.Logger
	if logger == nil {
		logger = slog.Default()
	}

	handler, err := BuildHTTPHandler(&HTTPServerConfig{Config: rc.Config, Services: rc.Services, Logger: logger})
	if err != nil {
		return err
	}
	server := NewHTTPServer(rc.Config.HTTP, handler)

	ln := rc.Listener
	if ln == nil {
		ln, err = net.Listen("tcp", server.Addr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", server.Addr, err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting HTTP server", "addr", ln.Addr().String())
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return ShutdownHTTPServer(context.WithoutCancel(ctx), server, rc.Config.HTTP.ShutdownTimeout, logger)
	})
	g.Go(func() error {
		runSweeper(gctx, rc.Services, rc.Config.Session.SweepInterval, logger)
		return nil
	})

	return g.Wait()
}

// runSweeper periodically purges expired sessions from storage, stale cache
// entries and idle rate-limit buckets.
func runSweeper(ctx context.Context, svc *ServiceContainer, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepOnce(ctx, svc, logger)
		}
	}
}

func sweepOnce(ctx context.Context, svc *ServiceContainer, logger *slog.Logger) {
	var removed int
	if svc.Sweeper != nil {
		n, err := svc.Sweeper.Sweep(ctx)
		if err != nil {
			logger.WarnContext(ctx, "session sweep failed", "error", err)
		}
		removed = n
	}
	pruned := 0
	if svc.Sessions != nil {
		pruned = svc.Sessions.Prune()
	}
	buckets := svc.Limiter.Sweep()

	if removed+pruned+buckets > 0 {
		logger.DebugContext(ctx, "sweep completed",
			"expired_sessions", removed,
			"cache_evictions", pruned,
			"rate_buckets", buckets,
		)
	}
}
