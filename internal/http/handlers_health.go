package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const healthResponse = `{"status":"ok"}`

// Pinger is implemented by the session storage.
type Pinger interface {
	Ping(ctx context.Context) error
}

// healthHandler answers liveness checks. With a storage it also reports
// whether sessions can be read; that check is bounded to two seconds.
func healthHandler(storage Pinger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if storage != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			err := storage.Ping(ctx)
			cancel()
			if err != nil {
				logger.WarnContext(r.Context(), "health check failed", slog.Any("error", err))
				WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		_, _ = w.Write([]byte(healthResponse + "\n"))
	}
}
