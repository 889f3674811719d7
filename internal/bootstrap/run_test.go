package bootstrap

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhmdnab/tolabi/internal/adapters/memory"
)

func buildTestServices(t *testing.T) *ServiceContainer {
	t.Helper()
	svc, err := BuildServices(t.Context(), ServiceDeps{
		Config:  defaultConfig(t),
		Logger:  discardLogger(),
		Storage: memory.NewSessionStorage(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestBuildHTTPHandler_Middleware(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.HTTP.CompressionEnabled = true
	h, err := BuildHTTPHandler(&HTTPServerConfig{Config: cfg, Services: buildTestServices(t), Logger: discardLogger()})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `tolabi_http_requests_total{method="GET",route="GET /login",status="200"} 1`)
}

func TestBuildHTTPHandler_RequiresServices(t *testing.T) {
	_, err := BuildHTTPHandler(&HTTPServerConfig{Config: defaultConfig(t)})
	assert.Error(t, err)
}

func TestNewHTTPServer(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.HTTP.Addr = ""
	srv := NewHTTPServer(cfg.HTTP, http.NotFoundHandler())
	assert.Equal(t, ":8080", srv.Addr)
	assert.Equal(t, 10*time.Second, srv.ReadHeaderTimeout)
}

func TestRun_ServesUntilCanceled(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Session.SweepInterval = 10 * time.Millisecond

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, RunConfig{Config: cfg, Services: buildTestServices(t), Logger: discardLogger(), Listener: ln})
	}()

	url := "http://" + ln.Addr().String() + "/healthz"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url) //nolint:noctx // readiness poll
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode == http.StatusOK && strings.Contains(string(body), "ok")
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	_, err = http.Get(url) //nolint:noctx // server is closed
	assert.Error(t, err)
}

func TestRun_ListenFailure(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = busy.Close() })

	cfg := defaultConfig(t)
	cfg.HTTP.Addr = busy.Addr().String()
	err = Run(t.Context(), RunConfig{Config: cfg, Services: buildTestServices(t), Logger: discardLogger()})
	assert.Error(t, err)
}
