package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/mhmdnab/tolabi/internal/errors"
)

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", apperrors.Validation("bad"), http.StatusUnprocessableEntity},
		{"not found", apperrors.NotFound("gone"), http.StatusNotFound},
		{"business 4xx", apperrors.Business(http.StatusUnauthorized, "no"), http.StatusUnauthorized},
		{"business 5xx", apperrors.Business(http.StatusServiceUnavailable, "later"), http.StatusBadGateway},
		{"wrapped business", fmt.Errorf("login: %w", apperrors.Business(http.StatusForbidden, "no")), http.StatusForbidden},
		{"transport", apperrors.Transport(errors.New("dial"), "Backend unreachable"), http.StatusBadGateway},
		{"invalid response", apperrors.InvalidResponse(200), http.StatusBadGateway},
		{"validation gap", apperrors.ValidationGap(200, "missing token"), http.StatusBadGateway},
		{"timeout", apperrors.Wrap(context.DeadlineExceeded, apperrors.ErrCodeTimeout, "slow"), http.StatusGatewayTimeout},
		{"plain", errors.New("x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusForError(tt.err))
		})
	}
}

func TestWriteError_HidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	err := apperrors.Transport(errors.New("dial tcp 10.0.0.5:443: refused"), "Backend unreachable")
	WriteError(rec, ErrorParams{Code: http.StatusBadGateway, ErrCode: "transport", Err: err})

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"transport","message":"Backend unreachable"}`, rec.Body.String())
}

func TestHTMXHelpers(t *testing.T) {
	req := get("/")
	assert.False(t, IsHTMX(req))
	assert.False(t, wantsJSON(req))

	req.Header.Set("Hx-Request", "true")
	assert.True(t, IsHTMX(req))
	assert.True(t, WantsPartial(req))
	assert.True(t, wantsJSON(req))

	req.Header.Set("Hx-History-Restore-Request", "true")
	assert.False(t, WantsPartial(req))

	xhr := get("/")
	xhr.Header.Set("X-Requested-With", "XMLHttpRequest")
	assert.True(t, wantsJSON(xhr))
	assert.False(t, acceptsJSON(xhr))

	rec := httptest.NewRecorder()
	SetHXTrigger(rec, "nav:activate", nil)
	assert.JSONEq(t, `{"nav:activate":true}`, rec.Header().Get("Hx-Trigger"))
}

func TestRedirectAfterPost(t *testing.T) {
	rec := httptest.NewRecorder()
	redirectAfterPost(rec, httptest.NewRequest(http.MethodPost, "/x", nil), "/admin")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	req.Header.Set("Hx-Request", "true")
	rec = httptest.NewRecorder()
	redirectAfterPost(rec, req, "/admin")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Hx-Redirect"))
}
