package httpx

import (
	"log/slog"
	"net/http"
)

// UIHandlers serves browser-facing routes.
type UIHandlers struct {
	T      *TemplateRenderer
	Users  UserManager
	Logger *slog.Logger
}

// logger returns the configured logger or falls back to slog.Default().
func (h *UIHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// renderPage renders data as a full page, or as the content fragment for htmx
// swaps. The fragment carries its own <title> and out-of-band header.
func (h *UIHandlers) renderPage(w http.ResponseWriter, r *http.Request, status int, data map[string]any) {
	if h.T == nil {
		http.Error(w, "templates unavailable", http.StatusInternalServerError)
		return
	}
	if !WantsPartial(r) {
		if err := h.T.RenderStatus(w, status, "layout", data); err != nil {
			h.renderTemplateFailure(w, r, err)
		}
		return
	}

	// htmx does not swap non-2xx bodies by default.
	if status >= http.StatusBadRequest {
		status = http.StatusOK
	}
	SetHXTrigger(w, "nav:activate", map[string]string{"path": r.URL.Path})
	if err := h.T.RenderStatus(w, status, "content", data); err != nil {
		h.renderTemplateFailure(w, r, err)
	}
}

func (h *UIHandlers) renderTemplateFailure(w http.ResponseWriter, r *http.Request, err error) {
	h.logger().ErrorContext(r.Context(), "page render failed",
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// NotFound renders the console's 404 page.
func (h *UIHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	data := NewTemplateData(r, PageMeta{Title: "Not found", CurrentPage: PageNotFound}).Build()
	if h.T != nil && h.T.Has("error-layout") && !WantsPartial(r) {
		if err := h.T.RenderError(w, http.StatusNotFound, data); err == nil {
			return
		}
	}
	h.renderPage(w, r, http.StatusNotFound, data)
}
