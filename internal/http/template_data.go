package httpx

import (
	"net/http"
	"strings"

	domainauth "github.com/mhmdnab/tolabi/internal/domain/auth"
	"github.com/mhmdnab/tolabi/internal/http/templates/core"
	"github.com/mhmdnab/tolabi/internal/http/ui/viewmodel"
)

// PageMeta contains metadata for page rendering.
type PageMeta struct {
	Title       string
	PageTitle   string
	CurrentPage string
}

//nolint:gochecknoglobals // static navigation per role
var roleNav = map[domainauth.Role][]viewmodel.NavLink{
	domainauth.RoleSuperadmin: {
		{Label: "Dashboard", Href: domainauth.AdminPath},
		{Label: "Users", Href: domainauth.AdminPath + "/users"},
		{Label: "Current", Href: domainauth.AdminPath + "/current"},
		{Label: "History", Href: domainauth.AdminPath + "/visitoes"},
	},
	domainauth.RoleEditor:    {{Label: "Workspace", Href: domainauth.EditorPath}},
	domainauth.RoleAttendant: {{Label: "Workspace", Href: domainauth.AttendantPath}},
}

// buildLayout constructs shared layout metadata from the request/session context.
func buildLayout(r *http.Request, meta PageMeta) viewmodel.Layout {
	layout := viewmodel.Layout{
		Title:       meta.Title,
		PageTitle:   meta.PageTitle,
		CurrentPage: meta.CurrentPage,
		CSRFToken:   GetCSRFToken(r),
	}
	if layout.PageTitle == "" {
		layout.PageTitle = layout.Title
	}

	session := GetSessionFromContext(r.Context())
	if session == nil {
		return layout
	}
	layout.IsAuthenticated = true
	layout.User = &viewmodel.User{
		Identity:  session.Identity,
		Role:      string(session.Role),
		RoleLabel: core.RoleLabel(session.Role),
		Dashboard: domainauth.DashboardPath(session.Role),
	}
	for _, link := range roleNav[session.Role] {
		link.Active = r.URL.Path == link.Href ||
			(link.Href != domainauth.DashboardPath(session.Role) && strings.HasPrefix(r.URL.Path, link.Href))
		layout.Nav = append(layout.Nav, link)
	}
	return layout
}

// TemplateDataBuilder provides a fluent API for building template data maps.
type TemplateDataBuilder struct {
	data map[string]any
}

// NewTemplateData creates a builder seeded with the layout fields.
func NewTemplateData(r *http.Request, meta PageMeta) *TemplateDataBuilder {
	layout := buildLayout(r, meta)
	return &TemplateDataBuilder{data: map[string]any{
		"Title":           layout.Title,
		"PageTitle":       layout.PageTitle,
		"CurrentPage":     layout.CurrentPage,
		"CSRFToken":       layout.CSRFToken,
		"IsAuthenticated": layout.IsAuthenticated,
		"User":            layout.User,
		"Nav":             layout.Nav,
	}}
}

// WithError sets a general error message.
func (b *TemplateDataBuilder) WithError(msg string) *TemplateDataBuilder {
	if msg != "" {
		b.data["Error"] = true
		b.data["ErrorMessage"] = msg
	}
	return b
}

// WithFieldErrors adds field-level validation errors.
func (b *TemplateDataBuilder) WithFieldErrors(errs map[string]string) *TemplateDataBuilder {
	if len(errs) > 0 {
		b.data["Errors"] = errs
	}
	return b
}

// WithFlash adds a one-shot success message.
func (b *TemplateDataBuilder) WithFlash(msg string) *TemplateDataBuilder {
	if msg != "" {
		b.data["Flash"] = msg
	}
	return b
}

// With adds a custom field to the template data.
func (b *TemplateDataBuilder) With(key string, value any) *TemplateDataBuilder {
	b.data[key] = value
	return b
}

// Build returns the final template data map.
func (b *TemplateDataBuilder) Build() map[string]any {
	return b.data
}
