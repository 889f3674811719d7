package httpx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/mhmdnab/tolabi/internal/domain/auth"
	"github.com/mhmdnab/tolabi/internal/http/ui/viewmodel"
)

func TestNewTemplateData_Anonymous(t *testing.T) {
	data := NewTemplateData(get("/login"), PageMeta{Title: "Login", CurrentPage: PageLogin}).Build()

	assert.Equal(t, "Login", data["Title"])
	assert.Equal(t, "Login", data["PageTitle"])
	assert.Equal(t, false, data["IsAuthenticated"])
	assert.Nil(t, data["User"])
	assert.Empty(t, data["Nav"])
}

func TestNewTemplateData_SignedIn(t *testing.T) {
	req := get("/admin/users")
	sess := &domainauth.Session{Identity: "root", Role: domainauth.RoleSuperadmin, Token: "t"}
	req = req.WithContext(SetSessionInContext(req.Context(), sess))

	data := NewTemplateData(req, PageMeta{Title: "Users", PageTitle: "Team", CurrentPage: PageUsers}).
		WithError("boom").
		WithFlash("saved").
		WithFieldErrors(map[string]string{"email": "bad"}).
		With("Extra", 1).
		Build()

	assert.Equal(t, "Team", data["PageTitle"])
	assert.Equal(t, true, data["IsAuthenticated"])
	assert.Equal(t, true, data["Error"])
	assert.Equal(t, "boom", data["ErrorMessage"])
	assert.Equal(t, "saved", data["Flash"])
	assert.Equal(t, map[string]string{"email": "bad"}, data["Errors"])
	assert.Equal(t, 1, data["Extra"])

	u, ok := data["User"].(*viewmodel.User)
	require.True(t, ok)
	assert.Equal(t, "Superadmin", u.RoleLabel)
	assert.Equal(t, "/admin", u.Dashboard)

	nav, ok := data["Nav"].([]viewmodel.NavLink)
	require.True(t, ok)
	active := map[string]bool{}
	for _, l := range nav {
		active[l.Href] = l.Active
	}
	assert.Equal(t, map[string]bool{
		"/admin":          false,
		"/admin/users":    true,
		"/admin/current":  false,
		"/admin/visitoes": false,
	}, active)
}

func TestTemplateDataBuilder_EmptyValuesAreSkipped(t *testing.T) {
	data := NewTemplateData(get("/"), PageMeta{}).WithError("").WithFlash("").WithFieldErrors(nil).Build()
	assert.NotContains(t, data, "Error")
	assert.NotContains(t, data, "Flash")
	assert.NotContains(t, data, "Errors")
}

func TestContentTemplateFor(t *testing.T) {
	assert.Equal(t, "users-content", ContentTemplateFor(PageUsers))
	assert.Equal(t, "admin-visitoes-content", ContentTemplateFor(PageAdminHistory))
	assert.Equal(t, "not-found-content", ContentTemplateFor("mystery"))
}

func TestTemplates_EveryPageHasContent(t *testing.T) {
	tr := RequireTemplateRenderer(t)
	for page, name := range contentTemplates {
		assert.True(t, tr.Has(name), "page %s needs template %s", page, name)
	}
	for _, name := range []string{"layout", "content", "error-layout", "checking-access", "user-form", "nav", "alerts"} {
		assert.True(t, tr.Has(name), name)
	}
}
