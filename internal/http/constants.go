package httpx

// CurrentPage constants define the page identifiers used in templates and navigation.
const (
	PageLogin          = "login"
	PageAdmin          = "admin"
	PageAdminCurrent   = "admin-current"
	PageAdminHistory   = "admin-visitoes"
	PageUsers          = "users"
	PageEditor         = "editor"
	PageAttendant      = "attendant"
	PageCheckingAccess = "checking-access"
	PageNotFound       = "not-found"
)

// Template paths used for loading templates in tests and production.
const (
	TemplatePathFromRoot = "frontend/templates"       // From project root
	TemplatePathFromTest = "../../frontend/templates" // From internal/http test files
)

//nolint:gochecknoglobals // static read-only lookup for templates
var contentTemplates = map[string]string{
	PageLogin:        "login-content",
	PageAdmin:        "admin-content",
	PageAdminCurrent: "admin-current-content",
	PageAdminHistory: "admin-visitoes-content",
	PageUsers:        "users-content",
	PageEditor:       "editor-content",
	PageAttendant:    "attendant-content",
	PageNotFound:     "not-found-content",
}

// ContentTemplateFor returns the content template for the given CurrentPage.
// Falls back to not-found-content for unknown pages.
func ContentTemplateFor(currentPage string) string {
	if name, ok := contentTemplates[currentPage]; ok {
		return name
	}
	return "not-found-content"
}
