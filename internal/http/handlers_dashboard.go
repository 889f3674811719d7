package httpx

import "net/http"

// receptionTitle is the console's Arabic header, "reception team".
const receptionTitle = "فريق الاستقبال"

// Home serves the superadmin dashboard at the site root.
func (h *UIHandlers) Home(w http.ResponseWriter, r *http.Request) {
	h.Admin(w, r)
}

// Admin serves the superadmin dashboard with its Current and History tiles.
func (h *UIHandlers) Admin(w http.ResponseWriter, r *http.Request) {
	data := NewTemplateData(r, PageMeta{
		Title:       "Super admin",
		PageTitle:   receptionTitle,
		CurrentPage: PageAdmin,
	}).With("Tiles", []dashboardTile{
		{Label: "Current", Href: "/admin/current"},
		{Label: "History", Href: "/admin/visitoes"},
		{Label: "Users", Href: "/admin/users"},
	}).Build()
	h.renderPage(w, r, http.StatusOK, data)
}

type dashboardTile struct {
	Label string
	Href  string
}

// AdminCurrent is the current plan placeholder.
func (h *UIHandlers) AdminCurrent(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusOK, NewTemplateData(r, PageMeta{
		Title:       "Current Plan",
		CurrentPage: PageAdminCurrent,
	}).Build())
}

// AdminHistory is the visitors history placeholder.
func (h *UIHandlers) AdminHistory(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusOK, NewTemplateData(r, PageMeta{
		Title:       "Visitors",
		CurrentPage: PageAdminHistory,
	}).Build())
}

// Editor serves the editor workspace.
func (h *UIHandlers) Editor(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusOK, NewTemplateData(r, PageMeta{
		Title:       "Editor Workspace",
		CurrentPage: PageEditor,
	}).Build())
}

// Attendant serves the attendant dashboard.
func (h *UIHandlers) Attendant(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusOK, NewTemplateData(r, PageMeta{
		Title:       "Attendant Dashboard",
		CurrentPage: PageAttendant,
	}).Build())
}
