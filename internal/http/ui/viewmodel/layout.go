// Package viewmodel holds the typed data shared by the console layout templates.
package viewmodel

// User represents the authenticated user context exposed to templates.
type User struct {
	Identity  string
	Role      string
	RoleLabel string
	Dashboard string
}

// NavLink is one entry of the role navigation.
type NavLink struct {
	Label  string
	Href   string
	Active bool
}

// Layout captures shared chrome metadata (titles, navigation state, auth flags).
type Layout struct {
	Title           string
	PageTitle       string
	CurrentPage     string
	CSRFToken       string
	IsAuthenticated bool
	User            *User
	Nav             []NavLink
}
