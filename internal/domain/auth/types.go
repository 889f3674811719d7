package auth

// Package auth contains domain-level types for roles, sessions and the
// authorization decision shared by every gate in the HTTP layer.
// It is pure and free of framework/adapter concerns.

import "strings"

// Role represents an application's authorization role.
// Keep string form for easy persistence and cookies.
// Valid values are defined as constants below.
type Role string

const (
	RoleSuperadmin Role = "superadmin"
	RoleEditor     Role = "editor"
	RoleAttendant  Role = "attendant"
	// RoleVisitor is managed through the users page but has no dashboard.
	RoleVisitor Role = "visitor"
)

// attendantAlias is the spelling the backend uses for RoleAttendant.
const attendantAlias = "attendent"

// ParseRole normalizes a raw role value. Matching is case-insensitive and
// ignores surrounding whitespace. The backend alias "attendent" maps to
// RoleAttendant. Unrecognized values report ok=false rather than an error so
// callers can tell a malformed role apart from a transport failure.
func ParseRole(raw string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(RoleSuperadmin):
		return RoleSuperadmin, true
	case string(RoleEditor):
		return RoleEditor, true
	case string(RoleAttendant), attendantAlias:
		return RoleAttendant, true
	case string(RoleVisitor):
		return RoleVisitor, true
	default:
		return "", false
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	p, ok := ParseRole(string(r))
	return ok && p == r
}

// APIValue returns the spelling the backend expects for r.
func (r Role) APIValue() string {
	if r == RoleAttendant {
		return attendantAlias
	}
	return string(r)
}

// Label is the human readable name used in forms and tables.
func (r Role) Label() string {
	switch r {
	case RoleSuperadmin:
		return "Superadmin"
	case RoleEditor:
		return "Editor"
	case RoleAttendant:
		return "Attendant"
	case RoleVisitor:
		return "Visitor"
	default:
		return ""
	}
}

// Roles lists every known role in form order.
func Roles() []Role {
	return []Role{RoleAttendant, RoleEditor, RoleSuperadmin, RoleVisitor}
}

// Session is the record persisted for an authenticated user.
// Token is the opaque bearer credential issued by the backend.
type Session struct {
	Identity string `json:"identity"`
	Role     Role   `json:"role"`
	Token    string `json:"token"`
}

// Complete reports whether every field needed to act on the session is set.
func (s Session) Complete() bool {
	return s.Identity != "" && s.Token != "" && s.Role.Valid()
}
