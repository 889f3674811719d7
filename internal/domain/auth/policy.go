package auth

import "strings"

// Decision is the outcome of evaluating a request against the route policy.
type Decision int

const (
	// Indeterminate means the session is not known yet; it is never terminal.
	Indeterminate Decision = iota
	// Authorized means the protected content may be rendered.
	Authorized
	// Unauthorized means the caller must be sent to the login page.
	Unauthorized
)

func (d Decision) String() string {
	switch d {
	case Authorized:
		return "authorized"
	case Unauthorized:
		return "unauthorized"
	default:
		return "indeterminate"
	}
}

// Paths used by the gates and the login flow.
const (
	LoginPath     = "/login"
	AdminPath     = "/admin"
	EditorPath    = "/editor"
	AttendantPath = "/attendant"
)

type protectedPrefix struct {
	prefix string
	role   Role
}

// Order matters only for readability; prefixes do not overlap.
//
//nolint:gochecknoglobals // static read-only route policy
var protectedPrefixes = []protectedPrefix{
	{prefix: AdminPath, role: RoleSuperadmin},
	{prefix: EditorPath, role: RoleEditor},
	{prefix: AttendantPath, role: RoleAttendant},
}

// RequiredRole returns the role a path demands. Matching is a plain prefix
// match, so "/administer" is also guarded by superadmin.
func RequiredRole(path string) (Role, bool) {
	for _, p := range protectedPrefixes {
		if strings.HasPrefix(path, p.prefix) {
			return p.role, true
		}
	}
	return "", false
}

// IsProtected reports whether path falls under a protected prefix.
func IsProtected(path string) bool {
	_, ok := RequiredRole(path)
	return ok
}

// DashboardPath returns the landing page for role, or "" when the role has no dashboard.
func DashboardPath(role Role) string {
	for _, p := range protectedPrefixes {
		if p.role == role {
			return p.prefix
		}
	}
	return ""
}

// State is what a gate knows about the caller when it asks for a decision.
// Known is false while the session is still being restored.
type State struct {
	Known bool
	Role  Role
}

// Pending is the state of a caller whose session has not been restored yet.
func Pending() State { return State{} }

// Known builds a resolved state. An empty role means logged out.
func Known(role Role) State { return State{Known: true, Role: role} }

// Authorize is the single authorization policy. The edge gate calls it with
// the mirrored role cookie and the route guard calls it with the restored
// session; both must agree for a request to render protected content.
func Authorize(state State, allowed []Role) Decision {
	if !state.Known {
		return Indeterminate
	}
	if state.Role == "" {
		return Unauthorized
	}
	for _, r := range allowed {
		if r == state.Role {
			return Authorized
		}
	}
	return Unauthorized
}

// AuthorizePath applies Authorize with the role required by path.
// Unprotected paths are always Authorized.
func AuthorizePath(state State, path string) Decision {
	required, ok := RequiredRole(path)
	if !ok {
		return Authorized
	}
	return Authorize(state, []Role{required})
}
