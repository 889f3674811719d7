package httpx

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/mhmdnab/tolabi/internal/domain/auth"
	"github.com/mhmdnab/tolabi/internal/ports"
)

const (
	// SlotCookieName identifies the browser's session slot.
	SlotCookieName = "tolabi-session"
	// RoleCookieName carries the mirrored role read by the edge gate.
	RoleCookieName = "role"
	// RoleCookieMaxAge is seven days, matching the login page's promise.
	RoleCookieMaxAge = 7 * 24 * 60 * 60
)

// CookiePolicy holds the attributes shared by every cookie the console sets.
type CookiePolicy struct {
	Domain string
	// Secure forces the Secure attribute; otherwise it follows the request scheme.
	Secure bool
	// SlotMaxAge bounds the slot cookie. Zero makes it a browser-session cookie.
	SlotMaxAge time.Duration
}

func (p CookiePolicy) secure(r *http.Request) bool {
	return p.Secure || r.TLS != nil || isForwardedHTTPS(r)
}

// slotFromRequest returns the slot id carried by the request, or "" when the
// cookie is missing or not a uuid.
func slotFromRequest(r *http.Request) string {
	c, err := r.Cookie(SlotCookieName)
	if err != nil {
		return ""
	}
	id, err := uuid.Parse(c.Value)
	if err != nil {
		return ""
	}
	return id.String()
}

// ensureSlot returns the request's slot, issuing a new slot cookie when absent.
func (p CookiePolicy) ensureSlot(w http.ResponseWriter, r *http.Request) string {
	if slot := slotFromRequest(r); slot != "" {
		return slot
	}
	return p.issueSlot(w, r)
}

// issueSlot sets a fresh slot cookie and returns its id.
func (p CookiePolicy) issueSlot(w http.ResponseWriter, r *http.Request) string {
	slot := uuid.NewString()
	c := &http.Cookie{
		Name:     SlotCookieName,
		Value:    slot,
		Path:     "/",
		Domain:   p.Domain,
		HttpOnly: true,
		Secure:   p.secure(r),
		SameSite: http.SameSiteLaxMode,
	}
	if p.SlotMaxAge > 0 {
		c.MaxAge = int(p.SlotMaxAge.Seconds())
	}
	http.SetCookie(w, c)
	return slot
}

// expireSlot removes the slot cookie so the next login starts a new slot.
func (p CookiePolicy) expireSlot(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SlotCookieName,
		Value:    "",
		Path:     "/",
		Domain:   p.Domain,
		HttpOnly: true,
		Secure:   p.secure(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

// roleFromRequest reads the mirrored role cookie. Only the canonical
// spelling written by MirrorRole is accepted; anything else reads as "".
func roleFromRequest(r *http.Request) domainauth.Role {
	c, err := r.Cookie(RoleCookieName)
	if err != nil {
		return ""
	}
	role := domainauth.Role(c.Value)
	if !role.Valid() {
		return ""
	}
	return role
}

// CookieMirror writes the role cookie on one response. It is handed to the
// session service, which decides when the mirror changes.
type CookieMirror struct {
	w      http.ResponseWriter
	r      *http.Request
	policy CookiePolicy
}

var _ ports.RoleMirror = (*CookieMirror)(nil)

// NewCookieMirror binds a mirror to a response.
func NewCookieMirror(w http.ResponseWriter, r *http.Request, policy CookiePolicy) *CookieMirror {
	return &CookieMirror{w: w, r: r, policy: policy}
}

// MirrorRole sets role=<value> for seven days. The cookie stays readable by
// scripts so client code can route without a round trip.
func (m *CookieMirror) MirrorRole(role domainauth.Role) {
	http.SetCookie(m.w, &http.Cookie{
		Name:     RoleCookieName,
		Value:    string(role),
		Path:     "/",
		Domain:   m.policy.Domain,
		MaxAge:   RoleCookieMaxAge,
		Secure:   m.policy.secure(m.r),
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearRole expires the role cookie.
func (m *CookieMirror) ClearRole() {
	http.SetCookie(m.w, &http.Cookie{
		Name:     RoleCookieName,
		Value:    "",
		Path:     "/",
		Domain:   m.policy.Domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		Secure:   m.policy.secure(m.r),
		SameSite: http.SameSiteLaxMode,
	})
}

// isForwardedHTTPS checks if the request was forwarded over HTTPS.
// Handles comma-separated values in X-Forwarded-Proto header.
func isForwardedHTTPS(r *http.Request) bool {
	for _, proto := range strings.Split(r.Header.Get("X-Forwarded-Proto"), ",") {
		if strings.EqualFold(strings.TrimSpace(proto), "https") {
			return true
		}
	}
	return false
}
