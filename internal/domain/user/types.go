// Package user holds the account records managed from the superadmin users page.
package user

import "github.com/mhmdnab/tolabi/internal/domain/auth"

// Record is an account as returned by the backend after normalization.
// ID is the backend's durable identifier and falls back to Username.
type Record struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	Organization string    `json:"organization,omitempty"`
	IsActive     *bool     `json:"isActive,omitempty"`
	Role         auth.Role `json:"role"`
}

// Active reports the account status, treating an unknown status as active.
func (r Record) Active() bool {
	return r.IsActive == nil || *r.IsActive
}

// DisplayName is the full name when present, else the username.
func (r Record) DisplayName() string {
	if r.FullName != "" {
		return r.FullName
	}
	return r.Username
}

// Input is the mutable subset of a Record used in create and update bodies.
// Password is plaintext and is never rendered back.
type Input struct {
	Username     string
	FullName     string
	Email        string
	Organization string
	Role         auth.Role
	IsActive     *bool
	Password     string
}

// InputFromRecord seeds an edit form from an existing record.
func InputFromRecord(r Record) Input {
	active := r.Active()
	return Input{
		Username:     r.Username,
		FullName:     r.FullName,
		Email:        r.Email,
		Organization: r.Organization,
		Role:         r.Role,
		IsActive:     &active,
	}
}

// NewInput returns the defaults of the create form: attendant and active.
func NewInput() Input {
	active := true
	return Input{Role: auth.RoleAttendant, IsActive: &active}
}

// Counts summarizes a record list for the users page header.
type Counts struct {
	Total      int
	Attendants int
	Editors    int
}

// Count tallies records by role.
func Count(records []Record) Counts {
	var c Counts
	for _, r := range records {
		c.Total++
		switch r.Role {
		case auth.RoleAttendant:
			c.Attendants++
		case auth.RoleEditor:
			c.Editors++
		}
	}
	return c
}

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }
