package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	domainauth "github.com/mhmdnab/tolabi/internal/domain/auth"
	"github.com/mhmdnab/tolabi/internal/domain/user"
	apperrors "github.com/mhmdnab/tolabi/internal/errors"
	"github.com/mhmdnab/tolabi/internal/service"
)

const usersPath = domainauth.AdminPath + "/users"

// UserManager is the user-management surface the users page drives.
type UserManager interface {
	List(ctx context.Context, actor domainauth.Session) (service.UserList, error)
	Create(ctx context.Context, actor domainauth.Session, in user.Input) (user.Record, error)
	Update(ctx context.Context, actor domainauth.Session, username string, in user.Input) (user.Record, error)
	Delete(ctx context.Context, actor domainauth.Session, username string) error
}

var _ UserManager = (*service.UserService)(nil)

//nolint:gochecknoglobals // read-only notice texts keyed by the notice query param
var userNotices = map[string]string{
	"created": "User created.",
	"updated": "User updated.",
	"deleted": "User deleted.",
}

// usersView is the state of the users page besides the listing itself.
type usersView struct {
	Create       user.Input
	CreateErrors map[string]string
	Edit         *user.Input
	EditTarget   string
	EditErrors   map[string]string
	Err          error
}

// UsersPage lists accounts with their role counts, the create form, and the
// edit form when ?edit=<username> names a listed account.
func (h *UIHandlers) UsersPage(w http.ResponseWriter, r *http.Request) {
	view := usersView{Create: user.NewInput()}
	h.renderUsers(w, r, view, r.URL.Query().Get("edit"))
}

// CreateUser handles POST /admin/users.
func (h *UIHandlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	in, err := parseUserForm(r)
	if err == nil {
		_, err = h.Users.Create(r.Context(), actor, in)
	}
	if err != nil {
		in.Password = ""
		h.renderUsers(w, r, usersView{Create: in, CreateErrors: fieldErrors(err), Err: err}, "")
		return
	}
	redirectAfterPost(w, r, usersPath+"?notice=created")
}

// UpdateUser handles POST /admin/users/{username}.
func (h *UIHandlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	target := r.PathValue("username")
	in, err := parseUserForm(r)
	if err == nil {
		_, err = h.Users.Update(r.Context(), actor, target, in)
	}
	if err != nil {
		in.Password = ""
		h.renderUsers(w, r, usersView{
			Create:     user.NewInput(),
			Edit:       &in,
			EditTarget: target,
			EditErrors: fieldErrors(err),
			Err:        err,
		}, "")
		return
	}
	redirectAfterPost(w, r, usersPath+"?notice=updated")
}

// DeleteUser handles POST /admin/users/{username}/delete.
func (h *UIHandlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	if err := h.Users.Delete(r.Context(), actor, r.PathValue("username")); err != nil {
		h.renderUsers(w, r, usersView{Create: user.NewInput(), Err: err}, "")
		return
	}
	redirectAfterPost(w, r, usersPath+"?notice=deleted")
}

// actor returns the session the route guard put in the context.
func (h *UIHandlers) actor(w http.ResponseWriter, r *http.Request) (domainauth.Session, bool) {
	s := GetSessionFromContext(r.Context())
	if s == nil {
		redirectToLogin(w, r)
		return domainauth.Session{}, false
	}
	return *s, true
}

// renderUsers re-reads the listing and renders the page. editParam selects an
// account to seed the edit form from when view has no edit state yet.
func (h *UIHandlers) renderUsers(w http.ResponseWriter, r *http.Request, view usersView, editParam string) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	b := NewTemplateData(r, PageMeta{Title: "Users", CurrentPage: PageUsers})
	status := http.StatusOK

	list, listErr := h.Users.List(r.Context(), actor)
	if listErr != nil {
		h.logger().WarnContext(r.Context(), "list users failed", slog.Any("error", listErr))
		b.WithError(apperrors.UserMessage(listErr, "Failed to load users"))
		status = statusForError(listErr)
	}

	if view.Edit == nil && editParam != "" && listErr == nil {
		if rec, found := findUser(list.Users, editParam); found {
			in := user.InputFromRecord(rec)
			view.Edit = &in
			view.EditTarget = rec.Username
		} else {
			b.WithError("User " + editParam + " was not found")
		}
	}

	if view.Err != nil {
		b.WithError(apperrors.UserMessage(view.Err, "Something went wrong. Please try again."))
		status = statusForError(view.Err)
	} else if notice := userNotices[r.URL.Query().Get("notice")]; notice != "" {
		b.WithFlash(notice)
	}

	data := b.
		With("Users", list.Users).
		With("Counts", list.Counts).
		With("CreateForm", view.Create).
		With("CreateErrors", view.CreateErrors).
		With("EditForm", view.Edit).
		With("EditTarget", view.EditTarget).
		With("EditAction", usersPath+"/"+url.PathEscape(view.EditTarget)).
		With("EditErrors", view.EditErrors).
		With("Roles", domainauth.Roles()).
		Build()
	h.renderPage(w, r, status, data)
}

func findUser(records []user.Record, username string) (user.Record, bool) {
	for _, rec := range records {
		if rec.Username == username {
			return rec, true
		}
	}
	return user.Record{}, false
}

// parseUserForm reads the create/edit form. An unchecked isActive box means inactive.
// errUnreadableUserForm is returned when the submitted body cannot be parsed.
var errUnreadableUserForm = apperrors.Validation("Could not read the user form")

func parseUserForm(r *http.Request) (user.Input, error) {
	if err := r.ParseForm(); err != nil {
		return user.NewInput(), errUnreadableUserForm
	}
	role, _ := domainauth.ParseRole(r.PostForm.Get("role"))
	active := isChecked(r.PostForm.Get("isActive"))
	return user.Input{
		Username:     r.PostForm.Get("username"),
		FullName:     r.PostForm.Get("fullName"),
		Email:        r.PostForm.Get("email"),
		Organization: r.PostForm.Get("organization"),
		Role:         role,
		IsActive:     &active,
		Password:     r.PostForm.Get("password"),
	}, nil
}

func isChecked(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes":
		return true
	default:
		return false
	}
}

// fieldErrors lifts a field-scoped validation error into the form's error map.
func fieldErrors(err error) map[string]string {
	field := apperrors.GetField(err)
	if field == "" {
		return nil
	}
	return map[string]string{field: apperrors.UserMessage(err, "Invalid value")}
}
