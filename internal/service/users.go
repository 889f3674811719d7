package service

import (
	"context"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	domainauth "github.com/mhmdnab/tolabi/internal/domain/auth"
	"github.com/mhmdnab/tolabi/internal/domain/user"
	apperrors "github.com/mhmdnab/tolabi/internal/errors"
	"github.com/mhmdnab/tolabi/internal/ports"
)

// UserServiceOptions groups dependencies for UserService.
type UserServiceOptions struct {
	Directory ports.UserDirectory
	Logger    *slog.Logger
}

// UserService validates user-management input locally and forwards it to the
// backend with the acting session's token. Only a superadmin session may act.
// It keeps no state: every page render re-reads the list.
type UserService struct {
	dir    ports.UserDirectory
	logger *slog.Logger
}

// NewUserService constructs a new UserService.
func NewUserService(opts UserServiceOptions) *UserService {
	return &UserService{dir: opts.Directory, logger: opts.Logger}
}

func (s *UserService) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

// UserList is a listing plus its role tallies.
type UserList struct {
	Users  []user.Record
	Counts user.Counts
}

// List loads every account.
func (s *UserService) List(ctx context.Context, actor domainauth.Session) (UserList, error) {
	if err := requireSuperadmin(actor); err != nil {
		return UserList{}, err
	}
	records, err := s.dir.ListUsers(ctx, actor.Token)
	if err != nil {
		return UserList{}, err
	}
	return UserList{Users: records, Counts: user.Count(records)}, nil
}

// Find returns the account named username from a fresh listing.
func (s *UserService) Find(ctx context.Context, actor domainauth.Session, username string) (user.Record, error) {
	list, err := s.List(ctx, actor)
	if err != nil {
		return user.Record{}, err
	}
	for _, r := range list.Users {
		if r.Username == username {
			return r, nil
		}
	}
	return user.Record{}, apperrors.NotFound("User " + username + " was not found")
}

// Create validates in and creates the account. A password is required.
func (s *UserService) Create(ctx context.Context, actor domainauth.Session, in user.Input) (user.Record, error) {
	if err := requireSuperadmin(actor); err != nil {
		return user.Record{}, err
	}
	in = normalizeInput(in)
	if err := validateInput(in, true); err != nil {
		return user.Record{}, err
	}

	rec, err := s.dir.CreateUser(ctx, actor.Token, in)
	if err != nil {
		return user.Record{}, err
	}
	s.log().InfoContext(ctx, "user created", "actor", actor.Identity, "username", rec.Username, "role", string(rec.Role))
	return rec, nil
}

// Update validates in and patches the account currently named username.
// An empty password leaves the stored one unchanged.
func (s *UserService) Update(ctx context.Context, actor domainauth.Session, username string, in user.Input) (user.Record, error) {
	if err := requireSuperadmin(actor); err != nil {
		return user.Record{}, err
	}
	if strings.TrimSpace(username) == "" {
		return user.Record{}, apperrors.Validation("No user selected")
	}
	in = normalizeInput(in)
	if err := validateInput(in, false); err != nil {
		return user.Record{}, err
	}

	rec, err := s.dir.UpdateUser(ctx, actor.Token, username, in)
	if err != nil {
		return user.Record{}, err
	}
	s.log().InfoContext(ctx, "user updated", "actor", actor.Identity, "username", username, "role", string(rec.Role))
	return rec, nil
}

// Delete removes the account named username.
func (s *UserService) Delete(ctx context.Context, actor domainauth.Session, username string) error {
	if err := requireSuperadmin(actor); err != nil {
		return err
	}
	if strings.TrimSpace(username) == "" {
		return apperrors.Validation("No user selected")
	}
	if err := s.dir.DeleteUser(ctx, actor.Token, username); err != nil {
		return err
	}
	s.log().InfoContext(ctx, "user deleted", "actor", actor.Identity, "username", username)
	return nil
}

// requireSuperadmin refuses any actor that is not a signed-in superadmin.
func requireSuperadmin(actor domainauth.Session) error {
	if actor.Role != domainauth.RoleSuperadmin || actor.Token == "" {
		return apperrors.Business(http.StatusForbidden, "Only a superadmin can manage users")
	}
	return nil
}

func normalizeInput(in user.Input) user.Input {
	in.Username = strings.TrimSpace(in.Username)
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(in.Email)
	in.Organization = strings.TrimSpace(in.Organization)
	return in
}

func validateInput(in user.Input, requirePassword bool) error {
	if in.Username == "" {
		return apperrors.ValidationField("username", "Username is required")
	}
	if requirePassword && in.Password == "" {
		return apperrors.ValidationField("password", "Password is required")
	}
	if !in.Role.Valid() {
		return apperrors.ValidationField("role", "Choose a valid role")
	}
	if in.Email != "" {
		if _, err := mail.ParseAddress(in.Email); err != nil {
			return apperrors.ValidationField("email", "Enter a valid email address")
		}
	}
	return nil
}
