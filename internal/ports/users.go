package ports

import (
	"context"

	"github.com/mhmdnab/tolabi/internal/domain/user"
)

// UserDirectory manages accounts on the backend on behalf of a superadmin.
// Every call carries the bearer token of the acting session.
type UserDirectory interface {
	ListUsers(ctx context.Context, token string) ([]user.Record, error)
	CreateUser(ctx context.Context, token string, in user.Input) (user.Record, error)
	UpdateUser(ctx context.Context, token, username string, in user.Input) (user.Record, error)
	DeleteUser(ctx context.Context, token, username string) error
}

// AdminAPI is the full backend surface used by the console.
type AdminAPI interface {
	Authenticator
	UserDirectory
}
