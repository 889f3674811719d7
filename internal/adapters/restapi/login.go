package restapi

import (
	"context"
	"strings"

	domainauth "github.com/mhmdnab/tolabi/internal/domain/auth"
	apperrors "github.com/mhmdnab/tolabi/internal/errors"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges credentials for a session. A 2xx response without a token
// or without a recognizable role is still a failure: an unknown role must
// never turn into access.
func (c *Client) Login(ctx context.Context, username, password string) (domainauth.Session, error) {
	resp, err := c.do(ctx, call{
		op:   opLogin,
		path: "/auth/login",
		body: loginRequest{Username: username, Password: password},
	})
	if err != nil {
		return domainauth.Session{}, err
	}
	return decodeLogin(resp, username)
}

func decodeLogin(resp response, username string) (domainauth.Session, error) {
	obj := resp.body.object()
	u := obj.object("user")
	token := obj.str("token")
	role, ok := domainauth.ParseRole(u.str("role"))
	if !ok || token == "" {
		return domainauth.Session{}, apperrors.ValidationGap(resp.status, resp.body.messageOr("Invalid server response"))
	}

	identity := u.str("username")
	if identity == "" {
		identity = strings.ToLower(strings.TrimSpace(username))
	}
	return domainauth.Session{Identity: identity, Role: role, Token: token}, nil
}
