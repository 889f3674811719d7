package restapi

import (
	"context"
	"encoding/json"
	"net/url"

	domainauth "github.com/mhmdnab/tolabi/internal/domain/auth"
	"github.com/mhmdnab/tolabi/internal/domain/user"
	apperrors "github.com/mhmdnab/tolabi/internal/errors"
)

const usersPath = "/api/admin/users"

const invalidUserResponse = "Invalid user response"

type createUserBody struct {
	Username     string `json:"username"`
	FullName     string `json:"fullName,omitempty"`
	Email        string `json:"email,omitempty"`
	Organization string `json:"organization,omitempty"`
	Role         string `json:"role"`
	IsActive     *bool  `json:"isActive,omitempty"`
	Password     string `json:"password,omitempty"`
}

type updateUserBody struct {
	Username     string `json:"username,omitempty"`
	FullName     string `json:"fullName,omitempty"`
	Email        string `json:"email,omitempty"`
	Organization string `json:"organization,omitempty"`
	Role         string `json:"role"`
	IsActive     *bool  `json:"isActive,omitempty"`
	// Password is only sent when a new one was entered.
	Password string `json:"password,omitempty"`
}

// ListUsers returns the accounts the backend knows about. Records without a
// resolvable id, username or role are dropped.
func (c *Client) ListUsers(ctx context.Context, token string) ([]user.Record, error) {
	resp, err := c.do(ctx, call{op: opListUsers, path: usersPath, token: token})
	if err != nil {
		return nil, err
	}
	return decodeUserList(resp.body), nil
}

// CreateUser creates an account and returns the backend's view of it.
func (c *Client) CreateUser(ctx context.Context, token string, in user.Input) (user.Record, error) {
	resp, err := c.do(ctx, call{
		op:    opCreateUser,
		path:  usersPath,
		token: token,
		body: createUserBody{
			Username:     in.Username,
			FullName:     in.FullName,
			Email:        in.Email,
			Organization: in.Organization,
			Role:         in.Role.APIValue(),
			IsActive:     in.IsActive,
			Password:     in.Password,
		},
	})
	if err != nil {
		return user.Record{}, err
	}
	return decodeUserRecord(resp)
}

// UpdateUser patches the account currently named username.
func (c *Client) UpdateUser(ctx context.Context, token, username string, in user.Input) (user.Record, error) {
	resp, err := c.do(ctx, call{
		op:    opUpdateUser,
		path:  usersPath + "/" + url.PathEscape(username),
		token: token,
		body: updateUserBody{
			Username:     in.Username,
			FullName:     in.FullName,
			Email:        in.Email,
			Organization: in.Organization,
			Role:         in.Role.APIValue(),
			IsActive:     in.IsActive,
			Password:     in.Password,
		},
	})
	if err != nil {
		return user.Record{}, err
	}
	return decodeUserRecord(resp)
}

// DeleteUser removes the account named username. The success body is ignored.
func (c *Client) DeleteUser(ctx context.Context, token, username string) error {
	_, err := c.do(ctx, call{
		op:    opDeleteUser,
		path:  usersPath + "/" + url.PathEscape(username),
		token: token,
	})
	return err
}

// decodeUserList accepts either a bare array or an object wrapping "users".
func decodeUserList(p payload) []user.Record {
	items, ok := p.array()
	if !ok {
		items = p.object().array("users")
	}

	records := make([]user.Record, 0, len(items))
	for _, raw := range items {
		if rec, ok := normalizeUser(raw); ok {
			records = append(records, rec)
		}
	}
	return records
}

func decodeUserRecord(resp response) (user.Record, error) {
	if resp.body.kind != bodyJSON {
		return user.Record{}, apperrors.ValidationGap(resp.status, invalidUserResponse)
	}
	rec, ok := normalizeUser(resp.body.raw)
	if !ok {
		return user.Record{}, apperrors.ValidationGap(resp.status, invalidUserResponse)
	}
	return rec, nil
}

// normalizeUser maps one backend user object to a Record. The id prefers
// "_id", then "id", then the username.
func normalizeUser(raw json.RawMessage) (user.Record, bool) {
	obj := decodeObject(raw)
	if obj == nil {
		return user.Record{}, false
	}

	role, ok := domainauth.ParseRole(obj.str("role"))
	username := obj.str("username")
	id := firstNonEmpty(obj.id("_id"), obj.id("id"), username)
	if !ok || username == "" || id == "" {
		return user.Record{}, false
	}

	return user.Record{
		ID:           id,
		Username:     username,
		FullName:     firstNonEmpty(obj.str("fullName"), username),
		Email:        obj.str("email"),
		Organization: obj.str("organization"),
		IsActive:     obj.boolPtr("isActive"),
		Role:         role,
	}, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
