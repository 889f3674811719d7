package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/mhmdnab/tolabi/internal/adapters/restapi"
	domainauth "github.com/mhmdnab/tolabi/internal/domain/auth"
	"github.com/mhmdnab/tolabi/internal/domain/user"
	apperrors "github.com/mhmdnab/tolabi/internal/errors"
	"github.com/mhmdnab/tolabi/internal/mocks"
	"github.com/mhmdnab/tolabi/internal/ports"
)

type harness struct {
	api    *mocks.MockAdminAPI
	out    *bytes.Buffer
	env    map[string]string
	config restapi.Config
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{
		api: mocks.NewMockAdminAPI(gomock.NewController(t)),
		out: &bytes.Buffer{},
		env: map[string]string{},
	}
}

func (h *harness) run(args ...string) error {
	a := newApp(h.out, func(k string) string { return h.env[k] })
	a.newAPI = func(cfg restapi.Config) ports.AdminAPI {
		h.config = cfg
		return h.api
	}
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(context.Background())
}

func TestLogin_Table(t *testing.T) {
	h := newHarness(t)
	h.env[envAPIBase] = "https://api.example.com"
	h.api.EXPECT().Login(gomock.Any(), "root", "pw").
		Return(domainauth.Session{Identity: "root", Role: domainauth.RoleSuperadmin, Token: "tok-1"}, nil)

	require.NoError(t, h.run("login", "-u", "root", "-p", "pw", "--timeout", "5s"))

	assert.Equal(t, "https://api.example.com", h.config.BaseURL)
	assert.Equal(t, 5*time.Second, h.config.Timeout)
	out := h.out.String()
	assert.Contains(t, out, "IDENTITY")
	assert.Contains(t, out, "root")
	assert.Contains(t, out, "tok-1")
}

func TestLogin_JSONWithPasswordFromEnv(t *testing.T) {
	h := newHarness(t)
	h.env[envPassword] = "from-env"
	h.api.EXPECT().Login(gomock.Any(), "desk", "from-env").
		Return(domainauth.Session{Identity: "desk", Role: domainauth.RoleAttendant, Token: "tok-2"}, nil)

	require.NoError(t, h.run("login", "--username", "desk", "-o", "json"))

	var got loginOutput
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &got))
	assert.Equal(t, loginOutput{Identity: "desk", Role: "attendant", Dashboard: "/attendant", Token: "tok-2"}, got)
}

func TestLogin_Errors(t *testing.T) {
	h := newHarness(t)
	assert.Error(t, h.run("login", "-u", "root"), "missing password")

	h.api.EXPECT().Login(gomock.Any(), "root", "bad").
		Return(domainauth.Session{}, apperrors.Business(http.StatusUnauthorized, "Invalid credentials"))
	err := h.run("login", "-u", "root", "-p", "bad")
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", errorMessage(err))
}

func TestRoot_RejectsUnknownOutput(t *testing.T) {
	h := newHarness(t)
	assert.Error(t, h.run("login", "-u", "a", "-p", "b", "-o", "yaml"))
}

func TestUsers_RequireToken(t *testing.T) {
	h := newHarness(t)
	err := h.run("users", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), envToken)
}

func TestUsersList(t *testing.T) {
	h := newHarness(t)
	h.env[envToken] = "tok"
	h.api.EXPECT().ListUsers(gomock.Any(), "tok").Return([]user.Record{
		{Username: "amal", FullName: "Amal K", Email: "amal@example.com", Role: domainauth.RoleAttendant},
		{Username: "basel", Role: domainauth.RoleEditor, IsActive: user.Bool(false)},
	}, nil)

	require.NoError(t, h.run("users", "list"))
	out := h.out.String()
	assert.Contains(t, out, "Amal K")
	assert.Contains(t, out, "Inactive")
	assert.Contains(t, out, "Total: 2  Attendants: 1  Editors: 1")
}

func TestUsersList_JSON(t *testing.T) {
	h := newHarness(t)
	h.api.EXPECT().ListUsers(gomock.Any(), "flag-token").Return([]user.Record{{Username: "amal", Role: domainauth.RoleAttendant}}, nil)

	require.NoError(t, h.run("users", "list", "--token", "flag-token", "-o", "json"))
	var got []user.Record
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "amal", got[0].Username)
}

func TestUsersCreate(t *testing.T) {
	h := newHarness(t)
	h.env[envToken] = "tok"
	h.api.EXPECT().CreateUser(gomock.Any(), "tok", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, in user.Input) (user.Record, error) {
			assert.Equal(t, "nour", in.Username)
			assert.Equal(t, domainauth.RoleEditor, in.Role)
			assert.Equal(t, "s3cret", in.Password)
			require.NotNil(t, in.IsActive)
			assert.True(t, *in.IsActive)
			return user.Record{Username: "nour", Role: in.Role}, nil
		})

	require.NoError(t, h.run("users", "create", "--username", "nour", "--password", "s3cret", "--role", "Editor"))
	assert.Contains(t, h.out.String(), "nour")
}

func TestUsersCreate_ValidationStaysLocal(t *testing.T) {
	h := newHarness(t)
	h.env[envToken] = "tok"

	err := h.run("users", "create", "--username", "nour")
	require.Error(t, err)
	assert.Equal(t, "Password is required (password)", errorMessage(err))

	assert.Error(t, h.run("users", "create", "--username", "nour", "--password", "x", "--role", "owner"))
}

func TestUsersUpdate_KeepsUnsetFields(t *testing.T) {
	h := newHarness(t)
	h.env[envToken] = "tok"
	h.api.EXPECT().ListUsers(gomock.Any(), "tok").Return([]user.Record{
		{Username: "amal", FullName: "Amal K", Email: "amal@example.com", Role: domainauth.RoleAttendant},
	}, nil)
	h.api.EXPECT().UpdateUser(gomock.Any(), "tok", "amal", gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, in user.Input) (user.Record, error) {
			assert.Equal(t, "amal", in.Username)
			assert.Equal(t, "Amal K", in.FullName)
			assert.Equal(t, "amal@example.com", in.Email)
			assert.Empty(t, in.Password)
			require.NotNil(t, in.IsActive)
			assert.False(t, *in.IsActive)
			return user.Record{Username: "amal", Role: in.Role, IsActive: in.IsActive}, nil
		})

	require.NoError(t, h.run("users", "update", "amal", "--active=false", "-o", "json"))
	assert.Contains(t, h.out.String(), `"isActive": false`)
}

func TestUsersUpdate_UnknownUser(t *testing.T) {
	h := newHarness(t)
	h.env[envToken] = "tok"
	h.api.EXPECT().ListUsers(gomock.Any(), "tok").Return(nil, nil)

	err := h.run("users", "update", "ghost", "--role", "editor")
	require.Error(t, err)
	assert.Equal(t, "User ghost was not found", errorMessage(err))
}

func TestUsersDelete(t *testing.T) {
	h := newHarness(t)
	h.env[envToken] = "tok"
	h.api.EXPECT().DeleteUser(gomock.Any(), "tok", "basel").Return(nil)

	require.NoError(t, h.run("users", "delete", "basel"))
	assert.Equal(t, "Deleted basel\n", h.out.String())

	assert.Error(t, h.run("users", "delete"), "username argument is required")
}
