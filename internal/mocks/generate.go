// Package mocks provides gomock implementations of the console ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	api := mocks.NewMockAdminAPI(ctrl)
//	api.EXPECT().Login(gomock.Any(), "super", "pw").Return(sess, nil)
package mocks

// Generate mock for AdminAPI interface from internal/ports package.
// This creates MockAdminAPI with methods for all AdminAPI interface methods:
// Login, ListUsers, CreateUser, UpdateUser, DeleteUser
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=admin_api_mock.go github.com/mhmdnab/tolabi/internal/ports AdminAPI

// Generate mock for SessionStorage interface from internal/ports package.
// This creates MockSessionStorage with methods for all SessionStorage interface methods:
// Load, Store, Delete, Ping
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=session_storage_mock.go github.com/mhmdnab/tolabi/internal/ports SessionStorage
