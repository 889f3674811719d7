//go:build tools
// +build tools

// Package tools documents development tool dependencies.
// These tools are installed globally via `go install` and are not tracked in go.mod
// since they are development tools, not runtime dependencies.
package tools

// Development tools (install via `go install`):
//
// Air - Live reload for the console while editing Go code; run with DEV=true so
// templates and static assets are also read from disk.
//   Install: go install github.com/air-verse/air@v1.63.0
//   Version: v1.63.0 (pinned 2025-01-01)
//   Docs: https://github.com/air-verse/air
//
// mockgen - Regenerates internal/mocks via `go generate ./internal/mocks`.
//   Run: go run go.uber.org/mock/mockgen@v0.6.0 (no install needed)
//   Docs: https://github.com/uber-go/mock
