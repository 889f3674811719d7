// Package tolabi provides the console's embedded templates and static assets.
package tolabi

import "embed"

// In dev mode the router reads these trees from disk instead.

//go:embed all:frontend/static
var StaticFS embed.FS

//go:embed all:frontend/templates
var TemplateFS embed.FS
