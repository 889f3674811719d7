// Package core provides the template helpers shared by every console page.
package core

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	domainauth "github.com/mhmdnab/tolabi/internal/domain/auth"
)

// Deps holds optional dependencies for constructing the core template func map.
type Deps struct {
	Template           **template.Template
	ContentTemplateFor func(string) string
	// StaticPrefix is prepended by the asset helper; defaults to /static/.
	StaticPrefix string
}

// Funcs returns a template.FuncMap containing helpers that are broadly useful across templates.
func Funcs(deps Deps) template.FuncMap {
	prefix := deps.StaticPrefix
	if prefix == "" {
		prefix = "/static/"
	}
	funcs := template.FuncMap{
		"sectionTmpl": deps.ContentTemplateFor,
		"asset":       func(name string) string { return prefix + strings.TrimPrefix(name, "/") },
		"roleLabel":   RoleLabel,
		"initial":     Initial,
		"contains":    strings.Contains,
		"pathEscape":  url.PathEscape,
		"isTrue":      func(b *bool) bool { return b != nil && *b },
		"dict":        Dict,
	}
	funcs["renderSection"] = func(page string, data any) (template.HTML, error) {
		if deps.Template == nil || *deps.Template == nil {
			return "", errors.New("template not initialized")
		}
		var buf bytes.Buffer
		if err := (*deps.Template).ExecuteTemplate(&buf, deps.ContentTemplateFor(page), data); err != nil {
			return "", err
		}
		// #nosec G203 - rendered by our own html/template set; user values were escaped during ExecuteTemplate.
		return template.HTML(buf.String()), nil
	}
	return funcs
}

// RoleLabel accepts a Role or its raw string and returns the display label,
// or the raw value when it is not a known role.
func RoleLabel(v any) string {
	var raw string
	switch r := v.(type) {
	case domainauth.Role:
		raw = string(r)
	case string:
		raw = r
	default:
		return ""
	}
	if role, ok := domainauth.ParseRole(raw); ok {
		return role.Label()
	}
	return raw
}

// Initial is the upper-cased first letter of name, used for avatars.
func Initial(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "?"
	}
	return strings.ToUpper(string([]rune(name)[:1]))
}

// Dict builds a map from alternating keys and values so partials can take
// more than one argument.
func Dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, errors.New("dict needs an even number of arguments")
	}
	m := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict key %d is %T, not string", i/2, pairs[i])
		}
		m[key] = pairs[i+1]
	}
	return m, nil
}
