package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// BackendConfig points the console at the REST backend that owns users and credentials.
type BackendConfig struct {
	// BaseURL of the backend; a trailing slash is trimmed.
	BaseURL string `env:"API_BASE" envDefault:"http://localhost:4000"`

	// Timeout bounds each backend call. Zero means no timeout.
	Timeout time.Duration `env:"API_TIMEOUT" envDefault:"0s"`
}

// Sanitize trims the base URL.
func (b *BackendConfig) Sanitize() {
	b.BaseURL = strings.TrimSuffix(strings.TrimSpace(b.BaseURL), "/")
	if b.Timeout < 0 {
		b.Timeout = 0
	}
}

// Validate requires an absolute http(s) URL.
func (b *BackendConfig) Validate() error {
	u, err := url.Parse(b.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("API_BASE must be an absolute http(s) URL, got %q", b.BaseURL)
	}
	return nil
}
