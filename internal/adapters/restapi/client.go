// Package restapi is the client for the external tolabi REST backend.
// Every operation performs one round trip and either returns a normalized
// value or an *errors.AppError carrying a display-ready message.
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"

	apperrors "github.com/mhmdnab/tolabi/internal/errors"
	"github.com/mhmdnab/tolabi/internal/ports"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:4000"

const tracerName = "github.com/mhmdnab/tolabi/internal/adapters/restapi"

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 4 << 20

var _ ports.AdminAPI = (*Client)(nil)

// Config configures a Client.
type Config struct {
	// BaseURL of the backend; a trailing slash is trimmed. Defaults to DefaultBaseURL.
	BaseURL string
	// Timeout bounds each call. Zero means no timeout: a backend that never
	// answers leaves the caller waiting until its context is canceled.
	Timeout time.Duration
	// Transport is the base round tripper (optional, defaults to http.DefaultTransport).
	Transport http.RoundTripper
	Logger    *slog.Logger
	// TracerProvider receives one client span per call. Defaults to the global provider.
	TracerProvider trace.TracerProvider
}

// Client talks to the backend's auth and admin endpoints.
type Client struct {
	baseURL   string
	timeout   time.Duration
	transport http.RoundTripper
	logger    *slog.Logger
	tracer    trace.Tracer
}

// New constructs a Client from cfg.
func New(cfg Config) *Client {
	base := strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	tr := cfg.Transport
	if tr == nil {
		tr = http.DefaultTransport
	}
	tp := cfg.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Client{
		baseURL:   base,
		timeout:   cfg.Timeout,
		transport: tr,
		logger:    cfg.Logger,
		tracer:    tp.Tracer(tracerName),
	}
}

// BaseURL returns the normalized backend URL.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}

// operation names a backend call and its generic failure message.
type operation struct {
	name     string
	method   string
	fallback string // formatted with the HTTP status
}

func (op operation) failure(status int) string {
	return fmt.Sprintf(op.fallback, status)
}

//nolint:gochecknoglobals // static operation table
var (
	opLogin      = operation{name: "login", method: http.MethodPost, fallback: "Login failed (%d)"}
	opListUsers  = operation{name: "list_users", method: http.MethodGet, fallback: "Failed to load users (%d)"}
	opCreateUser = operation{name: "create_user", method: http.MethodPost, fallback: "Failed to create user (%d)"}
	opUpdateUser = operation{name: "update_user", method: http.MethodPatch, fallback: "Failed to update user (%d)"}
	opDeleteUser = operation{name: "delete_user", method: http.MethodDelete, fallback: "Failed to delete user (%d)"}
)

// call describes one request.
type call struct {
	op    operation
	path  string
	token string // bearer token; empty for unauthenticated calls
	body  any    // JSON encoded when non-nil
}

// response is what the shared policy hands back to each endpoint.
type response struct {
	status int
	body   payload
}

func (r response) ok() bool { return r.status >= 200 && r.status < 300 }

// do performs the round trip and applies steps shared by every endpoint:
// read the whole body, decide between JSON and text, and turn a non-2xx
// status into a BusinessError. Endpoint-specific validation happens in the caller.
func (c *Client) do(ctx context.Context, in call) (response, error) {
	ctx, span := c.tracer.Start(ctx, "restapi."+in.op.name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", in.op.method),
			attribute.String("http.route", in.path),
		),
	)
	defer span.End()

	resp, err := c.roundTrip(ctx, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return response{}, err
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.status))

	if !resp.ok() {
		appErr := apperrors.Business(resp.status, resp.body.messageOr(in.op.failure(resp.status)))
		span.SetStatus(codes.Error, appErr.Message)
		c.log().Debug("backend call failed",
			slog.String("op", in.op.name),
			slog.Int("status", resp.status),
		)
		return resp, appErr
	}
	return resp, nil
}

func (c *Client) roundTrip(ctx context.Context, in call) (response, error) {
	var reader io.Reader
	if in.body != nil {
		b, err := json.Marshal(in.body)
		if err != nil {
			return response{}, apperrors.Wrapf(err, apperrors.ErrCodeInternal, "encode %s request", in.op.name)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, in.op.method, c.baseURL+in.path, reader)
	if err != nil {
		return response{}, apperrors.Wrapf(err, apperrors.ErrCodeInternal, "build %s request", in.op.name)
	}
	if in.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient(in.token).Do(req)
	if err != nil {
		return response{}, apperrors.Transport(err, "Could not reach the server")
	}
	defer func() {
		if cerr := res.Body.Close(); cerr != nil {
			c.log().Debug("close response body", slog.Any("error", cerr))
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return response{}, apperrors.Transport(err, "Could not read the server response")
	}

	body, valid := parsePayload(res.Header.Get("Content-Type"), raw)
	if !valid {
		return response{}, apperrors.InvalidResponse(res.StatusCode)
	}
	return response{status: res.StatusCode, body: body}, nil
}

// httpClient returns a client that attaches token as a bearer credential.
func (c *Client) httpClient(token string) *http.Client {
	tr := c.transport
	if token != "" {
		tr = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   c.transport,
		}
	}
	return &http.Client{Transport: tr, Timeout: c.timeout}
}
