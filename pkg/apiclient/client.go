// Package apiclient is the portal's gateway to the property-management REST
// backend. Every call carries the session bearer token, decodes the
// {success, data, message} envelope and maps failures onto pkg/errors codes.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/residence-portal/pkg/config"
	pkgerrors "github.com/angelmondragon/residence-portal/pkg/errors"
	"github.com/angelmondragon/residence-portal/pkg/logger"
	"github.com/angelmondragon/residence-portal/pkg/metrics"
	"github.com/angelmondragon/residence-portal/pkg/session"
	"github.com/angelmondragon/residence-portal/pkg/types"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultTimeout          = 10 * time.Second
	responseBodyLimit int64 = 1 << 20
	requestIDHeader         = "X-Request-Id"
)

var errBaseURLRequired = errors.New("backend base url is required")

// Client wraps the backend REST API used by the tenant portal.
type Client struct {
	httpClient *http.Client
	baseURL    string
	bus        *session.Bus
	metrics    *metrics.BackendMetrics
	logg       *logger.Logger
	requestID  func(context.Context) string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithSessionBus sets the bus that receives session-expired events.
func WithSessionBus(bus *session.Bus) Option {
	return func(c *Client) {
		c.bus = bus
	}
}

// WithMetrics records per-operation call metrics.
func WithMetrics(m *metrics.BackendMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithLogger sets the operator logger.
func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		if logg != nil {
			c.logg = logg
		}
	}
}

// WithRequestID forwards the inbound request id to the backend as
// X-Request-Id so both sides log the same identifier.
func WithRequestID(fn func(context.Context) string) Option {
	return func(c *Client) {
		c.requestID = fn
	}
}

// NewClient builds a client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logg:       logger.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// NewFromConfig builds the client from portal configuration. Tracing wraps
// the transport with otelhttp.
func NewFromConfig(cfg config.BackendConfig, opts ...Option) (*Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	var transport http.RoundTripper = http.DefaultTransport
	if cfg.Tracing {
		transport = otelhttp.NewTransport(transport,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return "backend " + r.Method + " " + r.URL.Path
			}),
		)
	}
	httpClient := &http.Client{Timeout: timeout, Transport: transport}
	return NewClient(cfg.BaseURL, append([]Option{WithHTTPClient(httpClient)}, opts...)...)
}

// call performs one backend request and decodes the envelope's data into out.
func (c *Client) call(ctx context.Context, op, method, path string, body, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "backend client not configured")
	}
	start := time.Now()
	status, err := c.roundTrip(ctx, method, path, body, out)
	c.metrics.Observe(op, status, time.Since(start))
	if err != nil {
		c.report(ctx, op, status, err)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal backend request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), reader)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build backend request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := session.TokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.requestID != nil {
		if id := c.requestID(ctx); id != "" {
			req.Header.Set(requestIDHeader, id)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeTransport, err, "backend unreachable")
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit))
	if err != nil {
		return resp.StatusCode, pkgerrors.Wrap(pkgerrors.CodeTransport, err, "read backend response")
	}

	var env types.BackendEnvelope
	decodeErr := decodeJSON(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, statusError(resp.StatusCode, env.Message)
	}
	if decodeErr != nil {
		return resp.StatusCode, pkgerrors.Wrap(pkgerrors.CodeDependency, decodeErr, "decode backend response")
	}
	if !env.Success {
		return resp.StatusCode, statusError(http.StatusBadRequest, env.Message)
	}
	if out == nil || isNull(env.Data) {
		return resp.StatusCode, nil
	}
	if err := decodeJSON(env.Data, out); err != nil {
		return resp.StatusCode, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode backend data")
	}
	return resp.StatusCode, nil
}

func statusError(status int, message string) *pkgerrors.Error {
	code := pkgerrors.CodeForStatus(status)
	if msg := strings.TrimSpace(message); msg != "" {
		return pkgerrors.Remote(code, msg)
	}
	return pkgerrors.New(code, fmt.Sprintf("backend returned status %d", status))
}

// report applies the global failure policy: 401 expires the session once
// per inbound request, 403 and 5xx go to the operator log.
func (c *Client) report(ctx context.Context, op string, status int, err error) {
	ctx = c.logg.WithFields(ctx, map[string]any{"operation": op, "status": status})
	switch {
	case status == http.StatusUnauthorized:
		guard := session.GuardFromContext(ctx)
		if guard == nil {
			guard = session.NewGuard(session.SessionIDFromContext(ctx), "", "")
		}
		if guard.Expire(ctx, c.bus) {
			c.metrics.IncSessionExpired()
			c.logg.Info(ctx, "backend rejected credential; session expired")
		}
	case status == http.StatusForbidden:
		c.logg.Warn(ctx, "backend denied access")
	case status >= http.StatusInternalServerError:
		c.logg.Error(ctx, "backend server error", err)
	case status == 0:
		c.logg.Error(ctx, "backend call failed", err)
	}
}

func (c *Client) buildURL(path string) string {
	return fmt.Sprintf("%s/%s", c.baseURL, strings.TrimLeft(path, "/"))
}

func decodeJSON(raw []byte, out any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return errors.New("empty body")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(out)
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
