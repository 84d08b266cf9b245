// Package api wraps outbound HTTP calls to the back-office backend.
//
// Every call states explicitly whether it is tenant-scoped. Tenant-scoped
// calls carry the tenant bearer token (falling back to the user token) and
// an X-Tenant-Id header; unscoped calls carry the user token only. Failed
// responses are normalized into *Error with a status, code, message and
// detail.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/warunghq/warungctl/internal/log"
	"github.com/warunghq/warungctl/internal/session"
	"github.com/warunghq/warungctl/internal/version"
)

const defaultTimeout = 30 * time.Second

// readRetries is the bounded retry count for idempotent reads. Mutations
// are never retried, and neither are authentication rejections.
const readRetries = 2

// Multipart is a pass-through request body. The content type comes from the
// multipart writer that produced the stream and is not overridden.
type Multipart struct {
	ContentType string
	Body        io.Reader
}

// Request describes one API call.
type Request struct {
	Method string
	Path   string

	// Query is appended to the path when non-nil.
	Query url.Values

	// Body is JSON-encoded when non-nil. Mutually exclusive with Multipart.
	Body any

	// Multipart is sent as-is with its own content type.
	Multipart *Multipart

	// TenantScoped selects the token and headers. There is no inference
	// from the path; every call site sets this.
	TenantScoped bool

	// TenantID overrides the session's active tenant for the X-Tenant-Id
	// header. Tenant-scoped calls fall back to the session value.
	TenantID string

	// Out receives the decoded JSON response when non-nil. A 204 or empty
	// body leaves it untouched.
	Out any
}

// Client performs HTTP calls against the backend, reading tokens from the
// injected session store.
type Client struct {
	baseURL string
	http    *http.Client
	session *session.Store
	logger  *log.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger *log.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates an API client for baseURL. Trailing slashes on the base
// URL are ignored.
func NewClient(baseURL string, store *session.Store, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		session: store,
		logger:  log.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the session store the client reads tokens from.
func (c *Client) Session() *session.Store { return c.session }

// Do performs one API call, retrying idempotent reads a bounded number of
// times on transport failures and 5xx responses.
func (c *Client) Do(ctx context.Context, req Request) error {
	if req.Method == "" {
		if req.Body != nil || req.Multipart != nil {
			req.Method = http.MethodPost
		} else {
			req.Method = http.MethodGet
		}
	}

	retryable := req.Method == http.MethodGet && req.Multipart == nil
	if !retryable {
		return c.doOnce(ctx, req)
	}

	op := func() error {
		err := c.doOnce(ctx, req)
		if err == nil {
			return nil
		}
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Status > 0 && apiErr.Status < 500 {
			// 4xx, including authentication rejections, must not be retried.
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), readRetries), ctx)
	return backoff.Retry(op, policy)
}

func (c *Client) doOnce(ctx context.Context, req Request) error {
	token, err := c.selectToken(req.TenantScoped)
	if err != nil {
		return err
	}

	httpReq, err := c.buildRequest(ctx, req, token)
	if err != nil {
		return err
	}

	started := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send request %s %s: %w", req.Method, req.Path, err)
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "api request",
		"method", req.Method,
		"path", req.Path,
		"status", resp.StatusCode,
		"tenant_scoped", req.TenantScoped,
		"duration", time.Since(started).Round(time.Millisecond).String(),
	)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response %s %s: %w", req.Method, req.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.normalizeError(req, resp.StatusCode, body)
	}

	// Success with no content is an explicit empty result.
	if req.Out == nil || resp.StatusCode == http.StatusNoContent || len(body) == 0 {
		return nil
	}

	if err := json.Unmarshal(body, req.Out); err != nil {
		return fmt.Errorf("decode response %s %s: %w", req.Method, req.Path, err)
	}
	return nil
}

// selectToken picks the bearer token for the call. Tenant-scoped calls use
// the tenant token, falling back to the user token; unscoped calls use the
// user token only.
func (c *Client) selectToken(tenantScoped bool) (string, error) {
	state := c.session.Snapshot()
	if tenantScoped {
		if state.TenantToken != "" {
			return state.TenantToken, nil
		}
		if state.UserToken != "" {
			return state.UserToken, nil
		}
		return "", &Error{Status: 0, Code: CodeUnauthenticated, Message: "no tenant token"}
	}
	if state.UserToken == "" {
		return "", &Error{Status: 0, Code: CodeUnauthenticated, Message: "no user token"}
	}
	return state.UserToken, nil
}

func (c *Client) buildRequest(ctx context.Context, req Request, token string) (*http.Request, error) {
	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	contentType := ""
	switch {
	case req.Multipart != nil:
		body = req.Multipart.Body
		contentType = req.Multipart.ContentType
	case req.Body != nil:
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request %s %s: %w", req.Method, req.Path, err)
	}

	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("User-Agent", version.UserAgent())
	httpReq.Header.Set("X-Request-Id", uuid.NewString())

	if req.TenantScoped {
		tid := req.TenantID
		if tid == "" {
			tid = c.session.TenantID()
		}
		if tid != "" {
			httpReq.Header.Set("X-Tenant-Id", tid)
		}
	}
	return httpReq, nil
}

// normalizeError converts a non-success response into a typed *Error and
// applies the 401 session policy: a tenant-scoped 401 clears only the
// tenant fields and surfaces a tenant-session-expired condition; an
// unscoped 401 clears the full session.
func (c *Client) normalizeError(req Request, status int, body []byte) error {
	apiErr := parseErrorBody(status, body)

	if status == http.StatusUnauthorized {
		if req.TenantScoped {
			apiErr.Code = CodeTenantSessionExpired
			apiErr.Message = "tenant session expired"
			c.session.ClearTenant()
		} else {
			c.session.Reset()
		}
	}

	c.logger.WithError(apiErr).Debug("api request failed", "method", req.Method, "path", req.Path)
	return apiErr
}

// normalizeUnauthenticatedError normalizes a failure on a call made without
// a stored token (login). No session state is touched.
func (c *Client) normalizeUnauthenticatedError(status int, body []byte) error {
	apiErr := parseErrorBody(status, body)
	c.logger.WithError(apiErr).Debug("api request failed")
	return apiErr
}

// parseErrorBody builds the typed error from a non-success response: the
// body is parsed as JSON when possible, else kept as text, and the message
// prefers the backend's error or message field.
func parseErrorBody(status int, body []byte) *Error {
	message := fmt.Sprintf("HTTP %d", status)
	var detail any
	if len(body) > 0 {
		var parsed map[string]any
		if err := json.Unmarshal(body, &parsed); err == nil {
			detail = parsed
			if v, ok := parsed["error"].(string); ok && v != "" {
				message = v
			} else if v, ok := parsed["message"].(string); ok && v != "" {
				message = v
			}
		} else {
			detail = string(body)
		}
	}
	return &Error{Status: status, Code: codeForStatus(status), Message: message, Detail: detail}
}

func readBody(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

func decodeJSON(body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
