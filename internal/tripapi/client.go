// Package tripapi is the typed client for the Toria backend. It performs no
// business logic: requests are translated to JSON, responses are decoded,
// checked against their schema and failures are classified.
package tripapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"toria/internal/apperr"
)

// DefaultTimeout bounds every request unless overridden.
const DefaultTimeout = 30 * time.Second

// TokenSource yields the bearer token for the signed-in user, or "" when
// nobody is signed in.
type TokenSource func() string

// Client talks to the backend over JSON/HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenSource
	logger     zerolog.Logger
	schema     *schema
	now        func() time.Time
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its timeout is kept as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the bound applied to every request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithTokenSource attaches the identity token to outgoing requests.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.token = ts }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithClock overrides the clock used for analytics timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a client rooted at baseURL, e.g. "https://api.example.com/api".
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("tripapi: base URL is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("tripapi: parse base URL: %w", err)
	}

	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: zerolog.Nop(),
		schema: newSchema(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the root every request is resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// doRequest performs a request and decodes the JSON response into result
// when result is non-nil.
func (c *Client) doRequest(ctx context.Context, op, method, path string, params url.Values, body, result any) error {
	apiURL := c.baseURL + path
	if len(params) > 0 {
		apiURL += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}

	requestID := uuid.New().String()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.token != nil {
		if token := c.token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		reqErr := classifyTransport(op, err)
		c.logger.Warn().
			Str("request_id", requestID).
			Str("method", method).
			Str("path", path).
			Bool("timeout", errors.Is(reqErr, apperr.ErrTimeout)).
			Dur("duration_ms", time.Since(start)).
			Err(err).
			Msg("API request failed")
		return reqErr
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("path", path).
		Int("status_code", resp.StatusCode).
		Dur("duration_ms", time.Since(start)).
		Msg("API request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		reqErr := &apperr.RequestError{
			Op:     op,
			Status: resp.StatusCode,
			Kind:   classifyStatus(resp.StatusCode),
			Err:    errors.New(errorDetail(detail, resp.Status)),
		}
		c.logger.Warn().
			Str("request_id", requestID).
			Str("path", path).
			Int("status_code", resp.StatusCode).
			Msg("API error response")
		return reqErr
	}

	if result == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		if isTimeout(err) {
			return &apperr.RequestError{Op: op, Status: resp.StatusCode, Kind: apperr.ErrTimeout, Err: err}
		}
		return &apperr.RequestError{Op: op, Status: resp.StatusCode, Kind: apperr.ErrMalformedResponse, Err: fmt.Errorf("decode response: %w", err)}
	}

	if err := c.schema.check(result); err != nil {
		return &apperr.RequestError{Op: op, Status: resp.StatusCode, Kind: apperr.ErrMalformedResponse, Err: err}
	}

	return nil
}

func classifyTransport(op string, err error) error {
	kind := apperr.ErrNetwork
	if isTimeout(err) {
		kind = apperr.ErrTimeout
	}
	return &apperr.RequestError{Op: op, Kind: kind, Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func classifyStatus(status int) error {
	switch {
	case status == http.StatusNotFound:
		return apperr.ErrNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperr.ErrAuth
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return apperr.ErrTimeout
	default:
		return apperr.ErrServer
	}
}

// errorDetail extracts FastAPI-style {"detail": "..."} bodies.
func errorDetail(body []byte, status string) string {
	var payload struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if s, ok := payload.Detail.(string); ok && s != "" {
			return s
		}
	}
	return status
}

func pathID(id string) string {
	return url.PathEscape(strings.TrimSpace(id))
}

func requireID(op, field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s: %w", op, apperr.NewValidation(map[string]string{field: "is required"}))
	}
	return nil
}
