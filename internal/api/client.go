// Package api is the HTTP client of the test management backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fjglira/uitestkit/internal/domain"
)

// ErrUnauthorized is wrapped by every error caused by a 401 response.
// The stored session has already been cleared when it is returned.
var ErrUnauthorized = errors.New("not authenticated")

// TokenStore supplies the bearer token and forgets it when the backend rejects it.
type TokenStore interface {
	Token() string
	Clear() error
}

// Client talks to the backend REST API.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore
	log     logrus.FieldLogger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithLogger sets the logger requests are traced to.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a Client for the backend at baseURL. tokens may be nil for
// anonymous use.
func New(baseURL string, tokens TokenStore, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		tokens:  tokens,
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	op := method + " " + path
	endpoint := c.baseURL + "/api" + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return &domain.NetworkError{Op: op, Message: "failed to encode request", Cause: err}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return &domain.NetworkError{Op: op, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	res, err := c.http.Do(req)
	if err != nil {
		return &domain.NetworkError{Op: op, Cause: err}
	}
	defer func() { _ = res.Body.Close() }()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return &domain.NetworkError{Op: op, StatusCode: res.StatusCode, Message: "failed to read response", Cause: err}
	}
	c.log.WithFields(logrus.Fields{"op": op, "status": res.StatusCode}).Debug("Backend call")

	if res.StatusCode == http.StatusUnauthorized {
		if c.tokens != nil {
			if err := c.tokens.Clear(); err != nil {
				c.log.WithError(err).Warn("Failed to clear stored session")
			}
		}
		return &domain.NetworkError{Op: op, StatusCode: res.StatusCode, Message: detail(data), Cause: ErrUnauthorized}
	}
	if res.StatusCode >= 400 {
		return &domain.NetworkError{Op: op, StatusCode: res.StatusCode, Message: detail(data)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &domain.NetworkError{Op: op, StatusCode: res.StatusCode, Message: "failed to decode response", Cause: err}
	}
	return nil
}

// detail extracts the message of a {"detail": ...} error payload. Validation
// errors carry a list of objects with a msg field.
func detail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return strings.TrimSpace(string(body))
	}

	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil && len(items) > 0 {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			msgs = append(msgs, it.Msg)
		}
		return strings.Join(msgs, "; ")
	}
	return string(payload.Detail)
}

// IsUnauthorized reports whether err came from a rejected session.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// StatusCode returns the HTTP status carried by err, 0 when there is none.
func StatusCode(err error) int {
	var ne *domain.NetworkError
	if errors.As(err, &ne) {
		return ne.StatusCode
	}
	return 0
}
