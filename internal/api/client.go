// Package api is the request pipeline for every call to the clinic backend.
//
// Each request reads the bearer token from durable storage at call time, and
// an authentication failure on a session-bearing request is broadcast to the
// subscribers registered with OnSessionInvalid instead of being handled here.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/me/clinic/internal/logging"
	"github.com/me/clinic/internal/store"
)

// DefaultTimeout bounds a single request when no other timeout is configured.
const DefaultTimeout = 30 * time.Second

// TokenSource yields the bearer token to attach to a request, or "" for none.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// StoreTokens reads the token key from st on every call.
func StoreTokens(st store.Store) TokenSource {
	return TokenFunc(func(ctx context.Context) (string, error) {
		tok, _, err := st.Get(ctx, store.KeyToken)
		return tok, err
	})
}

// Client is an HTTP client for the clinic backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *slog.Logger

	mu        sync.Mutex
	onInvalid []func(context.Context)
}

// Option configures optional Client settings.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// NewClient creates a clinic API client. tokens may be nil for a client that
// never authenticates.
func NewClient(baseURL string, tokens TokenSource, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.Discard()
	}
	if tokens == nil {
		tokens = TokenFunc(func(context.Context) (string, error) { return "", nil })
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		tokens:     tokens,
		logger:     logger.With("component", "api-client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend URL requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// OnSessionInvalid registers fn to run whenever a session-bearing request is
// rejected as unauthenticated. Handlers run synchronously, in registration
// order, before the failing call returns.
func (c *Client) OnSessionInvalid(fn func(ctx context.Context)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onInvalid = append(c.onInvalid, fn)
}

// Request describes one backend call.
type Request struct {
	Method string
	Path   string
	Body   any

	// Public marks calls made without a session (login, register). A 401 on
	// them means bad credentials, not an expired session.
	Public bool
}

// Response is a successful backend response, passed through unmodified.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	RequestID  string
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("parse response (status %d): %w", r.StatusCode, err)
	}
	return nil
}

// Do performs req and returns the response for any 2xx status.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	target := c.baseURL + req.Path
	reqID := "req_" + uuid.New().String()[:8]

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("read session token: %w", err)
	}

	// Some routes carry the token in the path.
	logPath := req.Path
	if token != "" {
		logPath = strings.ReplaceAll(logPath, token, "[redacted]")
		logPath = strings.ReplaceAll(logPath, url.PathEscape(token), "[redacted]")
	}
	logger := c.logger.With("method", req.Method, "path", logPath, "request_id", reqID)

	var bodyReader io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", reqID)

	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	logger.Debug("HTTP request", "authenticated", token != "", "public", req.Public)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	logger.Debug("HTTP response", "status", resp.StatusCode, "bytes", len(respBody))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return &Response{
			StatusCode: resp.StatusCode,
			Header:     resp.Header,
			Body:       respBody,
			RequestID:  reqID,
		}, nil
	}

	httpErr := &HTTPError{
		StatusCode: resp.StatusCode,
		Message:    messageFromBody(resp.StatusCode, respBody),
	}

	if resp.StatusCode == http.StatusUnauthorized && !req.Public {
		logger.Warn("session rejected by backend", "status", resp.StatusCode)
		c.notifyInvalid(ctx)
		return nil, errors.Join(ErrSessionInvalid, httpErr)
	}
	return nil, httpErr
}

func (c *Client) notifyInvalid(ctx context.Context) {
	c.mu.Lock()
	handlers := append([]func(context.Context){}, c.onInvalid...)
	c.mu.Unlock()

	for _, fn := range handlers {
		fn(ctx)
	}
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path})
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path})
}

// getJSON performs a GET and decodes the body into T.
func getJSON[T any](ctx context.Context, c *Client, path string) (T, error) {
	var out T
	resp, err := c.Get(ctx, path)
	if err != nil {
		return out, err
	}
	if err := resp.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}
