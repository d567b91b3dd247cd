// Package client talks to the taskboard HTTP API and keeps the session and
// task list state a user interface renders from.
package client

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
	"sync"
	"time"
)

const defaultTimeout = 10 * time.Second

// APIError is a non-2xx response. Message is the server's envelope message.
type APIError struct {
	Status  int
	Message string
	Fields  []FieldError
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// Message extracts a human readable message from err.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if err != nil && fallback == "" {
		return err.Error()
	}
	return fallback
}

type envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Pagination *Pagination     `json:"pagination"`
	Errors     []FieldError    `json:"errors"`
}

// API performs authenticated requests. Every 401 response clears the stored
// token and fires the unauthorized hooks, whichever call triggered it.
type API struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore

	mu             sync.Mutex
	onUnauthorized []func()
}

type Option func(*API)

// WithHTTPClient replaces the default client with its 10s timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(a *API) { a.http = c }
}

func NewAPI(baseURL string, tokens TokenStore, opts ...Option) *API {
	if tokens == nil {
		tokens = NewMemoryTokenStore()
	}
	a := &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		tokens:  tokens,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Tokens returns the store holding the session token.
func (a *API) Tokens() TokenStore { return a.tokens }

// OnUnauthorized registers fn to run after any 401 response.
func (a *API) OnUnauthorized(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onUnauthorized = append(a.onUnauthorized, fn)
}

func (a *API) do(ctx context.Context, method, path string, query url.Values, body, out any) (*Pagination, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	target := a.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token, err := a.tokens.Load()
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode %s %s: %w", method, path, err)
	}

	if resp.StatusCode >= http.StatusBadRequest || !env.Success {
		apiErr := &APIError{Status: resp.StatusCode, Message: env.Message, Fields: env.Errors}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		if resp.StatusCode == http.StatusUnauthorized {
			a.handleUnauthorized()
		}
		return nil, apiErr
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("decode %s %s data: %w", method, path, err)
		}
	}
	return env.Pagination, nil
}

func (a *API) handleUnauthorized() {
	_ = a.tokens.Clear()

	a.mu.Lock()
	hooks := append([]func(){}, a.onUnauthorized...)
	a.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}
