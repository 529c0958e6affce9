// Package client is the Go client for the SkillSwap backend. It wraps the
// HTTP/WebSocket API and carries the application-side state the pages
// consume: the auth state holder, the profile listing, the conversation
// resolver, the live message channel and the access gate.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

var (
	// ErrNotConfigured means no backend base URL was supplied; every
	// operation short-circuits with this instead of touching the network.
	ErrNotConfigured = errors.New("backend not configured")

	// ErrBackendUnavailable wraps transport-level failures so callers can
	// distinguish "could not reach the backend" from an API rejection.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrEmptyMessage is returned by Send for empty or whitespace-only text.
	// Callers treat it as a no-op: no record is created anywhere.
	ErrEmptyMessage = errors.New("message text is empty")
)

// APIError is a rejection from the backend, carrying the HTTP status and the
// server's error message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend rejected request (%d): %s", e.Status, e.Message)
}

// Identity is the opaque handle the auth layer assigns to a signed-in user
type Identity struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type Config struct {
	// BaseURL of the backend, e.g. "http://localhost:8080". Empty means not
	// configured: the client still constructs, but every call fails with
	// ErrNotConfigured.
	BaseURL string

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client is the thin wrapper around the backend API. It owns the single
// session shared by every component: the current tokens, the signed-in
// identity and the auth-change subscriber registry.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	identity     *Identity
	authSubs     map[int]func(*Identity)
	nextAuthSub  int
}

func New(config Config) *Client {
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:  config.BaseURL,
		http:     httpClient,
		logger:   logger,
		authSubs: make(map[int]func(*Identity)),
	}
}

// Configured reports whether a backend base URL was supplied
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

// Identity returns the currently signed-in identity, or nil
func (c *Client) Identity() *Identity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.identity
}

// OnAuthChange registers a callback for sign-in state changes. The callback
// fires once immediately with the current state, then again on every change
// until the returned unsubscribe function is called.
func (c *Client) OnAuthChange(fn func(*Identity)) (unsubscribe func()) {
	c.mu.Lock()
	key := c.nextAuthSub
	c.nextAuthSub++
	c.authSubs[key] = fn
	current := c.identity
	c.mu.Unlock()

	fn(current)

	return func() {
		c.mu.Lock()
		delete(c.authSubs, key)
		c.mu.Unlock()
	}
}

// setSession swaps the held tokens and identity, then notifies every
// auth-change subscriber. Consumers observe new identities only through this
// path, never through an operation's return value.
func (c *Client) setSession(identity *Identity, accessToken, refreshToken string) {
	c.mu.Lock()
	c.identity = identity
	c.accessToken = accessToken
	c.refreshToken = refreshToken
	subs := make([]func(*Identity), 0, len(c.authSubs))
	for _, fn := range c.authSubs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(identity)
	}
}

func (c *Client) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

// do performs one JSON round trip against the backend. Transport failures
// come back wrapped in ErrBackendUnavailable; API rejections as *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Message string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = resp.Status
		}
		return &APIError{Status: resp.StatusCode, Message: apiErr.Message}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
