package client

import (
	"context"
	"errors"
	"sync"
)

// Wire structs matching the backend's auth responses
type authResponse struct {
	User   Identity `json:"user"`
	Tokens struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	} `json:"tokens"`
}

func (c *Client) signIn(ctx context.Context, email, password string) error {
	var resp authResponse
	err := c.do(ctx, "POST", "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return err
	}

	c.setSession(&resp.User, resp.Tokens.AccessToken, resp.Tokens.RefreshToken)
	return nil
}

func (c *Client) register(ctx context.Context, email, password, username string) error {
	var resp authResponse
	err := c.do(ctx, "POST", "/api/auth/register", map[string]string{
		"email":    email,
		"password": password,
		"username": username,
	}, &resp)
	if err != nil {
		return err
	}

	c.setSession(&resp.User, resp.Tokens.AccessToken, resp.Tokens.RefreshToken)
	return nil
}

func (c *Client) signOut(ctx context.Context) error {
	if err := c.do(ctx, "POST", "/api/auth/logout", nil, nil); err != nil {
		return err
	}

	c.setSession(nil, "", "")
	return nil
}

// AuthState is the per-session holder of "who is signed in". It subscribes
// exactly once to the client's auth-change stream; pages read the held
// identity and the resolving/loading flags instead of talking to the backend
// directly.
type AuthState struct {
	client *Client

	mu        sync.Mutex
	identity  *Identity
	resolving bool
	loading   bool
	lastErr   string
	subs      map[int]func(*Identity)
	nextSub   int

	unsubscribe func()
}

func NewAuthState(client *Client) *AuthState {
	state := &AuthState{
		client:    client,
		resolving: true,
		subs:      make(map[int]func(*Identity)),
	}

	state.unsubscribe = client.OnAuthChange(func(identity *Identity) {
		state.mu.Lock()
		state.identity = identity
		state.resolving = false
		subs := make([]func(*Identity), 0, len(state.subs))
		for _, fn := range state.subs {
			subs = append(subs, fn)
		}
		state.mu.Unlock()

		for _, fn := range subs {
			fn(identity)
		}
	})

	return state
}

// Close tears down the auth-change subscription
func (state *AuthState) Close() {
	state.unsubscribe()
}

// Current returns the held identity, or nil when signed out
func (state *AuthState) Current() *Identity {
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.identity
}

// Resolving reports whether the initial auth state is still unknown
func (state *AuthState) Resolving() bool {
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.resolving
}

// Loading reports whether a sign-in/register/sign-out call is in flight
func (state *AuthState) Loading() bool {
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.loading
}

// Err returns the last operation's error message, empty when none
func (state *AuthState) Err() string {
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.lastErr
}

func (state *AuthState) ClearErr() {
	state.mu.Lock()
	state.lastErr = ""
	state.mu.Unlock()
}

// Subscribe registers a callback for identity changes. Once the initial state
// has settled the callback also fires immediately with the current value.
func (state *AuthState) Subscribe(fn func(*Identity)) (unsubscribe func()) {
	state.mu.Lock()
	key := state.nextSub
	state.nextSub++
	state.subs[key] = fn
	settled := !state.resolving
	current := state.identity
	state.mu.Unlock()

	if settled {
		fn(current)
	}

	return func() {
		state.mu.Lock()
		delete(state.subs, key)
		state.mu.Unlock()
	}
}

func (state *AuthState) setLoading(loading bool) {
	state.mu.Lock()
	state.loading = loading
	state.mu.Unlock()
}

func (state *AuthState) fail(err error) bool {
	message := err.Error()
	if errors.Is(err, ErrNotConfigured) {
		message = "Backend is not configured. Check your environment."
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		message = apiErr.Message
	}

	state.mu.Lock()
	state.lastErr = message
	state.mu.Unlock()
	return false
}

// SignIn resolves true on success. The held identity is NOT updated
// synchronously here; it arrives through the auth-change subscription, so
// callers must react to the next notification rather than re-reading Current
// right after the call.
func (state *AuthState) SignIn(ctx context.Context, email, password string) bool {
	state.setLoading(true)
	defer state.setLoading(false)
	state.ClearErr()

	if err := state.client.signIn(ctx, email, password); err != nil {
		return state.fail(err)
	}
	return true
}

// Register creates an account with a display name and signs in
func (state *AuthState) Register(ctx context.Context, email, password, name string) bool {
	state.setLoading(true)
	defer state.setLoading(false)
	state.ClearErr()

	if err := state.client.register(ctx, email, password, name); err != nil {
		return state.fail(err)
	}
	return true
}

// SignOut clears the session; the "none" identity propagates through the
// same subscription as sign-in
func (state *AuthState) SignOut(ctx context.Context) bool {
	state.setLoading(true)
	defer state.setLoading(false)
	state.ClearErr()

	if err := state.client.signOut(ctx); err != nil {
		return state.fail(err)
	}
	return true
}
