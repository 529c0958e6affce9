package client

import (
	"net/url"
	"sync"
)

// GateState is the access gate's position for one protected view
type GateState int

const (
	// GateResolving means the initial auth state is not yet known
	GateResolving GateState = iota
	// GateDenied means no identity is signed in; redirect to sign-in
	GateDenied
	// GateGranted means the protected content can render
	GateGranted
)

func (s GateState) String() string {
	switch s {
	case GateResolving:
		return "resolving"
	case GateDenied:
		return "denied"
	case GateGranted:
		return "granted"
	}
	return "unknown"
}

// AccessGate guards one protected view. It leaves RESOLVING exactly once,
// on the auth holder's first settled value, and only re-enters DENIED when
// an explicit sign-out propagates through the same subscription.
type AccessGate struct {
	signInPath    string
	requestedPath string

	mu          sync.Mutex
	state       GateState
	unsubscribe func()
}

// NewAccessGate mounts a gate for the view at requestedPath. A DENIED gate
// redirects to signInPath with the requested path carried as the "redirect"
// query parameter, so sign-in can return the user where they were headed.
func NewAccessGate(auth *AuthState, signInPath, requestedPath string) *AccessGate {
	gate := &AccessGate{
		signInPath:    signInPath,
		requestedPath: requestedPath,
		state:         GateResolving,
	}

	gate.unsubscribe = auth.Subscribe(func(identity *Identity) {
		gate.mu.Lock()
		if identity != nil {
			gate.state = GateGranted
		} else {
			gate.state = GateDenied
		}
		gate.mu.Unlock()
	})

	return gate
}

// Close tears down the gate's auth subscription
func (gate *AccessGate) Close() {
	gate.unsubscribe()
}

func (gate *AccessGate) State() GateState {
	gate.mu.Lock()
	defer gate.mu.Unlock()
	return gate.state
}

// RedirectPath is the sign-in destination for a DENIED gate, carrying the
// originally requested path so it can be returned to after sign-in.
func (gate *AccessGate) RedirectPath() string {
	query := url.Values{}
	query.Set("redirect", gate.requestedPath)
	return gate.signInPath + "?" + query.Encode()
}
