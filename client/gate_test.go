package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGateDeniesUnauthenticated(t *testing.T) {
	c := New(Config{})
	state := NewAuthState(c)
	defer state.Close()

	gate := NewAccessGate(state, "/login", "/messages/5")
	defer gate.Close()

	// Auth settled to "none" on mount, so the gate leaves RESOLVING at once
	require.Equal(t, GateDenied, gate.State())
	require.Equal(t, "/login?redirect=%2Fmessages%2F5", gate.RedirectPath())
}

func TestGateGrantsAndRederivesOnSignOut(t *testing.T) {
	backend := fakeBackend(t)
	c := New(Config{BaseURL: backend.URL})
	state := NewAuthState(c)
	defer state.Close()

	require.True(t, state.SignIn(context.Background(), "ana@example.com", "open sesame"))

	gate := NewAccessGate(state, "/login", "/profile")
	defer gate.Close()
	require.Equal(t, GateGranted, gate.State())

	// Explicit sign-out re-derives the gate through the same subscription
	require.True(t, state.SignOut(context.Background()))
	require.Equal(t, GateDenied, gate.State())
}

func TestGateStateString(t *testing.T) {
	require.Equal(t, "resolving", GateResolving.String())
	require.Equal(t, "denied", GateDenied.String())
	require.Equal(t, "granted", GateGranted.String())
}
