package api

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/skillswap/skillswap/db"
	"github.com/skillswap/skillswap/service/notify"
	"github.com/skillswap/skillswap/service/pubsub"
	"github.com/skillswap/skillswap/util"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	server, distributor := newTestServer(t)

	resp := register(t, server, "ana@example.com", "Ana")
	require.NotZero(t, resp.UserData.ID)
	require.Equal(t, "Ana", resp.UserData.Username)
	require.NotEmpty(t, resp.Tokens.AccessToken)
	require.NotEmpty(t, resp.Tokens.RefreshToken)

	// Registration queued the welcome email
	require.Len(t, distributor.emails, 1)
	require.Equal(t, "ana@example.com", distributor.emails[0].Email)

	// Login with the right password succeeds
	recorder := request(t, server, "POST", "/api/auth/login", "", map[string]string{
		"email":    "ana@example.com",
		"password": "long-enough-password",
	})
	require.Equal(t, http.StatusOK, recorder.Code)
	login := decode[AuthResponse](t, recorder)
	require.Equal(t, resp.UserData.ID, login.UserData.ID)

	// Wrong password is rejected
	recorder = request(t, server, "POST", "/api/auth/login", "", map[string]string{
		"email":    "ana@example.com",
		"password": "wrong-password-here",
	})
	require.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	server, _ := newTestServer(t)

	register(t, server, "ana@example.com", "Ana")

	recorder := request(t, server, "POST", "/api/auth/register", "", map[string]string{
		"email":    "ana@example.com",
		"password": "long-enough-password",
		"username": "Another Ana",
	})
	require.Equal(t, http.StatusConflict, recorder.Code)
}

func TestRefreshTokenDiscipline(t *testing.T) {
	server, _ := newTestServer(t)
	resp := register(t, server, "ana@example.com", "Ana")

	// The refresh endpoint rejects access tokens
	recorder := request(t, server, "POST", "/api/auth/token/refresh", resp.Tokens.AccessToken, nil)
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	// And accepts refresh tokens
	recorder = request(t, server, "POST", "/api/auth/token/refresh", resp.Tokens.RefreshToken, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	refreshed := decode[AuthResponse](t, recorder)
	require.NotEmpty(t, refreshed.Tokens.AccessToken)

	// Protected endpoints reject refresh tokens
	recorder = request(t, server, "GET", "/api/conversations", resp.Tokens.RefreshToken, nil)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestLogoutInvalidatesOutstandingTokens(t *testing.T) {
	server, _ := newTestServer(t)
	resp := register(t, server, "ana@example.com", "Ana")

	recorder := request(t, server, "POST", "/api/auth/logout", resp.Tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	// The version bump invalidates the old token
	recorder = request(t, server, "GET", "/api/conversations", resp.Tokens.AccessToken, nil)
	require.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	server, _ := newTestServer(t)

	recorder := request(t, server, "GET", "/api/conversations", "", nil)
	require.Equal(t, http.StatusUnauthorized, recorder.Code)

	recorder = request(t, server, "GET", "/api/conversations", "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestNotConfiguredShortCircuits(t *testing.T) {
	// A server without backend credentials answers every data operation
	// with a distinguishable failure instead of crashing
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	config := &util.Config{MaxRequest: 100, RefillRate: time.Second}
	server := NewServer(
		&db.Queries{},
		config,
		pubsub.NewHub(),
		notify.NewHub[db.Notification](),
		notify.NewHub[notify.ConversationChange](),
		&stubDistributor{},
		logger,
	)
	server.RegisterHandler()

	recorder := request(t, server, "POST", "/api/auth/login", "", map[string]string{
		"email":    "ana@example.com",
		"password": "long-enough-password",
	})
	require.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	require.Contains(t, recorder.Body.String(), "not configured")
}
