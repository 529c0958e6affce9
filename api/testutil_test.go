package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/skillswap/skillswap/db"
	"github.com/skillswap/skillswap/service/notify"
	"github.com/skillswap/skillswap/service/pubsub"
	"github.com/skillswap/skillswap/service/worker"
	"github.com/skillswap/skillswap/util"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// stubDistributor records distributed tasks instead of touching Redis
type stubDistributor struct {
	mu         sync.Mutex
	emails     []worker.EmailPayload
	notices    []worker.NotificationPayload
	deliveries []worker.DeliverMessagePayload
}

func (s *stubDistributor) DistributeTaskSendWelcomeEmail(ctx context.Context, payload worker.EmailPayload, opts ...asynq.Option) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emails = append(s.emails, payload)
	return nil
}

func (s *stubDistributor) DistributeTaskSendNotification(ctx context.Context, payload worker.NotificationPayload, opts ...asynq.Option) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, payload)
	return nil
}

func (s *stubDistributor) DistributeTaskDeliverMessage(ctx context.Context, payload worker.DeliverMessagePayload, opts ...asynq.Option) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliveries = append(s.deliveries, payload)
	return nil
}

func testConfig() *util.Config {
	return &util.Config{
		BaseURL:                "localhost:8080",
		DBConn:                 "file::memory:",
		SecretKey:              []byte("test-secret-key"),
		TokenExpiration:        time.Minute,
		RefreshTokenExpiration: time.Hour,
		MaxRequest:             10000,
		RefillRate:             time.Second,
	}
}

// newTestServer backs the full handler stack with an in-memory sqlite
// database and a stubbed task distributor
func newTestServer(t *testing.T) (*Server, *stubDistributor) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	queries := &db.Queries{DB: gormDB}
	require.NoError(t, queries.AutoMigration())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	distributor := &stubDistributor{}
	server := NewServer(
		queries,
		testConfig(),
		pubsub.NewHub(),
		notify.NewHub[db.Notification](),
		notify.NewHub[notify.ConversationChange](),
		distributor,
		logger,
	)
	server.RegisterHandler()

	return server, distributor
}

// request performs one JSON request against the server's router
func request(t *testing.T, server *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	server.mux.ServeHTTP(recorder, req)
	return recorder
}

func decode[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &out))
	return out
}

// register creates an account through the API and returns its identity and
// tokens
func register(t *testing.T, server *Server, email, username string) AuthResponse {
	t.Helper()

	recorder := request(t, server, "POST", "/api/auth/register", "", map[string]string{
		"email":    email,
		"password": "long-enough-password",
		"username": username,
	})
	require.Equal(t, http.StatusCreated, recorder.Code)
	return decode[AuthResponse](t, recorder)
}
