package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/skillswap/skillswap/db"
	"github.com/skillswap/skillswap/service/notify"
	"github.com/skillswap/skillswap/service/pubsub"
	"github.com/skillswap/skillswap/service/security"
	"github.com/skillswap/skillswap/service/worker"
	"github.com/skillswap/skillswap/util"
)

type Server struct {
	mux     *gin.Engine
	queries *db.Queries

	limiter         *RateLimiter
	jwtService      *security.JWTService
	oauth           OAuth
	upgrader        *websocket.Upgrader
	distributor     worker.TaskDistributor
	hub             *pubsub.Hub
	notifyHub       *notify.Hub[db.Notification]
	conversationHub *notify.Hub[notify.ConversationChange]

	config *util.Config
	logger *slog.Logger
}

func NewServer(
	queries *db.Queries,
	config *util.Config,
	hub *pubsub.Hub,
	notifyHub *notify.Hub[db.Notification],
	conversationHub *notify.Hub[notify.ConversationChange],
	distributor worker.TaskDistributor,
	logger *slog.Logger,
) *Server {
	// Create dependency
	jwtService := security.NewJWTService(config)
	oauth := NewGoogleAuth(queries, distributor, jwtService, config, logger)

	return &Server{
		mux:     gin.Default(),
		queries: queries,

		limiter:    NewRateLimiter(config.MaxRequest, config.RefillRate),
		jwtService: jwtService,
		oauth:      oauth,
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		distributor:     distributor,
		hub:             hub,
		notifyHub:       notifyHub,
		conversationHub: conversationHub,

		config: config,
		logger: logger,
	}
}

type ErrorResponse struct {
	Message string `json:"error"`
}

// Helper method to register handler to route
func (server *Server) RegisterHandler() {
	// Setup global middlewares
	server.mux.Use(server.CORSMiddlware(), server.RateLimitingMiddleware(), server.ConfiguredMiddleware())

	api := server.mux.Group("/api")
	{
		// Auth routes
		api.POST("/auth/register", server.HandleRegister)
		api.POST("/auth/login", server.HandleLogin)
		api.POST("/auth/logout", server.AuthMiddleware(), server.HandleLogout)
		api.POST("/auth/token/refresh", server.AuthMiddleware(), server.HandleRefreshToken)
		api.GET("/oauth", server.oauth.HandleOAuth)

		// Profile routes
		api.GET("/profiles", server.HandleListProfiles)
		api.GET("/profiles/:id", server.HandleGetProfile)
		api.PUT("/profiles/me", server.AuthMiddleware(), server.HandleUpsertProfile)

		// Conversation and message routes
		api.POST("/conversations/resolve", server.AuthMiddleware(), server.HandleResolveConversation)
		api.GET("/conversations", server.AuthMiddleware(), server.HandleListConversations)
		api.GET("/conversations/stream", server.AuthMiddleware(), server.ConversationStreamHandler)
		api.GET("/conversations/:id/messages", server.AuthMiddleware(), server.HandleListMessages)
		api.POST("/conversations/:id/messages", server.AuthMiddleware(), server.HandleSendMessage)

		// Notification stream (SSE)
		api.GET("/notifications/stream", server.AuthMiddleware(), server.SSEHandler)

		// Get online users
		api.GET("/users/online", server.AuthMiddleware(), server.HandleGetOnlineUsers)
	}

	// Websocket routes
	ws := server.mux.Group("/ws")
	{
		ws.GET("/conversations/:id", server.AuthMiddleware(), server.HandleWS)
	}

	// Callback URL for OAuth2
	server.mux.GET("/oauth2/callback", server.oauth.HandleCallback)
}

// Method to start the server
func (server *Server) Start() error {
	server.RegisterHandler()
	return server.mux.Run(":8080")
}
