package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/skillswap/skillswap/db"
	"github.com/skillswap/skillswap/service/notify"
	"github.com/skillswap/skillswap/service/pubsub"
	"github.com/skillswap/skillswap/service/security"
	"github.com/skillswap/skillswap/service/worker"
	"gorm.io/gorm"
)

// Canonicalize an unordered participant pair so lookups are independent of
// which side initiated the chat.
func participantPair(a, b uint) (low, high uint) {
	if a < b {
		return a, b
	}
	return b, a
}

func isParticipant(conversation *db.Conversation, accountID uint) bool {
	return conversation.ParticipantLow == accountID || conversation.ParticipantHigh == accountID
}

// Request struct for conversation resolution
type ResolveConversationRequest struct {
	OtherID uint `json:"other_id" binding:"required"`
}

type ResolveConversationResponse struct {
	ConversationID uint `json:"conversation_id"`
}

// Handler for resolving the conversation between the requester and another
// account: return the existing one, or lazily create it on first contact.
// Lookup-before-create is idempotent for sequential calls; two concurrent
// first-contact calls from both sides can still each create a record.
func (server *Server) HandleResolveConversation(ctx *gin.Context) {
	// Get the request body and validate
	var req ResolveConversationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	claims, _ := ctx.Get(claimsKey)
	requesterID := claims.(*security.CustomClaims).ID

	if req.OtherID == requesterID {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Cannot start a conversation with yourself"})
		return
	}

	// Check if the other account exists
	var other db.Account
	result := server.queries.DB.First(&other, req.OtherID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusBadRequest, ErrorResponse{"other_id not match any account"})
			return
		}

		server.logger.Error("POST /api/conversations/resolve: failed to fetch account", "error", result.Error)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	low, high := participantPair(requesterID, req.OtherID)

	// Look up an existing conversation for the canonical pair
	var conversation db.Conversation
	result = server.queries.DB.
		Where("participant_low = ? AND participant_high = ?", low, high).
		First(&conversation)
	if result.Error == nil {
		ctx.JSON(http.StatusOK, ResolveConversationResponse{ConversationID: conversation.ID})
		return
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		server.logger.Error("POST /api/conversations/resolve: failed to fetch conversation", "error", result.Error)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	// Not found: create it
	conversation = db.Conversation{
		ParticipantLow:  low,
		ParticipantHigh: high,
	}
	result = server.queries.DB.Create(&conversation)
	if result.Error != nil {
		server.logger.Error("POST /api/conversations/resolve: failed to create conversation", "error", result.Error)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, ResolveConversationResponse{ConversationID: conversation.ID})

	// The new conversation appears in both participants' live lists
	server.conversationHub.Publish(notify.ConversationChange{
		ConversationID:  conversation.ID,
		ParticipantLow:  low,
		ParticipantHigh: high,
	})
}

// Handler for listing the requester's conversations, most recently active
// first, each carrying its cached last-message snapshot
func (server *Server) HandleListConversations(ctx *gin.Context) {
	claims, _ := ctx.Get(claimsKey)
	requesterID := claims.(*security.CustomClaims).ID

	var conversations []db.Conversation
	result := server.queries.DB.
		Where("participant_low = ? OR participant_high = ?", requesterID, requesterID).
		Order("updated_at desc").
		Find(&conversations)
	if result.Error != nil {
		server.logger.Error("GET /api/conversations: failed to fetch conversations", "error", result.Error)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, map[string]any{
		"total":         len(conversations),
		"conversations": conversations,
	})
}

// Helper to load a conversation from the :id path parameter and verify the
// requester participates in it
func (server *Server) conversationForRequest(ctx *gin.Context) (*db.Conversation, uint, bool) {
	claims, _ := ctx.Get(claimsKey)
	requesterID := claims.(*security.CustomClaims).ID

	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid conversation ID"})
		return nil, 0, false
	}

	var conversation db.Conversation
	result := server.queries.DB.First(&conversation, uint(id))
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, ErrorResponse{"No conversation with this ID"})
			return nil, 0, false
		}

		server.logger.Error("failed to fetch conversation", "error", result.Error)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return nil, 0, false
	}

	if !isParticipant(&conversation, requesterID) {
		ctx.JSON(http.StatusForbidden, ErrorResponse{"You have no authorization to proceed with this request"})
		return nil, 0, false
	}

	return &conversation, requesterID, true
}

// Handler for fetching the full message history of a conversation, ascending
// by server-assigned timestamp
func (server *Server) HandleListMessages(ctx *gin.Context) {
	conversation, _, ok := server.conversationForRequest(ctx)
	if !ok {
		return
	}

	var messages []db.Message
	result := server.queries.DB.
		Where("conversation_id = ?", conversation.ID).
		Order("created_at asc, id asc").
		Find(&messages)
	if result.Error != nil {
		server.logger.Error("GET /api/conversations/:id/messages: failed to fetch messages", "error", result.Error)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, map[string]any{
		"total":    len(messages),
		"messages": messages,
	})
}

type SendMessageRequest struct {
	Text      string `json:"text" binding:"required"`
	ClientRef string `json:"client_ref"`
}

func (server *Server) HandleSendMessage(ctx *gin.Context) {
	conversation, requesterID, ok := server.conversationForRequest(ctx)
	if !ok {
		return
	}

	// Get the request body and validate
	var req SendMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	// Empty after trimming is a no-op: no record is created
	text := strings.TrimSpace(req.Text)
	if text == "" {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Message text is empty"})
		return
	}

	// The recipient is the other participant
	recipientID := conversation.ParticipantLow
	if recipientID == requesterID {
		recipientID = conversation.ParticipantHigh
	}

	// Persist the message; the row's CreatedAt is the authoritative timestamp
	message := db.Message{
		ConversationID: conversation.ID,
		SenderID:       requesterID,
		RecipientID:    recipientID,
		Text:           text,
		Status:         db.StatusSent,
		ClientRef:      req.ClientRef,
	}
	result := server.queries.DB.Create(&message)
	if result.Error != nil {
		server.logger.Error("POST /api/conversations/:id/messages: failed to create message", "error", result.Error)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	// Refresh the conversation's last-message cache
	sentAt := message.CreatedAt
	conversation.LastMessageText = text
	conversation.LastMessageSender = requesterID
	conversation.LastMessageAt = &sentAt
	result = server.queries.DB.Save(conversation)
	if result.Error != nil {
		server.logger.Error("POST /api/conversations/:id/messages: failed to update conversation", "error", result.Error)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, message)

	// The refreshed last-message snapshot reorders both participants' lists
	server.conversationHub.Publish(notify.ConversationChange{
		ConversationID:  conversation.ID,
		ParticipantLow:  conversation.ParticipantLow,
		ParticipantHigh: conversation.ParticipantHigh,
	})

	// Fan the updated history out to live subscribers in the background
	err := server.distributor.DistributeTaskDeliverMessage(ctx, worker.DeliverMessagePayload{
		ConversationID: conversation.ID,
		MessageID:      message.ID,
	})
	if err != nil {
		server.logger.Error("POST /api/conversations/:id/messages: failed to create background task deliver message", "error", err)
	}
}

// Handler for the conversation WebSocket subscription. After the upgrade, the
// subscriber immediately receives the full ordered message history, then a
// fresh full list on every change until it disconnects.
func (server *Server) HandleWS(ctx *gin.Context) {
	conversation, requesterID, ok := server.conversationForRequest(ctx)
	if !ok {
		return
	}

	// Upgrade request from HTTP to Web Socket
	conn, err := server.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		server.logger.Error("failed to upgrade to Web Socket", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	// Create the client and subscribe it to the hub
	client := pubsub.NewClient(requesterID, conversation.ID, conn)
	server.hub.Subscribe(client)
	defer server.hub.Unsubscribe(client)

	// Initial delivery: the current full history
	var messages []db.Message
	result := server.queries.DB.
		Where("conversation_id = ?", conversation.ID).
		Order("created_at asc, id asc").
		Find(&messages)
	if result.Error != nil {
		server.logger.Error("GET /ws/conversations/:id: failed to fetch messages", "error", result.Error)
		return
	}

	err = client.WriteMessage(pubsub.MessageListEvent{
		Type:           pubsub.EventMessageList,
		ConversationID: conversation.ID,
		Messages:       messages,
	})
	if err != nil {
		server.logger.Error("GET /ws/conversations/:id: failed to write initial message list", "error", err)
		return
	}

	// Block until client is disconnected
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			server.logger.Info("client disconnected", "id", requesterID, "err", err)
			break
		}
	}
}

func (server *Server) HandleGetOnlineUsers(ctx *gin.Context) {
	var users []UserData

	online := server.hub.Online()
	for _, accountID := range online {
		var user db.Account
		result := server.queries.DB.Select("id", "username", "email").First(&user, accountID)
		if result.Error != nil {
			server.logger.Error("GET /api/users/online: failed to fetch user data from database", "error", result.Error)
			continue
		}

		users = append(users, UserData{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
		})
	}

	ctx.JSON(http.StatusOK, map[string]any{
		"total": len(online),
		"users": users,
	})
}
