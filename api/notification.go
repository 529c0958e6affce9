package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skillswap/skillswap/db"
	"github.com/skillswap/skillswap/service/security"
)

// Event wrapper for the conversation-list SSE stream
type ConversationListEvent struct {
	Type          string            `json:"type"`
	Conversations []db.Conversation `json:"conversations"`
}

const eventConversationList = "conversation-list"

// sseWriter prepares a gin context for SSE streaming and returns the flusher
func sseWriter(ctx *gin.Context) (http.Flusher, bool) {
	ctx.Writer.Header().Set("Content-Type", "text/event-stream")
	ctx.Writer.Header().Set("Cache-Control", "no-cache")
	ctx.Writer.Header().Set("Connection", "keep-alive")

	flusher, ok := ctx.Writer.(http.Flusher)
	return flusher, ok
}

// Handler for SSE, used for notification. Returns when the client
// disconnects or a write to it fails.
func (server *Server) SSEHandler(ctx *gin.Context) {
	flusher, ok := sseWriter(ctx)
	if !ok {
		server.logger.Error("SSE handler: failed to type assertion from writer to flusher")
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	// Subscribe to the hub
	claims, _ := ctx.Get(claimsKey)
	requesterID := claims.(*security.CustomClaims).ID
	subscriber := server.notifyHub.Subscribe()
	defer server.notifyHub.Unsubscribe(subscriber)

	// Read and send notifications to client
	reqCtx := ctx.Request.Context()
	for {
		select {
		case <-reqCtx.Done():
			return
		case noti, ok := <-subscriber:
			if !ok {
				return
			}

			// The hub fans out to every subscriber; only forward what
			// belongs to the requester
			if noti.DestID != requesterID {
				continue
			}

			data, err := json.Marshal(noti)
			if err != nil {
				server.logger.Error("SSE handler: failed to marshal notification", "error", err)
				continue
			}

			if _, err := ctx.Writer.WriteString("data: " + string(data) + "\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// Handler for the conversation-list SSE stream. The subscriber immediately
// receives their full conversation list, then a refreshed full list whenever
// one of their conversations is created or receives a message. Returns when
// the client disconnects or a write to it fails.
func (server *Server) ConversationStreamHandler(ctx *gin.Context) {
	flusher, ok := sseWriter(ctx)
	if !ok {
		server.logger.Error("conversation stream: failed to type assertion from writer to flusher")
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	claims, _ := ctx.Get(claimsKey)
	requesterID := claims.(*security.CustomClaims).ID
	subscriber := server.conversationHub.Subscribe()
	defer server.conversationHub.Unsubscribe(subscriber)

	// Initial delivery: the requester's current list
	if !server.writeConversationList(ctx, flusher, requesterID) {
		return
	}

	reqCtx := ctx.Request.Context()
	for {
		select {
		case <-reqCtx.Done():
			return
		case change, ok := <-subscriber:
			if !ok {
				return
			}

			if change.ParticipantLow != requesterID && change.ParticipantHigh != requesterID {
				continue
			}

			if !server.writeConversationList(ctx, flusher, requesterID) {
				return
			}
		}
	}
}

// Helper to push the requester's full conversation list as one SSE event.
// Reports whether the stream is still usable.
func (server *Server) writeConversationList(ctx *gin.Context, flusher http.Flusher, requesterID uint) bool {
	var conversations []db.Conversation
	result := server.queries.DB.
		Where("participant_low = ? OR participant_high = ?", requesterID, requesterID).
		Order("updated_at desc").
		Find(&conversations)
	if result.Error != nil {
		server.logger.Error("conversation stream: failed to fetch conversations", "error", result.Error)
		return false
	}

	data, err := json.Marshal(ConversationListEvent{
		Type:          eventConversationList,
		Conversations: conversations,
	})
	if err != nil {
		server.logger.Error("conversation stream: failed to marshal conversation list", "error", err)
		return false
	}

	if _, err := ctx.Writer.WriteString("data: " + string(data) + "\n\n"); err != nil {
		return false
	}
	flusher.Flush()
	return true
}
