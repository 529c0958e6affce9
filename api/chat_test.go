package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/skillswap/skillswap/db"
	"github.com/stretchr/testify/require"
)

func resolve(t *testing.T, server *Server, token string, otherID uint) (uint, int) {
	t.Helper()

	recorder := request(t, server, "POST", "/api/conversations/resolve", token, map[string]uint{
		"other_id": otherID,
	})
	if recorder.Code != http.StatusOK && recorder.Code != http.StatusCreated {
		return 0, recorder.Code
	}
	resp := decode[ResolveConversationResponse](t, recorder)
	return resp.ConversationID, recorder.Code
}

func TestResolveConversationOrderIndependent(t *testing.T) {
	server, _ := newTestServer(t)
	ana := register(t, server, "ana@example.com", "Ana")
	bram := register(t, server, "bram@example.com", "Bram")

	// First contact creates
	id1, code := resolve(t, server, ana.Tokens.AccessToken, bram.UserData.ID)
	require.Equal(t, http.StatusCreated, code)
	require.NotZero(t, id1)

	// Resolving from the other side finds the same conversation
	id2, code := resolve(t, server, bram.Tokens.AccessToken, ana.UserData.ID)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, id1, id2)

	// Sequential re-resolution is idempotent
	id3, code := resolve(t, server, ana.Tokens.AccessToken, bram.UserData.ID)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, id1, id3)

	var count int64
	server.queries.DB.Model(&db.Conversation{}).Count(&count)
	require.EqualValues(t, 1, count)
}

func TestResolveConversationRejectsSelfAndUnknown(t *testing.T) {
	server, _ := newTestServer(t)
	ana := register(t, server, "ana@example.com", "Ana")

	_, code := resolve(t, server, ana.Tokens.AccessToken, ana.UserData.ID)
	require.Equal(t, http.StatusBadRequest, code)

	_, code = resolve(t, server, ana.Tokens.AccessToken, 999)
	require.Equal(t, http.StatusBadRequest, code)
}

func TestSendMessageFlow(t *testing.T) {
	server, distributor := newTestServer(t)
	ana := register(t, server, "ana@example.com", "Ana")
	bram := register(t, server, "bram@example.com", "Bram")

	conversationID, _ := resolve(t, server, ana.Tokens.AccessToken, bram.UserData.ID)
	messagesPath := fmt.Sprintf("/api/conversations/%d/messages", conversationID)

	recorder := request(t, server, "POST", messagesPath, ana.Tokens.AccessToken, map[string]string{
		"text":       "Hello",
		"client_ref": "ref-1",
	})
	require.Equal(t, http.StatusCreated, recorder.Code)
	sent := decode[db.Message](t, recorder)
	require.Equal(t, "Hello", sent.Text)
	require.Equal(t, db.StatusSent, sent.Status)
	require.Equal(t, ana.UserData.ID, sent.SenderID)
	require.Equal(t, bram.UserData.ID, sent.RecipientID)
	require.Equal(t, "ref-1", sent.ClientRef)

	// Exactly one record exists for the conversation
	type listResponse struct {
		Total    int          `json:"total"`
		Messages []db.Message `json:"messages"`
	}
	recorder = request(t, server, "GET", messagesPath, bram.Tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	list := decode[listResponse](t, recorder)
	require.Equal(t, 1, list.Total)
	require.Equal(t, "Hello", list.Messages[0].Text)

	// The conversation's last-message snapshot was refreshed
	var conversation db.Conversation
	require.NoError(t, server.queries.DB.First(&conversation, conversationID).Error)
	require.Equal(t, "Hello", conversation.LastMessageText)
	require.Equal(t, ana.UserData.ID, conversation.LastMessageSender)
	require.NotNil(t, conversation.LastMessageAt)

	// Fan-out was queued exactly once
	require.Len(t, distributor.deliveries, 1)
	require.Equal(t, conversationID, distributor.deliveries[0].ConversationID)
	require.Equal(t, sent.ID, distributor.deliveries[0].MessageID)
}

func TestSendMessageRejectsEmptyText(t *testing.T) {
	server, distributor := newTestServer(t)
	ana := register(t, server, "ana@example.com", "Ana")
	bram := register(t, server, "bram@example.com", "Bram")

	conversationID, _ := resolve(t, server, ana.Tokens.AccessToken, bram.UserData.ID)
	messagesPath := fmt.Sprintf("/api/conversations/%d/messages", conversationID)

	for _, text := range []string{"", "   ", "\n\t"} {
		recorder := request(t, server, "POST", messagesPath, ana.Tokens.AccessToken, map[string]string{
			"text": text,
		})
		require.Equal(t, http.StatusBadRequest, recorder.Code)
	}

	// Rejected sends are no-ops: no record, no fan-out
	var count int64
	server.queries.DB.Model(&db.Message{}).Count(&count)
	require.EqualValues(t, 0, count)
	require.Empty(t, distributor.deliveries)
}

func TestMessagesOrderedAscending(t *testing.T) {
	server, _ := newTestServer(t)
	ana := register(t, server, "ana@example.com", "Ana")
	bram := register(t, server, "bram@example.com", "Bram")

	conversationID, _ := resolve(t, server, ana.Tokens.AccessToken, bram.UserData.ID)
	messagesPath := fmt.Sprintf("/api/conversations/%d/messages", conversationID)

	// Interleave sends from both participants
	texts := []string{"one", "two", "three", "four"}
	tokens := []string{
		ana.Tokens.AccessToken, bram.Tokens.AccessToken,
		ana.Tokens.AccessToken, bram.Tokens.AccessToken,
	}
	for i, text := range texts {
		recorder := request(t, server, "POST", messagesPath, tokens[i], map[string]string{"text": text})
		require.Equal(t, http.StatusCreated, recorder.Code)
	}

	type listResponse struct {
		Messages []db.Message `json:"messages"`
	}
	recorder := request(t, server, "GET", messagesPath, ana.Tokens.AccessToken, nil)
	list := decode[listResponse](t, recorder)
	require.Len(t, list.Messages, len(texts))

	for i, message := range list.Messages {
		require.Equal(t, texts[i], message.Text)
		if i > 0 {
			previous := list.Messages[i-1]
			require.False(t, message.CreatedAt.Before(previous.CreatedAt))
			require.Greater(t, message.ID, previous.ID)
		}
	}
}

func TestConversationAccessControl(t *testing.T) {
	server, _ := newTestServer(t)
	ana := register(t, server, "ana@example.com", "Ana")
	bram := register(t, server, "bram@example.com", "Bram")
	chinwe := register(t, server, "chinwe@example.com", "Chinwe")

	conversationID, _ := resolve(t, server, ana.Tokens.AccessToken, bram.UserData.ID)
	messagesPath := fmt.Sprintf("/api/conversations/%d/messages", conversationID)

	// An outsider can neither read nor write the conversation
	recorder := request(t, server, "GET", messagesPath, chinwe.Tokens.AccessToken, nil)
	require.Equal(t, http.StatusForbidden, recorder.Code)

	recorder = request(t, server, "POST", messagesPath, chinwe.Tokens.AccessToken, map[string]string{
		"text": "let me in",
	})
	require.Equal(t, http.StatusForbidden, recorder.Code)
}

func TestListConversationsMostRecentFirst(t *testing.T) {
	server, _ := newTestServer(t)
	ana := register(t, server, "ana@example.com", "Ana")
	bram := register(t, server, "bram@example.com", "Bram")
	chinwe := register(t, server, "chinwe@example.com", "Chinwe")

	first, _ := resolve(t, server, ana.Tokens.AccessToken, bram.UserData.ID)
	second, _ := resolve(t, server, ana.Tokens.AccessToken, chinwe.UserData.ID)

	// Activity in the first conversation bumps it back to the top
	messagesPath := fmt.Sprintf("/api/conversations/%d/messages", first)
	recorder := request(t, server, "POST", messagesPath, ana.Tokens.AccessToken, map[string]string{
		"text": "Hello",
	})
	require.Equal(t, http.StatusCreated, recorder.Code)

	type listResponse struct {
		Total         int               `json:"total"`
		Conversations []db.Conversation `json:"conversations"`
	}
	recorder = request(t, server, "GET", "/api/conversations", ana.Tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	list := decode[listResponse](t, recorder)
	require.Equal(t, 2, list.Total)
	require.Equal(t, first, list.Conversations[0].ID)
	require.Equal(t, second, list.Conversations[1].ID)
	require.Equal(t, "Hello", list.Conversations[0].LastMessageText)

	// Bram only sees the conversation they participate in
	recorder = request(t, server, "GET", "/api/conversations", bram.Tokens.AccessToken, nil)
	list = decode[listResponse](t, recorder)
	require.Equal(t, 1, list.Total)
	require.Equal(t, first, list.Conversations[0].ID)
}
