package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCanonicalPairOrderIndependent(t *testing.T) {
	low1, high1 := CanonicalPair(7, 3)
	low2, high2 := CanonicalPair(3, 7)

	require.Equal(t, low1, low2)
	require.Equal(t, high1, high2)
	require.Equal(t, uint(3), low1)
	require.Equal(t, uint(7), high1)
}

func TestConversationOther(t *testing.T) {
	conversation := Conversation{ParticipantLow: 3, ParticipantHigh: 7}

	require.Equal(t, uint(7), conversation.Other(3))
	require.Equal(t, uint(3), conversation.Other(7))
}

func TestSubscribeConversationsNotConfigured(t *testing.T) {
	c := New(Config{})

	_, err := c.SubscribeConversations(context.Background(), func([]Conversation) {})
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestSubscribeConversationsDeliversFullLists(t *testing.T) {
	events := make(chan string, 2)
	events <- `{"type":"conversation-list","conversations":[]}`
	events <- `{"type":"conversation-list","conversations":[{"ID":3,"participant_low":1,"participant_high":2,"last_message_text":"Hello"}]}`

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/conversations/stream", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for {
			select {
			case data := <-events:
				fmt.Fprintf(w, "data: %s\n\n", data)
				flusher.Flush()
			case <-r.Context().Done():
				return
			}
		}
	})
	backend := httptest.NewServer(mux)
	defer backend.Close()

	c := New(Config{BaseURL: backend.URL})

	deliveries := make(chan []Conversation, 2)
	unsubscribe, err := c.SubscribeConversations(context.Background(), func(conversations []Conversation) {
		deliveries <- conversations
	})
	require.NoError(t, err)
	defer unsubscribe()

	receive := func() []Conversation {
		t.Helper()
		select {
		case conversations := <-deliveries:
			return conversations
		case <-time.After(time.Second):
			t.Fatal("no delivery within a second")
			return nil
		}
	}

	// Each delivery is the full list, never a delta
	require.Empty(t, receive())

	second := receive()
	require.Len(t, second, 1)
	require.Equal(t, uint(3), second[0].ID)
	require.Equal(t, "Hello", second[0].LastMessageText)
}
