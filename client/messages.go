package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Delivery status values a message can carry. Sending and Error exist only
// in the local pending layer; the backend persists Sent. Read is rendered
// when present but never written by this client.
const (
	StatusSending = "sending"
	StatusSent    = "sent"
	StatusRead    = "read"
	StatusError   = "error"
)

// Message is one directed text unit within a conversation
type Message struct {
	ID             uint      `json:"ID"`
	ConversationID uint      `json:"conversation_id"`
	SenderID       uint      `json:"sender_id"`
	RecipientID    uint      `json:"recipient_id"`
	Text           string    `json:"text"`
	Status         string    `json:"status"`
	ClientRef      string    `json:"client_ref"`
	Timestamp      time.Time `json:"CreatedAt"`
}

type messageListEvent struct {
	Type           string    `json:"type"`
	ConversationID uint      `json:"conversation_id"`
	Messages       []Message `json:"messages"`
}

// MessageChannel is the live view of one conversation. It keeps two layers
// of state: the authoritative list delivered by the backend subscription,
// and a local pending list of optimistic sends. The two are merged by
// client-generated correlation id; the authoritative list is never mutated
// in place.
type MessageChannel struct {
	client         *Client
	conversationID uint

	mu            sync.Mutex
	authoritative []Message
	pending       []Message
	onMessages    func([]Message)
	conn          *websocket.Conn
	closed        bool
}

// Messages opens a channel for one conversation. No network traffic happens
// until Subscribe or Send.
func (c *Client) Messages(conversationID uint) *MessageChannel {
	return &MessageChannel{
		client:         c,
		conversationID: conversationID,
	}
}

// Subscribe starts the live subscription. The callback receives the full
// ordered message list (ascending by backend-assigned timestamp) on every
// change, not a delta, any number of times until the returned unsubscribe
// function runs. The callback fires on the subscription's goroutine.
func (ch *MessageChannel) Subscribe(ctx context.Context, onMessages func([]Message)) (unsubscribe func(), err error) {
	if !ch.client.Configured() {
		return nil, ErrNotConfigured
	}

	url := ch.client.baseURL
	url = strings.Replace(url, "https://", "wss://", 1)
	url = strings.Replace(url, "http://", "ws://", 1)
	url = url + conversationPath(ch.conversationID, "")
	url = strings.Replace(url, "/api/conversations/", "/ws/conversations/", 1)

	header := http.Header{}
	if token := ch.client.token(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	ch.mu.Lock()
	ch.conn = conn
	ch.onMessages = onMessages
	ch.closed = false
	ch.mu.Unlock()

	go ch.readLoop(conn)

	return func() {
		ch.mu.Lock()
		ch.closed = true
		ch.onMessages = nil
		ch.mu.Unlock()
		conn.Close()
	}, nil
}

func (ch *MessageChannel) readLoop(conn *websocket.Conn) {
	for {
		var event messageListEvent
		if err := conn.ReadJSON(&event); err != nil {
			ch.mu.Lock()
			closed := ch.closed
			ch.mu.Unlock()
			if !closed {
				ch.client.logger.Error("message subscription lost", "conversation_id", ch.conversationID, "error", err)
			}
			return
		}

		if event.ConversationID != ch.conversationID {
			continue
		}

		ch.applyList(event.Messages)
	}
}

// applyList installs a fresh authoritative list and drops every pending
// entry the backend has confirmed, matching on correlation id.
func (ch *MessageChannel) applyList(messages []Message) {
	ch.mu.Lock()
	ch.authoritative = messages
	confirmed := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		if message.ClientRef != "" {
			confirmed[message.ClientRef] = struct{}{}
		}
	}
	remaining := ch.pending[:0]
	for _, message := range ch.pending {
		if _, ok := confirmed[message.ClientRef]; !ok {
			remaining = append(remaining, message)
		}
	}
	ch.pending = remaining
	deliver, merged := ch.snapshotLocked()
	ch.mu.Unlock()

	if deliver != nil {
		deliver(merged)
	}
}

// snapshotLocked builds the merged view, the authoritative list followed by
// still-pending optimistic entries, and captures the callback. The caller
// holds ch.mu and invokes the callback after releasing it, so a callback may
// re-enter the channel (for example call Send) without deadlocking.
func (ch *MessageChannel) snapshotLocked() (func([]Message), []Message) {
	if ch.onMessages == nil {
		return nil, nil
	}

	merged := make([]Message, 0, len(ch.authoritative)+len(ch.pending))
	merged = append(merged, ch.authoritative...)
	merged = append(merged, ch.pending...)
	return ch.onMessages, merged
}

// Send submits one message. Empty or whitespace-only text is a no-op
// rejected with ErrEmptyMessage. Otherwise the message appears immediately
// in the merged view tagged "sending", then flips to "sent" on backend
// acknowledgment or "error" on failure. There is no automatic retry; a
// failed entry stays visible with its error tag. The returned id is the
// backend's message identifier.
func (ch *MessageChannel) Send(ctx context.Context, senderID, recipientID uint, text string) (uint, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, ErrEmptyMessage
	}

	ref := uuid.NewString()
	ch.mu.Lock()
	ch.pending = append(ch.pending, Message{
		ConversationID: ch.conversationID,
		SenderID:       senderID,
		RecipientID:    recipientID,
		Text:           text,
		Status:         StatusSending,
		ClientRef:      ref,
		Timestamp:      time.Now(),
	})
	deliver, merged := ch.snapshotLocked()
	ch.mu.Unlock()
	if deliver != nil {
		deliver(merged)
	}

	var message Message
	err := ch.client.do(ctx, "POST", conversationPath(ch.conversationID, "/messages"), map[string]string{
		"text":       text,
		"client_ref": ref,
	}, &message)
	if err != nil {
		ch.setPendingStatus(ref, StatusError)
		return 0, err
	}

	ch.setPendingStatus(ref, StatusSent)
	return message.ID, nil
}

func (ch *MessageChannel) setPendingStatus(ref, status string) {
	ch.mu.Lock()
	for i := range ch.pending {
		if ch.pending[i].ClientRef == ref {
			ch.pending[i].Status = status
		}
	}
	deliver, merged := ch.snapshotLocked()
	ch.mu.Unlock()

	if deliver != nil {
		deliver(merged)
	}
}

// History fetches the conversation's full message list once, without a
// subscription.
func (ch *MessageChannel) History(ctx context.Context) ([]Message, error) {
	var resp struct {
		Messages []Message `json:"messages"`
	}
	err := ch.client.do(ctx, "GET", conversationPath(ch.conversationID, "/messages"), nil, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Messages, nil
}
