package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// CanonicalPair orders an unordered two-identity pair deterministically, so
// conversation lookups are independent of which party initiated.
func CanonicalPair(a, b uint) (low, high uint) {
	if a < b {
		return a, b
	}
	return b, a
}

// Conversation is the per-participant-pair container for a message history
type Conversation struct {
	ID                uint       `json:"ID"`
	ParticipantLow    uint       `json:"participant_low"`
	ParticipantHigh   uint       `json:"participant_high"`
	LastMessageText   string     `json:"last_message_text"`
	LastMessageSender uint       `json:"last_message_sender"`
	LastMessageAt     *time.Time `json:"last_message_at"`
	CreatedAt         time.Time  `json:"CreatedAt"`
	UpdatedAt         time.Time  `json:"UpdatedAt"`
}

// Other returns the participant that isn't the given account
func (c *Conversation) Other(accountID uint) uint {
	if c.ParticipantLow == accountID {
		return c.ParticipantHigh
	}
	return c.ParticipantLow
}

// ResolveConversation returns the identifier of the conversation between the
// two identities, creating it lazily on first contact. The pair is
// canonicalized before lookup, so ResolveConversation(a, b) and
// ResolveConversation(b, a) settle on the same identifier, and sequential
// calls are idempotent. Concurrent first-contact calls from both sides are
// not arbitrated and can each create a record. Callers must not attempt a
// send without a resolved identifier.
func (c *Client) ResolveConversation(ctx context.Context, a, b uint) (uint, error) {
	low, high := CanonicalPair(a, b)

	// The backend takes the requester from the session; pass the other side
	other := low
	if identity := c.Identity(); identity != nil && identity.ID == low {
		other = high
	}

	var resp struct {
		ConversationID uint `json:"conversation_id"`
	}
	err := c.do(ctx, "POST", "/api/conversations/resolve", map[string]uint{
		"other_id": other,
	}, &resp)
	if err != nil {
		return 0, err
	}

	return resp.ConversationID, nil
}

// Conversations lists the signed-in identity's conversations, most recently
// active first, each with its cached last-message snapshot.
func (c *Client) Conversations(ctx context.Context) ([]Conversation, error) {
	var resp struct {
		Conversations []Conversation `json:"conversations"`
	}
	if err := c.do(ctx, "GET", "/api/conversations", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Conversations, nil
}

// SubscribeConversations starts a live view of the signed-in identity's
// conversation list. The callback receives the full list, most recently
// active first, immediately on connect and again whenever a conversation is
// created or receives a message, until the returned unsubscribe function
// runs. The callback fires on the subscription's goroutine.
func (c *Client) SubscribeConversations(ctx context.Context, onConversations func([]Conversation)) (unsubscribe func(), err error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	streamCtx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(streamCtx, "GET", c.baseURL+"/api/conversations/stream", nil)
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		cancel()
		return nil, &APIError{Status: resp.StatusCode, Message: resp.Status}
	}

	go c.conversationReadLoop(streamCtx, resp.Body, onConversations)

	return func() {
		cancel()
		resp.Body.Close()
	}, nil
}

// conversationReadLoop consumes the SSE stream and forwards each delivered
// list to the callback. Deliveries are always the full list, never a delta.
func (c *Client) conversationReadLoop(ctx context.Context, body io.ReadCloser, onConversations func([]Conversation)) {
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		var event struct {
			Conversations []Conversation `json:"conversations"`
		}
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event); err != nil {
			c.logger.Error("conversation stream: malformed event", "error", err)
			continue
		}
		onConversations(event.Conversations)
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		c.logger.Error("conversation subscription lost", "error", err)
	}
}

// conversationPath is shared by the message endpoints
func conversationPath(conversationID uint, suffix string) string {
	return fmt.Sprintf("/api/conversations/%d%s", conversationID, suffix)
}
