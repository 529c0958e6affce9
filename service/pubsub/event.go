package pubsub

import (
	"github.com/skillswap/skillswap/db"
)

const EventMessageList = "message-list"

// MessageListEvent carries the full ordered message history of one
// conversation. Subscribers always receive the whole list, never a delta,
// so a delivery is an idempotent state replacement on the client side.
type MessageListEvent struct {
	Type           string       `json:"type"`
	ConversationID uint         `json:"conversation_id"`
	Messages       []db.Message `json:"messages"`
}
