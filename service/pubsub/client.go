package pubsub

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Client struct, which holds the account ID, the conversation being watched
// and the web socket connection
type Client struct {
	AccountID      uint
	ConversationID uint

	// gorilla/websocket allows at most one concurrent writer per connection
	writeMu sync.Mutex
	conn    *websocket.Conn
}

// Constructor method for Client struct
func NewClient(accountID, conversationID uint, conn *websocket.Conn) *Client {
	return &Client{
		AccountID:      accountID,
		ConversationID: conversationID,
		conn:           conn,
	}
}

// Method to write a message back to client using WebSocket connection
func (client *Client) WriteMessage(message any) error {
	client.writeMu.Lock()
	defer client.writeMu.Unlock()
	return client.conn.WriteJSON(message)
}
