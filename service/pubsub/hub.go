package pubsub

import (
	"sync"
)

// Hub tracks live conversation subscriptions. A client is one WebSocket
// connection of one account watching one conversation; an account can hold
// several at once (one per open chat view).
type Hub struct {
	mutex   *sync.RWMutex
	clients map[*Client]struct{}
}

// Constructor method of Hub
func NewHub() *Hub {
	return &Hub{
		mutex:   &sync.RWMutex{},
		clients: make(map[*Client]struct{}),
	}
}

// Method to subscribe a client into the hub
func (hub *Hub) Subscribe(client *Client) {
	// Lock to prevent race condition
	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	hub.clients[client] = struct{}{}
}

// Method to unsubscribe the client out of the hub.
// This will also close the connection to prevent leak.
func (hub *Hub) Unsubscribe(client *Client) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	delete(hub.clients, client)

	// Close the WebSocket connection
	client.conn.Close()
}

// Subscribers returns every live client watching the given conversation.
func (hub *Hub) Subscribers(conversationID uint) []*Client {
	hub.mutex.RLock()
	defer hub.mutex.RUnlock()

	var clients []*Client
	for client := range hub.clients {
		if client.ConversationID == conversationID {
			clients = append(clients, client)
		}
	}
	return clients
}

// Connected reports whether the account has at least one live subscription.
func (hub *Hub) Connected(accountID uint) bool {
	hub.mutex.RLock()
	defer hub.mutex.RUnlock()

	for client := range hub.clients {
		if client.AccountID == accountID {
			return true
		}
	}
	return false
}

// Online returns the distinct account IDs with a live subscription.
func (hub *Hub) Online() []uint {
	hub.mutex.RLock()
	defer hub.mutex.RUnlock()

	seen := make(map[uint]struct{})
	var ids []uint
	for client := range hub.clients {
		if _, ok := seen[client.AccountID]; ok {
			continue
		}
		seen[client.AccountID] = struct{}{}
		ids = append(ids, client.AccountID)
	}
	return ids
}
