package notify

import (
	"sync"
)

// Hub fans events out to stream subscribers. Each subscriber gets a buffered
// channel; a full buffer drops the event rather than blocking the publisher.
type Hub[T any] struct {
	mu          sync.RWMutex
	subscribers map[chan T]struct{}
}

// Constructor method for the hub
func NewHub[T any]() *Hub[T] {
	return &Hub[T]{
		subscribers: make(map[chan T]struct{}),
	}
}

// Method to subscribe into the hub
func (h *Hub[T]) Subscribe() chan T {
	ch := make(chan T, 10) // buffered channel
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Method to unsubscribe from the hub
func (h *Hub[T]) Unsubscribe(ch chan T) {
	h.mu.Lock()
	delete(h.subscribers, ch)
	close(ch)
	h.mu.Unlock()
}

// Subscribers reports how many subscribers are currently registered
func (h *Hub[T]) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Method to publish an event to the hub
func (h *Hub[T]) Publish(event T) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subscribers {
		select {
		case ch <- event:
		default: // avoid blocking if buffer full
		}
	}
}
