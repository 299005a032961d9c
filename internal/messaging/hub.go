// internal/messaging/hub.go

package messaging

import (
	"context"
	"log"
	"sync"
)

// Hub maintains active websocket connections and hands out realtime feed
// subscriptions to them.
type Hub struct {
	// Registered clients, one per user; a reconnect replaces the old
	// connection
	clients    map[string]*Client
	clientsMux sync.RWMutex

	// Register/unregister clients
	register   chan *Client
	unregister chan *Client

	// Source of message-insert events
	feed Feed

	// Context for graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc

	wg sync.WaitGroup
}

func NewHub(feed Feed) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		feed:       feed,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (h *Hub) Run() {
	h.wg.Add(1)
	defer func() {
		h.cleanup()
		h.wg.Done()
	}()

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-h.ctx.Done():
			return
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()

	// Remove old connection for the same user
	if oldClient, exists := h.clients[client.userID]; exists {
		oldClient.Close()
	}

	h.clients[client.userID] = client
	activeConnections.Set(float64(len(h.clients)))

	log.Printf("User %s connected. Total clients: %d", client.userID, len(h.clients))
}

func (h *Hub) unregisterClient(client *Client) {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()

	if current, exists := h.clients[client.userID]; exists && current == client {
		delete(h.clients, client.userID)
	}
	client.Close()
	activeConnections.Set(float64(len(h.clients)))

	log.Printf("User %s disconnected. Total clients: %d", client.userID, len(h.clients))
}

// IsUserOnline reports whether the user has a live websocket connection
func (h *Hub) IsUserOnline(userID string) bool {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()

	_, exists := h.clients[userID]
	return exists
}

// GetActiveConnections returns the number of connected clients
func (h *Hub) GetActiveConnections() int {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	return len(h.clients)
}

func (h *Hub) cleanup() {
	h.clientsMux.Lock()
	for _, client := range h.clients {
		client.Close()
	}
	h.clients = make(map[string]*Client)
	activeConnections.Set(0)
	h.clientsMux.Unlock()
}

// Shutdown stops the hub and closes every connection
func (h *Hub) Shutdown() {
	h.cancel()
	h.wg.Wait()
}

// subscription is the scoped handle for one open conversation. It owns the
// feed subscription and is released as a unit: cancel unsubscribes, and a
// replacement subscription is only installed after the old one is released.
type subscription struct {
	listingID   string
	otherUserID string
	cancel      func()

	mu   sync.Mutex
	seen map[string]struct{}
}

func newSubscription(listingID, otherUserID string, cancel func()) *subscription {
	return &subscription{
		listingID:   listingID,
		otherUserID: otherUserID,
		cancel:      cancel,
		seen:        make(map[string]struct{}),
	}
}

// matches reports whether an insert event belongs to the open conversation:
// same listing, and the sender/recipient pair is the viewer and the
// counterparty in either direction. Everything else is discarded silently.
func (s *subscription) matches(viewerID string, msg *Message) bool {
	if msg.ListingID != s.listingID {
		return false
	}
	if msg.SenderID == viewerID && msg.RecipientID == s.otherUserID {
		return true
	}
	if msg.SenderID == s.otherUserID && msg.RecipientID == viewerID {
		return true
	}
	return false
}

// markSeen records a delivered message id; it returns false if the id was
// already delivered on this subscription, which is how a sender's local
// append and the feed echo collapse to a single delivery.
func (s *subscription) markSeen(messageID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.seen[messageID]; dup {
		return false
	}
	s.seen[messageID] = struct{}{}
	return true
}

// release tears the subscription down; safe to call more than once.
func (s *subscription) release() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
