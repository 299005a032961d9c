// internal/messaging/models.go

package messaging

import (
	"encoding/json"
	"time"
)

// Message is a single chat message tied to a listing.
// Rows are immutable once written except for the read flag, which flips
// false -> true exactly once when the recipient views the thread.
type Message struct {
	ID          string    `json:"id" db:"id"`
	Content     string    `json:"content" db:"content"`
	SenderID    string    `json:"sender_id" db:"sender_id"`
	RecipientID string    `json:"recipient_id" db:"recipient_id"`
	ListingID   string    `json:"listing_id" db:"listing_id"`
	Read        bool      `json:"read" db:"read"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// CounterpartyTo returns the other participant of the message relative to
// the given user.
func (m *Message) CounterpartyTo(userID string) string {
	if m.SenderID == userID {
		return m.RecipientID
	}
	return m.SenderID
}

// ConversationKey identifies a conversation: the other participant scoped
// to one listing. The same two users discussing two different listings form
// two distinct conversations.
type ConversationKey struct {
	OtherUserID string `json:"other_user_id"`
	ListingID   string `json:"listing_id"`
}

// Conversation is a derived view over the message table; it is recomputed
// on every aggregation and has no persistence of its own.
type Conversation struct {
	OtherUserID   string   `json:"other_user_id"`
	OtherUserName string   `json:"other_user_name"`
	ListingID     string   `json:"listing_id"`
	LastMessage   *Message `json:"last_message"`
	UnreadCount   int      `json:"unread_count"`
}

// Key returns the grouping key of the conversation.
func (c *Conversation) Key() ConversationKey {
	return ConversationKey{OtherUserID: c.OtherUserID, ListingID: c.ListingID}
}

// Request DTOs

type SendMessageRequest struct {
	RecipientID string `json:"recipient_id" validate:"required,uuid"`
	ListingID   string `json:"listing_id" validate:"required,uuid"`
	Content     string `json:"content" validate:"required"`
}

type MarkReadRequest struct {
	MessageIDs []string `json:"message_ids" validate:"required,min=1,dive,uuid"`
}

// WebSocket protocol

type WSMessage struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

const (
	WSTypeSubscribe   = "subscribe"
	WSTypeUnsubscribe = "unsubscribe"
	WSTypeMessage     = "message"
	WSTypeError       = "error"
)

// SubscribeRequest selects the open conversation for a connection. A new
// subscribe replaces the previous subscription.
type SubscribeRequest struct {
	ListingID   string `json:"listing_id"`
	OtherUserID string `json:"other_user_id"`
}

type WSError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
