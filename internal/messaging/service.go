// internal/messaging/service.go

package messaging

import (
	"context"
	"errors"
	"log"
	"strings"
)

var (
	ErrUnauthorized = errors.New("sign in required")
	ErrEmptyContent = errors.New("message content is empty")
	ErrSelfMessage  = errors.New("cannot message yourself")
)

// NameResolver turns a user id into a display name. Implemented by the
// profile package's memoizing resolver.
type NameResolver interface {
	DisplayName(ctx context.Context, userID string) string
}

// OfflineNotifier nudges a recipient who has no live connection. Failures
// are the notifier's problem; the send path never depends on it.
type OfflineNotifier interface {
	NotifyNewMessage(ctx context.Context, recipientID, senderName, preview string) error
}

type Service interface {
	// GetConversations aggregates the user's messages into distinct
	// conversations, newest activity first. An empty user id (signed-out
	// state) yields an empty list, not an error.
	GetConversations(ctx context.Context, userID string) ([]*Conversation, error)

	// GetThread loads the ordered history for one conversation and marks
	// the caller's unread messages read as a side effect.
	GetThread(ctx context.Context, userID, otherUserID, listingID string) ([]*Message, error)

	// SendMessage validates and persists an outbound message, then
	// publishes the insert event to the realtime feed.
	SendMessage(ctx context.Context, userID string, req *SendMessageRequest) (*Message, error)

	// MarkRead flips the read flag on messages addressed to the user.
	MarkRead(ctx context.Context, userID string, messageIDs []string) (int64, error)

	// SetHub wires the websocket hub after construction to avoid a
	// circular dependency.
	SetHub(hub *Hub)
}

type MessageService struct {
	repo     Repository
	feed     Feed
	names    NameResolver
	notifier OfflineNotifier
	hub      *Hub
}

func NewService(repo Repository, feed Feed, names NameResolver, notifier OfflineNotifier) *MessageService {
	return &MessageService{
		repo:     repo,
		feed:     feed,
		names:    names,
		notifier: notifier,
	}
}

// SetHub sets the hub after initialization to avoid circular dependency
func (s *MessageService) SetHub(hub *Hub) {
	s.hub = hub
}

// GetConversations aggregates the inbox for one user
func (s *MessageService) GetConversations(ctx context.Context, userID string) ([]*Conversation, error) {
	if userID == "" {
		// Signed-out state: nothing to aggregate
		return []*Conversation{}, nil
	}

	messages, err := s.repo.ListUserMessages(ctx, userID)
	if err != nil {
		// Fail the whole aggregation; partial data would render a
		// misleading inbox
		return nil, err
	}

	conversations := BuildConversations(messages, userID)

	// Resolve counterparty names through the session cache; repeated ids
	// within one pass hit memory
	for _, conv := range conversations {
		conv.OtherUserName = s.names.DisplayName(ctx, conv.OtherUserID)
	}

	conversationLoadsTotal.Inc()
	return conversations, nil
}

// GetThread loads one conversation's history and reconciles read state
func (s *MessageService) GetThread(ctx context.Context, userID, otherUserID, listingID string) ([]*Message, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}

	messages, err := s.repo.ListThread(ctx, userID, otherUserID, listingID)
	if err != nil {
		return nil, err
	}

	// Everything addressed to the caller that is still unread gets marked
	// read now that it has been viewed
	var unreadIDs []string
	for _, msg := range messages {
		if msg.RecipientID == userID && !msg.Read {
			unreadIDs = append(unreadIDs, msg.ID)
		}
	}

	if len(unreadIDs) > 0 {
		if _, err := s.repo.MarkRead(ctx, userID, unreadIDs); err != nil {
			// Non-fatal: the next load retries. The thread itself
			// still renders.
			markReadFailures.Inc()
			log.Printf("messaging: mark-read failed for %d messages: %v", len(unreadIDs), err)
		} else {
			for _, msg := range messages {
				if msg.RecipientID == userID {
					msg.Read = true
				}
			}
		}
	}

	threadLoadsTotal.Inc()
	return messages, nil
}

// SendMessage validates and persists an outbound message
func (s *MessageService) SendMessage(ctx context.Context, userID string, req *SendMessageRequest) (*Message, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	if req.RecipientID == userID {
		return nil, ErrSelfMessage
	}

	message := &Message{
		Content:     content,
		SenderID:    userID,
		RecipientID: req.RecipientID,
		ListingID:   req.ListingID,
		Read:        false,
	}

	if err := s.repo.CreateMessage(ctx, message); err != nil {
		return nil, err
	}
	messagesSentTotal.Inc()

	// Publish the insert event. Subscribers dedup by message id, so the
	// sender seeing both this echo and the HTTP response is safe.
	if err := s.feed.Publish(ctx, message); err != nil {
		// Missed realtime delivery degrades to the next manual reload
		log.Printf("messaging: feed publish failed for message %s: %v", message.ID, err)
	}

	// Email recipients who are not connected right now
	if s.notifier != nil && (s.hub == nil || !s.hub.IsUserOnline(message.RecipientID)) {
		go s.notifyRecipient(message)
	}

	return message, nil
}

// MarkRead marks messages as read for the calling user
func (s *MessageService) MarkRead(ctx context.Context, userID string, messageIDs []string) (int64, error) {
	if userID == "" {
		return 0, ErrUnauthorized
	}
	return s.repo.MarkRead(ctx, userID, messageIDs)
}

func (s *MessageService) notifyRecipient(message *Message) {
	ctx := context.Background()

	senderName := s.names.DisplayName(ctx, message.SenderID)
	// Truncate on a rune boundary so multi-byte content never yields an
	// invalid-UTF-8 preview
	preview := message.Content
	if runes := []rune(preview); len(runes) > 120 {
		preview = string(runes[:120]) + "…"
	}

	if err := s.notifier.NotifyNewMessage(ctx, message.RecipientID, senderName, preview); err != nil {
		log.Printf("messaging: offline notification for %s failed: %v", message.RecipientID, err)
	}
}
