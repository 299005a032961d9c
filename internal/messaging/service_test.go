package messaging_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/techswap/techswap-backend/internal/messaging"
)

// memoryRepository is an in-memory Repository used by the service tests.
type memoryRepository struct {
	mu       sync.Mutex
	messages []*messaging.Message
	nextID   int
	now      time.Time

	failMarkRead bool
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (r *memoryRepository) CreateMessage(ctx context.Context, message *messaging.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	message.ID = fmt.Sprintf("msg-%03d", r.nextID)
	r.now = r.now.Add(time.Minute)
	message.CreatedAt = r.now

	stored := *message
	r.messages = append(r.messages, &stored)
	return nil
}

func (r *memoryRepository) ListUserMessages(ctx context.Context, userID string) ([]*messaging.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*messaging.Message
	for _, m := range r.messages {
		if m.SenderID == userID || m.RecipientID == userID {
			copied := *m
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *memoryRepository) ListThread(ctx context.Context, userID, otherUserID, listingID string) ([]*messaging.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*messaging.Message
	for _, m := range r.messages {
		if m.ListingID != listingID {
			continue
		}
		pair := (m.SenderID == userID && m.RecipientID == otherUserID) ||
			(m.SenderID == otherUserID && m.RecipientID == userID)
		if pair {
			copied := *m
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *memoryRepository) MarkRead(ctx context.Context, recipientID string, messageIDs []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failMarkRead {
		return 0, errors.New("storage unavailable")
	}

	ids := make(map[string]struct{}, len(messageIDs))
	for _, id := range messageIDs {
		ids[id] = struct{}{}
	}

	var updated int64
	for _, m := range r.messages {
		if _, ok := ids[m.ID]; !ok {
			continue
		}
		if m.RecipientID == recipientID && !m.Read {
			m.Read = true
			updated++
		}
	}
	return updated, nil
}

type staticNames struct{}

func (staticNames) DisplayName(ctx context.Context, userID string) string {
	return "User " + userID[len(userID)-1:]
}

type recordingNotifier struct {
	mu       sync.Mutex
	calls    []string
	previews []string
}

func (n *recordingNotifier) NotifyNewMessage(ctx context.Context, recipientID, senderName, preview string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, recipientID)
	n.previews = append(n.previews, preview)
	return nil
}

func (n *recordingNotifier) waitForCall(t *testing.T) (string, string) {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		n.mu.Lock()
		if len(n.calls) > 0 {
			recipient, preview := n.calls[0], n.previews[0]
			n.mu.Unlock()
			return recipient, preview
		}
		n.mu.Unlock()
		select {
		case <-deadline:
			t.Fatalf("expected an offline notification")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func newTestService(repo *memoryRepository) messaging.Service {
	return messaging.NewService(repo, messaging.NewMemoryFeed(), staticNames{}, nil)
}

func send(t *testing.T, svc messaging.Service, from, to, listing, content string) *messaging.Message {
	t.Helper()
	msg, err := svc.SendMessage(context.Background(), from, &messaging.SendMessageRequest{
		RecipientID: to,
		ListingID:   listing,
		Content:     content,
	})
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	return msg
}

func TestSendMessageValidation(t *testing.T) {
	svc := newTestService(newMemoryRepository())
	ctx := context.Background()

	_, err := svc.SendMessage(ctx, "", &messaging.SendMessageRequest{RecipientID: bob, ListingID: listingPhone, Content: "hi"})
	if !errors.Is(err, messaging.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for signed-out sender, got %v", err)
	}

	_, err = svc.SendMessage(ctx, alice, &messaging.SendMessageRequest{RecipientID: bob, ListingID: listingPhone, Content: "   "})
	if !errors.Is(err, messaging.ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent for whitespace content, got %v", err)
	}

	_, err = svc.SendMessage(ctx, alice, &messaging.SendMessageRequest{RecipientID: alice, ListingID: listingPhone, Content: "hi me"})
	if !errors.Is(err, messaging.ErrSelfMessage) {
		t.Fatalf("expected ErrSelfMessage, got %v", err)
	}
}

func TestSendMessageTrimsAndPersists(t *testing.T) {
	repo := newMemoryRepository()
	svc := newTestService(repo)

	msg := send(t, svc, alice, bob, listingPhone, "  Is it still available?  ")

	if msg.ID == "" {
		t.Fatalf("expected persisted message to have an id")
	}
	if msg.Content != "Is it still available?" {
		t.Fatalf("expected trimmed content, got %q", msg.Content)
	}
	if msg.Read {
		t.Fatalf("new messages must start unread")
	}
}

func TestGetConversationsSignedOut(t *testing.T) {
	svc := newTestService(newMemoryRepository())

	conversations, err := svc.GetConversations(context.Background(), "")
	if err != nil {
		t.Fatalf("GetConversations failed: %v", err)
	}
	if len(conversations) != 0 {
		t.Fatalf("expected empty inbox for signed-out user, got %d", len(conversations))
	}
}

func TestGetThreadMarksUnreadRead(t *testing.T) {
	repo := newMemoryRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	send(t, svc, bob, alice, listingPhone, "first")
	send(t, svc, bob, alice, listingPhone, "second")
	send(t, svc, alice, bob, listingPhone, "reply")

	thread, err := svc.GetThread(ctx, alice, bob, listingPhone)
	if err != nil {
		t.Fatalf("GetThread failed: %v", err)
	}
	if len(thread) != 3 {
		t.Fatalf("expected 3 messages in thread, got %d", len(thread))
	}
	for i := 1; i < len(thread); i++ {
		if thread[i].CreatedAt.Before(thread[i-1].CreatedAt) {
			t.Fatalf("thread must be ordered oldest first")
		}
	}
	for _, m := range thread {
		if m.RecipientID == alice && !m.Read {
			t.Fatalf("message %s addressed to the viewer should be marked read", m.ID)
		}
	}

	// The writes must be visible to the next inbox load.
	conversations, err := svc.GetConversations(ctx, alice)
	if err != nil {
		t.Fatalf("GetConversations failed: %v", err)
	}
	if len(conversations) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(conversations))
	}
	if conversations[0].UnreadCount != 0 {
		t.Fatalf("expected no unread after viewing the thread, got %d", conversations[0].UnreadCount)
	}
}

func TestGetThreadSurvivesMarkReadFailure(t *testing.T) {
	repo := newMemoryRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	send(t, svc, bob, alice, listingPhone, "hello")

	repo.failMarkRead = true
	thread, err := svc.GetThread(ctx, alice, bob, listingPhone)
	if err != nil {
		t.Fatalf("GetThread must not fail when mark-read fails: %v", err)
	}
	if len(thread) != 1 {
		t.Fatalf("expected the thread to render anyway, got %d messages", len(thread))
	}
	if thread[0].Read {
		t.Fatalf("read flag must stay false when the write did not happen")
	}

	// Recovery: the next load retries the write.
	repo.failMarkRead = false
	thread, err = svc.GetThread(ctx, alice, bob, listingPhone)
	if err != nil {
		t.Fatalf("GetThread failed: %v", err)
	}
	if !thread[0].Read {
		t.Fatalf("expected mark-read to succeed on retry")
	}
}

func TestMarkReadIsIdempotentAndRecipientScoped(t *testing.T) {
	repo := newMemoryRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	msg := send(t, svc, bob, alice, listingPhone, "hello")

	updated, err := svc.MarkRead(ctx, alice, []string{msg.ID})
	if err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected 1 row updated, got %d", updated)
	}

	// Second call is a no-op.
	updated, err = svc.MarkRead(ctx, alice, []string{msg.ID})
	if err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	if updated != 0 {
		t.Fatalf("expected idempotent no-op, got %d rows", updated)
	}

	// The sender cannot mark their own outbound message read.
	other := send(t, svc, bob, alice, listingPhone, "another")
	updated, err = svc.MarkRead(ctx, bob, []string{other.ID})
	if err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	if updated != 0 {
		t.Fatalf("mark-read must only touch rows addressed to the caller, got %d", updated)
	}
}

func TestBuyerSellerExchange(t *testing.T) {
	repo := newMemoryRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	// Buyer opens two conversations with the same seller about different
	// listings, then the seller replies on one.
	send(t, svc, alice, bob, listingPhone, "Hi! I'm interested in your phone.")
	send(t, svc, alice, bob, listingLaptop, "Hi! I'm interested in your laptop.")
	send(t, svc, bob, alice, listingPhone, "Still available, want to meet?")

	sellerInbox, err := svc.GetConversations(ctx, bob)
	if err != nil {
		t.Fatalf("GetConversations failed: %v", err)
	}
	if len(sellerInbox) != 2 {
		t.Fatalf("seller should see 2 conversations, got %d", len(sellerInbox))
	}

	buyerInbox, err := svc.GetConversations(ctx, alice)
	if err != nil {
		t.Fatalf("GetConversations failed: %v", err)
	}
	if len(buyerInbox) != 2 {
		t.Fatalf("buyer should see 2 conversations, got %d", len(buyerInbox))
	}
	if buyerInbox[0].ListingID != listingPhone {
		t.Fatalf("conversation with the newest reply should sort first")
	}
	if buyerInbox[0].UnreadCount != 1 {
		t.Fatalf("buyer should have 1 unread in the phone conversation, got %d", buyerInbox[0].UnreadCount)
	}
	if buyerInbox[0].OtherUserName == "" {
		t.Fatalf("counterparty name should be resolved")
	}

	// Viewing the thread clears the unread badge.
	if _, err := svc.GetThread(ctx, alice, bob, listingPhone); err != nil {
		t.Fatalf("GetThread failed: %v", err)
	}
	buyerInbox, err = svc.GetConversations(ctx, alice)
	if err != nil {
		t.Fatalf("GetConversations failed: %v", err)
	}
	if buyerInbox[0].UnreadCount != 0 {
		t.Fatalf("unread badge should clear after viewing, got %d", buyerInbox[0].UnreadCount)
	}
}

func TestSendMessagePublishesToFeed(t *testing.T) {
	repo := newMemoryRepository()
	feed := messaging.NewMemoryFeed()
	svc := messaging.NewService(repo, feed, staticNames{}, nil)
	ctx := context.Background()

	events, cancel, err := feed.Subscribe(ctx, listingPhone)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer cancel()

	sent := send(t, svc, alice, bob, listingPhone, "hello")

	select {
	case got := <-events:
		if got.ID != sent.ID {
			t.Fatalf("feed delivered %q, want %q", got.ID, sent.ID)
		}
	case <-time.After(time.Second):
		t.Fatalf("send never reached the feed")
	}
}

func TestSendMessageNotifiesOfflineRecipient(t *testing.T) {
	repo := newMemoryRepository()
	notifier := &recordingNotifier{}
	svc := messaging.NewService(repo, messaging.NewMemoryFeed(), staticNames{}, notifier)

	send(t, svc, alice, bob, listingPhone, "are you there?")

	// Notification runs on its own goroutine.
	recipient, _ := notifier.waitForCall(t)
	if recipient != bob {
		t.Fatalf("expected notification for %s, got %s", bob, recipient)
	}
}

func TestOfflineNotificationPreviewKeepsRuneBoundaries(t *testing.T) {
	repo := newMemoryRepository()
	notifier := &recordingNotifier{}
	svc := messaging.NewService(repo, messaging.NewMemoryFeed(), staticNames{}, notifier)

	// 200 multi-byte runes; a byte-indexed cut would split one mid-sequence.
	content := strings.Repeat("é", 200)
	send(t, svc, alice, bob, listingPhone, content)

	_, preview := notifier.waitForCall(t)
	if !utf8.ValidString(preview) {
		t.Fatalf("preview is not valid UTF-8: %q", preview)
	}
	if !strings.HasSuffix(preview, "…") {
		t.Fatalf("long previews should end with an ellipsis, got %q", preview)
	}
	if got := utf8.RuneCountInString(preview); got != 121 {
		t.Fatalf("expected 120 content runes plus the ellipsis, got %d", got)
	}
}
