// internal/messaging/repository.go

package messaging

import (
	"context"
)

type Repository interface {
	// CreateMessage persists a new message and fills in ID and CreatedAt.
	CreateMessage(ctx context.Context, message *Message) error

	// ListUserMessages returns every message the user sent or received,
	// newest first (created_at DESC, id DESC for a stable order).
	ListUserMessages(ctx context.Context, userID string) ([]*Message, error)

	// ListThread returns the full history between two users for one
	// listing, oldest first (created_at ASC, id ASC).
	ListThread(ctx context.Context, userID, otherUserID, listingID string) ([]*Message, error)

	// MarkRead flips the read flag on the given messages, but only for
	// rows addressed to recipientID that are still unread. Returns the
	// number of rows actually updated; already-read rows are a no-op.
	MarkRead(ctx context.Context, recipientID string, messageIDs []string) (int64, error)
}
