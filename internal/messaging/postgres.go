// internal/messaging/postgres.go

package messaging

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

// CreateMessage creates a new message
func (r *postgresRepository) CreateMessage(ctx context.Context, message *Message) error {
	query := `
        INSERT INTO messages (content, sender_id, recipient_id, listing_id, read)
        VALUES ($1, $2, $3, $4, false)
        RETURNING id, created_at`

	return r.db.QueryRowContext(
		ctx, query,
		message.Content, message.SenderID, message.RecipientID, message.ListingID,
	).Scan(&message.ID, &message.CreatedAt)
}

// ListUserMessages retrieves all messages involving the user, newest first
func (r *postgresRepository) ListUserMessages(ctx context.Context, userID string) ([]*Message, error) {
	query := `
        SELECT id, content, sender_id, recipient_id, listing_id, read, created_at
        FROM messages
        WHERE sender_id = $1 OR recipient_id = $1
        ORDER BY created_at DESC, id DESC`

	var messages []*Message
	if err := r.db.SelectContext(ctx, &messages, query, userID); err != nil {
		return nil, err
	}
	return messages, nil
}

// ListThread retrieves the history between two users for one listing, oldest first
func (r *postgresRepository) ListThread(ctx context.Context, userID, otherUserID, listingID string) ([]*Message, error) {
	query := `
        SELECT id, content, sender_id, recipient_id, listing_id, read, created_at
        FROM messages
        WHERE listing_id = $3
          AND ((sender_id = $1 AND recipient_id = $2)
            OR (sender_id = $2 AND recipient_id = $1))
        ORDER BY created_at ASC, id ASC`

	var messages []*Message
	if err := r.db.SelectContext(ctx, &messages, query, userID, otherUserID, listingID); err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkRead marks messages as read for their recipient. The recipient_id
// guard keeps one user's read state from leaking into another's; the read
// guard makes repeated calls a no-op.
func (r *postgresRepository) MarkRead(ctx context.Context, recipientID string, messageIDs []string) (int64, error) {
	if len(messageIDs) == 0 {
		return 0, nil
	}

	query := `
        UPDATE messages
        SET read = true
        WHERE id = ANY($1) AND recipient_id = $2 AND read = false`

	result, err := r.db.ExecContext(ctx, query, pq.Array(messageIDs), recipientID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
