// internal/activity/postgres.go

package activity

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, activity *Activity) error {
	query := `
		INSERT INTO activities (action_type, item_id, user_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		activity.ActionType,
		activity.ItemID,
		activity.UserID,
	).Scan(&activity.ID, &activity.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}

	return nil
}

func (r *postgresRepository) Recent(ctx context.Context, limit int) ([]*Activity, error) {
	query := `
		SELECT id, action_type, item_id, user_id, created_at
		FROM activities
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	activities := []*Activity{}
	if err := r.db.SelectContext(ctx, &activities, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	return activities, nil
}
