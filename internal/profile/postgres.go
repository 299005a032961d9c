// internal/profile/postgres.go

package profile

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

// GetByUserID retrieves a profile by user id
func (r *postgresRepository) GetByUserID(ctx context.Context, userID string) (*Profile, error) {
	query := `
        SELECT user_id, full_name, email, location, created_at, updated_at
        FROM profiles
        WHERE user_id = $1`

	var profile Profile
	err := r.db.GetContext(ctx, &profile, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Upsert creates or updates the mutable profile fields
func (r *postgresRepository) Upsert(ctx context.Context, userID string, req *UpdateProfileRequest) (*Profile, error) {
	query := `
        INSERT INTO profiles (user_id, full_name, location)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id) DO UPDATE SET
            full_name = COALESCE(EXCLUDED.full_name, profiles.full_name),
            location = COALESCE(EXCLUDED.location, profiles.location),
            updated_at = CURRENT_TIMESTAMP
        RETURNING user_id, full_name, email, location, created_at, updated_at`

	var profile Profile
	if err := r.db.GetContext(ctx, &profile, query, userID, req.FullName, req.Location); err != nil {
		return nil, err
	}
	return &profile, nil
}
