// internal/listings/postgres.go

package listings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

type postgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, listing *Listing) error {
	query := `
		INSERT INTO listings (user_id, title, description, category, condition, location, issues, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		listing.UserID,
		listing.Title,
		listing.Description,
		listing.Category,
		listing.Condition,
		listing.Location,
		listing.Issues,
		listing.Status,
	).Scan(&listing.ID, &listing.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}

	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id string) (*Listing, error) {
	query := `
		SELECT id, user_id, title, description, category, condition, location, issues, status, created_at
		FROM listings
		WHERE id = $1
	`

	var listing Listing
	err := r.db.GetContext(ctx, &listing, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrListingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}

	return &listing, nil
}

func (r *postgresRepository) List(ctx context.Context, filter Filter) ([]*Listing, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argPos))
		args = append(args, filter.Category)
		argPos++
	}
	if filter.Condition != "" {
		conditions = append(conditions, fmt.Sprintf("condition = $%d", argPos))
		args = append(args, filter.Condition)
		argPos++
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, filter.Status)
		argPos++
	}
	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argPos))
		args = append(args, filter.UserID)
		argPos++
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+filter.Search+"%")
		argPos++
	}

	query := `
		SELECT id, user_id, title, description, category, condition, location, issues, status, created_at
		FROM listings
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, filter.Offset)

	listings := []*Listing{}
	if err := r.db.SelectContext(ctx, &listings, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}

	return listings, nil
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE listings SET status = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update listing status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return ErrListingNotFound
	}

	return nil
}

func (r *postgresRepository) AddImage(ctx context.Context, image *ListingImage) error {
	query := `
		INSERT INTO listing_images (listing_id, storage_path, order_index)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		image.ListingID,
		image.StoragePath,
		image.OrderIndex,
	).Scan(&image.ID, &image.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add listing image: %w", err)
	}

	return nil
}

func (r *postgresRepository) GetImages(ctx context.Context, listingID string) ([]*ListingImage, error) {
	query := `
		SELECT id, listing_id, storage_path, order_index, created_at
		FROM listing_images
		WHERE listing_id = $1
		ORDER BY order_index ASC
	`

	images := []*ListingImage{}
	if err := r.db.SelectContext(ctx, &images, query, listingID); err != nil {
		return nil, fmt.Errorf("failed to get listing images: %w", err)
	}

	return images, nil
}
