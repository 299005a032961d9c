// internal/profile/repository.go

package profile

import (
	"context"
	"errors"
)

var ErrProfileNotFound = errors.New("profile not found")

type Repository interface {
	// GetByUserID returns the profile for a user, or ErrProfileNotFound.
	GetByUserID(ctx context.Context, userID string) (*Profile, error)

	// Upsert creates or updates the mutable profile fields.
	Upsert(ctx context.Context, userID string, req *UpdateProfileRequest) (*Profile, error)
}
