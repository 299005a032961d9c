// internal/profile/models.go

package profile

import (
	"time"
)

// Profile represents a user's public profile. The identity itself (password,
// sessions) lives with the hosted identity provider; this row only carries
// what the marketplace displays and the email used for notifications.
type Profile struct {
	UserID    string     `json:"user_id" db:"user_id"`
	FullName  *string    `json:"full_name" db:"full_name"`
	Email     *string    `json:"email,omitempty" db:"email"`
	Location  *string    `json:"location" db:"location"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// UpdateProfileRequest carries profile fields a user may change
type UpdateProfileRequest struct {
	FullName *string `json:"full_name" validate:"omitempty,max=100"`
	Location *string `json:"location" validate:"omitempty,max=100"`
}
