// internal/activity/models.go

package activity

import (
	"time"
)

// Action types recorded in the feed
const (
	ActionList  = "list"
	ActionClaim = "claim"
)

type Activity struct {
	ID         string    `json:"id" db:"id"`
	ActionType string    `json:"action_type" db:"action_type"`
	ItemID     string    `json:"item_id" db:"item_id"`
	UserID     string    `json:"user_id" db:"user_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`

	// Resolved for display, not stored.
	UserName string `json:"user_name,omitempty" db:"-"`
}
