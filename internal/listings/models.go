// internal/listings/models.go

package listings

import (
	"time"
)

// Listing statuses
const (
	StatusAvailable = "available"
	StatusClaimed   = "claimed"
)

// Condition values accepted for a listing
const (
	ConditionLikeNew  = "like_new"
	ConditionGood     = "good"
	ConditionFair     = "fair"
	ConditionForParts = "for_parts"
)

type Listing struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Category    string    `json:"category" db:"category"`
	Condition   string    `json:"condition" db:"condition"`
	Location    string    `json:"location" db:"location"`
	Issues      *string   `json:"issues,omitempty" db:"issues"`
	Status      string    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	// Populated by the service layer, not stored on the listings row.
	ImageURLs []string `json:"image_urls,omitempty" db:"-"`
	OwnerName string   `json:"owner_name,omitempty" db:"-"`
}

type ListingImage struct {
	ID          string    `json:"id" db:"id"`
	ListingID   string    `json:"listing_id" db:"listing_id"`
	StoragePath string    `json:"storage_path" db:"storage_path"`
	OrderIndex  int       `json:"order_index" db:"order_index"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type CreateListingRequest struct {
	Title       string  `json:"title" validate:"required,max=120"`
	Description string  `json:"description" validate:"required,max=2000"`
	Category    string  `json:"category" validate:"required,max=60"`
	Condition   string  `json:"condition" validate:"required,oneof=like_new good fair for_parts"`
	Location    string  `json:"location" validate:"required,max=120"`
	Issues      *string `json:"issues,omitempty" validate:"omitempty,max=500"`
}

// Filter narrows a browse query. Zero values mean "no filter".
type Filter struct {
	Category  string
	Condition string
	Status    string
	Search    string
	UserID    string
	Limit     int
	Offset    int
}
