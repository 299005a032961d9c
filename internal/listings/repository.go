// internal/listings/repository.go

package listings

import (
	"context"
	"errors"
)

var ErrListingNotFound = errors.New("listing not found")

type Repository interface {
	Create(ctx context.Context, listing *Listing) error
	GetByID(ctx context.Context, id string) (*Listing, error)
	List(ctx context.Context, filter Filter) ([]*Listing, error)
	UpdateStatus(ctx context.Context, id, status string) error

	AddImage(ctx context.Context, image *ListingImage) error
	GetImages(ctx context.Context, listingID string) ([]*ListingImage, error)
}
