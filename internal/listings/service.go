// internal/listings/service.go

package listings

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
)

var (
	ErrOwnListing     = errors.New("cannot claim your own listing")
	ErrAlreadyClaimed = errors.New("listing is already claimed")
	ErrTooManyImages  = errors.New("too many images")
)

// Recorder records marketplace actions to the activity feed.
type Recorder interface {
	Record(ctx context.Context, actionType, itemID, userID string) error
}

// NameResolver resolves a user ID to a public display name.
type NameResolver interface {
	DisplayName(ctx context.Context, userID string) string
}

type Service interface {
	CreateListing(ctx context.Context, userID string, req *CreateListingRequest, images []*multipart.FileHeader) (*Listing, error)
	GetListing(ctx context.Context, id string) (*Listing, error)
	Browse(ctx context.Context, filter Filter) ([]*Listing, error)
	Claim(ctx context.Context, userID, listingID string) (*Listing, error)
}

type listingService struct {
	repo      Repository
	uploader  Uploader
	recorder  Recorder
	names     NameResolver
	maxImages int
}

func NewService(repo Repository, uploader Uploader, recorder Recorder, names NameResolver, maxImages int) Service {
	return &listingService{
		repo:      repo,
		uploader:  uploader,
		recorder:  recorder,
		names:     names,
		maxImages: maxImages,
	}
}

func (s *listingService) CreateListing(ctx context.Context, userID string, req *CreateListingRequest, images []*multipart.FileHeader) (*Listing, error) {
	if len(images) > s.maxImages {
		return nil, ErrTooManyImages
	}

	listing := &Listing{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Condition:   req.Condition,
		Location:    req.Location,
		Issues:      req.Issues,
		Status:      StatusAvailable,
	}

	if err := s.repo.Create(ctx, listing); err != nil {
		return nil, err
	}

	for i, header := range images {
		file, err := header.Open()
		if err != nil {
			log.Printf("Failed to open uploaded image for listing %s: %v", listing.ID, err)
			continue
		}

		key, err := s.uploader.Upload(ctx, file, header)
		if err != nil {
			log.Printf("Failed to upload image for listing %s: %v", listing.ID, err)
			continue
		}

		image := &ListingImage{
			ListingID:   listing.ID,
			StoragePath: key,
			OrderIndex:  i,
		}
		if err := s.repo.AddImage(ctx, image); err != nil {
			log.Printf("Failed to save image record for listing %s: %v", listing.ID, err)
			continue
		}
		listing.ImageURLs = append(listing.ImageURLs, s.uploader.PublicURL(key))
	}

	if err := s.recorder.Record(ctx, "list", listing.ID, userID); err != nil {
		// Activity is best-effort; the listing itself already exists.
		log.Printf("Failed to record listing activity for %s: %v", listing.ID, err)
	}

	return listing, nil
}

func (s *listingService) GetListing(ctx context.Context, id string) (*Listing, error) {
	listing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.attachImages(ctx, listing); err != nil {
		log.Printf("Failed to load images for listing %s: %v", id, err)
	}
	listing.OwnerName = s.names.DisplayName(ctx, listing.UserID)

	return listing, nil
}

func (s *listingService) Browse(ctx context.Context, filter Filter) ([]*Listing, error) {
	results, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	for _, listing := range results {
		if err := s.attachImages(ctx, listing); err != nil {
			log.Printf("Failed to load images for listing %s: %v", listing.ID, err)
		}
		listing.OwnerName = s.names.DisplayName(ctx, listing.UserID)
	}

	return results, nil
}

func (s *listingService) Claim(ctx context.Context, userID, listingID string) (*Listing, error) {
	listing, err := s.repo.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}

	if listing.UserID == userID {
		return nil, ErrOwnListing
	}
	if listing.Status != StatusAvailable {
		return nil, ErrAlreadyClaimed
	}

	if err := s.repo.UpdateStatus(ctx, listingID, StatusClaimed); err != nil {
		return nil, err
	}
	listing.Status = StatusClaimed

	if err := s.recorder.Record(ctx, "claim", listingID, userID); err != nil {
		log.Printf("Failed to record claim activity for %s: %v", listingID, err)
	}

	return listing, nil
}

func (s *listingService) attachImages(ctx context.Context, listing *Listing) error {
	images, err := s.repo.GetImages(ctx, listing.ID)
	if err != nil {
		return err
	}
	for _, image := range images {
		listing.ImageURLs = append(listing.ImageURLs, s.uploader.PublicURL(image.StoragePath))
	}
	return nil
}

// InterestMessage is the prefilled opener shown when a buyer starts a
// conversation from a listing page.
func InterestMessage(title string) string {
	return fmt.Sprintf("Hi! I'm interested in your %s.", title)
}
