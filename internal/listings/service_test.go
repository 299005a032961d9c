package listings_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/techswap/techswap-backend/internal/listings"
)

const (
	seller = "5b8f0a1e-0000-4000-8000-000000000001"
	buyer  = "5b8f0a1e-0000-4000-8000-000000000002"
)

type memoryRepository struct {
	mu       sync.Mutex
	listings map[string]*listings.Listing
	images   map[string][]*listings.ListingImage
	nextID   int
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		listings: make(map[string]*listings.Listing),
		images:   make(map[string][]*listings.ListingImage),
	}
}

func (r *memoryRepository) Create(ctx context.Context, listing *listings.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	listing.ID = fmt.Sprintf("listing-%03d", r.nextID)
	listing.CreatedAt = time.Now()

	stored := *listing
	r.listings[listing.ID] = &stored
	return nil
}

func (r *memoryRepository) GetByID(ctx context.Context, id string) (*listings.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	listing, ok := r.listings[id]
	if !ok {
		return nil, listings.ErrListingNotFound
	}
	copied := *listing
	return &copied, nil
}

func (r *memoryRepository) List(ctx context.Context, filter listings.Filter) ([]*listings.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*listings.Listing
	for _, listing := range r.listings {
		if filter.Status != "" && listing.Status != filter.Status {
			continue
		}
		if filter.Category != "" && listing.Category != filter.Category {
			continue
		}
		if filter.UserID != "" && listing.UserID != filter.UserID {
			continue
		}
		copied := *listing
		out = append(out, &copied)
	}
	return out, nil
}

func (r *memoryRepository) UpdateStatus(ctx context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	listing, ok := r.listings[id]
	if !ok {
		return listings.ErrListingNotFound
	}
	listing.Status = status
	return nil
}

func (r *memoryRepository) AddImage(ctx context.Context, image *listings.ListingImage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	image.ID = fmt.Sprintf("image-%03d", len(r.images[image.ListingID])+1)
	r.images[image.ListingID] = append(r.images[image.ListingID], image)
	return nil
}

func (r *memoryRepository) GetImages(ctx context.Context, listingID string) ([]*listings.ListingImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.images[listingID], nil
}

type recordingRecorder struct {
	mu      sync.Mutex
	actions []string
	fail    bool
}

func (r *recordingRecorder) Record(ctx context.Context, actionType, itemID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("activity store unavailable")
	}
	r.actions = append(r.actions, actionType+":"+itemID+":"+userID)
	return nil
}

type staticNames struct{}

func (staticNames) DisplayName(ctx context.Context, userID string) string { return "Maria G." }

func newTestService(repo listings.Repository, recorder listings.Recorder) listings.Service {
	uploader := listings.NewLocalUploader(testTempDir, "http://localhost:8080/uploads", 10<<20)
	return listings.NewService(repo, uploader, recorder, staticNames{}, 6)
}

// testTempDir keeps the local uploader constructible; these tests never
// write files through it.
var testTempDir = "testdata"

func createRequest() *listings.CreateListingRequest {
	return &listings.CreateListingRequest{
		Title:       "iPhone 12, cracked screen",
		Description: "Works fine, just cosmetic damage.",
		Category:    "phones",
		Condition:   listings.ConditionFair,
		Location:    "Brooklyn",
	}
}

func TestCreateListingRecordsActivity(t *testing.T) {
	repo := newMemoryRepository()
	recorder := &recordingRecorder{}
	svc := newTestService(repo, recorder)
	ctx := context.Background()

	listing, err := svc.CreateListing(ctx, seller, createRequest(), nil)
	if err != nil {
		t.Fatalf("CreateListing failed: %v", err)
	}
	if listing.ID == "" {
		t.Fatalf("expected a persisted listing id")
	}
	if listing.Status != listings.StatusAvailable {
		t.Fatalf("new listings must start available, got %q", listing.Status)
	}

	want := "list:" + listing.ID + ":" + seller
	if len(recorder.actions) != 1 || recorder.actions[0] != want {
		t.Fatalf("expected activity %q, got %v", want, recorder.actions)
	}
}

func TestCreateListingSurvivesActivityFailure(t *testing.T) {
	repo := newMemoryRepository()
	recorder := &recordingRecorder{fail: true}
	svc := newTestService(repo, recorder)

	listing, err := svc.CreateListing(context.Background(), seller, createRequest(), nil)
	if err != nil {
		t.Fatalf("CreateListing must not fail when activity recording fails: %v", err)
	}
	if _, err := repo.GetByID(context.Background(), listing.ID); err != nil {
		t.Fatalf("listing should still be persisted: %v", err)
	}
}

func TestClaimListing(t *testing.T) {
	repo := newMemoryRepository()
	recorder := &recordingRecorder{}
	svc := newTestService(repo, recorder)
	ctx := context.Background()

	listing, err := svc.CreateListing(ctx, seller, createRequest(), nil)
	if err != nil {
		t.Fatalf("CreateListing failed: %v", err)
	}

	// The seller cannot claim their own listing.
	if _, err := svc.Claim(ctx, seller, listing.ID); !errors.Is(err, listings.ErrOwnListing) {
		t.Fatalf("expected ErrOwnListing, got %v", err)
	}

	claimed, err := svc.Claim(ctx, buyer, listing.ID)
	if err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if claimed.Status != listings.StatusClaimed {
		t.Fatalf("expected status %q, got %q", listings.StatusClaimed, claimed.Status)
	}

	// A second claim hits the already-claimed guard.
	if _, err := svc.Claim(ctx, buyer, listing.ID); !errors.Is(err, listings.ErrAlreadyClaimed) {
		t.Fatalf("expected ErrAlreadyClaimed, got %v", err)
	}

	// Both the list and the claim landed in the activity feed.
	if len(recorder.actions) != 2 {
		t.Fatalf("expected 2 activity records, got %v", recorder.actions)
	}
	wantClaim := "claim:" + listing.ID + ":" + buyer
	if recorder.actions[1] != wantClaim {
		t.Fatalf("expected activity %q, got %q", wantClaim, recorder.actions[1])
	}
}

func TestClaimMissingListing(t *testing.T) {
	svc := newTestService(newMemoryRepository(), &recordingRecorder{})

	_, err := svc.Claim(context.Background(), buyer, "no-such-listing")
	if !errors.Is(err, listings.ErrListingNotFound) {
		t.Fatalf("expected ErrListingNotFound, got %v", err)
	}
}

func TestInterestMessage(t *testing.T) {
	got := listings.InterestMessage("iPhone 12, cracked screen")
	want := "Hi! I'm interested in your iPhone 12, cracked screen."
	if got != want {
		t.Fatalf("InterestMessage = %q, want %q", got, want)
	}
}

func TestGetListingResolvesOwnerName(t *testing.T) {
	repo := newMemoryRepository()
	svc := newTestService(repo, &recordingRecorder{})
	ctx := context.Background()

	created, err := svc.CreateListing(ctx, seller, createRequest(), nil)
	if err != nil {
		t.Fatalf("CreateListing failed: %v", err)
	}

	listing, err := svc.GetListing(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetListing failed: %v", err)
	}
	if listing.OwnerName != "Maria G." {
		t.Fatalf("expected resolved owner name, got %q", listing.OwnerName)
	}
}
