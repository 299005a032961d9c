// internal/listings/handlers.go

package listings

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/techswap/techswap-backend/internal/auth"
	"github.com/techswap/techswap-backend/internal/common/utils"
)

type Handler struct {
	service       Service
	maxUploadSize int64
}

func NewHandler(service Service, maxUploadSize int64) *Handler {
	return &Handler{service: service, maxUploadSize: maxUploadSize}
}

// CreateListing handles a multipart form with listing fields and up to
// the configured number of image files under the "images" field.
func (h *Handler) CreateListing(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		utils.ErrorResponse(w, "Invalid upload", http.StatusBadRequest)
		return
	}

	req := &CreateListingRequest{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
		Condition:   r.FormValue("condition"),
		Location:    r.FormValue("location"),
	}
	if issues := r.FormValue("issues"); issues != "" {
		req.Issues = &issues
	}

	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	files := r.MultipartForm.File["images"]

	listing, err := h.service.CreateListing(r.Context(), userID, req, files)
	if errors.Is(err, ErrTooManyImages) {
		utils.ErrorResponse(w, "Too many images", http.StatusBadRequest)
		return
	}
	if err != nil {
		utils.ErrorResponse(w, "Failed to create listing", http.StatusInternalServerError)
		return
	}

	utils.SuccessResponse(w, listing, http.StatusCreated)
}

// GetListing returns a single listing with images and owner name
func (h *Handler) GetListing(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	listing, err := h.service.GetListing(r.Context(), id)
	if errors.Is(err, ErrListingNotFound) {
		utils.ErrorResponse(w, "Listing not found", http.StatusNotFound)
		return
	}
	if err != nil {
		utils.ErrorResponse(w, "Failed to load listing", http.StatusInternalServerError)
		return
	}

	utils.SuccessResponse(w, listing, http.StatusOK)
}

// BrowseListings returns listings matching optional query filters
func (h *Handler) BrowseListings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := Filter{
		Category:  query.Get("category"),
		Condition: query.Get("condition"),
		Status:    query.Get("status"),
		Search:    query.Get("search"),
		UserID:    query.Get("user_id"),
	}

	// "me" filters to the signed-in user's own listings
	if filter.UserID == "me" {
		userID, ok := auth.GetUserIDFromContext(r.Context())
		if !ok {
			utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		filter.UserID = userID
	}
	if limit, err := strconv.Atoi(query.Get("limit")); err == nil {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(query.Get("offset")); err == nil {
		filter.Offset = offset
	}

	results, err := h.service.Browse(r.Context(), filter)
	if err != nil {
		utils.ErrorResponse(w, "Failed to load listings", http.StatusInternalServerError)
		return
	}

	utils.SuccessResponse(w, results, http.StatusOK)
}

// ClaimListing marks a listing as claimed by the signed-in user
func (h *Handler) ClaimListing(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id := mux.Vars(r)["id"]

	listing, err := h.service.Claim(r.Context(), userID, id)
	switch {
	case errors.Is(err, ErrListingNotFound):
		utils.ErrorResponse(w, "Listing not found", http.StatusNotFound)
	case errors.Is(err, ErrOwnListing):
		utils.ErrorResponse(w, "You cannot claim your own listing", http.StatusBadRequest)
	case errors.Is(err, ErrAlreadyClaimed):
		utils.ErrorResponse(w, "Listing is already claimed", http.StatusConflict)
	case err != nil:
		utils.ErrorResponse(w, "Failed to claim listing", http.StatusInternalServerError)
	default:
		utils.SuccessResponse(w, listing, http.StatusOK)
	}
}

// GetInterestMessage returns the prefilled opener for contacting a seller
func (h *Handler) GetInterestMessage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	listing, err := h.service.GetListing(r.Context(), id)
	if errors.Is(err, ErrListingNotFound) {
		utils.ErrorResponse(w, "Listing not found", http.StatusNotFound)
		return
	}
	if err != nil {
		utils.ErrorResponse(w, "Failed to load listing", http.StatusInternalServerError)
		return
	}

	utils.SuccessResponse(w, map[string]string{
		"recipient_id": listing.UserID,
		"listing_id":   listing.ID,
		"content":      InterestMessage(listing.Title),
	}, http.StatusOK)
}
