// internal/activity/handlers.go

package activity

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/techswap/techswap-backend/internal/common/utils"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// GetRecentActivity returns the most recent marketplace actions
func (h *Handler) GetRecentActivity(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		limit = v
	}

	activities, err := h.service.RecentActivity(r.Context(), limit)
	if err != nil {
		utils.ErrorResponse(w, "Failed to load activity", http.StatusInternalServerError)
		return
	}

	utils.SuccessResponse(w, activities, http.StatusOK)
}

// RegisterRoutes registers the public activity feed route
func RegisterRoutes(router *mux.Router, handler *Handler) {
	router.HandleFunc("/api/v1/activity", handler.GetRecentActivity).Methods("GET")
}
