// internal/messaging/handlers.go

package messaging

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/techswap/techswap-backend/internal/auth"
	"github.com/techswap/techswap-backend/internal/common/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS is enforced at the router level
		return true
	},
}

type Handler struct {
	service Service
	hub     *Hub
}

func NewHandler(service Service, hub *Hub) *Handler {
	return &Handler{
		service: service,
		hub:     hub,
	}
}

// HandleWebSocket handles WebSocket connections
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	client := NewClient(h.hub, conn, userID)
	h.hub.register <- client
	client.Start()
}

// GetConversations returns the user's aggregated conversation list
func (h *Handler) GetConversations(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserIDFromContext(r.Context())

	conversations, err := h.service.GetConversations(r.Context(), userID)
	if err != nil {
		utils.ErrorResponse(w, "Failed to load conversations", http.StatusInternalServerError)
		return
	}

	utils.SuccessResponse(w, conversations, http.StatusOK)
}

// GetThread returns the ordered history for one conversation and marks the
// caller's unread messages read
func (h *Handler) GetThread(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	otherUserID := r.URL.Query().Get("other_user_id")
	listingID := r.URL.Query().Get("listing_id")
	if otherUserID == "" || listingID == "" {
		utils.ErrorResponse(w, "other_user_id and listing_id are required", http.StatusBadRequest)
		return
	}

	messages, err := h.service.GetThread(r.Context(), userID, otherUserID, listingID)
	if err != nil {
		utils.ErrorResponse(w, "Failed to load thread", http.StatusInternalServerError)
		return
	}

	utils.SuccessResponse(w, messages, http.StatusOK)
}

// SendMessage persists an outbound message
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	message, err := h.service.SendMessage(r.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyContent), errors.Is(err, ErrSelfMessage):
			utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrUnauthorized):
			utils.ErrorResponse(w, err.Error(), http.StatusUnauthorized)
		default:
			utils.ErrorResponse(w, "Failed to send message", http.StatusInternalServerError)
		}
		return
	}

	utils.SuccessResponse(w, message, http.StatusCreated)
}

// MarkRead marks messages as read
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req MarkReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		utils.ErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := h.service.MarkRead(r.Context(), userID, req.MessageIDs)
	if err != nil {
		utils.ErrorResponse(w, "Failed to mark messages read", http.StatusInternalServerError)
		return
	}

	utils.SuccessResponse(w, map[string]int64{"updated": updated}, http.StatusOK)
}

// HealthCheck reports hub status for the messaging subsystem
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	utils.SuccessResponse(w, map[string]interface{}{
		"status":      "healthy",
		"connections": h.hub.GetActiveConnections(),
	}, http.StatusOK)
}
