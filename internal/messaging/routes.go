// internal/messaging/routes.go

package messaging

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes registers all messaging routes
func RegisterRoutes(router *mux.Router, handler *Handler, authenticate mux.MiddlewareFunc) {
	// WebSocket endpoint - requires authentication
	router.Handle("/ws", authenticate(http.HandlerFunc(handler.HandleWebSocket))).Methods("GET")

	// REST API endpoints
	api := router.PathPrefix("/api/v1/messages").Subrouter()
	api.Use(authenticate)

	api.HandleFunc("/conversations", handler.GetConversations).Methods("GET")
	api.HandleFunc("/thread", handler.GetThread).Methods("GET")
	api.HandleFunc("", handler.SendMessage).Methods("POST")
	api.HandleFunc("/read", handler.MarkRead).Methods("POST")
}

// RegisterHealthCheck exposes the messaging health endpoint
func RegisterHealthCheck(router *mux.Router, handler *Handler) {
	router.HandleFunc("/health/messaging", handler.HealthCheck).Methods("GET")
}
