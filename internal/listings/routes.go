// internal/listings/routes.go

package listings

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers listing routes. Browsing and viewing are
// public but get optional identity so user_id=me resolves to the
// signed-in user; creating and claiming require authentication.
func RegisterRoutes(router *mux.Router, handler *Handler, authenticate, optionalAuth mux.MiddlewareFunc) {
	public := router.PathPrefix("/api/v1/listings").Subrouter()
	public.Use(optionalAuth)
	public.HandleFunc("", handler.BrowseListings).Methods("GET")
	public.HandleFunc("/{id}", handler.GetListing).Methods("GET")

	protected := router.PathPrefix("/api/v1/listings").Subrouter()
	protected.Use(authenticate)
	protected.HandleFunc("", handler.CreateListing).Methods("POST")
	protected.HandleFunc("/{id}/claim", handler.ClaimListing).Methods("POST")
	protected.HandleFunc("/{id}/interest", handler.GetInterestMessage).Methods("GET")
}
