package messaging

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns messaging router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	// All routes require authentication
	r.Use(authMiddleware)

	r.Post("/messages", h.SendMessage)
	r.Get("/conversations", h.ListConversations)
	r.Get("/conversations/{id}/messages", h.ListMessages)
	r.Post("/conversations/{id}/read", h.MarkRead)

	return r
}
