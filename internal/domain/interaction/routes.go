package interaction

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns interaction router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	// All routes require authentication
	r.Use(authMiddleware)

	r.Post("/profiles/{id}/like", h.Like)
	r.Delete("/profiles/{id}/like", h.Unlike)
	r.Post("/profiles/{id}/pass", h.Pass)
	r.Delete("/profiles/{id}/pass", h.Unpass)

	r.Get("/likes/received/count", h.LikesReceivedCount)
	r.Get("/likes/received", h.ListLikesReceived)
	r.Get("/likes/sent", h.ListLikesSent)

	r.Get("/matches", h.ListMatches)
	r.Post("/matches/{id}/seen", h.MarkMatchSeen)

	return r
}
