package relationship

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns relationship router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	// All routes require authentication
	r.Use(authMiddleware)

	r.Post("/profiles/{id}/block", h.BlockProfile)
	r.Delete("/profiles/{id}/block", h.UnblockProfile)
	r.Get("/profiles/me/blocked", h.ListBlocked)

	return r
}
