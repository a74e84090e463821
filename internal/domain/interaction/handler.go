package interaction

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kindra/kindra-api/internal/domain/relationship"
	"github.com/kindra/kindra-api/internal/middleware"
	"github.com/kindra/kindra-api/internal/pkg/response"
)

// Handler handles interaction HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates interaction handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func targetProfileID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}

// Like handles POST /profiles/{id}/like
func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	targetID, err := targetProfileID(r)
	if err != nil {
		response.BadRequest(w, "Invalid profile ID")
		return
	}

	profileID := middleware.GetProfileID(r.Context())
	result, err := h.service.Like(r.Context(), profileID, targetID)
	if err != nil {
		if errors.Is(err, relationship.ErrSelfInteraction) {
			response.BadRequest(w, "Cannot like yourself")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, result)
}

// Unlike handles DELETE /profiles/{id}/like
func (h *Handler) Unlike(w http.ResponseWriter, r *http.Request) {
	targetID, err := targetProfileID(r)
	if err != nil {
		response.BadRequest(w, "Invalid profile ID")
		return
	}

	profileID := middleware.GetProfileID(r.Context())
	if err := h.service.Unlike(r.Context(), profileID, targetID); err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]string{"status": "ok"})
}

// Pass handles POST /profiles/{id}/pass
func (h *Handler) Pass(w http.ResponseWriter, r *http.Request) {
	targetID, err := targetProfileID(r)
	if err != nil {
		response.BadRequest(w, "Invalid profile ID")
		return
	}

	profileID := middleware.GetProfileID(r.Context())
	if err := h.service.Pass(r.Context(), profileID, targetID); err != nil {
		if errors.Is(err, relationship.ErrSelfInteraction) {
			response.BadRequest(w, "Cannot pass yourself")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]string{"status": "ok"})
}

// Unpass handles DELETE /profiles/{id}/pass
func (h *Handler) Unpass(w http.ResponseWriter, r *http.Request) {
	targetID, err := targetProfileID(r)
	if err != nil {
		response.BadRequest(w, "Invalid profile ID")
		return
	}

	profileID := middleware.GetProfileID(r.Context())
	if err := h.service.Unpass(r.Context(), profileID, targetID); err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]string{"status": "ok"})
}

// LikesReceivedCount handles GET /likes/received/count
func (h *Handler) LikesReceivedCount(w http.ResponseWriter, r *http.Request) {
	profileID := middleware.GetProfileID(r.Context())
	count, err := h.service.LikesReceivedCount(r.Context(), profileID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]int{"count": count})
}

// ListLikesSent handles GET /likes/sent
func (h *Handler) ListLikesSent(w http.ResponseWriter, r *http.Request) {
	profileID := middleware.GetProfileID(r.Context())
	views, err := h.service.ListLikesSent(r.Context(), profileID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, views)
}

// ListLikesReceived handles GET /likes/received
func (h *Handler) ListLikesReceived(w http.ResponseWriter, r *http.Request) {
	profileID := middleware.GetProfileID(r.Context())
	views, err := h.service.ListLikesReceived(r.Context(), profileID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, views)
}

// ListMatches handles GET /matches
func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	profileID := middleware.GetProfileID(r.Context())
	views, err := h.service.ListMatches(r.Context(), profileID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, views)
}

// MarkMatchSeen handles POST /matches/{id}/seen
func (h *Handler) MarkMatchSeen(w http.ResponseWriter, r *http.Request) {
	targetID, err := targetProfileID(r)
	if err != nil {
		response.BadRequest(w, "Invalid profile ID")
		return
	}

	profileID := middleware.GetProfileID(r.Context())
	if err := h.service.MarkMatchAsSeen(r.Context(), profileID, targetID); err != nil {
		if errors.Is(err, ErrSelfInteraction) {
			response.BadRequest(w, "Invalid match pair")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]string{"status": "ok"})
}
