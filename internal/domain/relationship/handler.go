package relationship

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kindra/kindra-api/internal/domain/profile"
	"github.com/kindra/kindra-api/internal/middleware"
	"github.com/kindra/kindra-api/internal/pkg/response"
)

// Handler handles block management HTTP requests
type Handler struct {
	service  *Service
	profiles profile.Repository
}

// NewHandler creates relationship handler
func NewHandler(service *Service, profiles profile.Repository) *Handler {
	return &Handler{
		service:  service,
		profiles: profiles,
	}
}

// BlockProfile handles POST /profiles/{id}/block
func (h *Handler) BlockProfile(w http.ResponseWriter, r *http.Request) {
	targetID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid profile ID")
		return
	}

	profileID := middleware.GetProfileID(r.Context())
	if err := h.service.BlockProfile(r.Context(), profileID, targetID); err != nil {
		if errors.Is(err, ErrSelfInteraction) {
			response.BadRequest(w, "Cannot block yourself")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]string{"status": "ok"})
}

// UnblockProfile handles DELETE /profiles/{id}/block
func (h *Handler) UnblockProfile(w http.ResponseWriter, r *http.Request) {
	targetID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid profile ID")
		return
	}

	profileID := middleware.GetProfileID(r.Context())
	if err := h.service.UnblockProfile(r.Context(), profileID, targetID); err != nil {
		if errors.Is(err, ErrSelfInteraction) {
			response.BadRequest(w, "Cannot unblock yourself")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]string{"status": "ok"})
}

// ListBlocked handles GET /profiles/me/blocked
func (h *Handler) ListBlocked(w http.ResponseWriter, r *http.Request) {
	profileID := middleware.GetProfileID(r.Context())
	blocks, err := h.service.ListMyBlocks(r.Context(), profileID)
	if err != nil {
		response.InternalError(w)
		return
	}

	items := make([]*BlockedProfileResponse, 0, len(blocks))
	for _, block := range blocks {
		summary, err := h.profiles.GetSummary(r.Context(), block.BlockedProfileID)
		if err != nil || summary == nil {
			items = append(items, BlockEdgeFromEntity(block, "Unknown", nil))
			continue
		}
		items = append(items, BlockEdgeFromEntity(block, summary.DisplayName, summary.Avatar()))
	}

	response.OK(w, items)
}
