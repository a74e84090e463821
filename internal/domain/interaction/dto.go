package interaction

import (
	"time"

	"github.com/google/uuid"

	"github.com/kindra/kindra-api/internal/domain/profile"
	"github.com/kindra/kindra-api/internal/domain/relationship"
)

// CounterpartInfo is the minimal profile projection rendered on an edge
type CounterpartInfo struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
}

// EdgeView is a directed like edge decorated with the counterpart's
// summary and the match flag, one per direction of the pair
type EdgeView struct {
	FromProfileID uuid.UUID        `json:"from_profile_id"`
	ToProfileID   uuid.UUID        `json:"to_profile_id"`
	IsMatch       bool             `json:"is_match"`
	IsNew         bool             `json:"is_new"`
	Counterpart   *CounterpartInfo `json:"counterpart,omitempty"`
	CreatedAt     string           `json:"created_at"`
}

// EdgeViewFromEntity builds an edge view; the counterpart is the profile
// the view's consumer is looking at
func EdgeViewFromEntity(edge *relationship.LikeEdge, isMatch bool, counterpart *profile.Summary) *EdgeView {
	view := &EdgeView{
		FromProfileID: edge.FromProfileID,
		ToProfileID:   edge.ToProfileID,
		IsMatch:       isMatch,
		IsNew:         edge.IsNew,
		CreatedAt:     edge.CreatedAt.Format(time.RFC3339),
	}
	if counterpart != nil {
		view.Counterpart = &CounterpartInfo{
			ID:          counterpart.ID,
			DisplayName: counterpart.DisplayName,
			AvatarURL:   counterpart.Avatar(),
		}
	}
	return view
}

// LikeResult is what a like operation reports back: whether it completed
// a match and the two directional edge views used to notify each side
type LikeResult struct {
	IsMatch  bool      `json:"is_match"`
	EdgeTo   *EdgeView `json:"edge_to"`
	EdgeFrom *EdgeView `json:"edge_from,omitempty"`
}
