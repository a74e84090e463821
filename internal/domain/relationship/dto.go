package relationship

import (
	"time"

	"github.com/google/uuid"
)

// BlockedProfileResponse represents a blocked profile in API responses
type BlockedProfileResponse struct {
	ID          uuid.UUID `json:"id"`
	ProfileID   uuid.UUID `json:"profile_id"`
	DisplayName string    `json:"display_name,omitempty"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
	BlockedAt   string    `json:"blocked_at"`
}

// BlockEdgeFromEntity converts entity to response
func BlockEdgeFromEntity(block *BlockEdge, displayName string, avatarURL *string) *BlockedProfileResponse {
	return &BlockedProfileResponse{
		ID:          block.ID,
		ProfileID:   block.BlockedProfileID,
		DisplayName: displayName,
		AvatarURL:   avatarURL,
		BlockedAt:   block.CreatedAt.Format(time.RFC3339),
	}
}
