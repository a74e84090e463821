package relationship

import (
	"time"

	"github.com/google/uuid"
)

// LikeEdge is a directed "interested in" edge between two profiles.
// Unique per ordered pair; IsNew is cleared when the match is seen.
type LikeEdge struct {
	FromProfileID uuid.UUID `db:"from_profile_id" json:"from_profile_id"`
	ToProfileID   uuid.UUID `db:"to_profile_id" json:"to_profile_id"`
	IsNew         bool      `db:"is_new" json:"is_new"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// PassEdge is a directed "not interested" edge. Mutually exclusive with
// a LikeEdge in the same direction.
type PassEdge struct {
	FromProfileID uuid.UUID `db:"from_profile_id" json:"from_profile_id"`
	ToProfileID   uuid.UUID `db:"to_profile_id" json:"to_profile_id"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// BlockEdge is a directed block. A block in either direction forecloses
// messaging regardless of conversation status.
type BlockEdge struct {
	ID               uuid.UUID `db:"id" json:"id"`
	BlockerProfileID uuid.UUID `db:"blocker_profile_id" json:"blocker_profile_id"`
	BlockedProfileID uuid.UUID `db:"blocked_profile_id" json:"blocked_profile_id"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}
