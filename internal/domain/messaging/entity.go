package messaging

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Status represents conversation lifecycle state
type Status string

const (
	// StatusInitiated: one side has opened the conversation, the other
	// has not yet replied or matched.
	StatusInitiated Status = "initiated"
	// StatusAccepted: both sides may exchange messages freely.
	StatusAccepted Status = "accepted"
	// StatusBlocked: terminal audit marker; history is retained but no
	// further messages are accepted. Blocks are always also checked
	// live against the relationship store.
	StatusBlocked Status = "blocked"
)

// Conversation is the pair-unique messaging thread between two profiles.
// ProfileAID < ProfileBID lexicographically; the canonical ordering plus
// a unique constraint guarantees one row per unordered pair.
type Conversation struct {
	ID                 uuid.UUID `db:"id" json:"id"`
	ProfileAID         uuid.UUID `db:"profile_a_id" json:"profile_a_id"`
	ProfileBID         uuid.UUID `db:"profile_b_id" json:"profile_b_id"`
	Status             Status    `db:"status" json:"status"`
	InitiatorProfileID uuid.UUID `db:"initiator_profile_id" json:"initiator_profile_id"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// HasParticipant checks if the profile is part of this conversation
func (c *Conversation) HasParticipant(profileID uuid.UUID) bool {
	return c.ProfileAID == profileID || c.ProfileBID == profileID
}

// OtherParticipant returns the counterpart profile
func (c *Conversation) OtherParticipant(profileID uuid.UUID) uuid.UUID {
	if c.ProfileAID == profileID {
		return c.ProfileBID
	}
	return c.ProfileAID
}

// Participant is a profile's per-conversation read/mute/archive state.
// Two rows per conversation, created atomically with it.
type Participant struct {
	ConversationID uuid.UUID    `db:"conversation_id" json:"conversation_id"`
	ProfileID      uuid.UUID    `db:"profile_id" json:"profile_id"`
	LastReadAt     sql.NullTime `db:"last_read_at" json:"last_read_at,omitempty"`
	IsMuted        bool         `db:"is_muted" json:"is_muted"`
	IsArchived     bool         `db:"is_archived" json:"is_archived"`
}

// Message is immutable once created; append-only
type Message struct {
	ID             uuid.UUID `db:"id" json:"id"`
	ConversationID uuid.UUID `db:"conversation_id" json:"conversation_id"`
	SenderID       uuid.UUID `db:"sender_id" json:"sender_id"`
	Content        string    `db:"content" json:"content"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
