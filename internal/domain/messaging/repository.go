package messaging

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// ConversationListItem is a conversation joined with the requesting
// profile's participant row, the latest message and the unread count.
// The unread count is computed per request; consistency is favored over
// read performance, a known scaling limitation.
type ConversationListItem struct {
	Conversation
	LastReadAt     sql.NullTime   `db:"last_read_at"`
	IsMuted        bool           `db:"is_muted"`
	IsArchived     bool           `db:"is_archived"`
	UnreadCount    int            `db:"unread_count"`
	LastMessageID  uuid.NullUUID  `db:"last_message_id"`
	LastSenderID   uuid.NullUUID  `db:"last_sender_id"`
	LastContent    sql.NullString `db:"last_content"`
	LastMessageAt  sql.NullTime   `db:"last_message_at"`
}

// Repository defines messaging data access
type Repository interface {
	// Conversations
	GetConversationByID(ctx context.Context, id uuid.UUID) (*Conversation, error)
	GetConversationByPair(ctx context.Context, a, b uuid.UUID) (*Conversation, error)
	// CreateConversationWithMessage inserts the conversation, both
	// participant rows and the first message in one transaction, so a
	// failed insert never leaves an empty conversation behind. Returns
	// ErrConversationExists when a row for the pair already exists
	// (concurrent create race).
	CreateConversationWithMessage(ctx context.Context, conv *Conversation, msg *Message) error
	UpdateConversationStatus(ctx context.Context, id uuid.UUID, status Status) error
	ListConversationsByProfile(ctx context.Context, profileID uuid.UUID) ([]*ConversationListItem, error)

	// Participants
	GetParticipant(ctx context.Context, conversationID, profileID uuid.UUID) (*Participant, error)
	MarkRead(ctx context.Context, conversationID, profileID uuid.UUID) error

	// Messages. AppendMessage inserts the message, bumps the
	// conversation's updated_at and applies the optional status
	// transition in one transaction.
	AppendMessage(ctx context.Context, msg *Message, newStatus *Status) error
	ListMessages(ctx context.Context, conversationID uuid.UUID) ([]*Message, error)
}
