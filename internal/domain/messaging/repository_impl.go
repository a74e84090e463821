package messaging

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const pqUniqueViolation = "23505"

type repository struct {
	db *sqlx.DB
}

// NewRepository creates new messaging repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetConversationByID(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	var conv Conversation
	err := r.db.GetContext(ctx, &conv, `SELECT * FROM conversations WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &conv, nil
}

func (r *repository) GetConversationByPair(ctx context.Context, a, b uuid.UUID) (*Conversation, error) {
	pa, pb := CanonicalPair(a, b)
	var conv Conversation
	err := r.db.GetContext(ctx, &conv,
		`SELECT * FROM conversations WHERE profile_a_id = $1 AND profile_b_id = $2`, pa, pb)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &conv, nil
}

// CreateConversationWithMessage is keyed by the unique (profile_a_id,
// profile_b_id) constraint: when two first-sends race, the loser's
// insert hits the unique violation and gets ErrConversationExists to
// retry against the winner's row. The first message rides in the same
// transaction, so a failed message insert rolls the conversation back
// rather than stranding an empty INITIATED row the sender could never
// message again.
func (r *repository) CreateConversationWithMessage(ctx context.Context, conv *Conversation, msg *Message) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO conversations (id, profile_a_id, profile_b_id, status, initiator_profile_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, conv.ID, conv.ProfileAID, conv.ProfileBID, conv.Status, conv.InitiatorProfileID, conv.CreatedAt, conv.UpdatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return ErrConversationExists
		}
		return err
	}

	// Both participant rows are created atomically with the conversation
	for _, profileID := range []uuid.UUID{conv.ProfileAID, conv.ProfileBID} {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO conversation_participants (conversation_id, profile_id, is_muted, is_archived)
			VALUES ($1, $2, false, false)
		`, conv.ID, profileID); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, sender_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, msg.ID, msg.ConversationID, msg.SenderID, msg.Content, msg.CreatedAt); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *repository) UpdateConversationStatus(ctx context.Context, id uuid.UUID, status Status) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE conversations SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return err
}

func (r *repository) ListConversationsByProfile(ctx context.Context, profileID uuid.UUID) ([]*ConversationListItem, error) {
	query := `
		SELECT c.*,
		       p.last_read_at, p.is_muted, p.is_archived,
		       (SELECT COUNT(*) FROM messages m
		        WHERE m.conversation_id = c.id
		          AND m.sender_id != p.profile_id
		          AND (p.last_read_at IS NULL OR m.created_at > p.last_read_at)
		       ) AS unread_count,
		       lm.id AS last_message_id,
		       lm.sender_id AS last_sender_id,
		       lm.content AS last_content,
		       lm.created_at AS last_message_at
		FROM conversations c
		JOIN conversation_participants p
		  ON p.conversation_id = c.id AND p.profile_id = $1
		LEFT JOIN LATERAL (
			SELECT id, sender_id, content, created_at FROM messages
			WHERE conversation_id = c.id
			ORDER BY created_at DESC
			LIMIT 1
		) lm ON true
		ORDER BY c.updated_at DESC
	`
	var items []*ConversationListItem
	err := r.db.SelectContext(ctx, &items, query, profileID)
	return items, err
}

func (r *repository) GetParticipant(ctx context.Context, conversationID, profileID uuid.UUID) (*Participant, error) {
	var p Participant
	err := r.db.GetContext(ctx, &p,
		`SELECT * FROM conversation_participants WHERE conversation_id = $1 AND profile_id = $2`,
		conversationID, profileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// MarkRead mutates only the calling participant's last_read_at
func (r *repository) MarkRead(ctx context.Context, conversationID, profileID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE conversation_participants SET last_read_at = NOW()
		WHERE conversation_id = $1 AND profile_id = $2
	`, conversationID, profileID)
	return err
}

func (r *repository) AppendMessage(ctx context.Context, msg *Message, newStatus *Status) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, sender_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, msg.ID, msg.ConversationID, msg.SenderID, msg.Content, msg.CreatedAt); err != nil {
		return err
	}

	if newStatus != nil {
		if _, err := tx.ExecContext(ctx,
			`UPDATE conversations SET status = $2, updated_at = NOW() WHERE id = $1`,
			msg.ConversationID, *newStatus); err != nil {
			return err
		}
	} else {
		if _, err := tx.ExecContext(ctx,
			`UPDATE conversations SET updated_at = NOW() WHERE id = $1`,
			msg.ConversationID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *repository) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]*Message, error) {
	query := `
		SELECT * FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC
	`
	var messages []*Message
	err := r.db.SelectContext(ctx, &messages, query, conversationID)
	return messages, err
}
