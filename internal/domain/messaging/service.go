package messaging

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kindra/kindra-api/internal/domain/profile"
	"github.com/kindra/kindra-api/internal/domain/realtime"
)

// BlockChecker answers whether a block exists between two profiles in
// either direction. The relationship store implements it.
type BlockChecker interface {
	HasBlock(ctx context.Context, a, b uuid.UUID) (bool, error)
}

// Pusher delivers push notifications to device tokens
type Pusher interface {
	SendMultiple(tokens []string, title, body string, data map[string]string)
}

// Service implements messaging business logic. The hub and pusher are
// optional; a nil hub or pusher disables the corresponding delivery path
// without affecting writes.
type Service struct {
	repo     Repository
	blocks   BlockChecker
	profiles profile.Repository
	hub      *realtime.Hub
	pusher   Pusher
}

// NewService creates messaging service
func NewService(repo Repository, blocks BlockChecker, profiles profile.Repository, hub *realtime.Hub, pusher Pusher) *Service {
	return &Service{
		repo:     repo,
		blocks:   blocks,
		profiles: profiles,
		hub:      hub,
		pusher:   pusher,
	}
}

// SendMessage validates the send against the block state and the
// conversation's send-permission contract, creating the conversation on
// a first send. The conversation, both participant rows and the first
// message commit in one transaction; a reply by the recipient of an
// initiated conversation accepts it in the same transaction the message
// is written in.
func (s *Service) SendMessage(ctx context.Context, senderID, recipientID uuid.UUID, content string) (*Message, *Conversation, error) {
	if senderID == recipientID {
		return nil, nil, ErrSelfConversation
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, nil, ErrEmptyMessage
	}

	// A block in either direction forbids the send regardless of the
	// conversation's stored status.
	blocked, err := s.blocks.HasBlock(ctx, senderID, recipientID)
	if err != nil {
		return nil, nil, err
	}
	if blocked {
		s.markBlockedAudit(ctx, senderID, recipientID)
		return nil, nil, ErrMessageNotAllowed
	}

	conv, err := s.repo.GetConversationByPair(ctx, senderID, recipientID)
	if err != nil {
		return nil, nil, err
	}

	if conv == nil {
		created, msg, err := s.startConversation(ctx, senderID, recipientID, content)
		if err == nil {
			s.notifyNewMessage(ctx, created, msg, recipientID)
			return msg, created, nil
		}
		if !errors.Is(err, ErrConversationExists) {
			return nil, nil, err
		}
		// Lost the create race; retry as a send against the winner's row
		conv, err = s.repo.GetConversationByPair(ctx, senderID, recipientID)
		if err != nil {
			return nil, nil, err
		}
		if conv == nil {
			return nil, nil, ErrConversationNotFound
		}
	}

	if !CanSend(conv, senderID) {
		return nil, nil, ErrMessageNotAllowed
	}

	var newStatus *Status
	if next, changed := NextStatusOnReply(conv, senderID); changed {
		newStatus = &next
	}

	msg := &Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      time.Now(),
	}

	if err := s.repo.AppendMessage(ctx, msg, newStatus); err != nil {
		return nil, nil, err
	}
	if newStatus != nil {
		conv.Status = *newStatus
	}

	s.notifyNewMessage(ctx, conv, msg, recipientID)

	return msg, conv, nil
}

// startConversation builds the initiated conversation and its first
// message and commits them atomically. Either both rows exist afterward
// or neither does.
func (s *Service) startConversation(ctx context.Context, senderID, recipientID uuid.UUID, content string) (*Conversation, *Message, error) {
	pa, pb := CanonicalPair(senderID, recipientID)
	now := time.Now()
	conv := &Conversation{
		ID:                 uuid.New(),
		ProfileAID:         pa,
		ProfileBID:         pb,
		Status:             StatusInitiated,
		InitiatorProfileID: senderID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	msg := &Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      now,
	}

	if err := s.repo.CreateConversationWithMessage(ctx, conv, msg); err != nil {
		return nil, nil, err
	}
	return conv, msg, nil
}

// AcceptOnMatch transitions an initiated conversation between the two
// profiles to accepted. With no conversation present it is a no-op; a
// match never manufactures one.
func (s *Service) AcceptOnMatch(ctx context.Context, a, b uuid.UUID) error {
	conv, err := s.repo.GetConversationByPair(ctx, a, b)
	if err != nil {
		return err
	}
	if conv == nil {
		return nil
	}
	next, changed := NextStatusOnMatch(conv)
	if !changed {
		return nil
	}
	return s.repo.UpdateConversationStatus(ctx, conv.ID, next)
}

// ListConversations returns the profile's conversations ordered by
// recency, each with partner summary, last message and unread count.
func (s *Service) ListConversations(ctx context.Context, profileID uuid.UUID) ([]*ConversationResponse, error) {
	items, err := s.repo.ListConversationsByProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}

	partnerIDs := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		partnerIDs = append(partnerIDs, item.OtherParticipant(profileID))
	}
	summaries, err := s.profiles.GetSummaries(ctx, partnerIDs)
	if err != nil {
		return nil, err
	}

	responses := make([]*ConversationResponse, 0, len(items))
	for _, item := range items {
		partner := summaries[item.OtherParticipant(profileID)]
		responses = append(responses, ConversationResponseFromItem(item, partner, profileID))
	}
	return responses, nil
}

// ListMessages returns a conversation's messages in chronological order.
// Only participants may read.
func (s *Service) ListMessages(ctx context.Context, conversationID, profileID uuid.UUID) ([]*MessageView, error) {
	conv, err := s.requireParticipant(ctx, conversationID, profileID)
	if err != nil {
		return nil, err
	}

	messages, err := s.repo.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	summaries, err := s.profiles.GetSummaries(ctx, []uuid.UUID{conv.ProfileAID, conv.ProfileBID})
	if err != nil {
		return nil, err
	}

	views := make([]*MessageView, 0, len(messages))
	for _, msg := range messages {
		views = append(views, MessageViewFromEntity(msg, summaries[msg.SenderID], profileID))
	}
	return views, nil
}

// MarkRead records that the profile has read the conversation up to now.
// Only the caller's participant row moves.
func (s *Service) MarkRead(ctx context.Context, conversationID, profileID uuid.UUID) error {
	if _, err := s.requireParticipant(ctx, conversationID, profileID); err != nil {
		return err
	}
	return s.repo.MarkRead(ctx, conversationID, profileID)
}

func (s *Service) requireParticipant(ctx context.Context, conversationID, profileID uuid.UUID) (*Conversation, error) {
	conv, err := s.repo.GetConversationByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}
	if !conv.HasParticipant(profileID) {
		return nil, ErrNotParticipant
	}
	return conv, nil
}

// markBlockedAudit opportunistically flips a live conversation's status
// to blocked for audit purposes. The live block check is authoritative
// either way, so failures here are logged and swallowed.
func (s *Service) markBlockedAudit(ctx context.Context, a, b uuid.UUID) {
	conv, err := s.repo.GetConversationByPair(ctx, a, b)
	if err != nil || conv == nil || conv.Status == StatusBlocked {
		return
	}
	if err := s.repo.UpdateConversationStatus(ctx, conv.ID, StatusBlocked); err != nil {
		log.Warn().Err(err).Str("conversation_id", conv.ID.String()).Msg("Failed to mark conversation blocked")
	}
}

// notifyNewMessage fans the message out over the realtime hub and falls
// back to push when the recipient has no open connection. Delivery never
// fails the write.
func (s *Service) notifyNewMessage(ctx context.Context, conv *Conversation, msg *Message, recipientID uuid.UUID) {
	sender, err := s.profiles.GetSummary(ctx, msg.SenderID)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load sender summary for notification")
	}

	view := MessageViewFromEntity(msg, sender, uuid.Nil)

	if s.hub != nil {
		if err := s.hub.SendToProfile(recipientID, realtime.NewMessage(view)); err != nil {
			log.Warn().Err(err).Str("profile_id", recipientID.String()).Msg("Failed to send realtime message event")
		}
		// Sender's other devices stay in sync too
		if err := s.hub.SendToProfile(msg.SenderID, realtime.NewMessage(view)); err != nil {
			log.Warn().Err(err).Str("profile_id", msg.SenderID.String()).Msg("Failed to send realtime message event")
		}
	}

	if s.pusher != nil && (s.hub == nil || !s.hub.IsOnline(recipientID)) {
		tokens, err := s.profiles.GetDeviceTokens(ctx, recipientID)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to load device tokens")
			return
		}
		title := "New message"
		if sender != nil {
			title = sender.DisplayName
		}
		s.pusher.SendMultiple(tokens, title, truncate(msg.Content, 120), map[string]string{
			"type":            "new_message",
			"conversation_id": conv.ID.String(),
		})
	}
}

// truncate shortens to at most max runes, never splitting a multi-byte
// character.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
