package messaging

import (
	"time"

	"github.com/google/uuid"

	"github.com/kindra/kindra-api/internal/domain/profile"
)

// SendMessageRequest for POST /conversations
type SendMessageRequest struct {
	RecipientID uuid.UUID `json:"recipient_id" validate:"required"`
	Content     string    `json:"content" validate:"required,max=4000"`
}

// SenderInfo is the minimal sender projection for rendering
type SenderInfo struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
}

// MessageView represents a message in API responses and realtime payloads
type MessageView struct {
	ID             uuid.UUID   `json:"id"`
	ConversationID uuid.UUID   `json:"conversation_id"`
	SenderID       uuid.UUID   `json:"sender_id"`
	Content        string      `json:"content"`
	Sender         *SenderInfo `json:"sender,omitempty"`
	IsMine         bool        `json:"is_mine"`
	CreatedAt      string      `json:"created_at"`
}

// MessageViewFromEntity converts entity to view
func MessageViewFromEntity(m *Message, sender *profile.Summary, currentProfileID uuid.UUID) *MessageView {
	view := &MessageView{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		IsMine:         m.SenderID == currentProfileID,
		CreatedAt:      m.CreatedAt.Format(time.RFC3339),
	}
	if sender != nil {
		view.Sender = &SenderInfo{
			ID:          sender.ID,
			DisplayName: sender.DisplayName,
			AvatarURL:   sender.Avatar(),
		}
	}
	return view
}

// ConversationResponse represents a conversation in API responses
type ConversationResponse struct {
	ID          uuid.UUID    `json:"id"`
	Status      string       `json:"status"`
	InitiatorID uuid.UUID    `json:"initiator_profile_id"`
	Partner     *SenderInfo  `json:"partner,omitempty"`
	LastMessage *MessageView `json:"last_message,omitempty"`
	UnreadCount int          `json:"unread_count"`
	IsMuted     bool         `json:"is_muted"`
	IsArchived  bool         `json:"is_archived"`
	CreatedAt   string       `json:"created_at"`
	UpdatedAt   string       `json:"updated_at"`
}

// ConversationResponseFromItem converts a list item to a response
func ConversationResponseFromItem(item *ConversationListItem, partner *profile.Summary, currentProfileID uuid.UUID) *ConversationResponse {
	resp := &ConversationResponse{
		ID:          item.ID,
		Status:      string(item.Status),
		InitiatorID: item.InitiatorProfileID,
		UnreadCount: item.UnreadCount,
		IsMuted:     item.IsMuted,
		IsArchived:  item.IsArchived,
		CreatedAt:   item.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   item.UpdatedAt.Format(time.RFC3339),
	}

	if partner != nil {
		resp.Partner = &SenderInfo{
			ID:          partner.ID,
			DisplayName: partner.DisplayName,
			AvatarURL:   partner.Avatar(),
		}
	}

	if item.LastMessageID.Valid {
		resp.LastMessage = &MessageView{
			ID:             item.LastMessageID.UUID,
			ConversationID: item.ID,
			SenderID:       item.LastSenderID.UUID,
			Content:        item.LastContent.String,
			IsMine:         item.LastSenderID.UUID == currentProfileID,
			CreatedAt:      item.LastMessageAt.Time.Format(time.RFC3339),
		}
	}

	return resp
}
