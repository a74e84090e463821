package messaging

import "errors"

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrConversationExists   = errors.New("conversation already exists for this pair")
	ErrNotParticipant       = errors.New("you are not a participant of this conversation")
	ErrSelfConversation     = errors.New("cannot start a conversation with yourself")
	ErrMessageNotAllowed    = errors.New("sending a message is not allowed in this conversation")
	ErrEmptyMessage         = errors.New("message content must not be empty")
)
