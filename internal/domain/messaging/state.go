package messaging

import "github.com/google/uuid"

// The conversation state machine. Pure functions of the current status,
// the acting profile and relationship facts; persistence lives in the
// repository and live block checks in the service.

// CanonicalPair orders two profile IDs lexicographically so every
// unordered pair maps to exactly one conversation row.
func CanonicalPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if a.String() < b.String() {
		return a, b
	}
	return b, a
}

// CanSend is the send-permission contract. True when no conversation
// exists yet (first message is always allowed, block checks aside), when
// the conversation is accepted, or when the actor is the non-initiator
// replying to an initiated conversation. The initiator may not send
// again until the recipient replies.
func CanSend(conv *Conversation, actingProfileID uuid.UUID) bool {
	if conv == nil {
		return true
	}
	switch conv.Status {
	case StatusAccepted:
		return true
	case StatusInitiated:
		return actingProfileID != conv.InitiatorProfileID
	default:
		return false
	}
}

// NextStatusOnReply reports the status transition a message send causes.
// A reply by the non-initiator on an initiated conversation signals
// acceptance; everything else leaves the status untouched.
func NextStatusOnReply(conv *Conversation, senderID uuid.UUID) (Status, bool) {
	if conv == nil {
		return "", false
	}
	if conv.Status == StatusInitiated && senderID != conv.InitiatorProfileID {
		return StatusAccepted, true
	}
	return conv.Status, false
}

// NextStatusOnMatch reports the transition a mutual like causes: an
// initiated conversation becomes accepted. A match never manufactures a
// conversation; with none present there is nothing to transition.
func NextStatusOnMatch(conv *Conversation) (Status, bool) {
	if conv == nil {
		return "", false
	}
	if conv.Status == StatusInitiated {
		return StatusAccepted, true
	}
	return conv.Status, false
}
