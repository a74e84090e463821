package messaging

import (
	"testing"

	"github.com/google/uuid"
)

func TestCanonicalPair(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	b := uuid.MustParse("00000000-0000-0000-0000-000000000002")

	p1, p2 := CanonicalPair(a, b)
	if p1 != a || p2 != b {
		t.Fatalf("expected (%s,%s), got (%s,%s)", a, b, p1, p2)
	}

	// Reversed input yields the same ordering
	p1, p2 = CanonicalPair(b, a)
	if p1 != a || p2 != b {
		t.Fatalf("expected (%s,%s), got (%s,%s)", a, b, p1, p2)
	}
}

func TestCanSend(t *testing.T) {
	initiator := uuid.New()
	recipient := uuid.New()

	conv := func(status Status) *Conversation {
		pa, pb := CanonicalPair(initiator, recipient)
		return &Conversation{
			ID:                 uuid.New(),
			ProfileAID:         pa,
			ProfileBID:         pb,
			Status:             status,
			InitiatorProfileID: initiator,
		}
	}

	tests := []struct {
		name  string
		conv  *Conversation
		actor uuid.UUID
		want  bool
	}{
		{"no conversation yet", nil, initiator, true},
		{"initiator awaiting reply", conv(StatusInitiated), initiator, false},
		{"recipient may reply", conv(StatusInitiated), recipient, true},
		{"accepted, initiator", conv(StatusAccepted), initiator, true},
		{"accepted, recipient", conv(StatusAccepted), recipient, true},
		{"blocked, initiator", conv(StatusBlocked), initiator, false},
		{"blocked, recipient", conv(StatusBlocked), recipient, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanSend(tt.conv, tt.actor); got != tt.want {
				t.Errorf("CanSend = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNextStatusOnReply(t *testing.T) {
	initiator := uuid.New()
	recipient := uuid.New()
	conv := &Conversation{Status: StatusInitiated, InitiatorProfileID: initiator}

	// Reply from the recipient accepts
	next, changed := NextStatusOnReply(conv, recipient)
	if !changed || next != StatusAccepted {
		t.Fatalf("expected accepted transition, got (%s, %v)", next, changed)
	}

	// A message from the initiator changes nothing
	if _, changed := NextStatusOnReply(conv, initiator); changed {
		t.Fatal("initiator message must not transition status")
	}

	// Accepted stays accepted
	accepted := &Conversation{Status: StatusAccepted, InitiatorProfileID: initiator}
	if _, changed := NextStatusOnReply(accepted, recipient); changed {
		t.Fatal("accepted conversation must not transition again")
	}

	if _, changed := NextStatusOnReply(nil, recipient); changed {
		t.Fatal("nil conversation must not transition")
	}
}

func TestNextStatusOnMatch(t *testing.T) {
	next, changed := NextStatusOnMatch(&Conversation{Status: StatusInitiated})
	if !changed || next != StatusAccepted {
		t.Fatalf("expected accepted transition, got (%s, %v)", next, changed)
	}

	if _, changed := NextStatusOnMatch(&Conversation{Status: StatusAccepted}); changed {
		t.Fatal("accepted conversation must not transition on match")
	}

	if _, changed := NextStatusOnMatch(&Conversation{Status: StatusBlocked}); changed {
		t.Fatal("blocked conversation must not transition on match")
	}

	if _, changed := NextStatusOnMatch(nil); changed {
		t.Fatal("a match must not manufacture a conversation")
	}
}
