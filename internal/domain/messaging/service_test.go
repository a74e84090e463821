package messaging

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/kindra/kindra-api/internal/domain/profile"
)

type fakeRepo struct {
	conversations map[uuid.UUID]*Conversation
	participants  map[uuid.UUID]map[uuid.UUID]*Participant
	messages      []*Message

	createErr error // consumed by the next CreateConversationWithMessage
	hideOnce  bool  // next GetConversationByPair misses, simulating a create race
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		conversations: map[uuid.UUID]*Conversation{},
		participants:  map[uuid.UUID]map[uuid.UUID]*Participant{},
	}
}

func (f *fakeRepo) GetConversationByID(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	return f.conversations[id], nil
}

func (f *fakeRepo) GetConversationByPair(ctx context.Context, a, b uuid.UUID) (*Conversation, error) {
	if f.hideOnce {
		f.hideOnce = false
		return nil, nil
	}
	pa, pb := CanonicalPair(a, b)
	for _, conv := range f.conversations {
		if conv.ProfileAID == pa && conv.ProfileBID == pb {
			return conv, nil
		}
	}
	return nil, nil
}

// CreateConversationWithMessage mirrors the real repository's atomicity:
// on failure nothing is stored.
func (f *fakeRepo) CreateConversationWithMessage(ctx context.Context, conv *Conversation, msg *Message) error {
	if f.createErr != nil {
		err := f.createErr
		f.createErr = nil
		return err
	}
	if existing, _ := f.GetConversationByPair(ctx, conv.ProfileAID, conv.ProfileBID); existing != nil {
		return ErrConversationExists
	}
	f.conversations[conv.ID] = conv
	f.participants[conv.ID] = map[uuid.UUID]*Participant{
		conv.ProfileAID: {ConversationID: conv.ID, ProfileID: conv.ProfileAID},
		conv.ProfileBID: {ConversationID: conv.ID, ProfileID: conv.ProfileBID},
	}
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeRepo) UpdateConversationStatus(ctx context.Context, id uuid.UUID, status Status) error {
	if conv, ok := f.conversations[id]; ok {
		conv.Status = status
	}
	return nil
}

func (f *fakeRepo) ListConversationsByProfile(ctx context.Context, profileID uuid.UUID) ([]*ConversationListItem, error) {
	var items []*ConversationListItem
	for _, conv := range f.conversations {
		if conv.HasParticipant(profileID) {
			items = append(items, &ConversationListItem{Conversation: *conv})
		}
	}
	return items, nil
}

func (f *fakeRepo) GetParticipant(ctx context.Context, conversationID, profileID uuid.UUID) (*Participant, error) {
	if parts, ok := f.participants[conversationID]; ok {
		return parts[profileID], nil
	}
	return nil, nil
}

func (f *fakeRepo) MarkRead(ctx context.Context, conversationID, profileID uuid.UUID) error {
	if p, _ := f.GetParticipant(ctx, conversationID, profileID); p != nil {
		p.LastReadAt.Time = time.Now()
		p.LastReadAt.Valid = true
	}
	return nil
}

func (f *fakeRepo) AppendMessage(ctx context.Context, msg *Message, newStatus *Status) error {
	f.messages = append(f.messages, msg)
	if conv, ok := f.conversations[msg.ConversationID]; ok {
		if newStatus != nil {
			conv.Status = *newStatus
		}
		conv.UpdatedAt = time.Now()
	}
	return nil
}

func (f *fakeRepo) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]*Message, error) {
	var out []*Message
	for _, msg := range f.messages {
		if msg.ConversationID == conversationID {
			out = append(out, msg)
		}
	}
	return out, nil
}

type fakeBlocks struct {
	blocked map[[2]uuid.UUID]bool
}

func newFakeBlocks() *fakeBlocks {
	return &fakeBlocks{blocked: map[[2]uuid.UUID]bool{}}
}

func (f *fakeBlocks) block(a, b uuid.UUID) {
	f.blocked[[2]uuid.UUID{a, b}] = true
}

func (f *fakeBlocks) HasBlock(ctx context.Context, a, b uuid.UUID) (bool, error) {
	return f.blocked[[2]uuid.UUID{a, b}] || f.blocked[[2]uuid.UUID{b, a}], nil
}

type fakeProfiles struct{}

func (f *fakeProfiles) GetSummary(ctx context.Context, id uuid.UUID) (*profile.Summary, error) {
	return &profile.Summary{ID: id, DisplayName: "Test"}, nil
}

func (f *fakeProfiles) GetSummaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*profile.Summary, error) {
	out := make(map[uuid.UUID]*profile.Summary, len(ids))
	for _, id := range ids {
		out[id] = &profile.Summary{ID: id, DisplayName: "Test"}
	}
	return out, nil
}

func (f *fakeProfiles) GetDeviceTokens(ctx context.Context, profileID uuid.UUID) ([]string, error) {
	return nil, nil
}

func newTestService() (*Service, *fakeRepo, *fakeBlocks) {
	repo := newFakeRepo()
	blocks := newFakeBlocks()
	svc := NewService(repo, blocks, &fakeProfiles{}, nil, nil)
	return svc, repo, blocks
}

func TestSendMessageSelf(t *testing.T) {
	svc, _, _ := newTestService()
	me := uuid.New()

	_, _, err := svc.SendMessage(context.Background(), me, me, "hi")
	if !errors.Is(err, ErrSelfConversation) {
		t.Fatalf("expected ErrSelfConversation, got %v", err)
	}
}

func TestSendMessageEmpty(t *testing.T) {
	svc, _, _ := newTestService()

	_, _, err := svc.SendMessage(context.Background(), uuid.New(), uuid.New(), "   ")
	if !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestSendMessageBlocked(t *testing.T) {
	svc, _, blocks := newTestService()
	sender := uuid.New()
	recipient := uuid.New()

	// A block in either direction forbids the send
	blocks.block(recipient, sender)

	_, _, err := svc.SendMessage(context.Background(), sender, recipient, "hello")
	if !errors.Is(err, ErrMessageNotAllowed) {
		t.Fatalf("expected ErrMessageNotAllowed, got %v", err)
	}
}

func TestSendMessageBlockedFlipsStatus(t *testing.T) {
	svc, repo, blocks := newTestService()
	sender := uuid.New()
	recipient := uuid.New()

	if _, _, err := svc.SendMessage(context.Background(), sender, recipient, "hello"); err != nil {
		t.Fatalf("first send failed: %v", err)
	}

	blocks.block(recipient, sender)
	if _, _, err := svc.SendMessage(context.Background(), recipient, sender, "reply"); !errors.Is(err, ErrMessageNotAllowed) {
		t.Fatalf("expected ErrMessageNotAllowed, got %v", err)
	}

	conv, _ := repo.GetConversationByPair(context.Background(), sender, recipient)
	if conv.Status != StatusBlocked {
		t.Fatalf("expected blocked audit status, got %s", conv.Status)
	}
}

func TestSendMessageFirstSendInitiates(t *testing.T) {
	svc, _, _ := newTestService()
	sender := uuid.New()
	recipient := uuid.New()

	msg, conv, err := svc.SendMessage(context.Background(), sender, recipient, "hello")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if conv.Status != StatusInitiated {
		t.Fatalf("expected initiated, got %s", conv.Status)
	}
	if conv.InitiatorProfileID != sender {
		t.Fatal("initiator must be the first sender")
	}
	if msg.SenderID != sender || msg.Content != "hello" {
		t.Fatal("message fields wrong")
	}
}

func TestSendMessageInitiatorAwaitsReply(t *testing.T) {
	svc, _, _ := newTestService()
	sender := uuid.New()
	recipient := uuid.New()

	if _, _, err := svc.SendMessage(context.Background(), sender, recipient, "hello"); err != nil {
		t.Fatalf("first send failed: %v", err)
	}

	// Second message before any reply is denied
	_, _, err := svc.SendMessage(context.Background(), sender, recipient, "hello again")
	if !errors.Is(err, ErrMessageNotAllowed) {
		t.Fatalf("expected ErrMessageNotAllowed, got %v", err)
	}
}

func TestSendMessageReplyAccepts(t *testing.T) {
	svc, _, _ := newTestService()
	sender := uuid.New()
	recipient := uuid.New()

	if _, _, err := svc.SendMessage(context.Background(), sender, recipient, "hello"); err != nil {
		t.Fatalf("first send failed: %v", err)
	}

	_, conv, err := svc.SendMessage(context.Background(), recipient, sender, "hi back")
	if err != nil {
		t.Fatalf("reply failed: %v", err)
	}
	if conv.Status != StatusAccepted {
		t.Fatalf("reply must accept the conversation, got %s", conv.Status)
	}

	// Initiator may now send freely
	if _, _, err := svc.SendMessage(context.Background(), sender, recipient, "great"); err != nil {
		t.Fatalf("send after acceptance failed: %v", err)
	}
}

func TestAcceptOnMatch(t *testing.T) {
	svc, repo, _ := newTestService()
	a := uuid.New()
	b := uuid.New()

	// No conversation: no-op, nothing manufactured
	if err := svc.AcceptOnMatch(context.Background(), a, b); err != nil {
		t.Fatalf("AcceptOnMatch failed: %v", err)
	}
	if conv, _ := repo.GetConversationByPair(context.Background(), a, b); conv != nil {
		t.Fatal("match must not create a conversation")
	}

	// Initiated conversation becomes accepted
	if _, _, err := svc.SendMessage(context.Background(), a, b, "hello"); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if err := svc.AcceptOnMatch(context.Background(), a, b); err != nil {
		t.Fatalf("AcceptOnMatch failed: %v", err)
	}
	conv, _ := repo.GetConversationByPair(context.Background(), a, b)
	if conv.Status != StatusAccepted {
		t.Fatalf("expected accepted, got %s", conv.Status)
	}
}

func TestMarkReadOnlyAffectsCaller(t *testing.T) {
	svc, repo, _ := newTestService()
	a := uuid.New()
	b := uuid.New()

	_, conv, err := svc.SendMessage(context.Background(), a, b, "hello")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if err := svc.MarkRead(context.Background(), conv.ID, b); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}

	pb, _ := repo.GetParticipant(context.Background(), conv.ID, b)
	if !pb.LastReadAt.Valid {
		t.Fatal("caller's last_read_at must be set")
	}
	pa, _ := repo.GetParticipant(context.Background(), conv.ID, a)
	if pa.LastReadAt.Valid {
		t.Fatal("partner's last_read_at must be untouched")
	}
}

func TestSendMessageRetryAfterFailedFirstSend(t *testing.T) {
	svc, repo, _ := newTestService()
	sender := uuid.New()
	recipient := uuid.New()

	// A transient failure on the first send must not leave an empty
	// conversation behind that locks the sender out on retry.
	repo.createErr = errors.New("connection reset by peer")
	if _, _, err := svc.SendMessage(context.Background(), sender, recipient, "hello"); err == nil {
		t.Fatal("expected the injected failure to surface")
	}
	if conv, _ := repo.GetConversationByPair(context.Background(), sender, recipient); conv != nil {
		t.Fatal("failed first send must not persist a conversation")
	}

	msg, conv, err := svc.SendMessage(context.Background(), sender, recipient, "hello")
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if conv.Status != StatusInitiated || conv.InitiatorProfileID != sender {
		t.Fatal("retry must initiate the conversation with the sender as initiator")
	}
	if msgs, _ := repo.ListMessages(context.Background(), conv.ID); len(msgs) != 1 || msgs[0].ID != msg.ID {
		t.Fatal("retry must leave exactly the retried message")
	}
}

func TestSendMessageCreateRaceRetriesAsSend(t *testing.T) {
	svc, repo, _ := newTestService()
	a := uuid.New()
	b := uuid.New()

	// b's first send wins the race
	if _, _, err := svc.SendMessage(context.Background(), b, a, "hello"); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	// a's concurrent first send misses the lookup, loses the create and
	// must land as a reply on the winner's row
	repo.hideOnce = true
	_, conv, err := svc.SendMessage(context.Background(), a, b, "hi back")
	if err != nil {
		t.Fatalf("racing send failed: %v", err)
	}
	if conv.InitiatorProfileID != b {
		t.Fatal("loser must append to the winner's conversation, not create a second one")
	}
	if conv.Status != StatusAccepted {
		t.Fatalf("non-initiator's message must accept the conversation, got %s", conv.Status)
	}
	if len(repo.conversations) != 1 {
		t.Fatalf("expected exactly one conversation row, got %d", len(repo.conversations))
	}
}

func TestTruncateKeepsRunesIntact(t *testing.T) {
	long := strings.Repeat("héllo wörld ", 20)
	short := truncate(long, 120)

	if !utf8.ValidString(short) {
		t.Fatal("truncation must not split a multi-byte character")
	}
	if got := len([]rune(short)); got > 120 {
		t.Fatalf("expected at most 120 runes, got %d", got)
	}

	if truncate("short", 120) != "short" {
		t.Fatal("strings within the limit must pass through unchanged")
	}
}

func TestListMessagesRequiresParticipant(t *testing.T) {
	svc, _, _ := newTestService()
	a := uuid.New()
	b := uuid.New()
	stranger := uuid.New()

	_, conv, err := svc.SendMessage(context.Background(), a, b, "hello")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if _, err := svc.ListMessages(context.Background(), conv.ID, stranger); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}

	if _, err := svc.ListMessages(context.Background(), uuid.New(), a); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound, got %v", err)
	}

	views, err := svc.ListMessages(context.Background(), conv.ID, a)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(views) != 1 || !views[0].IsMine {
		t.Fatal("expected the sender's own message back")
	}
}
