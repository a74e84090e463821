package interaction

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kindra/kindra-api/internal/domain/profile"
	"github.com/kindra/kindra-api/internal/domain/realtime"
	"github.com/kindra/kindra-api/internal/domain/relationship"
)

type pair [2]uuid.UUID

type fakeStore struct {
	likes  map[pair]*relationship.LikeEdge
	passes map[pair]*relationship.PassEdge
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		likes:  map[pair]*relationship.LikeEdge{},
		passes: map[pair]*relationship.PassEdge{},
	}
}

func (f *fakeStore) UpsertLike(ctx context.Context, from, to uuid.UUID) (*relationship.LikeEdge, bool, error) {
	if from == to {
		return nil, false, relationship.ErrSelfInteraction
	}
	delete(f.passes, pair{from, to})
	edge, ok := f.likes[pair{from, to}]
	if !ok {
		edge = &relationship.LikeEdge{FromProfileID: from, ToProfileID: to, IsNew: true, CreatedAt: time.Now()}
		f.likes[pair{from, to}] = edge
	}
	_, mutual := f.likes[pair{to, from}]
	return edge, mutual, nil
}

func (f *fakeStore) DeleteLike(ctx context.Context, from, to uuid.UUID) error {
	delete(f.likes, pair{from, to})
	return nil
}

func (f *fakeStore) GetLike(ctx context.Context, from, to uuid.UUID) (*relationship.LikeEdge, error) {
	return f.likes[pair{from, to}], nil
}

func (f *fakeStore) HasLike(ctx context.Context, from, to uuid.UUID) (bool, error) {
	_, ok := f.likes[pair{from, to}]
	return ok, nil
}

func (f *fakeStore) HasMutualLike(ctx context.Context, a, b uuid.UUID) (bool, error) {
	_, one := f.likes[pair{a, b}]
	_, two := f.likes[pair{b, a}]
	return one && two, nil
}

func (f *fakeStore) UpsertPass(ctx context.Context, from, to uuid.UUID) (*relationship.PassEdge, error) {
	if from == to {
		return nil, relationship.ErrSelfInteraction
	}
	delete(f.likes, pair{from, to})
	delete(f.likes, pair{to, from})
	edge, ok := f.passes[pair{from, to}]
	if !ok {
		edge = &relationship.PassEdge{FromProfileID: from, ToProfileID: to, CreatedAt: time.Now()}
		f.passes[pair{from, to}] = edge
	}
	return edge, nil
}

func (f *fakeStore) DeletePass(ctx context.Context, from, to uuid.UUID) error {
	delete(f.passes, pair{from, to})
	return nil
}

func (f *fakeStore) HasPass(ctx context.Context, from, to uuid.UUID) (bool, error) {
	_, ok := f.passes[pair{from, to}]
	return ok, nil
}

func (f *fakeStore) CountLikesReceived(ctx context.Context, profileID uuid.UUID) (int, error) {
	count := 0
	for key := range f.likes {
		if key[1] == profileID {
			if _, mutual := f.likes[pair{profileID, key[0]}]; !mutual {
				count++
			}
		}
	}
	return count, nil
}

func (f *fakeStore) ListLikesSent(ctx context.Context, profileID uuid.UUID) ([]*relationship.LikeEdge, error) {
	var out []*relationship.LikeEdge
	for key, edge := range f.likes {
		if key[0] == profileID {
			out = append(out, edge)
		}
	}
	return out, nil
}

func (f *fakeStore) ListLikesReceived(ctx context.Context, profileID uuid.UUID) ([]*relationship.LikeEdge, error) {
	var out []*relationship.LikeEdge
	for key, edge := range f.likes {
		if key[1] == profileID {
			if _, mutual := f.likes[pair{profileID, key[0]}]; !mutual {
				out = append(out, edge)
			}
		}
	}
	return out, nil
}

func (f *fakeStore) ListMatches(ctx context.Context, profileID uuid.UUID) ([]*relationship.LikeEdge, error) {
	var out []*relationship.LikeEdge
	for key, edge := range f.likes {
		if key[0] == profileID {
			if _, mutual := f.likes[pair{key[1], profileID}]; mutual {
				out = append(out, edge)
			}
		}
	}
	return out, nil
}

func (f *fakeStore) ClearMatchIsNew(ctx context.Context, a, b uuid.UUID) error {
	if edge, ok := f.likes[pair{a, b}]; ok {
		edge.IsNew = false
	}
	if edge, ok := f.likes[pair{b, a}]; ok {
		edge.IsNew = false
	}
	return nil
}

func (f *fakeStore) CreateBlock(ctx context.Context, block *relationship.BlockEdge) error { return nil }
func (f *fakeStore) DeleteBlock(ctx context.Context, blockerID, blockedID uuid.UUID) error {
	return nil
}
func (f *fakeStore) HasBlocked(ctx context.Context, blockerID, blockedID uuid.UUID) (bool, error) {
	return false, nil
}
func (f *fakeStore) HasBlock(ctx context.Context, a, b uuid.UUID) (bool, error) { return false, nil }
func (f *fakeStore) ListBlocks(ctx context.Context, profileID uuid.UUID) ([]*relationship.BlockEdge, error) {
	return nil, nil
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

type fakeAccepter struct {
	calls []pair
}

func (f *fakeAccepter) AcceptOnMatch(ctx context.Context, a, b uuid.UUID) error {
	f.calls = append(f.calls, pair{a, b})
	return nil
}

func newTestService() (*Service, *fakeStore, *fakeAccepter) {
	store := newFakeStore()
	accepter := &fakeAccepter{}
	svc := NewService(store, &fakeProfiles{}, accepter, nil, nil)
	return svc, store, accepter
}

func TestLikeSelf(t *testing.T) {
	svc, _, _ := newTestService()
	me := uuid.New()

	if _, err := svc.Like(context.Background(), me, me); !errors.Is(err, relationship.ErrSelfInteraction) {
		t.Fatalf("expected ErrSelfInteraction, got %v", err)
	}
}

func TestLikeThenReciprocalMatches(t *testing.T) {
	svc, store, accepter := newTestService()
	p1 := uuid.New()
	p2 := uuid.New()

	first, err := svc.Like(context.Background(), p1, p2)
	if err != nil {
		t.Fatalf("like failed: %v", err)
	}
	if first.IsMatch {
		t.Fatal("first like must not be a match")
	}
	if first.EdgeTo == nil || first.EdgeTo.ToProfileID != p2 {
		t.Fatal("edge view missing or wrong direction")
	}

	second, err := svc.Like(context.Background(), p2, p1)
	if err != nil {
		t.Fatalf("reciprocal like failed: %v", err)
	}
	if !second.IsMatch {
		t.Fatal("reciprocal like must be a match")
	}
	if second.EdgeFrom == nil {
		t.Fatal("match result must carry both directional edges")
	}

	// The conversation transition fires exactly once, on the match
	if len(accepter.calls) != 1 {
		t.Fatalf("expected 1 AcceptOnMatch call, got %d", len(accepter.calls))
	}

	if ok, _ := store.HasMutualLike(context.Background(), p1, p2); !ok {
		t.Fatal("expected mutual like in store")
	}
}

func TestLikeRemovesPass(t *testing.T) {
	svc, store, _ := newTestService()
	p1 := uuid.New()
	p2 := uuid.New()

	if err := svc.Pass(context.Background(), p1, p2); err != nil {
		t.Fatalf("pass failed: %v", err)
	}
	if _, err := svc.Like(context.Background(), p1, p2); err != nil {
		t.Fatalf("like failed: %v", err)
	}

	if ok, _ := store.HasPass(context.Background(), p1, p2); ok {
		t.Fatal("like must remove the same-direction pass")
	}
	if ok, _ := store.HasLike(context.Background(), p1, p2); !ok {
		t.Fatal("like edge missing")
	}
}

func TestPassRemovesLikesBothWays(t *testing.T) {
	svc, store, _ := newTestService()
	p1 := uuid.New()
	p2 := uuid.New()

	svc.Like(context.Background(), p1, p2)
	svc.Like(context.Background(), p2, p1)

	if err := svc.Pass(context.Background(), p1, p2); err != nil {
		t.Fatalf("pass failed: %v", err)
	}
	// Idempotent: a second pass is fine and leaves one row
	if err := svc.Pass(context.Background(), p1, p2); err != nil {
		t.Fatalf("repeated pass failed: %v", err)
	}

	if ok, _ := store.HasLike(context.Background(), p1, p2); ok {
		t.Fatal("pass must remove outbound like")
	}
	if ok, _ := store.HasLike(context.Background(), p2, p1); ok {
		t.Fatal("pass must remove inbound like")
	}
	if len(store.passes) != 1 {
		t.Fatalf("expected exactly one pass row, got %d", len(store.passes))
	}
}

func TestUnlikeThenLikeRoundTrip(t *testing.T) {
	svc, store, _ := newTestService()
	p1 := uuid.New()
	p2 := uuid.New()

	svc.Like(context.Background(), p1, p2)
	if err := svc.Unlike(context.Background(), p1, p2); err != nil {
		t.Fatalf("unlike failed: %v", err)
	}
	if ok, _ := store.HasLike(context.Background(), p1, p2); ok {
		t.Fatal("unlike must remove the edge")
	}

	if _, err := svc.Like(context.Background(), p1, p2); err != nil {
		t.Fatalf("re-like failed: %v", err)
	}
	if ok, _ := store.HasLike(context.Background(), p1, p2); !ok {
		t.Fatal("re-like must restore the edge")
	}
}

func TestLikesReceivedCountExcludesMatches(t *testing.T) {
	svc, _, _ := newTestService()
	me := uuid.New()
	admirer := uuid.New()
	match := uuid.New()

	svc.Like(context.Background(), admirer, me)
	svc.Like(context.Background(), match, me)
	svc.Like(context.Background(), me, match)

	count, err := svc.LikesReceivedCount(context.Background(), me)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 admirer (matches excluded), got %d", count)
	}
}

func TestListLikesReceivedExcludesMatches(t *testing.T) {
	svc, _, _ := newTestService()
	me := uuid.New()
	admirer := uuid.New()
	match := uuid.New()

	svc.Like(context.Background(), admirer, me)
	svc.Like(context.Background(), match, me)
	svc.Like(context.Background(), me, match)

	views, err := svc.ListLikesReceived(context.Background(), me)
	if err != nil {
		t.Fatalf("ListLikesReceived failed: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 pending admirer, got %d", len(views))
	}
	if views[0].Counterpart == nil || views[0].Counterpart.ID != admirer {
		t.Fatal("the remaining like must be the unmatched admirer's")
	}
}

func TestMarkMatchAsSeen(t *testing.T) {
	svc, store, _ := newTestService()
	p1 := uuid.New()
	p2 := uuid.New()

	svc.Like(context.Background(), p1, p2)
	svc.Like(context.Background(), p2, p1)

	if err := svc.MarkMatchAsSeen(context.Background(), p1, p2); err != nil {
		t.Fatalf("MarkMatchAsSeen failed: %v", err)
	}

	one, _ := store.GetLike(context.Background(), p1, p2)
	two, _ := store.GetLike(context.Background(), p2, p1)
	if one.IsNew || two.IsNew {
		t.Fatal("both directional rows must have is_new cleared")
	}

	if err := svc.MarkMatchAsSeen(context.Background(), p1, p1); !errors.Is(err, ErrSelfInteraction) {
		t.Fatalf("expected ErrSelfInteraction, got %v", err)
	}
}

func TestLikeEventCarriesStoredEdge(t *testing.T) {
	store := newFakeStore()
	hub := realtime.NewHub(nil)
	go hub.Run()
	defer hub.Shutdown()
	svc := NewService(store, &fakeProfiles{}, &fakeAccepter{}, hub, nil)

	target := uuid.New()
	conn := &realtime.Connection{ProfileID: target, Send: make(chan []byte, 4)}
	hub.Register(conn)
	deadline := time.Now().Add(2 * time.Second)
	for hub.ConnectionCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	actor := uuid.New()
	if _, err := svc.Like(context.Background(), actor, target); err != nil {
		t.Fatalf("like failed: %v", err)
	}

	select {
	case data := <-conn.Send:
		var frame struct {
			Type    string   `json:"type"`
			Payload EdgeView `json:"payload"`
		}
		if err := json.Unmarshal(data, &frame); err != nil {
			t.Fatalf("frame is not valid JSON: %v", err)
		}
		if frame.Type != "new_like" {
			t.Fatalf("expected new_like frame, got %s", frame.Type)
		}
		if frame.Payload.FromProfileID != actor || frame.Payload.ToProfileID != target {
			t.Fatal("event must carry the stored edge's endpoints")
		}
		if frame.Payload.CreatedAt == "" || strings.HasPrefix(frame.Payload.CreatedAt, "0001-") {
			t.Fatalf("event must carry the stored edge's timestamp, got %q", frame.Payload.CreatedAt)
		}
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
}

func TestListMatches(t *testing.T) {
	svc, _, _ := newTestService()
	me := uuid.New()
	match := uuid.New()
	pending := uuid.New()

	svc.Like(context.Background(), me, match)
	svc.Like(context.Background(), match, me)
	svc.Like(context.Background(), me, pending)

	views, err := svc.ListMatches(context.Background(), me)
	if err != nil {
		t.Fatalf("ListMatches failed: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 match, got %d", len(views))
	}
	if !views[0].IsMatch || views[0].Counterpart == nil || views[0].Counterpart.ID != match {
		t.Fatal("match view must flag the match and carry the counterpart")
	}
}
