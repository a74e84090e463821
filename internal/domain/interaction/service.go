package interaction

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kindra/kindra-api/internal/domain/profile"
	"github.com/kindra/kindra-api/internal/domain/realtime"
	"github.com/kindra/kindra-api/internal/domain/relationship"
)

// ConversationAccepter transitions an initiated conversation between the
// pair to accepted on a mutual like. The messaging service implements it.
type ConversationAccepter interface {
	AcceptOnMatch(ctx context.Context, a, b uuid.UUID) error
}

// Pusher delivers push notifications to device tokens
type Pusher interface {
	SendMultiple(tokens []string, title, body string, data map[string]string)
}

// Service implements the interaction engine: like/pass edge mutations,
// match detection and the resulting conversation transition and fan-out.
// Hub, accepter and pusher are optional; nil disables that path.
type Service struct {
	store         relationship.Store
	profiles      profile.Repository
	conversations ConversationAccepter
	hub           *realtime.Hub
	pusher        Pusher
}

// NewService creates interaction service
func NewService(store relationship.Store, profiles profile.Repository, conversations ConversationAccepter, hub *realtime.Hub, pusher Pusher) *Service {
	return &Service{
		store:         store,
		profiles:      profiles,
		conversations: conversations,
		hub:           hub,
		pusher:        pusher,
	}
}

// Like records a like edge and reports whether it completed a match. The
// store decides mutuality inside the same transaction as the edge write,
// so exactly one of two concurrent reciprocal likes observes the match.
func (s *Service) Like(ctx context.Context, fromID, toID uuid.UUID) (*LikeResult, error) {
	edge, isMatch, err := s.store.UpsertLike(ctx, fromID, toID)
	if err != nil {
		return nil, err
	}

	summaries, err := s.profiles.GetSummaries(ctx, []uuid.UUID{fromID, toID})
	if err != nil {
		return nil, err
	}

	result := &LikeResult{
		IsMatch: isMatch,
		EdgeTo:  EdgeViewFromEntity(edge, isMatch, summaries[toID]),
	}

	if isMatch {
		if reciprocal, rerr := s.store.GetLike(ctx, toID, fromID); rerr == nil && reciprocal != nil {
			result.EdgeFrom = EdgeViewFromEntity(reciprocal, true, summaries[fromID])
		}

		// An initiated conversation between the pair becomes accepted;
		// no conversation is manufactured from the match alone.
		if s.conversations != nil {
			if err := s.conversations.AcceptOnMatch(ctx, fromID, toID); err != nil {
				log.Error().Err(err).Msg("Failed to accept conversation on match")
			}
		}
	}

	s.notifyLike(ctx, result, edge, fromID, toID, summaries)

	return result, nil
}

// Unlike removes the like edge. It neither resurrects a previous pass
// nor reverts an accepted conversation; accepted conversations persist
// independently of continued mutual liking.
func (s *Service) Unlike(ctx context.Context, fromID, toID uuid.UUID) error {
	return s.store.DeleteLike(ctx, fromID, toID)
}

// Pass hides the target. Likes between the pair are removed in both
// directions in the same transaction; an existing conversation is
// untouched.
func (s *Service) Pass(ctx context.Context, fromID, toID uuid.UUID) error {
	_, err := s.store.UpsertPass(ctx, fromID, toID)
	return err
}

// Unpass removes the pass edge only
func (s *Service) Unpass(ctx context.Context, fromID, toID uuid.UUID) error {
	return s.store.DeletePass(ctx, fromID, toID)
}

// LikesReceivedCount is the admirers badge: inbound likes that are not
// yet mutual.
func (s *Service) LikesReceivedCount(ctx context.Context, profileID uuid.UUID) (int, error) {
	return s.store.CountLikesReceived(ctx, profileID)
}

// ListLikesSent returns the profile's outbound likes as edge views
func (s *Service) ListLikesSent(ctx context.Context, profileID uuid.UUID) ([]*EdgeView, error) {
	edges, err := s.store.ListLikesSent(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return s.decorateEdges(ctx, edges, profileID, false)
}

// ListLikesReceived returns inbound likes that are not yet mutual
func (s *Service) ListLikesReceived(ctx context.Context, profileID uuid.UUID) ([]*EdgeView, error) {
	edges, err := s.store.ListLikesReceived(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return s.decorateEdges(ctx, edges, profileID, false)
}

// ListMatches returns the profile's matches: outbound likes whose target
// likes back.
func (s *Service) ListMatches(ctx context.Context, profileID uuid.UUID) ([]*EdgeView, error) {
	edges, err := s.store.ListMatches(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return s.decorateEdges(ctx, edges, profileID, true)
}

// MarkMatchAsSeen clears the is_new flag on both directional like rows
// of the pair. Idempotent.
func (s *Service) MarkMatchAsSeen(ctx context.Context, a, b uuid.UUID) error {
	if a == b {
		return ErrSelfInteraction
	}
	return s.store.ClearMatchIsNew(ctx, a, b)
}

// decorateEdges loads counterpart summaries in one query and attaches
// them to the edges. The counterpart is whichever side isn't profileID.
func (s *Service) decorateEdges(ctx context.Context, edges []*relationship.LikeEdge, profileID uuid.UUID, isMatch bool) ([]*EdgeView, error) {
	ids := make([]uuid.UUID, 0, len(edges))
	for _, edge := range edges {
		ids = append(ids, counterpartOf(edge, profileID))
	}
	summaries, err := s.profiles.GetSummaries(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]*EdgeView, 0, len(edges))
	for _, edge := range edges {
		views = append(views, EdgeViewFromEntity(edge, isMatch, summaries[counterpartOf(edge, profileID)]))
	}
	return views, nil
}

func counterpartOf(edge *relationship.LikeEdge, profileID uuid.UUID) uuid.UUID {
	if edge.FromProfileID == profileID {
		return edge.ToProfileID
	}
	return edge.FromProfileID
}

// notifyLike fans the like or match out over the realtime hub with push
// fallback. Views are built from the stored edge so timestamps survive
// to the wire. Delivery never fails the write.
func (s *Service) notifyLike(ctx context.Context, result *LikeResult, edge *relationship.LikeEdge, fromID, toID uuid.UUID, summaries map[uuid.UUID]*profile.Summary) {
	if result.IsMatch {
		// Both sides learn about the match: each gets the view whose
		// counterpart is the other profile.
		matchViewForTarget := EdgeViewFromEntity(edge, true, summaries[fromID])

		s.deliver(ctx, toID, realtime.NewMatch(matchViewForTarget), "It's a match!", displayName(summaries[fromID])+" matched with you", "new_match")
		s.deliver(ctx, fromID, realtime.NewMatch(result.EdgeTo), "It's a match!", displayName(summaries[toID])+" matched with you", "new_match")
		return
	}

	likeView := EdgeViewFromEntity(edge, false, summaries[fromID])
	s.deliver(ctx, toID, realtime.NewLike(likeView), "New like", "Someone liked your profile", "new_like")
}

func (s *Service) deliver(ctx context.Context, profileID uuid.UUID, event *realtime.Event, pushTitle, pushBody, pushType string) {
	if s.hub != nil {
		if err := s.hub.SendToProfile(profileID, event); err != nil {
			log.Warn().Err(err).Str("profile_id", profileID.String()).Msg("Failed to send realtime event")
		}
	}

	if s.pusher != nil && (s.hub == nil || !s.hub.IsOnline(profileID)) {
		tokens, err := s.profiles.GetDeviceTokens(ctx, profileID)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to load device tokens")
			return
		}
		s.pusher.SendMultiple(tokens, pushTitle, pushBody, map[string]string{"type": pushType})
	}
}

func displayName(s *profile.Summary) string {
	if s == nil {
		return "Someone"
	}
	return s.DisplayName
}
