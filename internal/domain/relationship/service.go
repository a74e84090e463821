package relationship

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Service handles block management on top of the relationship store
type Service struct {
	store Store
}

// NewService creates new relationship service
func NewService(store Store) *Service {
	return &Service{store: store}
}

// BlockProfile blocks a profile; idempotent
func (s *Service) BlockProfile(ctx context.Context, blockerID, targetID uuid.UUID) error {
	block := &BlockEdge{
		ID:               uuid.New(),
		BlockerProfileID: blockerID,
		BlockedProfileID: targetID,
		CreatedAt:        time.Now(),
	}
	return s.store.CreateBlock(ctx, block)
}

// UnblockProfile removes a block; idempotent
func (s *Service) UnblockProfile(ctx context.Context, blockerID, targetID uuid.UUID) error {
	if blockerID == targetID {
		return ErrSelfInteraction
	}
	return s.store.DeleteBlock(ctx, blockerID, targetID)
}

// HasBlocked checks the single direction blocker→target
func (s *Service) HasBlocked(ctx context.Context, blockerID, targetID uuid.UUID) (bool, error) {
	return s.store.HasBlocked(ctx, blockerID, targetID)
}

// HasBlock checks both directions between a pair
func (s *Service) HasBlock(ctx context.Context, a, b uuid.UUID) (bool, error) {
	return s.store.HasBlock(ctx, a, b)
}

// ListMyBlocks returns all profiles blocked by the given profile
func (s *Service) ListMyBlocks(ctx context.Context, profileID uuid.UUID) ([]*BlockEdge, error) {
	return s.store.ListBlocks(ctx, profileID)
}
