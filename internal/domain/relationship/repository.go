package relationship

import (
	"context"

	"github.com/google/uuid"
)

// Store defines relationship edge data access. All mutating operations
// are idempotent: repeating a call leaves exactly one edge and no error.
type Store interface {
	// Like edges. UpsertLike removes any same-direction pass and reports
	// whether the like is now mutual, both inside one transaction.
	UpsertLike(ctx context.Context, from, to uuid.UUID) (*LikeEdge, bool, error)
	DeleteLike(ctx context.Context, from, to uuid.UUID) error
	GetLike(ctx context.Context, from, to uuid.UUID) (*LikeEdge, error)
	HasLike(ctx context.Context, from, to uuid.UUID) (bool, error)
	HasMutualLike(ctx context.Context, a, b uuid.UUID) (bool, error)

	// Pass edges. UpsertPass removes likes in both directions first.
	UpsertPass(ctx context.Context, from, to uuid.UUID) (*PassEdge, error)
	DeletePass(ctx context.Context, from, to uuid.UUID) error
	HasPass(ctx context.Context, from, to uuid.UUID) (bool, error)

	// Listings for the interaction API
	CountLikesReceived(ctx context.Context, profileID uuid.UUID) (int, error)
	ListLikesSent(ctx context.Context, profileID uuid.UUID) ([]*LikeEdge, error)
	ListLikesReceived(ctx context.Context, profileID uuid.UUID) ([]*LikeEdge, error)
	ListMatches(ctx context.Context, profileID uuid.UUID) ([]*LikeEdge, error)
	ClearMatchIsNew(ctx context.Context, a, b uuid.UUID) error

	// Block edges
	CreateBlock(ctx context.Context, block *BlockEdge) error
	DeleteBlock(ctx context.Context, blockerID, blockedID uuid.UUID) error
	HasBlocked(ctx context.Context, blockerID, blockedID uuid.UUID) (bool, error)
	HasBlock(ctx context.Context, a, b uuid.UUID) (bool, error)
	ListBlocks(ctx context.Context, profileID uuid.UUID) ([]*BlockEdge, error)
}
