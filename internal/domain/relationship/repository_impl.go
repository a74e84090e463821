package relationship

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type repository struct {
	db *sqlx.DB
}

// NewRepository creates new relationship store backed by Postgres
func NewRepository(db *sqlx.DB) Store {
	return &repository{db: db}
}

// pairLockKey builds the advisory-lock key for an unordered profile
// pair; both like directions must hash to the same key.
func pairLockKey(a, b uuid.UUID) string {
	if b.String() < a.String() {
		a, b = b, a
	}
	return a.String() + ":" + b.String()
}

// UpsertLike removes the same-direction pass, inserts the like and checks
// the reciprocal edge, all in one transaction. A transaction-scoped
// advisory lock keyed by the unordered pair serializes both directions:
// under READ COMMITTED a plain row lock cannot see the other side's
// uncommitted insert, so the lock is what guarantees exactly one of two
// simultaneous reciprocal likes observes the transition to mutual.
func (r *repository) UpsertLike(ctx context.Context, from, to uuid.UUID) (*LikeEdge, bool, error) {
	if from == to {
		return nil, false, ErrSelfInteraction
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`,
		pairLockKey(from, to)); err != nil {
		return nil, false, err
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM profile_passes WHERE from_profile_id = $1 AND to_profile_id = $2`,
		from, to); err != nil {
		return nil, false, err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO profile_likes (from_profile_id, to_profile_id, is_new, created_at)
		VALUES ($1, $2, true, $3)
		ON CONFLICT (from_profile_id, to_profile_id) DO NOTHING
	`, from, to, time.Now()); err != nil {
		return nil, false, err
	}

	var edge LikeEdge
	if err := tx.GetContext(ctx, &edge,
		`SELECT * FROM profile_likes WHERE from_profile_id = $1 AND to_profile_id = $2`,
		from, to); err != nil {
		return nil, false, err
	}

	var reciprocal LikeEdge
	err = tx.GetContext(ctx, &reciprocal,
		`SELECT * FROM profile_likes WHERE from_profile_id = $1 AND to_profile_id = $2`,
		to, from)
	mutual := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, err
	}
	return &edge, mutual, nil
}

func (r *repository) DeleteLike(ctx context.Context, from, to uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM profile_likes WHERE from_profile_id = $1 AND to_profile_id = $2`,
		from, to)
	return err
}

func (r *repository) GetLike(ctx context.Context, from, to uuid.UUID) (*LikeEdge, error) {
	var edge LikeEdge
	err := r.db.GetContext(ctx, &edge,
		`SELECT * FROM profile_likes WHERE from_profile_id = $1 AND to_profile_id = $2`,
		from, to)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &edge, nil
}

func (r *repository) HasLike(ctx context.Context, from, to uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM profile_likes WHERE from_profile_id = $1 AND to_profile_id = $2)`,
		from, to)
	return exists, err
}

func (r *repository) HasMutualLike(ctx context.Context, a, b uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM profile_likes l1
			JOIN profile_likes l2
			  ON l2.from_profile_id = l1.to_profile_id
			 AND l2.to_profile_id = l1.from_profile_id
			WHERE l1.from_profile_id = $1 AND l1.to_profile_id = $2
		)
	`
	var exists bool
	err := r.db.GetContext(ctx, &exists, query, a, b)
	return exists, err
}

// UpsertPass deletes likes in both directions and inserts the pass edge
// in one transaction; passing is exclusive with liking for the pair.
func (r *repository) UpsertPass(ctx context.Context, from, to uuid.UUID) (*PassEdge, error) {
	if from == to {
		return nil, ErrSelfInteraction
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM profile_likes
		WHERE (from_profile_id = $1 AND to_profile_id = $2)
		   OR (from_profile_id = $2 AND to_profile_id = $1)
	`, from, to); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO profile_passes (from_profile_id, to_profile_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (from_profile_id, to_profile_id) DO NOTHING
	`, from, to, time.Now()); err != nil {
		return nil, err
	}

	var edge PassEdge
	if err := tx.GetContext(ctx, &edge,
		`SELECT * FROM profile_passes WHERE from_profile_id = $1 AND to_profile_id = $2`,
		from, to); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &edge, nil
}

func (r *repository) DeletePass(ctx context.Context, from, to uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM profile_passes WHERE from_profile_id = $1 AND to_profile_id = $2`,
		from, to)
	return err
}

func (r *repository) HasPass(ctx context.Context, from, to uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM profile_passes WHERE from_profile_id = $1 AND to_profile_id = $2)`,
		from, to)
	return exists, err
}

// CountLikesReceived counts inbound likes that are not yet mutual; this
// backs the "new admirers" badge, not a total inbound count.
func (r *repository) CountLikesReceived(ctx context.Context, profileID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*) FROM profile_likes l
		WHERE l.to_profile_id = $1
		  AND NOT EXISTS (
			SELECT 1 FROM profile_likes back
			WHERE back.from_profile_id = l.to_profile_id
			  AND back.to_profile_id = l.from_profile_id
		  )
	`
	var count int
	err := r.db.GetContext(ctx, &count, query, profileID)
	return count, err
}

func (r *repository) ListLikesSent(ctx context.Context, profileID uuid.UUID) ([]*LikeEdge, error) {
	query := `SELECT * FROM profile_likes WHERE from_profile_id = $1 ORDER BY created_at DESC`
	var edges []*LikeEdge
	err := r.db.SelectContext(ctx, &edges, query, profileID)
	return edges, err
}

// ListLikesReceived lists inbound likes that are not yet mutual, the
// same population CountLikesReceived counts.
func (r *repository) ListLikesReceived(ctx context.Context, profileID uuid.UUID) ([]*LikeEdge, error) {
	query := `
		SELECT l.* FROM profile_likes l
		WHERE l.to_profile_id = $1
		  AND NOT EXISTS (
			SELECT 1 FROM profile_likes back
			WHERE back.from_profile_id = l.to_profile_id
			  AND back.to_profile_id = l.from_profile_id
		  )
		ORDER BY l.created_at DESC
	`
	var edges []*LikeEdge
	err := r.db.SelectContext(ctx, &edges, query, profileID)
	return edges, err
}

// ListMatches returns outbound like edges whose target likes the profile back
func (r *repository) ListMatches(ctx context.Context, profileID uuid.UUID) ([]*LikeEdge, error) {
	query := `
		SELECT l.* FROM profile_likes l
		WHERE l.from_profile_id = $1
		  AND EXISTS (
			SELECT 1 FROM profile_likes back
			WHERE back.from_profile_id = l.to_profile_id
			  AND back.to_profile_id = l.from_profile_id
		  )
		ORDER BY l.created_at DESC
	`
	var edges []*LikeEdge
	err := r.db.SelectContext(ctx, &edges, query, profileID)
	return edges, err
}

func (r *repository) ClearMatchIsNew(ctx context.Context, a, b uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE profile_likes SET is_new = false
		WHERE (from_profile_id = $1 AND to_profile_id = $2)
		   OR (from_profile_id = $2 AND to_profile_id = $1)
	`, a, b)
	return err
}

// CreateBlock inserts the block and removes likes in both directions; a
// blocked pair cannot remain matched.
func (r *repository) CreateBlock(ctx context.Context, block *BlockEdge) error {
	if block.BlockerProfileID == block.BlockedProfileID {
		return ErrSelfInteraction
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO profile_blocks (id, blocker_profile_id, blocked_profile_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (blocker_profile_id, blocked_profile_id) DO NOTHING
	`, block.ID, block.BlockerProfileID, block.BlockedProfileID, block.CreatedAt); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM profile_likes
		WHERE (from_profile_id = $1 AND to_profile_id = $2)
		   OR (from_profile_id = $2 AND to_profile_id = $1)
	`, block.BlockerProfileID, block.BlockedProfileID); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *repository) DeleteBlock(ctx context.Context, blockerID, blockedID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM profile_blocks WHERE blocker_profile_id = $1 AND blocked_profile_id = $2`,
		blockerID, blockedID)
	return err
}

func (r *repository) HasBlocked(ctx context.Context, blockerID, blockedID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM profile_blocks WHERE blocker_profile_id = $1 AND blocked_profile_id = $2)`,
		blockerID, blockedID)
	return exists, err
}

// HasBlock checks both directions
func (r *repository) HasBlock(ctx context.Context, a, b uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM profile_blocks
			WHERE (blocker_profile_id = $1 AND blocked_profile_id = $2)
			   OR (blocker_profile_id = $2 AND blocked_profile_id = $1)
		)
	`
	var exists bool
	err := r.db.GetContext(ctx, &exists, query, a, b)
	return exists, err
}

func (r *repository) ListBlocks(ctx context.Context, profileID uuid.UUID) ([]*BlockEdge, error) {
	query := `SELECT * FROM profile_blocks WHERE blocker_profile_id = $1 ORDER BY created_at DESC`
	var blocks []*BlockEdge
	err := r.db.SelectContext(ctx, &blocks, query, profileID)
	return blocks, err
}
