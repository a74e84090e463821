package profile

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines read-only access to the profile directory
type Repository interface {
	GetSummary(ctx context.Context, id uuid.UUID) (*Summary, error)
	GetSummaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Summary, error)
	GetDeviceTokens(ctx context.Context, profileID uuid.UUID) ([]string, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates profile directory repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetSummary(ctx context.Context, id uuid.UUID) (*Summary, error) {
	query := `SELECT id, display_name, avatar_url, created_at FROM profiles WHERE id = $1`
	var s Summary
	err := r.db.GetContext(ctx, &s, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *repository) GetSummaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Summary, error) {
	result := make(map[uuid.UUID]*Summary, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`SELECT id, display_name, avatar_url, created_at FROM profiles WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	query = r.db.Rebind(query)

	var rows []*Summary
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	for _, row := range rows {
		result[row.ID] = row
	}
	return result, nil
}

func (r *repository) GetDeviceTokens(ctx context.Context, profileID uuid.UUID) ([]string, error) {
	query := `SELECT token FROM device_tokens WHERE profile_id = $1`
	var tokens []string
	err := r.db.SelectContext(ctx, &tokens, query, profileID)
	return tokens, err
}
