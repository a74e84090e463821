package profile

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Summary is the minimal profile projection used when rendering edges
// and messages. Profile ownership lives elsewhere; this service only
// ever reads it.
type Summary struct {
	ID          uuid.UUID      `db:"id" json:"id"`
	DisplayName string         `db:"display_name" json:"display_name"`
	AvatarURL   sql.NullString `db:"avatar_url" json:"-"`
	CreatedAt   time.Time      `db:"created_at" json:"-"`
}

// Avatar returns the avatar URL or nil when the profile has none
func (s *Summary) Avatar() *string {
	if s.AvatarURL.Valid {
		return &s.AvatarURL.String
	}
	return nil
}
