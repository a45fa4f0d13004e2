package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"quill/internal/models"
)

// ProfileStore manages user profiles.
type ProfileStore struct {
	db *sql.DB
}

// NewProfileStore returns a new ProfileStore.
func NewProfileStore(db *sql.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

// GetOrCreate returns the profile of the given user, creating an empty one
// first if none exists. created reports whether this call inserted the row.
// Concurrent callers never produce a second profile: the insert is a no-op
// on conflict with the unique user_id.
func (s *ProfileStore) GetOrCreate(ctx context.Context, userID uuid.UUID) (profile *models.Profile, created bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO profiles (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`, userID)
	if err != nil {
		return nil, false, fmt.Errorf("insert profile: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("insert profile rows affected: %w", err)
	}

	p := &models.Profile{}
	err = tx.QueryRowContext(ctx, `
		SELECT pr.id, pr.user_id, u.username, pr.bio, pr.avatar, pr.created_at
		FROM profiles pr
		JOIN users u ON u.id = pr.user_id
		WHERE pr.user_id = $1
	`, userID).Scan(&p.ID, &p.UserID, &p.Username, &p.Bio, &p.Avatar, &p.CreatedAt)
	if err != nil {
		return nil, false, fmt.Errorf("select profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit profile: %w", err)
	}
	return p, affected > 0, nil
}
