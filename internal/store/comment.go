package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"quill/internal/models"
)

// CommentStore manages post comments and their moderation state.
type CommentStore struct {
	db *sql.DB
}

// NewCommentStore returns a new CommentStore.
func NewCommentStore(db *sql.DB) *CommentStore {
	return &CommentStore{db: db}
}

// Create inserts a comment. It is always stored unapproved, whatever the
// Approved field says.
func (s *CommentStore) Create(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	result := *c
	result.Approved = false
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO comments (post_id, author_id, content, approved)
		VALUES ($1, $2, $3, FALSE)
		RETURNING id, created_at
	`, c.PostID, c.AuthorID, c.Content).Scan(&result.ID, &result.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return &result, nil
}

// ListApproved returns the approved comments of a post, oldest first.
// Unapproved comments are never returned.
func (s *CommentStore) ListApproved(ctx context.Context, postID uuid.UUID) ([]models.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.post_id, c.author_id, c.content, c.approved, c.created_at, u.username
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.post_id = $1 AND c.approved
		ORDER BY c.created_at ASC
	`, postID)
	if err != nil {
		return nil, fmt.Errorf("list approved comments: %w", err)
	}
	defer rows.Close()

	var items []models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Content, &c.Approved, &c.CreatedAt, &c.AuthorName); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// ListPending returns every comment awaiting moderation, oldest first.
func (s *CommentStore) ListPending(ctx context.Context) ([]models.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.post_id, c.author_id, c.content, c.approved, c.created_at, u.username, p.title
		FROM comments c
		JOIN users u ON u.id = c.author_id
		JOIN posts p ON p.id = c.post_id
		WHERE NOT c.approved
		ORDER BY c.created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list pending comments: %w", err)
	}
	defer rows.Close()

	var items []models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Content, &c.Approved, &c.CreatedAt, &c.AuthorName, &c.PostTitle); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// Approve makes a comment publicly visible. Returns false if no such
// comment exists.
func (s *CommentStore) Approve(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE comments SET approved = TRUE WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("approve comment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("approve comment rows affected: %w", err)
	}
	return n > 0, nil
}
