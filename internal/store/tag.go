package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"quill/internal/models"
	"quill/internal/slug"
)

// ErrInvalidTag is returned when a tag name has no slug-worthy characters.
var ErrInvalidTag = errors.New("tag name has no usable characters")

// listTagsForPost returns the tags of one post ordered by name.
func listTagsForPost(ctx context.Context, q querier, postID uuid.UUID) ([]models.Tag, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT t.id, t.name, t.slug
		FROM tags t
		JOIN post_tags pt ON pt.tag_id = t.id
		WHERE pt.post_id = $1
		ORDER BY t.name
	`, postID)
	if err != nil {
		return nil, fmt.Errorf("list post tags: %w", err)
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// ensureTag returns the tag whose slug matches name, creating it if needed.
// Names that differ only in case or punctuation share one tag.
func ensureTag(ctx context.Context, q querier, name string) (models.Tag, error) {
	t := models.Tag{Name: name, Slug: slug.Generate(name)}
	if t.Slug == "" {
		return t, fmt.Errorf("%w: %q", ErrInvalidTag, name)
	}

	err := q.QueryRowContext(ctx, `SELECT id, name FROM tags WHERE slug = $1`, t.Slug).Scan(&t.ID, &t.Name)
	if err == nil {
		return t, nil
	}
	if err != sql.ErrNoRows {
		return t, fmt.Errorf("find tag: %w", err)
	}

	err = q.QueryRowContext(ctx, `
		INSERT INTO tags (name, slug) VALUES ($1, $2)
		ON CONFLICT (slug) DO UPDATE SET slug = EXCLUDED.slug
		RETURNING id, name
	`, t.Name, t.Slug).Scan(&t.ID, &t.Name)
	if err != nil {
		return t, fmt.Errorf("create tag: %w", mapError(err))
	}
	return t, nil
}

// replaceTags sets the post's tags to exactly names and returns them.
func replaceTags(ctx context.Context, q querier, postID uuid.UUID, names []string) ([]models.Tag, error) {
	if _, err := q.ExecContext(ctx, `DELETE FROM post_tags WHERE post_id = $1`, postID); err != nil {
		return nil, fmt.Errorf("clear post tags: %w", err)
	}

	tags := make([]models.Tag, 0, len(names))
	for _, name := range names {
		t, err := ensureTag(ctx, q, name)
		if err != nil {
			return nil, err
		}
		_, err = q.ExecContext(ctx, `
			INSERT INTO post_tags (post_id, tag_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, postID, t.ID)
		if err != nil {
			return nil, fmt.Errorf("assign tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, nil
}
