// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"quill/internal/models"
)

// PostStore handles all post-related database operations, including the
// public listing, filtering and search queries.
type PostStore struct {
	db *sql.DB
}

// NewPostStore creates a new PostStore with the given database connection.
func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

// postSelect joins the author name and optional category onto each post.
const postSelect = `
	SELECT p.id, p.title, p.slug, p.author_id, p.category_id, p.content, p.image,
	       p.published, p.created_at, p.updated_at,
	       u.username, c.name, c.slug
	FROM posts p
	JOIN users u ON u.id = p.author_id
	LEFT JOIN categories c ON c.id = p.category_id`

// publishedOrder is the ordering of every public listing: newest first.
const publishedOrder = ` ORDER BY p.created_at DESC`

func scanPost(scanner interface{ Scan(...any) error }) (*models.Post, error) {
	var (
		p            models.Post
		categoryName sql.NullString
		categorySlug sql.NullString
	)
	err := scanner.Scan(
		&p.ID, &p.Title, &p.Slug, &p.AuthorID, &p.CategoryID, &p.Content, &p.Image,
		&p.Published, &p.CreatedAt, &p.UpdatedAt,
		&p.AuthorName, &categoryName, &categorySlug,
	)
	if err != nil {
		return nil, err
	}
	if p.CategoryID != nil && categoryName.Valid {
		p.Category = &models.Category{
			ID:   *p.CategoryID,
			Name: categoryName.String,
			Slug: categorySlug.String,
		}
	}
	return &p, nil
}

// listPosts runs a post query and scans every row.
func (s *PostStore) listPosts(ctx context.Context, query string, args ...any) ([]models.Post, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

// ListPublished returns all published posts, newest first.
func (s *PostStore) ListPublished(ctx context.Context) ([]models.Post, error) {
	posts, err := s.listPosts(ctx, postSelect+` WHERE p.published`+publishedOrder)
	if err != nil {
		return nil, fmt.Errorf("list published posts: %w", err)
	}
	return posts, nil
}

// ListPublishedByCategory returns the published posts of one category, newest first.
func (s *PostStore) ListPublishedByCategory(ctx context.Context, categoryID uuid.UUID) ([]models.Post, error) {
	posts, err := s.listPosts(ctx,
		postSelect+` WHERE p.published AND p.category_id = $1`+publishedOrder,
		categoryID,
	)
	if err != nil {
		return nil, fmt.Errorf("list posts by category: %w", err)
	}
	return posts, nil
}

// ListPublishedByTag returns the published posts carrying the tag with the
// given slug, newest first. An unknown tag yields an empty list.
func (s *PostStore) ListPublishedByTag(ctx context.Context, tagSlug string) ([]models.Post, error) {
	posts, err := s.listPosts(ctx, postSelect+`
		WHERE p.published AND EXISTS (
			SELECT 1 FROM post_tags pt
			JOIN tags t ON t.id = pt.tag_id
			WHERE pt.post_id = p.id AND t.slug = $1
		)`+publishedOrder,
		tagSlug,
	)
	if err != nil {
		return nil, fmt.Errorf("list posts by tag: %w", err)
	}
	return posts, nil
}

// SearchPublished returns published posts whose title or content contains
// query, case-insensitively. Each post appears once even when both columns
// match. An empty query returns every published post.
func (s *PostStore) SearchPublished(ctx context.Context, query string) ([]models.Post, error) {
	posts, err := s.listPosts(ctx, postSelect+`
		WHERE p.published
		  AND (p.title ILIKE $1 ESCAPE '\' OR p.content ILIKE $1 ESCAPE '\')`+publishedOrder,
		containsPattern(query),
	)
	if err != nil {
		return nil, fmt.Errorf("search posts: %w", err)
	}
	return posts, nil
}

// FindPublishedBySlug retrieves a published post with its tags. Drafts are
// reported as not found (nil) regardless of who asks.
func (s *PostStore) FindPublishedBySlug(ctx context.Context, slug string) (*models.Post, error) {
	return s.findOne(ctx, postSelect+` WHERE p.slug = $1 AND p.published`, slug)
}

// FindBySlug retrieves a post with its tags whether or not it is published.
// Used by the owner-only edit and delete flows. Returns nil if not found.
func (s *PostStore) FindBySlug(ctx context.Context, slug string) (*models.Post, error) {
	return s.findOne(ctx, postSelect+` WHERE p.slug = $1`, slug)
}

func (s *PostStore) findOne(ctx context.Context, query, slug string) (*models.Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, query, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by slug: %w", err)
	}

	p.Tags, err = listTagsForPost(ctx, s.db, p.ID)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// SlugExists reports whether any post, published or not, uses the slug.
func (s *PostStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("post slug exists: %w", err)
	}
	return exists, nil
}

// Create inserts a post and its tag assignments in one transaction and
// returns the stored post. The slug must already be assigned; a duplicate
// slug yields ErrConflict.
func (s *PostStore) Create(ctx context.Context, p *models.Post) (*models.Post, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result := *p
	err = tx.QueryRowContext(ctx, `
		INSERT INTO posts (title, slug, author_id, category_id, content, image, published)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, p.Title, p.Slug, p.AuthorID, p.CategoryID, p.Content, p.Image, p.Published,
	).Scan(&result.ID, &result.CreatedAt, &result.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", mapError(err))
	}

	result.Tags, err = replaceTags(ctx, tx, result.ID, p.TagNames())
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit post: %w", err)
	}
	return &result, nil
}

// Update saves the editable fields of a post and replaces its tags. The
// slug and author never change after creation.
func (s *PostStore) Update(ctx context.Context, p *models.Post) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE posts SET
			title = $1, category_id = $2, content = $3, image = $4,
			published = $5, updated_at = NOW()
		WHERE id = $6
	`, p.Title, p.CategoryID, p.Content, p.Image, p.Published, p.ID)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}

	if p.Tags, err = replaceTags(ctx, tx, p.ID, p.TagNames()); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit post update: %w", err)
	}
	return nil
}

// Delete removes a post. Its comments and tag assignments are removed by
// the ON DELETE CASCADE foreign keys.
func (s *PostStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}
