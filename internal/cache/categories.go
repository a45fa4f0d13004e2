// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// categories.go keeps the category menu in Valkey. Every rendered page
// lists all categories, so the list is read far more often than it
// changes; changes only come from quillctl, which invalidates the key.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"quill/internal/models"
)

const (
	// categoriesKey holds the JSON-encoded category list.
	categoriesKey = "categories:menu"

	// DefaultCategoriesTTL bounds how stale the menu can get if an
	// invalidation is missed.
	DefaultCategoriesTTL = 10 * time.Minute
)

// CategorySource is the uncached category storage.
type CategorySource interface {
	List(ctx context.Context) ([]models.Category, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	FindBySlug(ctx context.Context, slug string) (*models.Category, error)
}

// Categories serves the category list from Valkey, falling back to the
// source on a miss. Single lookups always go to the source.
type Categories struct {
	source CategorySource
	client *redis.Client
	ttl    time.Duration
}

// NewCategories wraps source with a Valkey-backed list cache.
func NewCategories(source CategorySource, client *redis.Client, ttl time.Duration) *Categories {
	if ttl == 0 {
		ttl = DefaultCategoriesTTL
	}
	return &Categories{source: source, client: client, ttl: ttl}
}

// List returns all categories. Cache failures are logged and the source
// is used instead.
func (c *Categories) List(ctx context.Context) ([]models.Category, error) {
	val, err := c.client.Get(ctx, categoriesKey).Bytes()
	if err == nil {
		var cats []models.Category
		decodeErr := json.Unmarshal(val, &cats)
		if decodeErr == nil {
			return cats, nil
		}
		slog.Warn("category cache decode error", "error", decodeErr)
	} else if err != redis.Nil {
		slog.Warn("category cache get error", "error", err)
	}

	cats, err := c.source.List(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(cats)
	if err != nil {
		slog.Warn("category cache encode error", "error", err)
		return cats, nil
	}
	if err := c.client.Set(ctx, categoriesKey, payload, c.ttl).Err(); err != nil {
		slog.Warn("category cache set error", "error", err)
	}
	return cats, nil
}

// FindByID looks a category up by ID.
func (c *Categories) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	return c.source.FindByID(ctx, id)
}

// FindBySlug looks a category up by slug.
func (c *Categories) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return c.source.FindBySlug(ctx, slug)
}

// Invalidate drops the cached list so the next page reloads it.
func (c *Categories) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, categoriesKey).Err()
}
