// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"quill/internal/models"
)

// countingSource records how often the list is loaded.
type countingSource struct {
	cats  []models.Category
	lists int
}

func (s *countingSource) List(context.Context) ([]models.Category, error) {
	s.lists++
	return s.cats, nil
}

func (s *countingSource) FindByID(_ context.Context, id uuid.UUID) (*models.Category, error) {
	for _, c := range s.cats {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, nil
}

func (s *countingSource) FindBySlug(_ context.Context, slug string) (*models.Category, error) {
	for _, c := range s.cats {
		if c.Slug == slug {
			return &c, nil
		}
	}
	return nil, nil
}

func newTestCategories(t *testing.T) (*Categories, *countingSource, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	src := &countingSource{cats: []models.Category{
		{ID: uuid.New(), Name: "Food", Slug: "food"},
		{ID: uuid.New(), Name: "Travel", Slug: "travel"},
	}}
	return NewCategories(src, client, time.Minute), src, mr
}

func TestCategoriesListIsCached(t *testing.T) {
	c, src, _ := newTestCategories(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		cats, err := c.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(cats) != 2 || cats[1].Slug != "travel" {
			t.Fatalf("unexpected categories %+v", cats)
		}
	}
	if src.lists != 1 {
		t.Errorf("source loaded %d times, want 1", src.lists)
	}
}

func TestCategoriesInvalidate(t *testing.T) {
	c, src, _ := newTestCategories(t)
	ctx := context.Background()

	if _, err := c.List(ctx); err != nil {
		t.Fatalf("List: %v", err)
	}
	src.cats = append(src.cats, models.Category{ID: uuid.New(), Name: "Tech", Slug: "tech"})
	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}

	cats, err := c.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(cats) != 3 {
		t.Errorf("got %d categories after invalidate, want 3", len(cats))
	}
}

func TestCategoriesExpire(t *testing.T) {
	c, src, mr := newTestCategories(t)
	ctx := context.Background()

	c.List(ctx)
	mr.FastForward(2 * time.Minute)
	c.List(ctx)

	if src.lists != 2 {
		t.Errorf("source loaded %d times, want 2", src.lists)
	}
}

func TestCategoriesFallsBackWhenValkeyDown(t *testing.T) {
	c, src, mr := newTestCategories(t)
	mr.Close()

	cats, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(cats) != 2 || src.lists != 1 {
		t.Errorf("expected source fallback, got %d categories", len(cats))
	}
}

func TestCategoriesLookupsPassThrough(t *testing.T) {
	c, src, _ := newTestCategories(t)
	ctx := context.Background()

	got, err := c.FindBySlug(ctx, "food")
	if err != nil || got == nil || got.Name != "Food" {
		t.Errorf("FindBySlug = %+v, %v", got, err)
	}
	got, err = c.FindByID(ctx, src.cats[1].ID)
	if err != nil || got == nil || got.Slug != "travel" {
		t.Errorf("FindByID = %+v, %v", got, err)
	}
	if got, _ := c.FindBySlug(ctx, "missing"); got != nil {
		t.Errorf("expected nil for unknown slug, got %+v", got)
	}
}

func TestConnectValkey(t *testing.T) {
	host := os.Getenv("VALKEY_HOST")
	if host == "" {
		host = "localhost"
	}
	port := os.Getenv("VALKEY_PORT")
	if port == "" {
		port = "6379"
	}

	client, err := ConnectValkey(host, port, "")
	if err != nil {
		t.Skipf("skipping: Valkey not available: %v", err)
	}
	defer client.Close()

	if pong, err := client.Ping(context.Background()).Result(); err != nil || pong != "PONG" {
		t.Errorf("Ping = %q, %v", pong, err)
	}
}
