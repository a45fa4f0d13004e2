// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the HTTP handlers of the blog: public
// listings and post pages, the owner-only post editor, and the account
// pages. Handlers depend on small repository interfaces so tests can run
// them against in-memory fakes.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"quill/internal/middleware"
	"quill/internal/models"
	"quill/internal/render"
	"quill/internal/session"
	"quill/internal/store"
)

// PostRepository is the post storage used by the handlers.
type PostRepository interface {
	ListPublished(ctx context.Context) ([]models.Post, error)
	ListPublishedByCategory(ctx context.Context, categoryID uuid.UUID) ([]models.Post, error)
	ListPublishedByTag(ctx context.Context, tagSlug string) ([]models.Post, error)
	SearchPublished(ctx context.Context, query string) ([]models.Post, error)
	FindPublishedBySlug(ctx context.Context, slug string) (*models.Post, error)
	FindBySlug(ctx context.Context, slug string) (*models.Post, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, p *models.Post) (*models.Post, error)
	Update(ctx context.Context, p *models.Post) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CategoryRepository looks up categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	FindBySlug(ctx context.Context, slug string) (*models.Category, error)
}

// CommentRepository stores and lists comments.
type CommentRepository interface {
	Create(ctx context.Context, c *models.Comment) (*models.Comment, error)
	ListApproved(ctx context.Context, postID uuid.UUID) ([]models.Comment, error)
}

// UserRepository looks up users and verifies their passwords.
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	CheckPassword(user *models.User, password string) bool
}

// ProfileRepository fetches or initializes user profiles.
type ProfileRepository interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Profile, bool, error)
}

// site holds what every page needs: the renderer, the session store for
// flashes, and the categories shown in the menu.
type site struct {
	renderer   *render.Renderer
	sessions   *session.Store
	categories CategoryRepository
}

// page builds the PageData for a request, loading the category menu and
// consuming any pending flash messages.
func (s *site) page(r *http.Request, title string, data map[string]any) *render.PageData {
	ctx := r.Context()
	pd := &render.PageData{Title: title, Data: data}

	cats, err := s.categories.List(ctx)
	if err != nil {
		slog.Error("list categories failed", "error", err)
	}
	pd.Categories = cats

	if sess := middleware.SessionFromCtx(ctx); sess != nil {
		pd.Session = sess
		flashes, err := s.sessions.PopFlashes(ctx, sess.ID)
		if err != nil {
			slog.Warn("pop flashes failed", "error", err)
		}
		pd.Flashes = flashes
	}
	return pd
}

// render writes a page with the given status.
func (s *site) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data map[string]any) {
	s.renderer.Page(w, r, status, name, s.page(r, title, data))
}

// flash queues a message for the signed-in user's next page.
func (s *site) flash(r *http.Request, message string) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		return
	}
	if err := s.sessions.AddFlash(r.Context(), sess.ID, message); err != nil {
		slog.Warn("add flash failed", "error", err)
	}
}

// serverError logs err and replies 500.
func serverError(w http.ResponseWriter, msg string, err error, args ...any) {
	slog.Error(msg, append([]any{"error", err}, args...)...)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// storeError replies 409 for unique-constraint races and 500 otherwise.
func storeError(w http.ResponseWriter, msg string, err error, args ...any) {
	if errors.Is(err, store.ErrConflict) {
		slog.Warn(msg, append([]any{"error", err}, args...)...)
		http.Error(w, "This post conflicts with one saved at the same time. Please submit it again.", http.StatusConflict)
		return
	}
	serverError(w, msg, err, args...)
}
