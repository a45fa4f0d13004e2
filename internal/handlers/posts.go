// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"quill/internal/middleware"
	"quill/internal/models"
	"quill/internal/render"
	"quill/internal/session"
	"quill/internal/slug"
	"quill/internal/storage"
)

// Posts groups the authenticated post editor handlers. Every route is
// mounted behind RequireAuth; edit and delete also require ownership.
type Posts struct {
	site
	posts  PostRepository
	images storage.ImageStore
}

// NewPosts creates a new Posts handler group.
func NewPosts(renderer *render.Renderer, sessions *session.Store, posts PostRepository, categories CategoryRepository, images storage.ImageStore) *Posts {
	return &Posts{
		site:   site{renderer: renderer, sessions: sessions, categories: categories},
		posts:  posts,
		images: images,
	}
}

// New renders the empty post editor.
func (p *Posts) New(w http.ResponseWriter, r *http.Request) {
	p.renderForm(w, r, "Create Post", "/post/new/", postForm{}, nil)
}

// Create validates the editor and stores a new post owned by the caller.
// The slug is derived from the title once, here, and never changes.
func (p *Posts) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := middleware.SessionFromCtx(ctx)

	in := parsePostForm(r)
	if err := p.checkCategory(ctx, in); err != nil {
		serverError(w, "find category failed", err)
		return
	}
	if !in.valid() {
		p.renderForm(w, r, "Create Post", "/post/new/", in.form, in.errors)
		return
	}

	post := &models.Post{AuthorID: sess.UserID}
	in.apply(post)

	s, err := slug.Unique(ctx, slug.FromTitle(post.Title), p.slugTaken)
	if err != nil {
		serverError(w, "assign slug failed", err, "title", post.Title)
		return
	}
	post.Slug = s

	if in.image != nil {
		key, err := p.saveImage(ctx, in.image)
		if err != nil {
			serverError(w, "save post image failed", err)
			return
		}
		post.Image = &key
	}

	created, err := p.posts.Create(ctx, post)
	if err != nil {
		p.discardImage(ctx, post.Image)
		storeError(w, "create post failed", err, "slug", post.Slug)
		return
	}

	slog.Info("post created", "post_id", created.ID, "slug", created.Slug, "user", sess.Username)
	p.flash(r, "Post created successfully.")
	http.Redirect(w, r, created.URL(), http.StatusSeeOther)
}

// Edit renders the editor pre-filled with the caller's post.
func (p *Posts) Edit(w http.ResponseWriter, r *http.Request) {
	post, ok := p.ownedPost(w, r)
	if !ok {
		return
	}
	p.renderForm(w, r, "Edit Post", post.URL()+"edit/", newPostForm(post), nil)
}

// Update validates the editor and saves the caller's post. A new image
// replaces the previous one.
func (p *Posts) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	post, ok := p.ownedPost(w, r)
	if !ok {
		return
	}

	in := parsePostForm(r)
	if err := p.checkCategory(ctx, in); err != nil {
		serverError(w, "find category failed", err)
		return
	}
	if !in.valid() {
		in.form.Image = post.Image
		p.renderForm(w, r, "Edit Post", post.URL()+"edit/", in.form, in.errors)
		return
	}

	in.apply(post)

	oldImage := post.Image
	if in.image != nil {
		key, err := p.saveImage(ctx, in.image)
		if err != nil {
			serverError(w, "save post image failed", err)
			return
		}
		post.Image = &key
	}

	if err := p.posts.Update(ctx, post); err != nil {
		if post.Image != oldImage {
			p.discardImage(ctx, post.Image)
		}
		storeError(w, "update post failed", err, "slug", post.Slug)
		return
	}
	if post.Image != oldImage {
		p.discardImage(ctx, oldImage)
	}

	slog.Info("post updated", "post_id", post.ID, "slug", post.Slug)
	p.flash(r, "Post updated successfully.")
	http.Redirect(w, r, post.URL(), http.StatusSeeOther)
}

// DeleteConfirm renders the delete confirmation for the caller's post.
func (p *Posts) DeleteConfirm(w http.ResponseWriter, r *http.Request) {
	post, ok := p.ownedPost(w, r)
	if !ok {
		return
	}
	p.render(w, r, http.StatusOK, "post_confirm_delete", "Delete Post", map[string]any{
		"Post": post,
	})
}

// Delete removes the caller's post together with its comments and image.
func (p *Posts) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	post, ok := p.ownedPost(w, r)
	if !ok {
		return
	}

	if err := p.posts.Delete(ctx, post.ID); err != nil {
		serverError(w, "delete post failed", err, "slug", post.Slug)
		return
	}
	p.discardImage(ctx, post.Image)

	slog.Info("post deleted", "post_id", post.ID, "slug", post.Slug)
	p.flash(r, "Post deleted successfully.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ownedPost loads the post named in the URL in any publication state and
// checks that the caller wrote it. It replies 404 for an unknown slug and
// 403 for someone else's post, before any form is read.
func (p *Posts) ownedPost(w http.ResponseWriter, r *http.Request) (*models.Post, bool) {
	slugParam := chi.URLParam(r, "slug")

	post, err := p.posts.FindBySlug(r.Context(), slugParam)
	if err != nil {
		serverError(w, "find post failed", err, "slug", slugParam)
		return nil, false
	}
	if post == nil {
		http.NotFound(w, r)
		return nil, false
	}

	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil || !post.CanModify(sess.UserID) {
		http.Error(w, "You are not allowed to modify this post.", http.StatusForbidden)
		return nil, false
	}
	return post, true
}

// reservedSlugs collide with fixed routes under /post/.
var reservedSlugs = map[string]bool{"new": true}

// slugTaken reports whether a post slug is unavailable.
func (p *Posts) slugTaken(ctx context.Context, s string) (bool, error) {
	if reservedSlugs[s] {
		return true, nil
	}
	return p.posts.SlugExists(ctx, s)
}

// checkCategory records a field error when the selected category does
// not exist. Lookup failures are returned.
func (p *Posts) checkCategory(ctx context.Context, in *postInput) error {
	if in.categoryID == nil {
		return nil
	}
	cat, err := p.categories.FindByID(ctx, *in.categoryID)
	if err != nil {
		return err
	}
	if cat == nil {
		in.errors["category"] = msgInvalidChoice
	}
	return nil
}

func (p *Posts) renderForm(w http.ResponseWriter, r *http.Request, title, action string, form postForm, errs map[string]string) {
	p.render(w, r, http.StatusOK, "post_form", title, map[string]any{
		"Form":   form,
		"Errors": errs,
		"Action": action,
	})
}

func (p *Posts) saveImage(ctx context.Context, img *imageUpload) (string, error) {
	return p.images.Save(ctx, "posts", img.contentType, bytes.NewReader(img.data), int64(len(img.data)))
}

// discardImage removes an image that is no longer referenced. Failures
// only leave an orphaned file behind, so they are logged.
func (p *Posts) discardImage(ctx context.Context, key *string) {
	if key == nil || *key == "" {
		return
	}
	if err := p.images.Delete(ctx, *key); err != nil {
		slog.Warn("delete post image failed", "key", *key, "error", err)
	}
}
