package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"quill/internal/middleware"
	"quill/internal/models"
	"quill/internal/render"
	"quill/internal/session"
)

// Blog groups the public handlers: listings, search, post pages and
// comment submission.
type Blog struct {
	site
	posts    PostRepository
	comments CommentRepository
}

// NewBlog creates a new Blog handler group.
func NewBlog(renderer *render.Renderer, sessions *session.Store, posts PostRepository, categories CategoryRepository, comments CommentRepository) *Blog {
	return &Blog{
		site:     site{renderer: renderer, sessions: sessions, categories: categories},
		posts:    posts,
		comments: comments,
	}
}

// PostList renders every published post, newest first.
func (b *Blog) PostList(w http.ResponseWriter, r *http.Request) {
	posts, err := b.posts.ListPublished(r.Context())
	if err != nil {
		serverError(w, "list posts failed", err)
		return
	}
	b.renderList(w, r, "Posts", "", posts)
}

// PostsByCategory renders the published posts of one category.
func (b *Blog) PostsByCategory(w http.ResponseWriter, r *http.Request) {
	slugParam := chi.URLParam(r, "slug")

	cat, err := b.categories.FindBySlug(r.Context(), slugParam)
	if err != nil {
		serverError(w, "find category failed", err, "slug", slugParam)
		return
	}
	if cat == nil {
		http.NotFound(w, r)
		return
	}

	posts, err := b.posts.ListPublishedByCategory(r.Context(), cat.ID)
	if err != nil {
		serverError(w, "list posts by category failed", err, "slug", slugParam)
		return
	}
	b.renderList(w, r, cat.Name, "category:"+cat.Name, posts)
}

// PostsByTag renders the published posts carrying a tag. An unknown tag
// gives an empty listing rather than 404.
func (b *Blog) PostsByTag(w http.ResponseWriter, r *http.Request) {
	tagSlug := chi.URLParam(r, "slug")

	posts, err := b.posts.ListPublishedByTag(r.Context(), tagSlug)
	if err != nil {
		serverError(w, "list posts by tag failed", err, "tag", tagSlug)
		return
	}
	b.renderList(w, r, "Tag "+tagSlug, "Tag "+tagSlug, posts)
}

// Search renders published posts whose title or content contains q.
func (b *Blog) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))

	posts, err := b.posts.SearchPublished(r.Context(), q)
	if err != nil {
		serverError(w, "search posts failed", err, "q", q)
		return
	}
	title := `Search results for "` + q + `"`
	b.render(w, r, http.StatusOK, "post_list", title, map[string]any{
		"Posts":       posts,
		"FilterTitle": title,
		"Query":       q,
	})
}

func (b *Blog) renderList(w http.ResponseWriter, r *http.Request, title, filterTitle string, posts []models.Post) {
	b.render(w, r, http.StatusOK, "post_list", title, map[string]any{
		"Posts":       posts,
		"FilterTitle": filterTitle,
	})
}

// PostDetail renders a published post with its approved comments. Drafts
// are not found for everyone, including their author.
func (b *Blog) PostDetail(w http.ResponseWriter, r *http.Request) {
	post, ok := b.publishedPost(w, r)
	if !ok {
		return
	}
	b.renderDetail(w, r, post, "", "")
}

// CommentCreate stores a comment for moderation. Anonymous visitors are
// sent to sign in first.
func (b *Blog) CommentCreate(w http.ResponseWriter, r *http.Request) {
	post, ok := b.publishedPost(w, r)
	if !ok {
		return
	}

	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Redirect(w, r, middleware.LoginURL(post.URL()), http.StatusSeeOther)
		return
	}

	content := strings.TrimSpace(r.FormValue("content"))
	if content == "" {
		b.renderDetail(w, r, post, content, "This field is required.")
		return
	}

	comment, err := b.comments.Create(r.Context(), &models.Comment{
		PostID:   post.ID,
		AuthorID: sess.UserID,
		Content:  content,
	})
	if err != nil {
		serverError(w, "create comment failed", err, "post", post.Slug)
		return
	}
	slog.Info("comment submitted", "comment_id", comment.ID, "post", post.Slug, "user", sess.Username)

	b.flash(r, "Your comment is awaiting moderation.")
	http.Redirect(w, r, post.URL(), http.StatusSeeOther)
}

// publishedPost loads the post named in the URL, replying 404 when it does
// not exist or is not published.
func (b *Blog) publishedPost(w http.ResponseWriter, r *http.Request) (*models.Post, bool) {
	slugParam := chi.URLParam(r, "slug")

	post, err := b.posts.FindPublishedBySlug(r.Context(), slugParam)
	if err != nil {
		serverError(w, "find post failed", err, "slug", slugParam)
		return nil, false
	}
	if post == nil {
		http.NotFound(w, r)
		return nil, false
	}
	return post, true
}

func (b *Blog) renderDetail(w http.ResponseWriter, r *http.Request, post *models.Post, commentContent, commentError string) {
	comments, err := b.comments.ListApproved(r.Context(), post.ID)
	if err != nil {
		serverError(w, "list comments failed", err, "post", post.Slug)
		return
	}

	canModify := false
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil {
		canModify = post.CanModify(sess.UserID)
	}

	b.render(w, r, http.StatusOK, "post_detail", post.Title, map[string]any{
		"Post":           post,
		"Comments":       comments,
		"CanModify":      canModify,
		"CommentContent": commentContent,
		"CommentError":   commentError,
	})
}
