// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides in-memory repositories and request helpers
// shared by the handler tests.
package handlers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"quill/internal/middleware"
	"quill/internal/models"
	"quill/internal/render"
	"quill/internal/session"
	"quill/internal/storage"
)

// fakePosts is an in-memory PostRepository.
type fakePosts struct {
	mu    sync.Mutex
	posts []*models.Post
	users map[uuid.UUID]string
}

func (f *fakePosts) published(match func(*models.Post) bool) []models.Post {
	var out []models.Post
	for _, p := range f.posts {
		if p.Published && match(p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakePosts) ListPublished(context.Context) ([]models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.published(func(*models.Post) bool { return true }), nil
}

func (f *fakePosts) ListPublishedByCategory(_ context.Context, id uuid.UUID) ([]models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.published(func(p *models.Post) bool { return p.CategoryID != nil && *p.CategoryID == id }), nil
}

func (f *fakePosts) ListPublishedByTag(_ context.Context, tagSlug string) ([]models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.published(func(p *models.Post) bool {
		for _, t := range p.Tags {
			if t.Slug == tagSlug {
				return true
			}
		}
		return false
	}), nil
}

func (f *fakePosts) SearchPublished(_ context.Context, q string) ([]models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q = strings.ToLower(q)
	return f.published(func(p *models.Post) bool {
		return strings.Contains(strings.ToLower(p.Title), q) || strings.Contains(strings.ToLower(p.Content), q)
	}), nil
}

func (f *fakePosts) FindPublishedBySlug(ctx context.Context, s string) (*models.Post, error) {
	p, _ := f.FindBySlug(ctx, s)
	if p == nil || !p.Published {
		return nil, nil
	}
	return p, nil
}

func (f *fakePosts) FindBySlug(_ context.Context, s string) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.posts {
		if p.Slug == s {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakePosts) SlugExists(ctx context.Context, s string) (bool, error) {
	p, _ := f.FindBySlug(ctx, s)
	return p != nil, nil
}

func (f *fakePosts) Create(_ context.Context, p *models.Post) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	cp.ID = uuid.New()
	cp.CreatedAt = time.Now().Add(time.Duration(len(f.posts)) * time.Second)
	cp.UpdatedAt = cp.CreatedAt
	cp.AuthorName = f.users[cp.AuthorID]
	cp.Tags = withSlugs(p.Tags)
	f.posts = append(f.posts, &cp)
	out := cp
	return &out, nil
}

func (f *fakePosts) Update(_ context.Context, p *models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.posts {
		if existing.ID == p.ID {
			cp := *p
			cp.Tags = withSlugs(p.Tags)
			cp.UpdatedAt = time.Now()
			f.posts[i] = &cp
		}
	}
	return nil
}

func (f *fakePosts) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.posts {
		if p.ID == id {
			f.posts = append(f.posts[:i], f.posts[i+1:]...)
			return nil
		}
	}
	return nil
}

// withSlugs fills tag slugs the way the store does.
func withSlugs(tags []models.Tag) []models.Tag {
	out := make([]models.Tag, len(tags))
	for i, t := range tags {
		out[i] = models.Tag{ID: uuid.New(), Name: t.Name, Slug: strings.ToLower(strings.ReplaceAll(t.Name, " ", "-"))}
	}
	return out
}

// fakeCategories is an in-memory CategoryRepository.
type fakeCategories struct {
	items []models.Category
	err   error // returned by FindByID when set
}

func (f *fakeCategories) List(context.Context) ([]models.Category, error) {
	return f.items, nil
}

func (f *fakeCategories) FindByID(_ context.Context, id uuid.UUID) (*models.Category, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, c := range f.items {
		if c.ID == id {
			cp := c
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeCategories) FindBySlug(_ context.Context, s string) (*models.Category, error) {
	for _, c := range f.items {
		if c.Slug == s {
			cp := c
			return &cp, nil
		}
	}
	return nil, nil
}

// fakeComments is an in-memory CommentRepository.
type fakeComments struct {
	mu    sync.Mutex
	items []models.Comment
}

func (f *fakeComments) Create(_ context.Context, c *models.Comment) (*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *c
	cp.ID = uuid.New()
	cp.Approved = false
	cp.CreatedAt = time.Now()
	f.items = append(f.items, cp)
	return &cp, nil
}

func (f *fakeComments) ListApproved(_ context.Context, postID uuid.UUID) ([]models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Comment
	for _, c := range f.items {
		if c.PostID == postID && c.Approved {
			out = append(out, c)
		}
	}
	return out, nil
}

// fakeUsers is an in-memory UserRepository with plaintext passwords.
type fakeUsers struct {
	users     []models.User
	passwords map[uuid.UUID]string
}

func (f *fakeUsers) add(username, password string) models.User {
	u := models.User{ID: uuid.New(), Username: username, CreatedAt: time.Now()}
	f.users = append(f.users, u)
	if f.passwords == nil {
		f.passwords = make(map[uuid.UUID]string)
	}
	f.passwords[u.ID] = password
	return u
}

func (f *fakeUsers) FindByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			cp := u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) CheckPassword(user *models.User, password string) bool {
	return f.passwords[user.ID] == password
}

// fakeProfiles is an in-memory ProfileRepository.
type fakeProfiles struct {
	mu    sync.Mutex
	items map[uuid.UUID]*models.Profile
	users *fakeUsers
}

func (f *fakeProfiles) GetOrCreate(_ context.Context, userID uuid.UUID) (*models.Profile, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.items == nil {
		f.items = make(map[uuid.UUID]*models.Profile)
	}
	if p, ok := f.items[userID]; ok {
		cp := *p
		return &cp, false, nil
	}
	p := &models.Profile{ID: uuid.New(), UserID: userID, CreatedAt: time.Now()}
	for _, u := range f.users.users {
		if u.ID == userID {
			p.Username = u.Username
		}
	}
	f.items[userID] = p
	cp := *p
	return &cp, true, nil
}

// memImages is an in-memory storage.ImageStore.
type memImages struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memImages) Save(_ context.Context, dir, contentType string, body io.Reader, _ int64) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	key := storage.NewKey(dir, contentType)
	m.objects[key] = data
	return key, nil
}

func (m *memImages) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memImages) URL(key string) string { return "/media/" + key }

// testEnv wires every handler group to fresh in-memory dependencies.
type testEnv struct {
	posts      *fakePosts
	categories *fakeCategories
	comments   *fakeComments
	users      *fakeUsers
	profiles   *fakeProfiles
	images     *memImages
	sessions   *session.Store

	blog     *Blog
	editor   *Posts
	accounts *Accounts
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	env := &testEnv{
		posts:      &fakePosts{users: make(map[uuid.UUID]string)},
		categories: &fakeCategories{},
		comments:   &fakeComments{},
		users:      &fakeUsers{},
		images:     &memImages{},
		sessions:   session.NewStore(client, false),
	}
	env.profiles = &fakeProfiles{users: env.users}

	renderer, err := render.New(env.images.URL)
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	env.blog = NewBlog(renderer, env.sessions, env.posts, env.categories, env.comments)
	env.editor = NewPosts(renderer, env.sessions, env.posts, env.categories, env.images)
	env.accounts = NewAccounts(renderer, env.sessions, env.categories, env.users, env.profiles)
	return env
}

// signIn registers a user and returns a stored session for them.
func (e *testEnv) signIn(t *testing.T, username string) *session.Data {
	t.Helper()
	u := e.users.add(username, "secret")
	e.posts.users[u.ID] = username

	sess := &session.Data{UserID: u.ID, Username: username}
	if _, err := e.sessions.Create(context.Background(), httptest.NewRecorder(), sess); err != nil {
		t.Fatalf("create session: %v", err)
	}
	return sess
}

// addPost stores a post directly.
func (e *testEnv) addPost(t *testing.T, p models.Post) *models.Post {
	t.Helper()
	created, err := e.posts.Create(context.Background(), &p)
	if err != nil {
		t.Fatalf("add post: %v", err)
	}
	return created
}

// newRequest builds a request with chi URL params and an optional session
// already loaded into the context, as the router middleware would.
func newRequest(method, target string, body io.Reader, sess *session.Data, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, body)

	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if sess != nil {
		ctx = context.WithValue(ctx, middleware.SessionKey, sess)
	}
	return req.WithContext(ctx)
}

// formRequest builds a url-encoded POST.
func formRequest(target string, form url.Values, sess *session.Data, params map[string]string) *http.Request {
	req := newRequest(http.MethodPost, target, strings.NewReader(form.Encode()), sess, params)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// multipartRequest builds a multipart POST with an optional image file.
func multipartRequest(t *testing.T, target string, fields url.Values, image []byte, sess *session.Data, params map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, vs := range fields {
		for _, v := range vs {
			mw.WriteField(k, v)
		}
	}
	if image != nil {
		fw, err := mw.CreateFormFile("image", "upload.png")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		fw.Write(image)
	}
	mw.Close()

	req := newRequest(http.MethodPost, target, &buf, sess, params)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// pngHeader is enough of a PNG for content sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
