package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// testStore returns a Store backed by an in-process miniredis server.
func testStore(t *testing.T, secure bool) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewStore(client, secure), mr
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	t.Fatal("expected session cookie to be set")
	return nil
}

func TestSessionCreateAndGet(t *testing.T) {
	store, _ := testStore(t, false)
	w := httptest.NewRecorder()
	ctx := context.Background()

	data := &Data{UserID: uuid.New(), Username: "alice"}

	sessionID, err := store.Create(ctx, w, data)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sessionID == "" {
		t.Error("expected non-empty session ID")
	}

	cookie := sessionCookie(t, w)
	if !cookie.HttpOnly {
		t.Error("expected HttpOnly cookie")
	}
	if cookie.Secure {
		t.Error("expected Secure=false for non-secure store")
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(cookie)

	retrieved, err := store.Get(ctx, req)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if retrieved == nil {
		t.Fatal("expected session data, got nil")
	}
	if retrieved.UserID != data.UserID {
		t.Errorf("userID: got %s, want %s", retrieved.UserID, data.UserID)
	}
	if retrieved.Username != "alice" {
		t.Errorf("username: got %q, want %q", retrieved.Username, "alice")
	}
	if retrieved.ID != sessionID {
		t.Errorf("id: got %q, want %q", retrieved.ID, sessionID)
	}
}

func TestSessionGetNoCookie(t *testing.T) {
	store, _ := testStore(t, false)

	data, err := store.Get(context.Background(), httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatalf("Get (no cookie): %v", err)
	}
	if data != nil {
		t.Error("expected nil for request without session cookie")
	}
}

func TestSessionExpires(t *testing.T) {
	store, mr := testStore(t, false)
	w := httptest.NewRecorder()
	ctx := context.Background()

	if _, err := store.Create(ctx, w, &Data{UserID: uuid.New(), Username: "bob"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	mr.FastForward(DefaultTTL + 1)

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(sessionCookie(t, w))
	data, err := store.Get(ctx, req)
	if err != nil {
		t.Fatalf("Get (expired): %v", err)
	}
	if data != nil {
		t.Error("expected nil for expired session")
	}
}

func TestSessionDestroy(t *testing.T) {
	store, mr := testStore(t, false)
	w := httptest.NewRecorder()
	ctx := context.Background()

	id, _ := store.Create(ctx, w, &Data{UserID: uuid.New(), Username: "carol"})
	store.AddFlash(ctx, id, "hello")

	w2 := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/accounts/logout/", nil)
	req.AddCookie(sessionCookie(t, w))

	if err := store.Destroy(ctx, w2, req); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if c := sessionCookie(t, w2); c.MaxAge != -1 {
		t.Error("expected MaxAge=-1 on destroyed cookie")
	}
	if retrieved, _ := store.Get(ctx, req); retrieved != nil {
		t.Error("expected nil after destroy")
	}
	if mr.Exists(flashPrefix + id) {
		t.Error("expected flashes to be removed with the session")
	}
}

func TestSessionDestroyNoCookie(t *testing.T) {
	store, _ := testStore(t, false)

	err := store.Destroy(context.Background(), httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Errorf("Destroy (no cookie): %v", err)
	}
}

func TestSessionSecureCookie(t *testing.T) {
	store, _ := testStore(t, true)
	w := httptest.NewRecorder()

	store.Create(context.Background(), w, &Data{UserID: uuid.New(), Username: "dave"})

	if !sessionCookie(t, w).Secure {
		t.Error("expected Secure=true for secure store")
	}
}

func TestFlashes(t *testing.T) {
	store, _ := testStore(t, false)
	ctx := context.Background()

	if err := store.AddFlash(ctx, "abc", "first"); err != nil {
		t.Fatalf("AddFlash: %v", err)
	}
	store.AddFlash(ctx, "abc", "second")

	got, err := store.PopFlashes(ctx, "abc")
	if err != nil {
		t.Fatalf("PopFlashes: %v", err)
	}
	if len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Errorf("flashes: got %v, want [first second]", got)
	}

	got, err = store.PopFlashes(ctx, "abc")
	if err != nil {
		t.Fatalf("PopFlashes (again): %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected flashes to be consumed, got %v", got)
	}
}
