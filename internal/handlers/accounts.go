package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"quill/internal/middleware"
	"quill/internal/render"
	"quill/internal/session"
)

// loginRedirectPath is where a sign-in without "next" lands.
const loginRedirectPath = "/accounts/login-redirect/"

// Accounts groups profile pages and the sign-in entry point.
type Accounts struct {
	site
	users    UserRepository
	profiles ProfileRepository
}

// NewAccounts creates a new Accounts handler group.
func NewAccounts(renderer *render.Renderer, sessions *session.Store, categories CategoryRepository, users UserRepository, profiles ProfileRepository) *Accounts {
	return &Accounts{
		site:     site{renderer: renderer, sessions: sessions, categories: categories},
		users:    users,
		profiles: profiles,
	}
}

// Profile renders a user's profile, creating an empty one on first view.
func (a *Accounts) Profile(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	user, err := a.users.FindByUsername(r.Context(), username)
	if err != nil {
		serverError(w, "find user failed", err, "username", username)
		return
	}
	if user == nil {
		http.NotFound(w, r)
		return
	}

	profile, created, err := a.profiles.GetOrCreate(r.Context(), user.ID)
	if err != nil {
		serverError(w, "get or create profile failed", err, "username", username)
		return
	}
	if created {
		slog.Info("profile created", "username", username)
	}

	a.render(w, r, http.StatusOK, "profile_detail", user.Username, map[string]any{
		"Profile": profile,
	})
}

// LoginRedirect sends a freshly signed-in user to their own profile.
func (a *Accounts) LoginRedirect(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	http.Redirect(w, r, profilePath(sess.Username), http.StatusSeeOther)
}

// LoginPage renders the sign-in form.
func (a *Accounts) LoginPage(w http.ResponseWriter, r *http.Request) {
	next := safeNext(r.URL.Query().Get("next"))
	if middleware.SessionFromCtx(r.Context()) != nil {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	a.renderLogin(w, r, next, "", "")
}

// LoginSubmit checks the credentials, starts a session and continues to
// the page the visitor originally asked for.
func (a *Accounts) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	next := safeNext(r.FormValue("next"))

	user, err := a.users.FindByUsername(r.Context(), username)
	if err != nil {
		serverError(w, "login lookup failed", err)
		return
	}
	if user == nil || !a.users.CheckPassword(user, password) {
		slog.Info("login failed", "username", username)
		a.renderLogin(w, r, next, username, "Please enter a correct username and password.")
		return
	}

	// Drop any previous session before issuing a new one.
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Warn("destroy previous session failed", "error", err)
	}
	if _, err := a.sessions.Create(r.Context(), w, &session.Data{
		UserID:   user.ID,
		Username: user.Username,
	}); err != nil {
		serverError(w, "session create failed", err)
		return
	}

	slog.Info("login", "username", user.Username)
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// Logout ends the session and returns to the post list.
func (a *Accounts) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Error("session destroy failed", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *Accounts) renderLogin(w http.ResponseWriter, r *http.Request, next, username, errMsg string) {
	a.render(w, r, http.StatusOK, "login", "Sign In", map[string]any{
		"Next":     next,
		"Username": username,
		"Error":    errMsg,
	})
}

// profilePath returns the public profile URL of a user.
func profilePath(username string) string {
	return "/accounts/profile/" + url.PathEscape(username) + "/"
}

// safeNext returns next when it is a local path, or the post-login
// dispatch page otherwise. It refuses scheme-relative and absolute URLs.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") ||
		strings.HasPrefix(next, "//") || strings.HasPrefix(next, `/\`) {
		return loginRedirectPath
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return loginRedirectPath
	}
	return next
}
