// Package router sets up all HTTP routes and middleware chains for Quill.
// It separates the unauthenticated infrastructure endpoints from the site
// pages, which carry sessions and CSRF protection.
package router

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"quill/internal/handlers"
	"quill/internal/middleware"
	"quill/internal/session"
	"quill/web"
)

// Deps collects everything the router wires together.
type Deps struct {
	Sessions *session.Store
	Blog     *handlers.Blog
	Posts    *handlers.Posts
	Accounts *handlers.Accounts

	// MediaRoot is served under /media/ when uploads are kept on local
	// disk. Empty disables the route.
	MediaRoot string

	SecureCookies bool

	// LoginLimiter throttles sign-in submissions per client IP. Nil
	// disables throttling.
	LoginLimiter *middleware.RateLimiter

	// TrustProxy takes the client address from X-Forwarded-For or
	// X-Real-IP. Only enable it behind a proxy that sets those headers.
	TrustProxy bool
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	if d.TrustProxy {
		r.Use(chimw.RealIP)
	}
	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(middleware.Logger)
	r.Use(middleware.NewSecureHeaders(d.SecureCookies))

	// Infrastructure: no session, no CSRF.
	r.Get("/health", healthHandler)
	r.Handle("/metrics", promhttp.Handler())

	staticFS, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		panic(err) // embedded tree is fixed at build time
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	if d.MediaRoot != "" {
		r.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(d.MediaRoot))))
	}

	// Site pages. The body limit runs first so CSRF never parses an
	// oversized form.
	r.Group(func(r chi.Router) {
		r.Use(middleware.LimitBody(handlers.MaxUploadBody))
		r.Use(middleware.LoadSession(d.Sessions))
		r.Use(middleware.NewCSRF(d.SecureCookies))

		r.Get("/", d.Blog.PostList)
		r.Get("/search/", d.Blog.Search)
		r.Get("/category/{slug}/", d.Blog.PostsByCategory)
		r.Get("/tag/{slug}/", d.Blog.PostsByTag)

		r.Get("/accounts/profile/{username}/", d.Accounts.Profile)
		r.Get("/accounts/login/", d.Accounts.LoginPage)
		r.With(loginThrottle(d.LoginLimiter)).Post("/accounts/login/", d.Accounts.LoginSubmit)
		r.Post("/accounts/logout/", d.Accounts.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Get("/accounts/login-redirect/", d.Accounts.LoginRedirect)

			r.Get("/post/new/", d.Posts.New)
			r.Post("/post/new/", d.Posts.Create)
			r.Get("/post/{slug}/edit/", d.Posts.Edit)
			r.Post("/post/{slug}/edit/", d.Posts.Update)
			r.Get("/post/{slug}/delete/", d.Posts.DeleteConfirm)
			r.Post("/post/{slug}/delete/", d.Posts.Delete)
		})

		r.Get("/post/{slug}/", d.Blog.PostDetail)
		r.Post("/post/{slug}/", d.Blog.CommentCreate)
	})

	return r
}

// loginThrottle returns the limiter middleware, or a pass-through when
// throttling is off.
func loginThrottle(rl *middleware.RateLimiter) func(http.Handler) http.Handler {
	if rl == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return rl.Middleware
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
