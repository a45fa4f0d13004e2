// Package main provides quillctl, the out-of-band administration tool for
// Quill: creating users, managing categories and moderating comments.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"quill/internal/cache"
	"quill/internal/config"
	"quill/internal/database"
	"quill/internal/models"
	"quill/internal/slug"
	"quill/internal/store"
)

const usage = `Usage:
  quillctl users add <username> <email>     - Create a user (password read from stdin)
  quillctl categories list                  - List categories
  quillctl categories add <slug> <name...>  - Create a category
  quillctl categories delete <slug>         - Delete a category (its posts become uncategorized)
  quillctl comments pending                 - List comments awaiting moderation
  quillctl comments approve <comment_id>    - Approve a comment`

var errUsage = errors.New("invalid usage")

type userCreator interface {
	Create(ctx context.Context, username, email, password string) (*models.User, error)
}

type categoryAdmin interface {
	List(ctx context.Context) ([]models.Category, error)
	Create(ctx context.Context, c *models.Category) (*models.Category, error)
	Delete(ctx context.Context, slug string) (bool, error)
}

type commentModerator interface {
	ListPending(ctx context.Context) ([]models.Comment, error)
	Approve(ctx context.Context, id uuid.UUID) (bool, error)
}

// app runs one quillctl command against its stores.
type app struct {
	users      userCreator
	categories categoryAdmin
	comments   commentModerator

	// invalidateMenu drops the cached category menu. Nil when Valkey is
	// unreachable; the cache then expires on its own.
	invalidateMenu func(ctx context.Context) error

	in  io.Reader
	out io.Writer
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	a := &app{
		users:      store.NewUserStore(db),
		categories: store.NewCategoryStore(db),
		comments:   store.NewCommentStore(db),
		in:         os.Stdin,
		out:        os.Stdout,
	}

	if client, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword); err != nil {
		slog.Warn("valkey unavailable, category menu refreshes on expiry", "error", err)
	} else {
		defer client.Close()
		a.invalidateMenu = cache.NewCategories(store.NewCategoryStore(db), client, 0).Invalidate
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Println(usage)
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		cancel()
		os.Exit(1)
	}
}

// run dispatches a command line such as ["categories", "add", "go", "Go"].
func (a *app) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage
	}

	switch args[0] + " " + args[1] {
	case "users add":
		if len(args) != 4 {
			return errUsage
		}
		return a.addUser(ctx, args[2], args[3])
	case "categories list":
		return a.listCategories(ctx)
	case "categories add":
		if len(args) < 4 {
			return errUsage
		}
		return a.addCategory(ctx, args[2], strings.Join(args[3:], " "))
	case "categories delete":
		if len(args) != 3 {
			return errUsage
		}
		return a.deleteCategory(ctx, args[2])
	case "comments pending":
		return a.listPending(ctx)
	case "comments approve":
		if len(args) != 3 {
			return errUsage
		}
		return a.approveComment(ctx, args[2])
	default:
		return errUsage
	}
}

func (a *app) addUser(ctx context.Context, username, email string) error {
	password, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read password: %w", err)
	}
	password = strings.TrimRight(password, "\r\n")
	if password == "" {
		return errors.New("password must not be empty")
	}

	u, err := a.users.Create(ctx, username, email, password)
	if errors.Is(err, store.ErrConflict) {
		return fmt.Errorf("user %q already exists", username)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created user %s (%s)\n", u.Username, u.ID)
	return nil
}

func (a *app) listCategories(ctx context.Context) error {
	cats, err := a.categories.List(ctx)
	if err != nil {
		return err
	}
	if len(cats) == 0 {
		fmt.Fprintln(a.out, "No categories")
		return nil
	}
	for _, c := range cats {
		fmt.Fprintf(a.out, "%-30s %s\n", c.Slug, c.Name)
	}
	return nil
}

// addCategory creates a category. Its slug is given explicitly and never
// derived from the name.
func (a *app) addCategory(ctx context.Context, s, name string) error {
	if !slug.Valid(s) {
		return fmt.Errorf("invalid slug %q: use letters, digits, hyphens or underscores", s)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("category name must not be empty")
	}

	c, err := a.categories.Create(ctx, &models.Category{Name: name, Slug: s})
	if errors.Is(err, store.ErrConflict) {
		return fmt.Errorf("a category named %q or with slug %q already exists", name, s)
	}
	if err != nil {
		return err
	}
	a.refreshMenu(ctx)
	fmt.Fprintf(a.out, "Created category %s (%s)\n", c.Name, c.Slug)
	return nil
}

func (a *app) deleteCategory(ctx context.Context, s string) error {
	ok, err := a.categories.Delete(ctx, s)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("category %q not found", s)
	}
	a.refreshMenu(ctx)
	fmt.Fprintf(a.out, "Deleted category %s\n", s)
	return nil
}

func (a *app) refreshMenu(ctx context.Context) {
	if a.invalidateMenu == nil {
		return
	}
	if err := a.invalidateMenu(ctx); err != nil {
		slog.Warn("category menu invalidation failed", "error", err)
	}
}

func (a *app) listPending(ctx context.Context) error {
	comments, err := a.comments.ListPending(ctx)
	if err != nil {
		return err
	}
	if len(comments) == 0 {
		fmt.Fprintln(a.out, "No comments awaiting moderation")
		return nil
	}
	for _, c := range comments {
		fmt.Fprintf(a.out, "%s  %s on %q (%s)\n    %s\n",
			c.ID, c.AuthorName, c.PostTitle, c.CreatedAt.Format(time.DateTime), c.Content)
	}
	return nil
}

func (a *app) approveComment(ctx context.Context, rawID string) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid comment id %q", rawID)
	}
	ok, err := a.comments.Approve(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("comment %s not found", id)
	}
	fmt.Fprintf(a.out, "Approved comment %s\n", id)
	return nil
}
