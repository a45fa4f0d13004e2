// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account that can sign in, author posts and comment.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize the hash
	CreatedAt    time.Time `json:"created_at"`
}

// Profile holds the public-facing details of a user. Exactly one exists per
// user, created on first view.
type Profile struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	Bio       string    `json:"bio"`
	Avatar    *string   `json:"avatar,omitempty"` // storage key
	CreatedAt time.Time `json:"created_at"`
}
