// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Post is a blog entry. Only published posts are visible on public pages;
// only the author may change or delete it.
type Post struct {
	ID         uuid.UUID  `json:"id"`
	Title      string     `json:"title"`
	Slug       string     `json:"slug"`
	AuthorID   uuid.UUID  `json:"author_id"`
	CategoryID *uuid.UUID `json:"category_id,omitempty"`
	Content    string     `json:"content"`
	Image      *string    `json:"image,omitempty"` // storage key
	Published  bool       `json:"published"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// Virtual fields populated by store methods.
	AuthorName string    `json:"author_name,omitempty"`
	Category   *Category `json:"category,omitempty"`
	Tags       []Tag     `json:"tags,omitempty"`
}

// URL returns the public detail path for the post.
func (p *Post) URL() string {
	return "/post/" + p.Slug + "/"
}

// CanModify reports whether the given user may edit or delete the post.
// Ownership is the only rule: the actor must be the post's author.
func (p *Post) CanModify(actorID uuid.UUID) bool {
	return actorID != uuid.Nil && actorID == p.AuthorID
}

// TagNames returns the names of the post's tags in display order.
func (p *Post) TagNames() []string {
	names := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		names = append(names, t.Name)
	}
	return names
}

// Comment is a reader's response to a post. New comments start unapproved
// and stay hidden until a moderator approves them.
type Comment struct {
	ID        uuid.UUID `json:"id"`
	PostID    uuid.UUID `json:"post_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Content   string    `json:"content"`
	Approved  bool      `json:"approved"`
	CreatedAt time.Time `json:"created_at"`

	// Virtual fields populated by store methods.
	AuthorName string `json:"author_name,omitempty"`
	PostTitle  string `json:"post_title,omitempty"`
}
