// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "github.com/google/uuid"

// Category groups posts. Name and slug are both unique; the slug is always
// supplied by whoever creates the category.
type Category struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

// URL returns the public listing path for the category.
func (c *Category) URL() string {
	return "/category/" + c.Slug + "/"
}

// Tag is a free-form label attached to posts.
type Tag struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

// URL returns the public listing path for the tag.
func (t *Tag) URL() string {
	return "/tag/" + t.Slug + "/"
}
