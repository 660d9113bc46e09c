// Package blog holds the post content model: posts, typed content blocks,
// comments, draft normalization and the pure view derivations computed from
// them.
package blog

import (
	"slices"
	"time"
)

// Post is one blog article. Seed posts ship with the binary; custom posts are
// created through the manage console and stored per profile.
type Post struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Cover       *Cover    `json:"cover,omitempty"`
	Category    Category  `json:"category"`
	Tags        []string  `json:"tags"`
	Author      Author    `json:"author"`
	PublishedAt time.Time `json:"publishedAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	SEO         SEO       `json:"seo"`
	Hero        *Hero     `json:"hero,omitempty"`
	Stats       Stats     `json:"stats"`
	Content     Content   `json:"content"`

	// Custom marks posts that came from profile storage rather than the seed set.
	Custom bool `json:"-"`
}

// Cover is the optional header image of a post.
type Cover struct {
	Src string `json:"src"`
	Alt string `json:"alt"`
}

// Category is the single category a post belongs to.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Author struct {
	Name  string `json:"name"`
	Title string `json:"title,omitempty"`
}

type SEO struct {
	Description string   `json:"description"`
	Keywords    []string `json:"keywords,omitempty"`
}

type Hero struct {
	Kicker  string `json:"kicker,omitempty"`
	Summary string `json:"summary,omitempty"`
}

// Stats are the seed engagement counters. Local interaction adds to them at
// render time and never writes them back.
type Stats struct {
	BaseLikes  int `json:"baseLikes"`
	BaseShares int `json:"baseShares"`
}

// Comment is a reader comment kept in a profile's engagement record.
type Comment struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Link returns the detail page path for the post.
func (p Post) Link() string {
	return PostPath(p.Slug)
}

// Modified returns UpdatedAt, falling back to PublishedAt when unset.
func (p Post) Modified() time.Time {
	if p.UpdatedAt.IsZero() {
		return p.PublishedAt
	}
	return p.UpdatedAt
}

// Clone returns a deep copy so callers can hand posts out without sharing
// slices with the store.
func (p Post) Clone() Post {
	out := p
	if p.Cover != nil {
		c := *p.Cover
		out.Cover = &c
	}
	if p.Hero != nil {
		h := *p.Hero
		out.Hero = &h
	}
	out.Tags = slices.Clone(p.Tags)
	out.SEO.Keywords = slices.Clone(p.SEO.Keywords)
	out.Content = p.Content.Clone()
	return out
}
