// Package posts merges the built-in seed posts with the custom posts a
// profile has authored, and owns create, update and delete of the latter.
package posts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/devemco/folio/blog"
	"github.com/devemco/folio/engagement"
	"github.com/devemco/folio/storage"
)

// CustomPostsKey is appended to the namespace to form the key holding the
// JSON array of custom posts.
const CustomPostsKey = "customPosts"

var (
	ErrNotFound  = errors.New("post not found")
	ErrNotCustom = errors.New("seed posts are read-only")
)

// Store is the merged post list of one profile.
type Store struct {
	kv     storage.KV
	key    string
	seed   []blog.Post
	eng    *engagement.Store
	now    func() time.Time
	log    *slog.Logger
	posts  []blog.Post
	loaded bool
}

type Option func(*Store)

// WithNamespace overrides engagement.DefaultNamespace for the custom posts key.
func WithNamespace(ns string) Option {
	return func(s *Store) { s.key = ns + CustomPostsKey }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New returns a Store. Deleting a custom post also resets its engagement
// through eng.
func New(kv storage.KV, seed []blog.Post, eng *engagement.Store, opts ...Option) *Store {
	s := &Store{
		kv:   kv,
		key:  engagement.DefaultNamespace + CustomPostsKey,
		seed: seed,
		eng:  eng,
		now:  time.Now,
		log:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load merges the seed posts with stored custom posts and keeps the result.
// Slugs are first-writer-wins: seed posts, then custom posts in stored order.
// Custom entries that do not decode or lack a slug are skipped.
func (s *Store) Load(ctx context.Context) ([]blog.Post, error) {
	stored, err := s.readStored(ctx)
	if err != nil {
		return nil, err
	}
	merged := make([]blog.Post, 0, len(s.seed)+len(stored))
	seen := make(map[string]struct{}, cap(merged))
	add := func(p blog.Post) bool {
		if _, dup := seen[p.Slug]; dup {
			return false
		}
		seen[p.Slug] = struct{}{}
		merged = append(merged, p)
		return true
	}
	for _, p := range s.seed {
		add(p.Clone())
	}
	for _, p := range stored {
		if !add(p) {
			s.log.Warn("custom post skipped: slug already in use", "slug", p.Slug)
		}
	}
	s.posts = merged
	s.loaded = true
	return s.All(), nil
}

func (s *Store) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	_, err := s.Load(ctx)
	return err
}

// readStored decodes the custom post list. Corrupt data reads as empty.
func (s *Store) readStored(ctx context.Context) ([]blog.Post, error) {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("posts: read %s: %w", s.key, err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		s.log.Warn("custom posts unreadable, treating as empty", "key", s.key, "error", err)
		return nil, nil
	}
	out := make([]blog.Post, 0, len(entries))
	for i, entry := range entries {
		var p blog.Post
		if err := json.Unmarshal(entry, &p); err != nil {
			s.log.Warn("custom post skipped: malformed", "index", i, "error", err)
			continue
		}
		p.Slug = strings.TrimSpace(p.Slug)
		if p.Slug == "" {
			s.log.Warn("custom post skipped: missing slug", "index", i)
			continue
		}
		p.Custom = true
		out = append(out, p)
	}
	return out, nil
}

func (s *Store) writeStored(ctx context.Context, stored []blog.Post) error {
	if stored == nil {
		stored = []blog.Post{}
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("posts: encode custom posts: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, string(data)); err != nil {
		return fmt.Errorf("posts: write %s: %w", s.key, err)
	}
	return nil
}

// All returns copies of the merged posts in load order.
func (s *Store) All() []blog.Post {
	out := make([]blog.Post, len(s.posts))
	for i, p := range s.posts {
		out[i] = p.Clone()
	}
	return out
}

// Get returns the post with slug.
func (s *Store) Get(slug string) (blog.Post, bool) {
	if i := s.index(slug); i >= 0 {
		return s.posts[i].Clone(), true
	}
	return blog.Post{}, false
}

// Customs returns the custom posts of the merged list.
func (s *Store) Customs() []blog.Post {
	var out []blog.Post
	for _, p := range s.posts {
		if p.Custom {
			out = append(out, p.Clone())
		}
	}
	return out
}

func (s *Store) index(slug string) int {
	for i, p := range s.posts {
		if p.Slug == slug {
			return i
		}
	}
	return -1
}

// Create normalizes d into a new custom post, persists it and appends it to
// the merged list.
func (s *Store) Create(ctx context.Context, d blog.Draft) (blog.Post, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return blog.Post{}, err
	}
	p, err := blog.Normalize(d, blog.NormalizeOptions{
		Now: s.now,
		CheckSlug: func(slug string) error {
			if s.index(slug) >= 0 {
				return blog.ErrSlugTaken
			}
			return nil
		},
	})
	if err != nil {
		return blog.Post{}, err
	}
	stored, err := s.readStored(ctx)
	if err != nil {
		return blog.Post{}, err
	}
	if err := s.writeStored(ctx, append(stored, p)); err != nil {
		return blog.Post{}, err
	}
	s.posts = append(s.posts, p)
	return p.Clone(), nil
}

// Update replaces the custom post slug with d. The draft must keep the slug.
// Without an explicit updatedAt the post is stamped with the current time.
func (s *Store) Update(ctx context.Context, slug string, d blog.Draft) (blog.Post, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return blog.Post{}, err
	}
	i := s.index(slug)
	if i < 0 {
		return blog.Post{}, ErrNotFound
	}
	existing := s.posts[i]
	if !existing.Custom {
		return blog.Post{}, ErrNotCustom
	}
	// The submitted slug must name the post as is, not just slugify to it.
	raw, _ := d["slug"].(string)
	raw = strings.TrimSpace(raw)
	p, err := blog.Normalize(d, blog.NormalizeOptions{
		Now: s.now,
		CheckSlug: func(got string) error {
			if got != slug || raw != slug {
				return blog.ErrSlugChanged
			}
			return nil
		},
	})
	if err != nil {
		return blog.Post{}, err
	}
	if !present(d, "id") {
		p.ID = existing.ID
	}
	if !present(d, "updatedAt") {
		p.UpdatedAt = s.now().UTC()
	}

	stored, err := s.readStored(ctx)
	if err != nil {
		return blog.Post{}, err
	}
	replaced := false
	for j := range stored {
		if stored[j].Slug == slug {
			stored[j] = p
			replaced = true
			break
		}
	}
	if !replaced {
		stored = append(stored, p)
	}
	if err := s.writeStored(ctx, stored); err != nil {
		return blog.Post{}, err
	}
	s.posts[i] = p
	return p.Clone(), nil
}

// Delete removes the custom post slug from storage and from the merged list
// and resets its engagement record.
func (s *Store) Delete(ctx context.Context, slug string) error {
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}
	i := s.index(slug)
	if i < 0 {
		return ErrNotFound
	}
	if !s.posts[i].Custom {
		return ErrNotCustom
	}
	stored, err := s.readStored(ctx)
	if err != nil {
		return err
	}
	kept := stored[:0]
	for _, p := range stored {
		if p.Slug != slug {
			kept = append(kept, p)
		}
	}
	if err := s.writeStored(ctx, kept); err != nil {
		return err
	}
	if s.eng != nil {
		if err := s.eng.Reset(ctx, slug); err != nil {
			return err
		}
	}
	s.posts = append(s.posts[:i], s.posts[i+1:]...)
	return nil
}

func present(d blog.Draft, field string) bool {
	v, ok := d[field].(string)
	return ok && strings.TrimSpace(v) != ""
}
