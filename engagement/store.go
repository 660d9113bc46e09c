// Package engagement keeps per-post interaction state for one profile: the
// liked and bookmarked flags, a share counter and the comment thread.
package engagement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/devemco/folio/blog"
	"github.com/devemco/folio/storage"
)

// DefaultNamespace prefixes every key the store writes.
const DefaultNamespace = "devemco:blog:"

// Comment length bounds, counted in characters after trimming.
const (
	MinCommentLength = 12
	MaxCommentLength = 1200
)

// AnonymousName replaces a blank comment author.
const AnonymousName = "Anonymous"

var (
	ErrCommentTooShort = fmt.Errorf("comment must be at least %d characters", MinCommentLength)
	ErrCommentTooLong  = fmt.Errorf("comment must be at most %d characters", MaxCommentLength)
	ErrCommentNotFound = errors.New("comment not found")
)

// Kind names one of the four per-post values.
type Kind string

const (
	KindLiked      Kind = "liked"
	KindBookmarked Kind = "bookmarked"
	KindShared     Kind = "shared"
	KindComments   Kind = "comments"
)

// Kinds lists every per-post kind.
var Kinds = []Kind{KindLiked, KindBookmarked, KindShared, KindComments}

// Record is the full engagement state of one post.
type Record struct {
	Liked      bool           `json:"liked"`
	Bookmarked bool           `json:"bookmarked"`
	Shares     int            `json:"shares"`
	Comments   []blog.Comment `json:"comments"`
}

// Counts are the totals displayed for a post: seed counters plus local state.
type Counts struct {
	Likes    int
	Shares   int
	Comments int
}

// Summary aggregates engagement across posts for the manage console.
type Summary struct {
	Liked      int
	Bookmarked int
	Comments   int
	Shares     int
}

// Store reads and writes engagement keys in one profile's key space.
type Store struct {
	kv    storage.KV
	ns    string
	now   func() time.Time
	newID func() string
}

// Option configures a Store.
type Option func(*Store)

// WithNamespace overrides DefaultNamespace.
func WithNamespace(ns string) Option {
	return func(s *Store) { s.ns = ns }
}

// WithClock overrides time.Now for comment timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns a Store over kv.
func New(kv storage.KV, opts ...Option) *Store {
	s := &Store{
		kv:    kv,
		ns:    DefaultNamespace,
		now:   time.Now,
		newID: func() string { return "c_" + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Namespace returns the key prefix of the store.
func (s *Store) Namespace() string { return s.ns }

// Key returns the storage key of kind for slug.
func (s *Store) Key(kind Kind, slug string) string {
	return s.ns + string(kind) + ":" + slug
}

func (s *Store) read(ctx context.Context, kind Kind, slug string) (string, bool, error) {
	key := s.Key(kind, slug)
	v, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return "", false, fmt.Errorf("engagement: read %s: %w", key, err)
	}
	return v, ok, nil
}

func (s *Store) write(ctx context.Context, kind Kind, slug, value string) error {
	key := s.Key(kind, slug)
	if err := s.kv.Set(ctx, key, value); err != nil {
		return fmt.Errorf("engagement: write %s: %w", key, err)
	}
	return nil
}

func (s *Store) flag(ctx context.Context, kind Kind, slug string) (bool, error) {
	v, _, err := s.read(ctx, kind, slug)
	return v == "1", err
}

func (s *Store) setFlag(ctx context.Context, kind Kind, slug string, on bool) error {
	v := "0"
	if on {
		v = "1"
	}
	return s.write(ctx, kind, slug, v)
}

func (s *Store) toggle(ctx context.Context, kind Kind, slug string) (bool, error) {
	on, err := s.flag(ctx, kind, slug)
	if err != nil {
		return false, err
	}
	return !on, s.setFlag(ctx, kind, slug, !on)
}

func (s *Store) Liked(ctx context.Context, slug string) (bool, error) {
	return s.flag(ctx, KindLiked, slug)
}

func (s *Store) SetLiked(ctx context.Context, slug string, liked bool) error {
	return s.setFlag(ctx, KindLiked, slug, liked)
}

// ToggleLiked flips the liked flag and returns the new value.
func (s *Store) ToggleLiked(ctx context.Context, slug string) (bool, error) {
	return s.toggle(ctx, KindLiked, slug)
}

func (s *Store) Bookmarked(ctx context.Context, slug string) (bool, error) {
	return s.flag(ctx, KindBookmarked, slug)
}

func (s *Store) SetBookmarked(ctx context.Context, slug string, on bool) error {
	return s.setFlag(ctx, KindBookmarked, slug, on)
}

// ToggleBookmarked flips the bookmarked flag and returns the new value.
func (s *Store) ToggleBookmarked(ctx context.Context, slug string) (bool, error) {
	return s.toggle(ctx, KindBookmarked, slug)
}

// Shares returns the local share counter. Unparseable values read as 0.
func (s *Store) Shares(ctx context.Context, slug string) (int, error) {
	v, _, err := s.read(ctx, KindShared, slug)
	if err != nil {
		return 0, err
	}
	return clampCount(v), nil
}

// SetShares stores n, clamped to [0, MaxInt32].
func (s *Store) SetShares(ctx context.Context, slug string, n int) error {
	switch {
	case n < 0:
		n = 0
	case n > math.MaxInt32:
		n = math.MaxInt32
	}
	return s.write(ctx, KindShared, slug, strconv.Itoa(n))
}

// IncrementShares adds one to the share counter and returns the new value.
func (s *Store) IncrementShares(ctx context.Context, slug string) (int, error) {
	n, err := s.Shares(ctx, slug)
	if err != nil {
		return 0, err
	}
	n++
	return n, s.SetShares(ctx, slug, n)
}

func clampCount(v string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(math.Floor(f))
}

// Comments returns the thread of slug, newest first. Corrupt data reads as
// an empty thread.
func (s *Store) Comments(ctx context.Context, slug string) ([]blog.Comment, error) {
	v, ok, err := s.read(ctx, KindComments, slug)
	if err != nil || !ok {
		return []blog.Comment{}, err
	}
	return decodeComments([]byte(v)), nil
}

// decodeComments keeps the well-formed entries of a JSON array.
func decodeComments(data []byte) []blog.Comment {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return []blog.Comment{}
	}
	out := make([]blog.Comment, 0, len(raws))
	for _, raw := range raws {
		var c blog.Comment
		if err := json.Unmarshal(raw, &c); err != nil {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (s *Store) SetComments(ctx context.Context, slug string, comments []blog.Comment) error {
	if comments == nil {
		comments = []blog.Comment{}
	}
	data, err := json.Marshal(comments)
	if err != nil {
		return err
	}
	return s.write(ctx, KindComments, slug, string(data))
}

// CheckCommentText trims text and enforces the length bounds.
func CheckCommentText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if err := validation.Validate(text, validation.Required, validation.RuneLength(MinCommentLength, 0)); err != nil {
		return "", ErrCommentTooShort
	}
	if err := validation.Validate(text, validation.RuneLength(0, MaxCommentLength)); err != nil {
		return "", ErrCommentTooLong
	}
	return text, nil
}

// AddComment validates text and prepends a new comment to the thread.
func (s *Store) AddComment(ctx context.Context, slug, name, text string) (blog.Comment, error) {
	text, err := CheckCommentText(text)
	if err != nil {
		return blog.Comment{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = AnonymousName
	}
	comments, err := s.Comments(ctx, slug)
	if err != nil {
		return blog.Comment{}, err
	}
	c := blog.Comment{ID: s.newID(), Name: name, Text: text, CreatedAt: s.now().UTC()}
	comments = append([]blog.Comment{c}, comments...)
	if err := s.SetComments(ctx, slug, comments); err != nil {
		return blog.Comment{}, err
	}
	return c, nil
}

// EditComment replaces the text of the comment at index, keeping its id,
// author and timestamp.
func (s *Store) EditComment(ctx context.Context, slug string, index int, text string) error {
	text, err := CheckCommentText(text)
	if err != nil {
		return err
	}
	comments, err := s.Comments(ctx, slug)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(comments) {
		return ErrCommentNotFound
	}
	comments[index].Text = text
	return s.SetComments(ctx, slug, comments)
}

// DeleteComment removes the comment at index. Confirmation is the caller's job.
func (s *Store) DeleteComment(ctx context.Context, slug string, index int) error {
	comments, err := s.Comments(ctx, slug)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(comments) {
		return ErrCommentNotFound
	}
	comments = append(comments[:index], comments[index+1:]...)
	return s.SetComments(ctx, slug, comments)
}

// Record reads all four values of slug.
func (s *Store) Record(ctx context.Context, slug string) (Record, error) {
	var r Record
	var err error
	if r.Liked, err = s.Liked(ctx, slug); err != nil {
		return Record{}, err
	}
	if r.Bookmarked, err = s.Bookmarked(ctx, slug); err != nil {
		return Record{}, err
	}
	if r.Shares, err = s.Shares(ctx, slug); err != nil {
		return Record{}, err
	}
	if r.Comments, err = s.Comments(ctx, slug); err != nil {
		return Record{}, err
	}
	return r, nil
}

// Counts adds local engagement to the seed counters of p.
func (s *Store) Counts(ctx context.Context, p blog.Post) (Counts, error) {
	r, err := s.Record(ctx, p.Slug)
	if err != nil {
		return Counts{}, err
	}
	return r.Counts(p), nil
}

// Counts adds r to the seed counters of p.
func (r Record) Counts(p blog.Post) Counts {
	c := Counts{Likes: p.Stats.BaseLikes, Shares: p.Stats.BaseShares + r.Shares, Comments: len(r.Comments)}
	if r.Liked {
		c.Likes++
	}
	return c
}

// Reset removes every engagement key of slug.
func (s *Store) Reset(ctx context.Context, slug string) error {
	keys := make([]string, len(Kinds))
	for i, k := range Kinds {
		keys[i] = s.Key(k, slug)
	}
	if err := s.kv.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("engagement: reset %s: %w", slug, err)
	}
	return nil
}

// ClearAll removes every engagement key in the namespace. Other keys under
// the namespace, such as stored custom posts, are left alone.
func (s *Store) ClearAll(ctx context.Context) error {
	keys, err := s.kv.Keys(ctx, s.ns)
	if err != nil {
		return fmt.Errorf("engagement: list keys: %w", err)
	}
	var doomed []string
	for _, key := range keys {
		rest := strings.TrimPrefix(key, s.ns)
		for _, k := range Kinds {
			if strings.HasPrefix(rest, string(k)+":") {
				doomed = append(doomed, key)
				break
			}
		}
	}
	if err := s.kv.Delete(ctx, doomed...); err != nil {
		return fmt.Errorf("engagement: clear: %w", err)
	}
	return nil
}

// Summary totals the engagement of posts.
func (s *Store) Summary(ctx context.Context, posts []blog.Post) (Summary, error) {
	var sum Summary
	for _, p := range posts {
		r, err := s.Record(ctx, p.Slug)
		if err != nil {
			return Summary{}, err
		}
		if r.Liked {
			sum.Liked++
		}
		if r.Bookmarked {
			sum.Bookmarked++
		}
		sum.Comments += len(r.Comments)
		sum.Shares += r.Shares
	}
	return sum, nil
}
