package engagement

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/devemco/folio/blog"
)

// EnvelopeVersion is the schema version written by Export.
const EnvelopeVersion = 1

var (
	ErrInvalidPayload = errors.New("invalid JSON payload")
	ErrMissingBySlug  = errors.New("JSON payload missing bySlug")
	ErrUnknownMode    = errors.New("unknown import mode")
)

// Envelope is the backup document of a profile's engagement.
type Envelope struct {
	Version   int               `json:"version"`
	CreatedAt time.Time         `json:"createdAt"`
	Prefix    string            `json:"prefix"`
	BySlug    map[string]Record `json:"bySlug"`
}

// Mode selects how Import combines a payload with existing state.
type Mode string

const (
	// ModeMerge overlays present, well-typed fields and leaves the rest.
	ModeMerge Mode = "merge"
	// ModeReplace clears all engagement first.
	ModeReplace Mode = "replace"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeMerge:
		return ModeMerge, nil
	case ModeReplace:
		return ModeReplace, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownMode, s)
	}
}

// Export snapshots the engagement of every post.
func (s *Store) Export(ctx context.Context, posts []blog.Post) (Envelope, error) {
	env := Envelope{
		Version:   EnvelopeVersion,
		CreatedAt: s.now().UTC(),
		Prefix:    s.ns,
		BySlug:    make(map[string]Record, len(posts)),
	}
	for _, p := range posts {
		r, err := s.Record(ctx, p.Slug)
		if err != nil {
			return Envelope{}, err
		}
		env.BySlug[p.Slug] = r
	}
	return env, nil
}

// ImportResult reports what Import applied.
type ImportResult struct {
	Applied int // slugs with at least one field written
	Skipped int // unknown slugs or non-object entries
}

// Import applies an exported payload. Slugs missing from posts are ignored.
// A payload that is not an object or lacks an object bySlug fails before any
// key is written.
func (s *Store) Import(ctx context.Context, posts []blog.Post, payload []byte, mode Mode) (ImportResult, error) {
	if mode != ModeMerge && mode != ModeReplace {
		return ImportResult{}, fmt.Errorf("%w %q", ErrUnknownMode, mode)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(payload, &doc); err != nil || doc == nil {
		return ImportResult{}, ErrInvalidPayload
	}
	var bySlug map[string]json.RawMessage
	if raw, ok := doc["bySlug"]; !ok || json.Unmarshal(raw, &bySlug) != nil || bySlug == nil {
		return ImportResult{}, ErrMissingBySlug
	}

	if mode == ModeReplace {
		if err := s.ClearAll(ctx); err != nil {
			return ImportResult{}, err
		}
	}

	known := make(map[string]struct{}, len(posts))
	for _, p := range posts {
		known[p.Slug] = struct{}{}
	}
	var res ImportResult
	for slug, raw := range bySlug {
		var fields map[string]json.RawMessage
		_, isKnown := known[slug]
		if !isKnown || json.Unmarshal(raw, &fields) != nil || fields == nil {
			res.Skipped++
			continue
		}
		wrote, err := s.applyFields(ctx, slug, fields)
		if err != nil {
			return res, err
		}
		if wrote {
			res.Applied++
		}
	}
	return res, nil
}

// applyFields writes each field of one bySlug entry whose JSON type matches.
func (s *Store) applyFields(ctx context.Context, slug string, fields map[string]json.RawMessage) (bool, error) {
	wrote := false
	if b, ok := jsonBool(fields["liked"]); ok {
		if err := s.SetLiked(ctx, slug, b); err != nil {
			return wrote, err
		}
		wrote = true
	}
	if b, ok := jsonBool(fields["bookmarked"]); ok {
		if err := s.SetBookmarked(ctx, slug, b); err != nil {
			return wrote, err
		}
		wrote = true
	}
	if n, ok := jsonNumber(fields["shares"]); ok {
		if err := s.SetShares(ctx, slug, n); err != nil {
			return wrote, err
		}
		wrote = true
	}
	if raw := bytes.TrimSpace(fields["comments"]); len(raw) > 0 && raw[0] == '[' {
		if err := s.SetComments(ctx, slug, decodeComments(raw)); err != nil {
			return wrote, err
		}
		wrote = true
	}
	return wrote, nil
}

func isAbsent(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func jsonBool(raw json.RawMessage) (bool, bool) {
	var b bool
	if isAbsent(raw) || json.Unmarshal(raw, &b) != nil {
		return false, false
	}
	return b, true
}

func jsonNumber(raw json.RawMessage) (int, bool) {
	var f float64
	if isAbsent(raw) || json.Unmarshal(raw, &f) != nil {
		return 0, false
	}
	if f < 0 {
		return 0, true
	}
	if f > math.MaxInt32 {
		return math.MaxInt32, true
	}
	return int(math.Floor(f)), true
}
