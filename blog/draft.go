package blog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	// ErrDraftSyntax wraps JSON decoding errors of a draft.
	ErrDraftSyntax = errors.New("invalid draft JSON")
	// ErrDraftNotObject is returned when draft JSON is not an object.
	ErrDraftNotObject = errors.New("draft must be a JSON object")
	// ErrSlugTaken is reported on the slug field when another post owns it.
	ErrSlugTaken = errors.New("is already used by another post")
	// ErrSlugChanged is reported on the slug field when an update renames a post.
	ErrSlugChanged = errors.New("must match the post being edited")
)

// Draft is an arbitrary JSON object submitted to create or update a post.
type Draft map[string]any

// ParseDraft decodes data into a Draft. Numbers are kept as json.Number.
func ParseDraft(data []byte) (Draft, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDraftSyntax, err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, ErrDraftNotObject
	}
	return Draft(m), nil
}

// FieldError names the first draft field that failed validation.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Err.Error() }

func (e *FieldError) Unwrap() error { return e.Err }

// NormalizeOptions tunes Normalize.
type NormalizeOptions struct {
	// CheckSlug enforces uniqueness on create or the keep constraint on
	// update. It runs right after the slug itself is validated.
	CheckSlug func(slug string) error
	Now       func() time.Time
}

// Normalize validates d and builds a well-formed Post. Required fields are
// checked in a fixed order and the first failure is returned as *FieldError:
// slug, slug check, title, category.id, category.name, author.name,
// publishedAt, seo.description, content.
func Normalize(d Draft, opts NormalizeOptions) (Post, error) {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	var p Post

	p.Slug = Slugify(d.str("slug"))
	if err := validation.Validate(p.Slug, required); err != nil {
		return Post{}, &FieldError{Field: "slug", Err: err}
	}
	if opts.CheckSlug != nil {
		if err := opts.CheckSlug(p.Slug); err != nil {
			return Post{}, &FieldError{Field: "slug", Err: err}
		}
	}

	p.Title = d.str("title")
	if err := validation.Validate(p.Title, required); err != nil {
		return Post{}, &FieldError{Field: "title", Err: err}
	}

	p.Category.ID = Slugify(d.str("category", "id"))
	if err := validation.Validate(p.Category.ID, required); err != nil {
		return Post{}, &FieldError{Field: "category.id", Err: err}
	}
	p.Category.Name = d.str("category", "name")
	if p.Category.Name == "" {
		p.Category.Name = TitleCase(p.Category.ID)
	}
	if err := validation.Validate(p.Category.Name, required); err != nil {
		return Post{}, &FieldError{Field: "category.name", Err: err}
	}

	p.Author.Name = d.str("author", "name")
	if err := validation.Validate(p.Author.Name, required); err != nil {
		return Post{}, &FieldError{Field: "author.name", Err: err}
	}
	p.Author.Title = d.str("author", "title")

	published, err := d.timestamp("publishedAt")
	if err != nil {
		return Post{}, &FieldError{Field: "publishedAt", Err: err}
	}
	if published.IsZero() {
		published = now().UTC()
	}
	p.PublishedAt = published

	p.SEO.Description = d.str("seo", "description")
	if err := validation.Validate(p.SEO.Description, required); err != nil {
		return Post{}, &FieldError{Field: "seo.description", Err: err}
	}
	p.SEO.Keywords = stringList(d.get("seo", "keywords"), false)

	content, field, err := normalizeContent(d.get("content"))
	if err != nil {
		return Post{}, &FieldError{Field: field, Err: err}
	}
	p.Content = content

	// Cosmetic fields: lenient, defaulted.
	p.ID = d.str("id")
	if p.ID == "" {
		p.ID = "custom_" + p.Slug
	}
	updated, err := d.timestamp("updatedAt")
	if err != nil || updated.IsZero() {
		updated = p.PublishedAt
	}
	p.UpdatedAt = updated
	if src := d.str("cover", "src"); src != "" {
		p.Cover = &Cover{Src: src, Alt: d.str("cover", "alt")}
	}
	kicker, summary := d.str("hero", "kicker"), d.str("hero", "summary")
	if kicker != "" || summary != "" {
		p.Hero = &Hero{Kicker: kicker, Summary: summary}
	}
	p.Tags = stringList(d.get("tags"), true)
	if p.Tags == nil {
		p.Tags = []string{}
	}
	p.Stats.BaseLikes = nonNegative(d.get("stats", "baseLikes"))
	p.Stats.BaseShares = nonNegative(d.get("stats", "baseShares"))
	p.Custom = true
	return p, nil
}

// get walks nested objects; a missing or non-object step yields nil.
func (d Draft) get(path ...string) any {
	var cur any = map[string]any(d)
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}

// str returns the trimmed string at path, or "" when absent or not a string.
func (d Draft) str(path ...string) string {
	s, _ := d.get(path...).(string)
	return strings.TrimSpace(s)
}

func (d Draft) timestamp(path ...string) (time.Time, error) {
	raw := d.get(path...)
	if raw == nil {
		return time.Time{}, nil
	}
	s, ok := raw.(string)
	if !ok {
		return time.Time{}, errors.New("must be an ISO-8601 timestamp")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	return ParseTime(s)
}

// ParseTime accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func ParseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("must be an ISO-8601 timestamp, got %q", s)
}

func normalizeContent(raw any) (Content, string, error) {
	items, ok := raw.([]any)
	if raw != nil && !ok {
		return nil, "content", errors.New("must be a list of blocks")
	}
	if err := validation.Validate(items, validation.Required.Error("must contain at least one block")); err != nil {
		return nil, "content", err
	}
	out := make(Content, 0, len(items))
	for i, item := range items {
		field := fmt.Sprintf("content[%d]", i)
		if _, ok := item.(map[string]any); !ok {
			return nil, field, errors.New("must be an object")
		}
		encoded, err := json.Marshal(item)
		if err != nil {
			return nil, field, err
		}
		b, err := DecodeBlock(encoded)
		if err != nil {
			return nil, field + ".type", err
		}
		b, name, err := checkBlock(b)
		if err != nil {
			return nil, field + "." + name, err
		}
		out = append(out, b)
	}
	return out, "", nil
}

// blockChecker trims a block and reports its first missing required field.
type blockChecker struct {
	out   Block
	field string
	err   error
}

func checkBlock(b Block) (Block, string, error) {
	var c blockChecker
	b.Accept(&c)
	return c.out, c.field, c.err
}

var required = validation.Required.Error("is required")

func (c *blockChecker) text(s string) string {
	s = strings.TrimSpace(s)
	if err := validation.Validate(s, required); err != nil {
		c.field, c.err = "text", err
	}
	return s
}

func (c *blockChecker) items(in []string) []string {
	var out []string
	for _, item := range in {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if err := validation.Validate(out, validation.Required.Error("must contain at least one item")); err != nil {
		c.field, c.err = "items", err
	}
	return out
}

func (c *blockChecker) Paragraph(b Paragraph) { c.out = Paragraph{Text: c.text(b.Text)} }
func (c *blockChecker) Heading2(b Heading2)   { c.out = Heading2{Text: c.text(b.Text)} }
func (c *blockChecker) Heading3(b Heading3)   { c.out = Heading3{Text: c.text(b.Text)} }
func (c *blockChecker) Callout(b Callout)     { c.out = Callout{Text: c.text(b.Text)} }

func (c *blockChecker) UnorderedList(b UnorderedList) {
	c.out = UnorderedList{Items: c.items(b.Items)}
}

func (c *blockChecker) OrderedList(b OrderedList) {
	c.out = OrderedList{Items: c.items(b.Items)}
}

func (c *blockChecker) Code(b Code) {
	if err := validation.Validate(strings.TrimSpace(b.Code), required); err != nil {
		c.field, c.err = "code", err
	}
	c.out = Code{Language: strings.TrimSpace(b.Language), Code: b.Code}
}

func (c *blockChecker) Image(b Image) {
	img := Image{
		Src:     strings.TrimSpace(b.Src),
		Alt:     strings.TrimSpace(b.Alt),
		Caption: strings.TrimSpace(b.Caption),
	}
	if err := validation.Validate(img.Src, required); err != nil {
		c.field, c.err = "src", err
	}
	if b.Source != nil && strings.TrimSpace(b.Source.Label) != "" {
		img.Source = &ImageSource{Label: strings.TrimSpace(b.Source.Label), URL: strings.TrimSpace(b.Source.URL)}
	}
	c.out = img
}

// stringList accepts a JSON array of strings or a comma-separated string.
func stringList(raw any, lower bool) []string {
	var parts []string
	switch v := raw.(type) {
	case string:
		parts = strings.Split(v, ",")
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
	}
	seen := make(map[string]struct{}, len(parts))
	var out []string
	for _, s := range parts {
		s = strings.TrimSpace(s)
		if lower {
			s = strings.ToLower(s)
		}
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func nonNegative(raw any) int {
	var f float64
	switch v := raw.(type) {
	case json.Number:
		f, _ = v.Float64()
	case float64:
		f = v
	case int:
		f = float64(v)
	case string:
		f, _ = strconv.ParseFloat(strings.TrimSpace(v), 64)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return int(math.Floor(f))
}
