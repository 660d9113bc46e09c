package views

import (
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/devemco/folio/blog"
)

// AbsoluteURL resolves ref, such as "/blog/post/?slug=x", against base.
// Absolute refs are returned unchanged.
func AbsoluteURL(base, ref string) string {
	r, err := url.Parse(ref)
	if err != nil || r.IsAbs() {
		return ref
	}
	u, err := url.Parse(base)
	if err != nil {
		return ref
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(r.Path, "/")
	u.RawPath = ""
	u.RawQuery = r.RawQuery
	u.Fragment = r.Fragment
	return u.String()
}

// PostURL is the absolute detail page address of p.
func PostURL(site SiteConfig, p blog.Post) string {
	return AbsoluteURL(site.URL, p.Link())
}

// CoverURL is the absolute cover image address of p, or "".
func CoverURL(site SiteConfig, p blog.Post) string {
	if p.Cover == nil || p.Cover.Src == "" {
		return ""
	}
	return AbsoluteURL(site.URL, p.Cover.Src)
}

// FormatDate renders t like "Feb 10, 2026".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("Jan 2, 2006")
}

// CategoryClass returns CSS classes for a category pill, with active variant.
func CategoryClass(active bool) string {
	if active {
		return "blog-pill is-active"
	}
	return "blog-pill"
}

// IndexURL builds the index address for a category and sort mode.
func IndexURL(category string, sort blog.SortMode) string {
	q := url.Values{}
	if category != "" && category != blog.AllCategory {
		q.Set("category", category)
	}
	if sort != "" && sort != blog.SortNewest {
		q.Set("sort", string(sort))
	}
	if len(q) == 0 {
		return "/blog/"
	}
	return "/blog/?" + q.Encode()
}

// ManageURL addresses the console with slug selected.
func ManageURL(slug string) string {
	if slug == "" {
		return "/blog/manage/"
	}
	return "/blog/manage/?slug=" + url.QueryEscape(slug)
}

// EditURL opens the post editor for slug.
func EditURL(slug string) string {
	q := url.Values{}
	q.Set("slug", slug)
	q.Set("edit", slug)
	return "/blog/manage/?" + q.Encode() + "#editor"
}

func marshalLD(data map[string]any) string {
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// WebsiteJsonLD produces a Schema.org WebSite JSON-LD block using cfg values.
func WebsiteJsonLD(cfg SiteConfig) string {
	data := map[string]any{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     cfg.Name,
		"url":      AbsoluteURL(cfg.URL, "/"),
	}
	if cfg.Description != "" {
		data["description"] = cfg.Description
	}
	if cfg.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  cfg.Author,
		}
	}
	return marshalLD(data)
}

// BlogPostingJsonLD produces a Schema.org BlogPosting JSON-LD block for a post.
func BlogPostingJsonLD(cfg SiteConfig, post blog.Post) string {
	postURL := PostURL(cfg, post)
	data := map[string]any{
		"@context":       "https://schema.org",
		"@type":          "BlogPosting",
		"headline":       post.Title,
		"description":    blog.Description(post),
		"datePublished":  post.PublishedAt.UTC().Format(time.RFC3339),
		"dateModified":   post.Modified().UTC().Format(time.RFC3339),
		"url":            postURL,
		"articleSection": post.Category.Name,
		"publisher": map[string]string{
			"@type": "Organization",
			"name":  cfg.Name,
		},
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	author := post.Author.Name
	if author == "" {
		author = cfg.Author
	}
	if author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  author,
		}
	}
	if img := CoverURL(cfg, post); img != "" {
		data["image"] = img
	}
	keywords := post.SEO.Keywords
	if len(keywords) == 0 {
		keywords = post.Tags
	}
	if len(keywords) > 0 {
		data["keywords"] = strings.Join(keywords, ", ")
	}
	return marshalLD(data)
}
