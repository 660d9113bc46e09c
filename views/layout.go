package views

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"
)

// htmlWriter accumulates the first write error so page code can emit markup
// without checking every call.
type htmlWriter struct {
	ctx context.Context
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(parts ...string) {
	for _, s := range parts {
		if h.err != nil {
			return
		}
		_, h.err = io.WriteString(h.w, s)
	}
}

func (h *htmlWriter) text(s string) { h.raw(templ.EscapeString(s)) }

func (h *htmlWriter) int(n int) { h.raw(strconv.Itoa(n)) }

// attr writes ` name="value"` with value escaped.
func (h *htmlWriter) attr(name, value string) {
	h.raw(" ", name, `="`, templ.EscapeString(value), `"`)
}

func (h *htmlWriter) render(c templ.Component) {
	if h.err == nil && c != nil {
		h.err = c.Render(h.ctx, h.w)
	}
}

func (h *htmlWriter) csrf(token string) {
	h.raw(`<input type="hidden" name="_csrf"`)
	h.attr("value", token)
	h.raw(">")
}

func (h *htmlWriter) hidden(name, value string) {
	h.raw(`<input type="hidden"`)
	h.attr("name", name)
	h.attr("value", value)
	h.raw(">")
}

func component(fn func(h *htmlWriter)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{ctx: ctx, w: w}
		fn(h)
		return h.err
	})
}

// Layout wraps body in the site shell and writes the head metadata.
func Layout(site SiteConfig, meta PageMeta, body templ.Component) templ.Component {
	return component(func(h *htmlWriter) {
		title := meta.Title
		if title == "" {
			title = site.Name
		}
		ogType := meta.OGType
		if ogType == "" {
			ogType = "website"
		}
		h.raw(`<!doctype html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw("<title>")
		h.text(title)
		h.raw("</title>")
		if meta.Description != "" {
			h.raw(`<meta name="description"`)
			h.attr("content", meta.Description)
			h.raw(">")
		}
		if meta.URL != "" {
			h.raw(`<link rel="canonical"`)
			h.attr("href", meta.URL)
			h.raw(`><meta property="og:url"`)
			h.attr("content", meta.URL)
			h.raw(">")
		}
		h.raw(`<meta property="og:title"`)
		h.attr("content", title)
		h.raw(`><meta property="og:type"`)
		h.attr("content", ogType)
		h.raw(">")
		if meta.Description != "" {
			h.raw(`<meta property="og:description"`)
			h.attr("content", meta.Description)
			h.raw(">")
		}
		if meta.Image != "" {
			h.raw(`<meta property="og:image"`)
			h.attr("content", meta.Image)
			h.raw(">")
		}
		h.raw(`<meta property="og:site_name"`)
		h.attr("content", site.Name)
		h.raw(`><meta name="csrf-token"`)
		h.attr("content", meta.CSRF)
		h.raw(`><link rel="icon" href="/favicon.svg" type="image/svg+xml">`)
		h.raw(`<link rel="stylesheet" href="/public/blog.css"><link rel="stylesheet" href="/public/highlight.css">`)
		h.raw(`<link rel="alternate" type="application/rss+xml" href="/feed.xml"`)
		h.attr("title", site.Name)
		h.raw(">")
		if meta.JSONLD != "" {
			// JSON-LD comes from encoding/json, which escapes <, > and &.
			h.raw(`<script type="application/ld+json">`, meta.JSONLD, `</script>`)
		}
		h.raw(`<script src="/public/folio.js" defer></script></head><body>`)
		h.raw(`<header class="site-header"><a class="site-name" href="/blog/">`)
		h.text(site.Name)
		h.raw(`</a><nav class="site-nav"><a href="/blog/">Blog</a><a href="/blog/manage/">Manage</a><a href="/feed.xml">RSS</a></nav></header>`)
		h.raw(`<main class="site-main">`)
		h.render(body)
		h.raw(`</main><footer class="site-footer"><p>`)
		h.text(site.Name)
		h.raw(`</p></footer></body></html>`)
	})
}
