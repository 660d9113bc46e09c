package views

import (
	"strconv"

	"github.com/a-h/templ"

	"github.com/devemco/folio/blog"
	"github.com/devemco/folio/engagement"
	"github.com/devemco/folio/render"
)

var sortLabels = []struct {
	Mode  blog.SortMode
	Label string
}{
	{blog.SortNewest, "Newest"},
	{blog.SortOldest, "Oldest"},
	{blog.SortCategory, "Category"},
}

// Index renders the post index with category pills, sort control and the
// featured slot.
func Index(p IndexPage) templ.Component {
	return Layout(p.Site, p.Meta, component(func(h *htmlWriter) {
		h.raw(`<section class="blog-head"><h1>Blog</h1>`)
		if p.Site.Description != "" {
			h.raw(`<p class="blog-lead">`)
			h.text(p.Site.Description)
			h.raw(`</p>`)
		}
		h.raw(`</section>`)

		h.raw(`<section id="featured" class="blog-featured-slot" data-featured-src="/blog/featured/">`)
		h.render(Featured(p.Featured))
		h.raw(`</section>`)

		h.raw(`<nav class="blog-categories" aria-label="Categories">`)
		active := p.ActiveCategory
		if active == "" {
			active = blog.AllCategory
		}
		for _, cat := range p.Categories {
			h.raw(`<a`)
			h.attr("class", CategoryClass(cat.ID == active))
			h.attr("href", IndexURL(cat.ID, p.Sort))
			if cat.ID == active {
				h.raw(` aria-current="page"`)
			}
			h.raw(`>`)
			h.text(cat.Name + " (" + strconv.Itoa(cat.Count) + ")")
			h.raw(`</a>`)
		}
		h.raw(`</nav>`)

		h.raw(`<form class="blog-sort" method="get" action="/blog/">`)
		if active != blog.AllCategory {
			h.hidden("category", active)
		}
		h.raw(`<label for="sort">Sort</label><select id="sort" name="sort" data-autosubmit>`)
		for _, s := range sortLabels {
			h.raw(`<option`)
			h.attr("value", string(s.Mode))
			if s.Mode == p.Sort {
				h.raw(` selected`)
			}
			h.raw(`>`)
			h.text(s.Label)
			h.raw(`</option>`)
		}
		h.raw(`</select><noscript><button type="submit">Apply</button></noscript></form>`)

		h.raw(`<section class="blog-list">`)
		if len(p.Posts) == 0 {
			h.raw(`<p class="blog-empty">No posts in this category yet.</p>`)
		}
		for _, card := range p.Posts {
			postCard(h, card)
		}
		h.raw(`</section>`)
	}))
}

func postCard(h *htmlWriter, card PostCard) {
	p := card.Post
	h.raw(`<article class="blog-card">`)
	if p.Cover != nil {
		if src := render.SafeURL(p.Cover.Src); src != "" {
			h.raw(`<a class="blog-card-cover"`)
			h.attr("href", p.Link())
			h.raw(`><img loading="lazy" src="`, src, `"`)
			h.attr("alt", p.Cover.Alt)
			h.raw(`></a>`)
		}
	}
	h.raw(`<p class="blog-card-category">`)
	h.text(p.Category.Name)
	h.raw(`</p><h2 class="blog-card-title"><a`)
	h.attr("href", p.Link())
	h.raw(`>`)
	h.text(p.Title)
	h.raw(`</a></h2><p class="blog-card-excerpt">`)
	h.text(blog.Excerpt(p))
	h.raw(`</p>`)
	cardMeta(h, card)
	h.raw(`</article>`)
}

func cardMeta(h *htmlWriter, card PostCard) {
	h.raw(`<p class="blog-card-meta"><time`)
	h.attr("datetime", card.Post.PublishedAt.UTC().Format("2006-01-02"))
	h.raw(`>`)
	h.text(FormatDate(card.Post.PublishedAt))
	h.raw(`</time> · `)
	h.int(card.Minutes)
	h.raw(` min read · <span class="blog-stat">`)
	h.int(card.Counts.Likes)
	h.raw(` likes</span> · <span class="blog-stat">`)
	h.int(card.Counts.Shares)
	h.raw(` shares</span> · <span class="blog-stat">`)
	h.int(card.Counts.Comments)
	h.raw(` comments</span></p>`)
}

// Featured renders the rotating featured card. A nil card renders nothing.
func Featured(card *PostCard) templ.Component {
	return component(func(h *htmlWriter) {
		if card == nil {
			return
		}
		p := card.Post
		h.raw(`<article class="blog-featured"><p class="blog-featured-label">Featured · `)
		h.text(p.Category.Name)
		h.raw(`</p><h2><a`)
		h.attr("href", p.Link())
		h.raw(`>`)
		h.text(p.Title)
		h.raw(`</a></h2><p>`)
		h.text(blog.Excerpt(p))
		h.raw(`</p>`)
		cardMeta(h, *card)
		h.raw(`</article>`)
	})
}

// Post renders the detail page of one post.
func Post(p PostPage) templ.Component {
	return Layout(p.Site, p.Meta, component(func(h *htmlWriter) {
		post := p.Card.Post
		h.raw(`<article class="blog-post"><header class="blog-post-head">`)
		h.raw(`<p class="blog-post-kicker"><a`)
		h.attr("href", IndexURL(post.Category.ID, blog.SortNewest))
		h.raw(`>`)
		h.text(post.Category.Name)
		h.raw(`</a>`)
		if post.Hero != nil && post.Hero.Kicker != "" {
			h.raw(` · `)
			h.text(post.Hero.Kicker)
		}
		h.raw(`</p><h1>`)
		h.text(post.Title)
		h.raw(`</h1>`)
		if post.Hero != nil && post.Hero.Summary != "" {
			h.raw(`<p class="blog-post-summary">`)
			h.text(post.Hero.Summary)
			h.raw(`</p>`)
		}
		h.raw(`<p class="blog-post-meta">`)
		h.text(post.Author.Name)
		if post.Author.Title != "" {
			h.raw(`, `)
			h.text(post.Author.Title)
		}
		h.raw(` · <time`)
		h.attr("datetime", post.PublishedAt.UTC().Format("2006-01-02"))
		h.raw(`>`)
		h.text(FormatDate(post.PublishedAt))
		h.raw(`</time>`)
		if mod := post.Modified(); !mod.Equal(post.PublishedAt) {
			h.raw(` · updated `)
			h.text(FormatDate(mod))
		}
		h.raw(` · `)
		h.int(p.Card.Minutes)
		h.raw(` min read</p>`)
		if len(post.Tags) > 0 {
			h.raw(`<ul class="blog-tags">`)
			for _, t := range post.Tags {
				h.raw(`<li>#`)
				h.text(t)
				h.raw(`</li>`)
			}
			h.raw(`</ul>`)
		}
		h.raw(`</header>`)
		if post.Cover != nil {
			if src := render.SafeURL(post.Cover.Src); src != "" {
				h.raw(`<img class="blog-post-cover" src="`, src, `"`)
				h.attr("alt", post.Cover.Alt)
				h.raw(`>`)
			}
		}
		h.raw(`<div class="blog-post-body">`)
		h.render(render.Blocks(post.Content))
		h.raw(`</div></article>`)

		h.render(Engagement(p))

		if len(p.Related) > 0 {
			h.raw(`<aside class="blog-related"><h2>Related posts</h2><ul>`)
			for _, r := range p.Related {
				h.raw(`<li><a`)
				h.attr("href", r.Link())
				h.raw(`>`)
				h.text(r.Title)
				h.raw(`</a></li>`)
			}
			h.raw(`</ul></aside>`)
		}
	}))
}

func actionForm(h *htmlWriter, action, slug, csrf, label string, pressed *bool) {
	h.raw(`<form method="post" data-swap="#engagement"`)
	h.attr("action", action)
	h.raw(`>`)
	h.csrf(csrf)
	h.hidden("slug", slug)
	h.raw(`<button type="submit" class="blog-action"`)
	if pressed != nil {
		h.attr("aria-pressed", strconv.FormatBool(*pressed))
	}
	h.raw(`>`)
	h.text(label)
	h.raw(`</button></form>`)
}

// Engagement renders the like, bookmark, share and comment region of a post.
// Handlers return it alone for partial updates.
func Engagement(p PostPage) templ.Component {
	return component(func(h *htmlWriter) {
		card := p.Card
		slug := card.Post.Slug
		csrf := p.Meta.CSRF
		h.raw(`<section id="engagement" class="blog-engagement"`)
		h.attr("data-share-url", p.ShareURL)
		h.attr("data-share-title", card.Post.Title)
		if p.Shared {
			h.raw(` data-shared="true"`)
		}
		h.raw(`><div class="blog-actions">`)

		likeLabel := "Like"
		if card.Liked {
			likeLabel = "Liked"
		}
		actionForm(h, "/blog/post/like/", slug, csrf, likeLabel+" ("+strconv.Itoa(card.Counts.Likes)+")", &card.Liked)

		bookmarkLabel := "Bookmark"
		if card.Bookmarked {
			bookmarkLabel = "Bookmarked"
		}
		actionForm(h, "/blog/post/bookmark/", slug, csrf, bookmarkLabel, &card.Bookmarked)

		actionForm(h, "/blog/post/share/", slug, csrf, "Share ("+strconv.Itoa(card.Counts.Shares)+")", nil)

		h.raw(`<button type="button" class="blog-action" data-copy-link>Copy link</button>`)
		h.raw(`<span class="blog-status" role="status" aria-live="polite">`)
		h.text(p.Message)
		h.raw(`</span></div>`)

		h.raw(`<div class="blog-comments"><h2>Comments (`)
		h.int(card.Counts.Comments)
		h.raw(`)</h2>`)
		h.raw(`<form method="post" action="/blog/post/comments/" data-swap="#engagement" class="blog-comment-form">`)
		h.csrf(csrf)
		h.hidden("slug", slug)
		h.raw(`<label>Name <input type="text" name="name" maxlength="80" placeholder="`, engagement.AnonymousName, `"`)
		h.attr("value", p.Draft.Name)
		h.raw(`></label><label>Comment <textarea name="text" rows="4" maxlength="`)
		h.int(engagement.MaxCommentLength)
		h.raw(`" data-counter>`)
		h.text(p.Draft.Text)
		h.raw(`</textarea></label><p class="blog-comment-help">`)
		h.int(len([]rune(p.Draft.Text)))
		h.raw(`/`)
		h.int(engagement.MaxCommentLength)
		h.raw(`</p><button type="submit">Post comment</button></form>`)

		if len(p.Comments) == 0 {
			h.raw(`<p class="blog-empty">No comments yet. Be the first to add a useful note or question.</p>`)
		} else {
			h.raw(`<ol class="blog-comment-list">`)
			for _, c := range p.Comments {
				commentItem(h, c)
			}
			h.raw(`</ol>`)
		}
		h.raw(`</div></section>`)
	})
}

func commentItem(h *htmlWriter, c blog.Comment) {
	name := c.Name
	if name == "" {
		name = engagement.AnonymousName
	}
	h.raw(`<li class="blog-comment"><p class="blog-comment-head"><strong>`)
	h.text(name)
	h.raw(`</strong> <time`)
	h.attr("datetime", c.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"))
	h.raw(`>`)
	h.text(FormatDate(c.CreatedAt))
	h.raw(`</time></p><p class="blog-comment-text">`)
	h.text(c.Text)
	h.raw(`</p></li>`)
}

// NotFound renders the "Post not found" state.
func NotFound(site SiteConfig, meta PageMeta) templ.Component {
	if meta.Title == "" {
		meta.Title = "Post not found · " + site.Name
	}
	return Layout(site, meta, component(func(h *htmlWriter) {
		h.raw(`<article class="blog-post blog-missing"><h1>Post not found</h1>`)
		h.raw(`<p>The link may be wrong or the post was renamed.</p>`)
		h.raw(`<p><a href="/blog/">Back to the blog</a></p></article>`)
	}))
}

// ServerError renders a minimal error page. It does not depend on any state
// that might have caused the failure.
func ServerError() templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<!doctype html><html lang="en"><head><meta charset="utf-8"><title>Something went wrong</title>`)
		h.raw(`<link rel="stylesheet" href="/public/blog.css"></head><body><main class="site-main">`)
		h.raw(`<h1>Something went wrong</h1><p>Please try again in a moment.</p><p><a href="/blog/">Back to the blog</a></p>`)
		h.raw(`</main></body></html>`)
	})
}
