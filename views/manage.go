package views

import (
	"strconv"

	"github.com/a-h/templ"

	"github.com/devemco/folio/engagement"
)

// Manage renders the manage console.
func Manage(p ManagePage) templ.Component {
	return Layout(p.Site, p.Meta, component(func(h *htmlWriter) {
		csrf := p.Meta.CSRF
		h.raw(`<section class="manage"><h1>Manage</h1>`)
		h.raw(`<p class="manage-note">Everything here lives in this browser profile only.</p>`)

		s := p.Summary
		h.raw(`<ul class="manage-summary">`)
		summaryItem(h, "Liked", s.Liked)
		summaryItem(h, "Bookmarked", s.Bookmarked)
		summaryItem(h, "Comments", s.Comments)
		summaryItem(h, "Shares", s.Shares)
		h.raw(`</ul>`)

		if p.Notice != "" {
			h.raw(`<p class="manage-notice" role="status">`)
			h.text(p.Notice)
			h.raw(`</p>`)
		}
		if p.Error != "" {
			h.raw(`<p class="manage-error" role="alert">`)
			h.text(p.Error)
			h.raw(`</p>`)
		}

		h.raw(`<div class="manage-grid"><nav class="manage-posts" aria-label="Posts">`)
		if len(p.Posts) == 0 {
			h.raw(`<p class="blog-empty">No posts found.</p>`)
		}
		h.raw(`<ul>`)
		for _, card := range p.Posts {
			active := p.Detail != nil && p.Detail.Card.Post.Slug == card.Post.Slug
			h.raw(`<li><a`)
			h.attr("href", ManageURL(card.Post.Slug))
			if active {
				h.raw(` aria-current="true"`)
			}
			h.raw(`>`)
			h.text(card.Post.Title)
			h.raw(`</a> <span class="manage-stats">`)
			h.int(card.Counts.Likes)
			h.raw(` likes · `)
			h.int(card.Counts.Shares)
			h.raw(` shares · `)
			h.int(card.Counts.Comments)
			h.raw(` comments`)
			if card.Post.Custom {
				h.raw(` · custom`)
			}
			h.raw(`</span></li>`)
		}
		h.raw(`</ul></nav>`)

		if p.Detail != nil {
			manageDetail(h, *p.Detail, csrf)
		}
		h.raw(`</div>`)

		h.raw(`<section class="manage-backup"><h2>Backup</h2>`)
		h.raw(`<p><a class="blog-action" href="/blog/manage/export/" download>Export JSON</a></p>`)
		h.raw(`<form method="post" action="/blog/manage/import/" class="manage-import">`)
		h.csrf(csrf)
		h.raw(`<label for="import-payload">Paste an export</label><textarea id="import-payload" name="payload" rows="8" spellcheck="false">`)
		h.text(p.ImportText)
		h.raw(`</textarea><button type="submit" name="mode"`)
		h.attr("value", string(engagement.ModeMerge))
		h.raw(`>Import (merge)</button><button type="submit" name="mode"`)
		h.attr("value", string(engagement.ModeReplace))
		h.raw(`>Import (replace)</button></form>`)
		h.raw(`<form method="post" action="/blog/manage/clear/" class="manage-danger">`)
		h.csrf(csrf)
		h.raw(`<label><input type="checkbox" name="confirm" value="yes"> Reset ALL blog interactions in this browser</label>`)
		h.raw(`<button type="submit">Clear all</button></form></section>`)

		postEditor(h, p.Editor, csrf)
		imageList(h, p.Images, csrf)
		h.raw(`</section>`)
	}))
}

func summaryItem(h *htmlWriter, label string, n int) {
	h.raw(`<li><span class="manage-summary-value">`)
	h.int(n)
	h.raw(`</span> `)
	h.text(label)
	h.raw(`</li>`)
}

func manageForm(h *htmlWriter, action, csrf, slug string, fields func()) {
	h.raw(`<form method="post"`)
	h.attr("action", action)
	h.raw(`>`)
	h.csrf(csrf)
	h.hidden("slug", slug)
	if fields != nil {
		fields()
	}
}

func manageDetail(h *htmlWriter, d ManageDetail, csrf string) {
	post := d.Card.Post
	slug := post.Slug
	h.raw(`<article class="manage-detail"><h2>`)
	h.text(post.Title)
	h.raw(`</h2><p><a`)
	h.attr("href", post.Link())
	h.raw(`>View post</a></p><div class="manage-actions">`)

	like := "Like"
	if d.Card.Liked {
		like = "Unlike"
	}
	manageForm(h, "/blog/manage/like/", csrf, slug, nil)
	h.raw(`<button type="submit">`)
	h.text(like)
	h.raw(`</button></form>`)

	bookmark := "Bookmark"
	if d.Card.Bookmarked {
		bookmark = "Remove bookmark"
	}
	manageForm(h, "/blog/manage/bookmark/", csrf, slug, nil)
	h.raw(`<button type="submit">`)
	h.text(bookmark)
	h.raw(`</button></form>`)

	manageForm(h, "/blog/manage/share/", csrf, slug, nil)
	h.raw(`<button type="submit">+1 share</button></form>`)

	manageForm(h, "/blog/manage/reset/", csrf, slug, func() {
		h.raw(`<label><input type="checkbox" name="confirm" value="yes"> Reset all interactions for this post</label>`)
	})
	h.raw(`<button type="submit">Reset post</button></form></div>`)

	h.raw(`<h3>Comments</h3>`)
	if len(d.Comments) == 0 {
		h.raw(`<p class="blog-empty">No comments for this post in this browser.</p>`)
	}
	h.raw(`<ol class="manage-comments">`)
	for i, c := range d.Comments {
		idx := strconv.Itoa(i)
		h.raw(`<li><p><strong>`)
		h.text(c.Name)
		h.raw(`</strong> `)
		h.text(FormatDate(c.CreatedAt))
		h.raw(`</p>`)
		manageForm(h, "/blog/manage/comments/edit/", csrf, slug, func() {
			h.hidden("index", idx)
			h.raw(`<textarea name="text" rows="3">`)
			h.text(c.Text)
			h.raw(`</textarea>`)
		})
		h.raw(`<button type="submit">Save</button></form>`)
		manageForm(h, "/blog/manage/comments/delete/", csrf, slug, func() {
			h.hidden("index", idx)
			h.raw(`<label><input type="checkbox" name="confirm" value="yes"> Delete this comment</label>`)
		})
		h.raw(`<button type="submit">Delete</button></form></li>`)
	}
	h.raw(`</ol>`)

	if post.Custom {
		h.raw(`<p><a`)
		h.attr("href", EditURL(slug))
		h.raw(`>Edit post JSON</a></p>`)
		manageForm(h, "/blog/manage/posts/delete/", csrf, slug, func() {
			h.raw(`<label><input type="checkbox" name="confirm" value="yes"> Delete this custom post</label>`)
		})
		h.raw(`<button type="submit">Delete post</button></form>`)
	}
	h.raw(`</article>`)
}

func postEditor(h *htmlWriter, e PostEditor, csrf string) {
	h.raw(`<section class="manage-editor" id="editor"><h2>`)
	action := "/blog/manage/posts/"
	if e.Slug != "" {
		action = "/blog/manage/posts/update/"
		h.raw(`Edit `)
		h.text(e.Slug)
	} else {
		h.raw(`New custom post`)
	}
	h.raw(`</h2><form method="post"`)
	h.attr("action", action)
	h.raw(`>`)
	h.csrf(csrf)
	if e.Slug != "" {
		h.hidden("slug", e.Slug)
	}
	if e.Field != "" {
		h.raw(`<p class="manage-error">Check field <code>`)
		h.text(e.Field)
		h.raw(`</code></p>`)
	}
	h.raw(`<textarea name="draft" rows="16" spellcheck="false" placeholder="{&#34;slug&#34;: &#34;…&#34;, &#34;title&#34;: &#34;…&#34;}">`)
	h.text(e.Draft)
	h.raw(`</textarea><button type="submit">Save post</button>`)
	if e.Slug != "" {
		h.raw(` <a href="/blog/manage/?edit=">Cancel</a>`)
	}
	h.raw(`</form></section>`)
}

func imageList(h *htmlWriter, images []ImageInfo, csrf string) {
	h.raw(`<section class="manage-images"><h2>Cover images</h2>`)
	h.raw(`<form method="post" action="/blog/manage/images/" enctype="multipart/form-data">`)
	h.csrf(csrf)
	h.raw(`<input type="file" name="image" accept="image/png,image/jpeg,image/gif"><button type="submit">Upload</button></form>`)
	if len(images) == 0 {
		h.raw(`<p class="blog-empty">No images uploaded.</p>`)
	}
	h.raw(`<ul>`)
	for _, img := range images {
		h.raw(`<li><img loading="lazy" width="120"`)
		h.attr("src", img.URL)
		h.attr("alt", img.Filename)
		h.raw(`><code>`)
		h.text(img.URL)
		h.raw(`</code> `)
		h.int(img.Width)
		h.raw(`×`)
		h.int(img.Height)
		h.raw(` · `)
		h.int(int((img.Size + 1023) / 1024))
		h.raw(` KB`)
		h.raw(`<form method="post" action="/blog/manage/images/delete/">`)
		h.csrf(csrf)
		h.hidden("filename", img.Filename)
		h.raw(`<button type="submit">Delete</button></form></li>`)
	}
	h.raw(`</ul></section>`)
}
