package views

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devemco/folio/blog"
	"github.com/devemco/folio/engagement"
)

var site = SiteConfig{Name: "Dev Emco", URL: "https://devemco.example/", Author: "Emco"}

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func samplePost() blog.Post {
	published := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	return blog.Post{
		ID:          "p1",
		Slug:        "edge-<gateways>",
		Title:       `Edge "gateways" & <queues>`,
		Category:    blog.Category{ID: "iot", Name: "IoT & Real-Time"},
		Tags:        []string{"mqtt", "go"},
		Author:      blog.Author{Name: "Ada"},
		PublishedAt: published,
		UpdatedAt:   published.Add(48 * time.Hour),
		SEO:         blog.SEO{Description: "desc"},
		Cover:       &blog.Cover{Src: "/public/uploads/c.jpg", Alt: "cover"},
		Content:     blog.Content{blog.Paragraph{Text: "<b>hi</b>"}},
	}
}

func TestAbsoluteURL(t *testing.T) {
	tests := []struct {
		base, ref, want string
	}{
		{"https://x.dev", "/blog/post/?slug=a", "https://x.dev/blog/post/?slug=a"},
		{"https://x.dev/", "/blog/", "https://x.dev/blog/"},
		{"https://x.dev/site", "/feed.xml", "https://x.dev/site/feed.xml"},
		{"https://x.dev", "https://cdn.dev/i.png", "https://cdn.dev/i.png"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AbsoluteURL(tt.base, tt.ref), tt.ref)
	}
}

func TestIndexAndManageURL(t *testing.T) {
	assert.Equal(t, "/blog/", IndexURL("all", blog.SortNewest))
	assert.Equal(t, "/blog/?category=iot&sort=oldest", IndexURL("iot", blog.SortOldest))
	assert.Equal(t, "/blog/manage/", ManageURL(""))
	assert.Equal(t, "/blog/manage/?slug=a+b", ManageURL("a b"))
	assert.Equal(t, "/blog/manage/?edit=x&slug=x#editor", EditURL("x"))
	assert.Equal(t, "", FormatDate(time.Time{}))
	assert.Equal(t, "Feb 10, 2026", FormatDate(samplePost().PublishedAt))
}

func TestBlogPostingJsonLD(t *testing.T) {
	var ld map[string]any
	require.NoError(t, json.Unmarshal([]byte(BlogPostingJsonLD(site, samplePost())), &ld))

	assert.Equal(t, "BlogPosting", ld["@type"])
	assert.Equal(t, `Edge "gateways" & <queues>`, ld["headline"])
	assert.Equal(t, "2026-02-10T09:00:00Z", ld["datePublished"])
	assert.Equal(t, "2026-02-12T09:00:00Z", ld["dateModified"])
	assert.Equal(t, "https://devemco.example/public/uploads/c.jpg", ld["image"])
	assert.Equal(t, "mqtt, go", ld["keywords"])
	assert.Equal(t, "IoT & Real-Time", ld["articleSection"])
	author := ld["author"].(map[string]any)
	assert.Equal(t, "Ada", author["name"])
}

func TestJsonLDIsScriptSafe(t *testing.T) {
	p := samplePost()
	p.Title = "</script><script>alert(1)</script>"
	out := BlogPostingJsonLD(site, p)
	assert.NotContains(t, out, "</script>")
}

func TestWebsiteJsonLDOmitsEmptyDescription(t *testing.T) {
	var ld map[string]any
	require.NoError(t, json.Unmarshal([]byte(WebsiteJsonLD(site)), &ld))
	assert.Equal(t, "https://devemco.example/", ld["url"])
	_, ok := ld["description"]
	assert.False(t, ok)
}

func TestPostEscapesContent(t *testing.T) {
	post := samplePost()
	page := PostPage{
		Site: site,
		Meta: PageMeta{Title: post.Title, CSRF: "tok"},
		Card: PostCard{Post: post, Minutes: 3, Counts: engagement.Counts{Likes: 5, Shares: 2, Comments: 1}, Liked: true},
		Comments: []blog.Comment{
			{ID: "c_1", Name: "<i>eve</i>", Text: "hello <script>", CreatedAt: post.PublishedAt},
		},
	}
	out := renderString(t, Post(page))

	assert.Contains(t, out, "Edge &#34;gateways&#34; &amp; &lt;queues&gt;")
	assert.Contains(t, out, "&lt;b&gt;hi&lt;/b&gt;")
	assert.Contains(t, out, "&lt;i&gt;eve&lt;/i&gt;")
	assert.NotContains(t, out, "<script>alert")
	assert.NotContains(t, out, "hello <script>")
	assert.Contains(t, out, "Liked (5)")
	assert.Contains(t, out, `aria-pressed="true"`)
	assert.Contains(t, out, `name="_csrf" value="tok"`)
	assert.Contains(t, out, "3 min read")
}

func TestEngagementEmptyComments(t *testing.T) {
	page := PostPage{Card: PostCard{Post: samplePost()}, ShareURL: "https://x.dev/p", Shared: true}
	out := renderString(t, Engagement(page))
	assert.Contains(t, out, `id="engagement"`)
	assert.Contains(t, out, `data-shared="true"`)
	assert.Contains(t, out, "No comments yet.")
	assert.Contains(t, out, "Like (0)")
}

func TestIndexEmptyCategory(t *testing.T) {
	out := renderString(t, Index(IndexPage{
		Site:           site,
		Categories:     []blog.CategoryCount{{Category: blog.Category{ID: "all", Name: "All"}, Count: 0}},
		ActiveCategory: "all",
		Sort:           blog.SortNewest,
	}))
	assert.Contains(t, out, "No posts in this category yet.")
	assert.Contains(t, out, "All (0)")
}

func TestFeaturedNilRendersNothing(t *testing.T) {
	assert.Empty(t, renderString(t, Featured(nil)))
}

func TestNotFound(t *testing.T) {
	out := renderString(t, NotFound(site, PageMeta{}))
	assert.Contains(t, out, "Post not found")
	assert.Contains(t, out, "<title>Post not found · Dev Emco</title>")
}

func TestManageShowsCustomControls(t *testing.T) {
	post := samplePost()
	post.Custom = true
	card := PostCard{Post: post}
	out := renderString(t, Manage(ManagePage{
		Site:    site,
		Summary: engagement.Summary{Liked: 1, Comments: 3},
		Posts:   []PostCard{card},
		Detail: &ManageDetail{Card: card, Comments: []blog.Comment{
			{ID: "c_1", Name: "A", Text: "first comment text"},
		}},
		Editor: PostEditor{Field: "title", Draft: `{"slug":"x"}`},
	}))
	assert.Contains(t, out, "/blog/manage/posts/delete/")
	assert.Contains(t, out, "/blog/manage/comments/delete/")
	assert.Contains(t, out, `name="index" value="0"`)
	assert.Contains(t, out, "Check field <code>title</code>")
	assert.Contains(t, out, "{&#34;slug&#34;:&#34;x&#34;}")
}
