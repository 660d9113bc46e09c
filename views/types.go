package views

import (
	"time"

	"github.com/devemco/folio/blog"
	"github.com/devemco/folio/engagement"
)

// SiteConfig holds site-wide settings populated from environment variables.
// Every handler passes this to templates so nothing is hardcoded.
type SiteConfig struct {
	Name        string // SITE_NAME  (default "Dev Emco")
	URL         string // SITE_URL   (default "http://localhost:3000")
	Description string // SITE_DESCRIPTION
	Author      string // SITE_AUTHOR
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string // og:image, absolute
	JSONLD      string
	CSRF        string
}

// PostCard is a post with the values derived for display.
type PostCard struct {
	Post       blog.Post
	Minutes    int
	Counts     engagement.Counts
	Liked      bool
	Bookmarked bool
}

// IndexPage is the post index.
type IndexPage struct {
	Site           SiteConfig
	Meta           PageMeta
	Categories     []blog.CategoryCount
	ActiveCategory string
	Sort           blog.SortMode
	Posts          []PostCard
	Featured       *PostCard
}

// PostPage is the detail page of one post. Its engagement section is also
// rendered alone after a like, bookmark, share or comment.
type PostPage struct {
	Site     SiteConfig
	Meta     PageMeta
	Card     PostCard
	Comments []blog.Comment
	Related  []blog.Post
	ShareURL string
	// Shared is set right after a share so the client can open the share sheet.
	Shared  bool
	Message string
	Draft   CommentDraft
}

// CommentDraft echoes a rejected comment back into the form.
type CommentDraft struct {
	Name string
	Text string
}

// ManagePage is the manage console.
type ManagePage struct {
	Site    SiteConfig
	Meta    PageMeta
	Summary engagement.Summary
	Posts   []PostCard
	Detail  *ManageDetail
	Editor  PostEditor
	Images  []ImageInfo
	Notice  string
	Error   string
	// ImportText echoes a rejected import payload.
	ImportText string
}

// ManageDetail is the selected post of the console.
type ManageDetail struct {
	Card     PostCard
	Comments []blog.Comment
}

// PostEditor is the custom post form. Slug is empty when creating.
type PostEditor struct {
	Slug  string
	Draft string
	Field string // first invalid field of the last submission
}

// ImageInfo describes an uploaded cover image.
type ImageInfo struct {
	Filename   string
	URL        string
	Width      int
	Height     int
	Size       int64
	UploadedAt time.Time
}
