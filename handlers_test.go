package folio

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devemco/folio/blog"
	"github.com/devemco/folio/storage"
)

const (
	seedArchitecture = "category-first-blog-platform-without-cms"
	seedIoT          = "real-time-iot-data-pipelines-edge-cases"
	testCSRF         = "test-csrf-token"
)

func newTestApp(t *testing.T) (*App, *testClock) {
	t.Helper()
	clock := newTestClock()
	a := New(SiteConfig{
		Name:          "Dev Emco",
		URL:           "https://devemco.example",
		SessionSecret: "test-secret",
	}, DefaultViews(),
		WithBackend(storage.NewMemory()),
		WithStaticDir(t.TempDir()),
		WithClock(clock.Now),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, a.Setup(context.Background()))
	t.Cleanup(func() { _ = a.Close() })
	return a, clock
}

// browser keeps the cookies of one profile across requests.
type browser struct {
	t       *testing.T
	app     *App
	cookies map[string]*http.Cookie
}

func newBrowser(t *testing.T, a *App) *browser {
	return &browser{t: t, app: a, cookies: map[string]*http.Cookie{}}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	b.t.Helper()
	for name, c := range b.cookies {
		if name != "_csrf" {
			req.AddCookie(c)
		}
	}
	req.AddCookie(&http.Cookie{Name: "_csrf", Value: testCSRF})
	rec := httptest.NewRecorder()
	b.app.Echo.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		b.cookies[c.Name] = c
	}
	return rec
}

func (b *browser) get(target string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, target, nil))
}

func (b *browser) post(target string, form url.Values, htmx bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-CSRF-Token", testCSRF)
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return b.do(req)
}

func (b *browser) upload(target, field, filename string, data []byte) *httptest.ResponseRecorder {
	b.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(b.t, err)
	_, err = fw.Write(data)
	require.NoError(b.t, err)
	require.NoError(b.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-CSRF-Token", testCSRF)
	return b.do(req)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestRootRedirectsToBlog(t *testing.T) {
	a, _ := newTestApp(t)
	rec := newBrowser(t, a).get("/")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/blog/", rec.Header().Get("Location"))
}

func TestIndexListsSeedPosts(t *testing.T) {
	a, _ := newTestApp(t)
	b := newBrowser(t, a)
	rec := b.get("/blog/")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	for _, p := range blog.Seed() {
		assert.Contains(t, body, p.Title)
	}
	assert.Contains(t, body, "All (2)")
	assert.Contains(t, body, `data-featured-src="/blog/featured/"`)
	assert.Contains(t, b.cookies, profileSessionName)
	assert.Equal(t, "private, no-cache", rec.Header().Get("Cache-Control"))
}

func TestIndexUnknownCategoryIsEmpty(t *testing.T) {
	a, _ := newTestApp(t)
	rec := newBrowser(t, a).get("/blog/?category=nope")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No posts in this category yet.")
}

func TestPostNotFound(t *testing.T) {
	a, _ := newTestApp(t)
	b := newBrowser(t, a)

	rec := b.get("/blog/post/?slug=missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Post not found")

	rec = b.get("/blog/post/")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPostRendersEngagement(t *testing.T) {
	a, _ := newTestApp(t)
	rec := newBrowser(t, a).get(blog.PostPath(seedIoT))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `id="engagement"`)
	assert.Contains(t, body, "Like (62)")
	assert.Contains(t, body, "Share (29)")
	assert.Contains(t, body, "No comments yet.")
	assert.Contains(t, body, `"@type":"BlogPosting"`)
}

func TestLikeIsPerProfile(t *testing.T) {
	a, _ := newTestApp(t)
	alice := newBrowser(t, a)
	bob := newBrowser(t, a)
	alice.get("/blog/")
	bob.get("/blog/")

	rec := alice.post("/blog/post/like/", url.Values{"slug": {seedIoT}}, false)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, blog.PostPath(seedIoT)+"#engagement", rec.Header().Get("Location"))

	assert.Contains(t, alice.get(blog.PostPath(seedIoT)).Body.String(), "Liked (63)")
	assert.Contains(t, bob.get(blog.PostPath(seedIoT)).Body.String(), "Like (62)")

	alice.post("/blog/post/like/", url.Values{"slug": {seedIoT}}, false)
	assert.Contains(t, alice.get(blog.PostPath(seedIoT)).Body.String(), "Like (62)")
}

func TestShareReturnsPartial(t *testing.T) {
	a, _ := newTestApp(t)
	b := newBrowser(t, a)
	b.get("/blog/")

	rec := b.post("/blog/post/share/", url.Values{"slug": {seedIoT}}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, `<section id="engagement"`))
	assert.Contains(t, body, `data-shared="true"`)
	assert.Contains(t, body, "Share (30)")
	assert.Contains(t, body, "Thanks for sharing.")
	assert.NotContains(t, body, "<html")
}

func TestActionOnUnknownPost(t *testing.T) {
	a, _ := newTestApp(t)
	b := newBrowser(t, a)
	b.get("/blog/")
	rec := b.post("/blog/post/bookmark/", url.Values{"slug": {"missing"}}, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCommentValidation(t *testing.T) {
	a, _ := newTestApp(t)
	b := newBrowser(t, a)
	b.get("/blog/")

	rec := b.post("/blog/post/comments/", url.Values{"slug": {seedArchitecture}, "name": {"Ana"}, "text": {"too short"}}, true)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Comment is too short.")
	assert.Contains(t, rec.Body.String(), "too short</textarea>")

	rec = b.post("/blog/post/comments/", url.Values{"slug": {seedArchitecture}, "text": {strings.Repeat("x", 1201)}}, true)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Comment is too long (max 1200 characters).")

	rec = b.post("/blog/post/comments/", url.Values{"slug": {seedArchitecture}, "text": {"  A <useful> note about categories.  "}}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Comment added.")
	assert.Contains(t, body, "Comments (1)")
	assert.Contains(t, body, "A &lt;useful&gt; note about categories.")
	assert.Contains(t, body, "Anonymous")
}

func TestCommentRateLimit(t *testing.T) {
	a, _ := newTestApp(t)
	b := newBrowser(t, a)
	b.get("/blog/")

	// Rejected comments do not use up the quota.
	short := url.Values{"slug": {seedIoT}, "text": {"nope"}}
	for i := 0; i < a.Config.CommentLimit+2; i++ {
		require.Equal(t, http.StatusUnprocessableEntity, b.post("/blog/post/comments/", short, true).Code)
	}

	form := url.Values{"slug": {seedIoT}, "text": {"A perfectly reasonable comment."}}
	for i := 0; i < a.Config.CommentLimit; i++ {
		require.Equal(t, http.StatusOK, b.post("/blog/post/comments/", form, true).Code)
	}
	rec := b.post("/blog/post/comments/", form, true)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Too many comments.")
}

func TestPostWithoutCSRFIsRejected(t *testing.T) {
	a, _ := newTestApp(t)
	req := httptest.NewRequest(http.MethodPost, "/blog/post/like/", strings.NewReader("slug="+seedIoT))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestFeaturedRotatesWhileViewed(t *testing.T) {
	a, clock := newTestApp(t)
	b := newBrowser(t, a)

	first := b.get("/blog/featured/").Body.String()
	assert.Contains(t, first, "Real-Time")

	clock.Advance(a.Config.FeaturedInterval)
	second := b.get("/blog/featured/").Body.String()
	assert.NotEqual(t, first, second)

	clock.Advance(a.Config.FeaturedInterval)
	assert.Equal(t, first, b.get("/blog/featured/").Body.String())

	// After an idle gap the same item is shown again.
	clock.Advance(10 * time.Minute)
	assert.Equal(t, first, b.get("/blog/featured/").Body.String())
}

func TestFeedAndSitemap(t *testing.T) {
	a, _ := newTestApp(t)
	b := newBrowser(t, a)

	rec := b.get("/feed.xml")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/rss+xml")
	assert.Contains(t, rec.Body.String(), "https://devemco.example/blog/post/?slug="+seedIoT)

	rec = b.get("/sitemap.xml")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<loc>https://devemco.example/blog/</loc>")
	assert.Contains(t, rec.Body.String(), seedArchitecture)
}

func TestStaticRoutes(t *testing.T) {
	a, _ := newTestApp(t)
	b := newBrowser(t, a)

	rec := b.get("/robots.txt")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sitemap: https://devemco.example/sitemap.xml")

	rec = b.get("/favicon.svg")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))

	rec = b.get("/public/highlight.css")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")

	rec = b.get("/public/folio.js")
	assert.Equal(t, http.StatusOK, rec.Code)
}

const draftJSON = `{
  "slug": "Notes On Go",
  "title": "Notes on Go",
  "category": {"id": "notes"},
  "author": {"name": "Dev Emco"},
  "publishedAt": "2026-02-11",
  "seo": {"description": "Short notes."},
  "content": [{"type": "p", "text": "Hello from a custom post."}]
}`

func TestManageCreatesCustomPost(t *testing.T) {
	a, _ := newTestApp(t)
	alice := newBrowser(t, a)
	bob := newBrowser(t, a)
	alice.get("/blog/manage/")
	bob.get("/blog/")

	rec := alice.post("/blog/manage/posts/", url.Values{"draft": {draftJSON}}, false)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/blog/manage/?slug=notes-on-go&msg=post-created", rec.Header().Get("Location"))

	rec = alice.get(blog.PostPath("notes-on-go"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Hello from a custom post.")
	assert.Contains(t, alice.get("/blog/").Body.String(), "Notes (1)")

	assert.Equal(t, http.StatusNotFound, bob.get(blog.PostPath("notes-on-go")).Code)

	rec = alice.get("/blog/manage/?slug=notes-on-go&msg=post-created")
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Body.String(), "Post created.")
}

func TestManageRejectsInvalidDraft(t *testing.T) {
	a, _ := newTestApp(t)
	b := newBrowser(t, a)
	b.get("/blog/manage/")

	rec := b.post("/blog/manage/posts/", url.Values{"draft": {`{"slug": "x"}`}}, false)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Check field <code>title</code>")

	rec = b.post("/blog/manage/posts/", url.Values{"draft": {`[1, 2]`}}, false)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = b.post("/blog/manage/posts/update/", url.Values{"slug": {seedIoT}, "draft": {draftJSON}}, false)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Seed posts are read-only.")
}

func TestManageDeleteNeedsConfirmation(t *testing.T) {
	a, _ := newTestApp(t)
	b := newBrowser(t, a)
	b.get("/blog/")
	b.post("/blog/post/comments/", url.Values{"slug": {seedIoT}, "text": {"Comment to be removed later."}}, false)

	form := url.Values{"slug": {seedIoT}, "index": {"0"}}
	rec := b.post("/blog/manage/comments/delete/", form, false)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), msgConfirmFirst)

	form.Set("confirm", "yes")
	rec = b.post("/blog/manage/comments/delete/", form, false)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = b.post("/blog/manage/comments/delete/", form, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Comment not found.")
}

func TestManageExportImport(t *testing.T) {
	a, _ := newTestApp(t)
	b := newBrowser(t, a)
	b.get("/blog/manage/")

	payload := `{"bySlug": {"` + seedIoT + `": {"liked": true, "shares": 4}, "unknown": {"liked": true}}}`
	rec := b.post("/blog/manage/import/", url.Values{"payload": {payload}, "mode": {"replace"}}, false)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/blog/manage/?msg=replaced", rec.Header().Get("Location"))

	rec = b.get("/blog/manage/export/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "folio-engagement-20260211-083000.json")

	var env struct {
		Version int `json:"version"`
		BySlug  map[string]struct {
			Liked  bool `json:"liked"`
			Shares int  `json:"shares"`
		} `json:"bySlug"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, 1, env.Version)
	assert.True(t, env.BySlug[seedIoT].Liked)
	assert.Equal(t, 4, env.BySlug[seedIoT].Shares)
	assert.NotContains(t, env.BySlug, "unknown")

	rec = b.post("/blog/manage/import/", url.Values{"payload": {`{"nope": 1}`}, "mode": {"merge"}}, false)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "JSON payload missing bySlug")

	rec = b.post("/blog/manage/import/", url.Values{"payload": {""}, "mode": {"merge"}}, false)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Paste JSON first.")
}

func TestManageClearAll(t *testing.T) {
	a, _ := newTestApp(t)
	b := newBrowser(t, a)
	b.get("/blog/")
	b.post("/blog/post/like/", url.Values{"slug": {seedIoT}}, false)

	rec := b.post("/blog/manage/clear/", url.Values{"confirm": {"yes"}}, false)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, b.get(blog.PostPath(seedIoT)).Body.String(), "Like (62)")
}

func TestUploadsArePerProfile(t *testing.T) {
	a, _ := newTestApp(t)
	alice := newBrowser(t, a)
	bob := newBrowser(t, a)
	alice.get("/blog/manage/")
	bob.get("/blog/manage/")

	rec := alice.upload("/blog/manage/images/", "image", "Alice Cover.png", pngBytes(t, 8, 4))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	matches, err := filepath.Glob(filepath.Join(a.staticDir, uploadsSubdir, "*", "alice-cover.jpg"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	stored := matches[0]
	aliceID := filepath.Base(filepath.Dir(stored))

	page := alice.get("/blog/manage/").Body.String()
	assert.Contains(t, page, "/public/uploads/"+aliceID+"/alice-cover.jpg")

	assert.NotContains(t, bob.get("/blog/manage/").Body.String(), "alice-cover.jpg")

	rec = bob.post("/blog/manage/images/delete/", url.Values{"filename": {"alice-cover.jpg"}}, false)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	_, err = os.Stat(stored)
	assert.NoError(t, err)

	rec = bob.post("/blog/manage/images/delete/", url.Values{"filename": {"../" + aliceID + "/alice-cover.jpg"}}, false)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	_, err = os.Stat(stored)
	assert.NoError(t, err)

	rec = alice.post("/blog/manage/images/delete/", url.Values{"filename": {"alice-cover.jpg"}}, false)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	_, err = os.Stat(stored)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestUploadRejectsNonImage(t *testing.T) {
	a, _ := newTestApp(t)
	b := newBrowser(t, a)
	b.get("/blog/manage/")

	rec := b.upload("/blog/manage/images/", "image", "notes.png", []byte("not an image"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid image")
}

func TestClientScriptCopiesWhenShareFails(t *testing.T) {
	a, _ := newTestApp(t)
	rec := newBrowser(t, a).get("/public/folio.js")
	require.Equal(t, http.StatusOK, rec.Code)
	js := rec.Body.String()
	assert.Contains(t, js, "navigator.share({ title: title, url: url }).catch(copy)")
}
