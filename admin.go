package folio

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/devemco/folio/blog"
	"github.com/devemco/folio/engagement"
	"github.com/devemco/folio/metrics"
	"github.com/devemco/folio/posts"
	"github.com/devemco/folio/views"
)

// manageNotices maps the msg query value set by redirects to its text.
var manageNotices = map[string]string{
	"liked":           "Like toggled.",
	"bookmarked":      "Bookmark toggled.",
	"shared":          "Share counted.",
	"reset":           "Post interactions reset.",
	"cleared":         "All interactions reset.",
	"comment-saved":   "Comment saved.",
	"comment-deleted": "Comment deleted.",
	"merged":          "Imported (merged).",
	"replaced":        "Imported (replaced existing data).",
	"post-created":    "Post created.",
	"post-saved":      "Post saved.",
	"post-deleted":    "Post deleted.",
	"image-uploaded":  "Image uploaded.",
	"image-deleted":   "Image deleted.",
}

const msgConfirmFirst = "Tick the confirmation box first."

// manageState carries a failed submission back into the console.
type manageState struct {
	status     int
	slug       string
	err        string
	editor     *views.PostEditor
	importText string
}

func (a *App) handleManage(c echo.Context) error {
	s := CurrentSession(c)
	if c.QueryParams().Has("edit") {
		s.Editing = ""
		if p, ok := s.Posts.Get(strings.TrimSpace(c.QueryParam("edit"))); ok && p.Custom {
			s.Editing = p.Slug
		}
	}
	return a.renderManage(c, manageState{slug: c.QueryParam("slug")})
}

func (a *App) renderManage(c echo.Context, st manageState) error {
	ctx := c.Request().Context()
	s := CurrentSession(c)
	all := blog.Sort(s.Posts.All(), blog.SortNewest)

	list, err := a.cards(ctx, s, all)
	if err != nil {
		return err
	}
	summary, err := s.Engagement.Summary(ctx, all)
	if err != nil {
		return err
	}

	var detail *views.ManageDetail
	slug := strings.TrimSpace(st.slug)
	if slug == "" && len(all) > 0 {
		slug = all[0].Slug
	}
	if post, ok := s.Posts.Get(slug); ok {
		rec, err := s.Engagement.Record(ctx, slug)
		if err != nil {
			return err
		}
		detail = &views.ManageDetail{Card: cardFor(post, rec), Comments: rec.Comments}
	}

	editor := views.PostEditor{}
	switch {
	case st.editor != nil:
		editor = *st.editor
	case s.Editing != "":
		if post, ok := s.Posts.Get(s.Editing); ok {
			data, err := json.MarshalIndent(post, "", "  ")
			if err != nil {
				return err
			}
			editor = views.PostEditor{Slug: post.Slug, Draft: string(data)}
		}
	}

	images, err := a.listImages(s.ID)
	if err != nil {
		return err
	}

	site := a.Config.View()
	status := st.status
	if status == 0 {
		status = http.StatusOK
	}
	return RenderStatus(c, status, a.Views.Manage(views.ManagePage{
		Site: site,
		Meta: views.PageMeta{
			Title: "Manage · " + site.Name,
			URL:   views.AbsoluteURL(site.URL, "/blog/manage/"),
			CSRF:  CsrfToken(c),
		},
		Summary:    summary,
		Posts:      list,
		Detail:     detail,
		Editor:     editor,
		Images:     images,
		Notice:     manageNotices[c.QueryParam("msg")],
		Error:      st.err,
		ImportText: st.importText,
	}))
}

// manageRedirect answers a successful console action with a redirect that
// shows notice msg and keeps slug selected.
func manageRedirect(c echo.Context, slug, msg string) error {
	target := views.ManageURL(slug)
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return c.Redirect(http.StatusSeeOther, target+sep+"msg="+msg)
}

func confirmed(c echo.Context) bool {
	return c.FormValue("confirm") == "yes"
}

// managedPost resolves the slug form value of a console action.
func (a *App) managedPost(c echo.Context) (blog.Post, bool) {
	return CurrentSession(c).Posts.Get(strings.TrimSpace(c.FormValue("slug")))
}

func (a *App) postNotFound(c echo.Context) error {
	return a.renderManage(c, manageState{status: http.StatusNotFound, err: "Post not found."})
}

func (a *App) handleManageLike(c echo.Context) error {
	post, ok := a.managedPost(c)
	if !ok {
		return a.postNotFound(c)
	}
	if _, err := CurrentSession(c).Engagement.ToggleLiked(c.Request().Context(), post.Slug); err != nil {
		return err
	}
	metrics.EngagementActions.WithLabelValues(string(engagement.KindLiked), "manage").Inc()
	return manageRedirect(c, post.Slug, "liked")
}

func (a *App) handleManageBookmark(c echo.Context) error {
	post, ok := a.managedPost(c)
	if !ok {
		return a.postNotFound(c)
	}
	if _, err := CurrentSession(c).Engagement.ToggleBookmarked(c.Request().Context(), post.Slug); err != nil {
		return err
	}
	metrics.EngagementActions.WithLabelValues(string(engagement.KindBookmarked), "manage").Inc()
	return manageRedirect(c, post.Slug, "bookmarked")
}

func (a *App) handleManageShare(c echo.Context) error {
	post, ok := a.managedPost(c)
	if !ok {
		return a.postNotFound(c)
	}
	if _, err := CurrentSession(c).Engagement.IncrementShares(c.Request().Context(), post.Slug); err != nil {
		return err
	}
	metrics.EngagementActions.WithLabelValues(string(engagement.KindShared), "manage").Inc()
	return manageRedirect(c, post.Slug, "shared")
}

func (a *App) handleManageReset(c echo.Context) error {
	post, ok := a.managedPost(c)
	if !ok {
		return a.postNotFound(c)
	}
	if !confirmed(c) {
		return a.renderManage(c, manageState{status: http.StatusUnprocessableEntity, slug: post.Slug, err: msgConfirmFirst})
	}
	if err := CurrentSession(c).Engagement.Reset(c.Request().Context(), post.Slug); err != nil {
		return err
	}
	return manageRedirect(c, post.Slug, "reset")
}

func (a *App) handleManageClear(c echo.Context) error {
	if !confirmed(c) {
		return a.renderManage(c, manageState{status: http.StatusUnprocessableEntity, err: msgConfirmFirst})
	}
	if err := CurrentSession(c).Engagement.ClearAll(c.Request().Context()); err != nil {
		return err
	}
	a.Logger.Info("engagement cleared", "profile", CurrentSession(c).ID)
	return manageRedirect(c, "", "cleared")
}

// commentFailure maps a comment edit or delete error to a console state.
func commentFailure(slug string, err error) (manageState, bool) {
	st := manageState{status: http.StatusUnprocessableEntity, slug: slug}
	switch {
	case errors.Is(err, engagement.ErrCommentTooShort):
		st.err = fmt.Sprintf("Comment is too short (min %d characters).", engagement.MinCommentLength)
	case errors.Is(err, engagement.ErrCommentTooLong):
		st.err = fmt.Sprintf("Comment is too long (max %d characters).", engagement.MaxCommentLength)
	case errors.Is(err, engagement.ErrCommentNotFound):
		st.status = http.StatusNotFound
		st.err = "Comment not found."
	default:
		return manageState{}, false
	}
	return st, true
}

func commentIndex(c echo.Context) int {
	i, err := strconv.Atoi(strings.TrimSpace(c.FormValue("index")))
	if err != nil {
		return -1
	}
	return i
}

func (a *App) handleManageCommentEdit(c echo.Context) error {
	post, ok := a.managedPost(c)
	if !ok {
		return a.postNotFound(c)
	}
	err := CurrentSession(c).Engagement.EditComment(c.Request().Context(), post.Slug, commentIndex(c), c.FormValue("text"))
	if err != nil {
		if st, ok := commentFailure(post.Slug, err); ok {
			return a.renderManage(c, st)
		}
		return err
	}
	return manageRedirect(c, post.Slug, "comment-saved")
}

func (a *App) handleManageCommentDelete(c echo.Context) error {
	post, ok := a.managedPost(c)
	if !ok {
		return a.postNotFound(c)
	}
	if !confirmed(c) {
		return a.renderManage(c, manageState{status: http.StatusUnprocessableEntity, slug: post.Slug, err: msgConfirmFirst})
	}
	err := CurrentSession(c).Engagement.DeleteComment(c.Request().Context(), post.Slug, commentIndex(c))
	if err != nil {
		if st, ok := commentFailure(post.Slug, err); ok {
			return a.renderManage(c, st)
		}
		return err
	}
	return manageRedirect(c, post.Slug, "comment-deleted")
}

func (a *App) handleManageExport(c echo.Context) error {
	s := CurrentSession(c)
	env, err := s.Engagement.Export(c.Request().Context(), s.Posts.All())
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return err
	}
	name := "folio-engagement-" + env.CreatedAt.Format("20060102-150405") + ".json"
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSONCharsetUTF8, data)
}

func (a *App) handleManageImport(c echo.Context) error {
	s := CurrentSession(c)
	text := strings.TrimSpace(c.FormValue("payload"))
	fail := func(msg string) error {
		return a.renderManage(c, manageState{status: http.StatusUnprocessableEntity, err: msg, importText: text})
	}
	if text == "" {
		return fail("Paste JSON first.")
	}
	mode, err := engagement.ParseMode(c.FormValue("mode"))
	if err != nil {
		return fail("Choose merge or replace.")
	}
	res, err := s.Engagement.Import(c.Request().Context(), s.Posts.All(), []byte(text), mode)
	metrics.Imports.WithLabelValues(string(mode), metrics.Result(err)).Inc()
	switch {
	case errors.Is(err, engagement.ErrInvalidPayload), errors.Is(err, engagement.ErrMissingBySlug):
		return fail(err.Error())
	case err != nil:
		return err
	}
	a.Logger.Info("engagement imported", "profile", s.ID, "mode", mode, "applied", res.Applied, "skipped", res.Skipped)
	if mode == engagement.ModeReplace {
		return manageRedirect(c, "", "replaced")
	}
	return manageRedirect(c, "", "merged")
}

// draftFailure maps a create or update error to a console state that keeps
// the submitted draft in the editor.
func draftFailure(editing, text string, err error) (manageState, bool) {
	editor := &views.PostEditor{Slug: editing, Draft: text}
	st := manageState{status: http.StatusUnprocessableEntity, slug: editing, editor: editor}
	var fe *blog.FieldError
	switch {
	case errors.As(err, &fe):
		editor.Field = fe.Field
		st.err = "Invalid post: " + fe.Error()
	case errors.Is(err, blog.ErrDraftNotObject), errors.Is(err, blog.ErrDraftSyntax):
		st.err = err.Error()
	case errors.Is(err, posts.ErrNotCustom):
		st.err = "Seed posts are read-only."
	case errors.Is(err, posts.ErrNotFound):
		st.status = http.StatusNotFound
		st.err = "Post not found."
	default:
		return manageState{}, false
	}
	return st, true
}

func (a *App) handlePostCreate(c echo.Context) error {
	s := CurrentSession(c)
	text := c.FormValue("draft")
	post, err := a.createPost(c, s, text)
	metrics.PostMutations.WithLabelValues("create", metrics.Result(err)).Inc()
	if err != nil {
		if st, ok := draftFailure("", text, err); ok {
			return a.renderManage(c, st)
		}
		return err
	}
	s.Editing = ""
	return manageRedirect(c, post.Slug, "post-created")
}

func (a *App) createPost(c echo.Context, s *Session, text string) (blog.Post, error) {
	d, err := blog.ParseDraft([]byte(text))
	if err != nil {
		return blog.Post{}, err
	}
	return s.Posts.Create(c.Request().Context(), d)
}

func (a *App) handlePostUpdate(c echo.Context) error {
	s := CurrentSession(c)
	slug := strings.TrimSpace(c.FormValue("slug"))
	text := c.FormValue("draft")
	post, err := a.updatePost(c, s, slug, text)
	metrics.PostMutations.WithLabelValues("update", metrics.Result(err)).Inc()
	if err != nil {
		if st, ok := draftFailure(slug, text, err); ok {
			return a.renderManage(c, st)
		}
		return err
	}
	s.Editing = ""
	return manageRedirect(c, post.Slug, "post-saved")
}

func (a *App) updatePost(c echo.Context, s *Session, slug, text string) (blog.Post, error) {
	d, err := blog.ParseDraft([]byte(text))
	if err != nil {
		return blog.Post{}, err
	}
	return s.Posts.Update(c.Request().Context(), slug, d)
}

func (a *App) handlePostDelete(c echo.Context) error {
	s := CurrentSession(c)
	slug := strings.TrimSpace(c.FormValue("slug"))
	if !confirmed(c) {
		return a.renderManage(c, manageState{status: http.StatusUnprocessableEntity, slug: slug, err: msgConfirmFirst})
	}
	err := s.Posts.Delete(c.Request().Context(), slug)
	metrics.PostMutations.WithLabelValues("delete", metrics.Result(err)).Inc()
	if err != nil {
		if st, ok := draftFailure("", "", err); ok {
			st.slug = slug
			return a.renderManage(c, st)
		}
		return err
	}
	if s.Editing == slug {
		s.Editing = ""
	}
	return manageRedirect(c, "", "post-deleted")
}

func (a *App) handleImageUpload(c echo.Context) error {
	fail := func(msg string) error {
		return a.renderManage(c, manageState{status: http.StatusUnprocessableEntity, err: msg})
	}
	file, err := c.FormFile("image")
	if err != nil {
		return fail("No image file provided.")
	}
	if file.Size > maxUploadSize {
		return fail("File too large (max 10MB).")
	}
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	info, err := a.saveImage(CurrentSession(c).ID, src, file.Filename)
	if err != nil {
		return fail("Invalid image: " + err.Error())
	}
	a.Logger.Info("image uploaded", "profile", CurrentSession(c).ID, "file", info.Filename, "width", info.Width, "height", info.Height)
	return manageRedirect(c, "", "image-uploaded")
}

func (a *App) handleImageDelete(c echo.Context) error {
	if err := a.deleteImage(CurrentSession(c).ID, c.FormValue("filename")); err != nil {
		if errors.Is(err, errBadFilename) {
			return a.renderManage(c, manageState{status: http.StatusUnprocessableEntity, err: "Invalid image filename."})
		}
		return err
	}
	return manageRedirect(c, "", "image-deleted")
}
