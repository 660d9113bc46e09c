package folio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/devemco/folio/blog"
	"github.com/devemco/folio/engagement"
	"github.com/devemco/folio/metrics"
	"github.com/devemco/folio/render"
	"github.com/devemco/folio/views"
)

const relatedLimit = 3

// Messages shown in the engagement region.
const (
	msgCommentTooShort = "Comment is too short. Add more context (at least 12 characters)."
	msgCommentTooLong  = "Comment is too long (max 1200 characters)."
	msgCommentLimited  = "Too many comments. Try again in a minute."
	msgCommentAdded    = "Comment added."
	msgShared          = "Thanks for sharing."
)

func cardFor(p blog.Post, rec engagement.Record) views.PostCard {
	return views.PostCard{
		Post:       p,
		Minutes:    blog.ReadingMinutes(p),
		Counts:     rec.Counts(p),
		Liked:      rec.Liked,
		Bookmarked: rec.Bookmarked,
	}
}

func (a *App) card(ctx context.Context, s *Session, p blog.Post) (views.PostCard, error) {
	rec, err := s.Engagement.Record(ctx, p.Slug)
	if err != nil {
		return views.PostCard{}, err
	}
	return cardFor(p, rec), nil
}

func (a *App) cards(ctx context.Context, s *Session, posts []blog.Post) ([]views.PostCard, error) {
	out := make([]views.PostCard, 0, len(posts))
	for _, p := range posts {
		card, err := a.card(ctx, s, p)
		if err != nil {
			return nil, err
		}
		out = append(out, card)
	}
	return out, nil
}

func (a *App) featuredCard(ctx context.Context, s *Session, posts []blog.Post) (*views.PostCard, error) {
	p, ok := Featured(posts, s.Featured.Tick(a.now()))
	if !ok {
		return nil, nil
	}
	card, err := a.card(ctx, s, p)
	if err != nil {
		return nil, err
	}
	return &card, nil
}

func (a *App) handleIndex(c echo.Context) error {
	ctx := c.Request().Context()
	s := CurrentSession(c)
	all := s.Posts.All()

	category := strings.TrimSpace(c.QueryParam("category"))
	if category == "" {
		category = blog.AllCategory
	}
	mode := blog.ParseSortMode(c.QueryParam("sort"))

	list, err := a.cards(ctx, s, blog.Sort(blog.FilterByCategory(all, category), mode))
	if err != nil {
		return err
	}
	featured, err := a.featuredCard(ctx, s, all)
	if err != nil {
		return err
	}
	site := a.Config.View()
	return Render(c, a.Views.Index(views.IndexPage{
		Site: site,
		Meta: views.PageMeta{
			Title:       "Blog · " + site.Name,
			Description: site.Description,
			URL:         views.AbsoluteURL(site.URL, "/blog/"),
			OGType:      "website",
			JSONLD:      views.WebsiteJsonLD(site),
			CSRF:        CsrfToken(c),
		},
		Categories:     blog.CategoryAggregates(all),
		ActiveCategory: category,
		Sort:           mode,
		Posts:          list,
		Featured:       featured,
	}))
}

// handleFeatured returns the featured card alone. The client polls it while
// the index is visible.
func (a *App) handleFeatured(c echo.Context) error {
	s := CurrentSession(c)
	featured, err := a.featuredCard(c.Request().Context(), s, s.Posts.All())
	if err != nil {
		return err
	}
	return Render(c, a.Views.Featured(featured))
}

func (a *App) postPage(c echo.Context, s *Session, post blog.Post) (views.PostPage, error) {
	rec, err := s.Engagement.Record(c.Request().Context(), post.Slug)
	if err != nil {
		return views.PostPage{}, err
	}
	related := blog.Related(post, s.Posts.All())
	if len(related) > relatedLimit {
		related = related[:relatedLimit]
	}
	site := a.Config.View()
	shareURL := views.PostURL(site, post)
	return views.PostPage{
		Site: site,
		Meta: views.PageMeta{
			Title:       post.Title + " · " + site.Name,
			Description: blog.Description(post),
			URL:         shareURL,
			OGType:      "article",
			Image:       views.CoverURL(site, post),
			JSONLD:      views.BlogPostingJsonLD(site, post),
			CSRF:        CsrfToken(c),
		},
		Card:     cardFor(post, rec),
		Comments: rec.Comments,
		Related:  related,
		ShareURL: shareURL,
	}, nil
}

func (a *App) renderNotFound(c echo.Context) error {
	site := a.Config.View()
	return RenderStatus(c, http.StatusNotFound, a.Views.NotFound(site, views.PageMeta{CSRF: CsrfToken(c)}))
}

func (a *App) handlePost(c echo.Context) error {
	s := CurrentSession(c)
	post, ok := s.Posts.Get(strings.TrimSpace(c.QueryParam("slug")))
	if !ok {
		return a.renderNotFound(c)
	}
	page, err := a.postPage(c, s, post)
	if err != nil {
		return err
	}
	return Render(c, a.Views.Post(page))
}

// actionResult is what an engagement action reports back to the page.
type actionResult struct {
	status  int
	message string
	shared  bool
	draft   views.CommentDraft
}

// postAction resolves the post named by the slug form value, applies act and
// answers with the engagement region (htmx) or a redirect to the post.
func (a *App) postAction(c echo.Context, act func(ctx context.Context, s *Session, post blog.Post) (actionResult, error)) error {
	ctx := c.Request().Context()
	s := CurrentSession(c)
	post, ok := s.Posts.Get(strings.TrimSpace(c.FormValue("slug")))
	if !ok {
		return a.renderNotFound(c)
	}
	res, err := act(ctx, s, post)
	if err != nil {
		return err
	}
	if res.status == 0 {
		res.status = http.StatusOK
	}
	if !isHTMX(c) && res.status == http.StatusOK {
		return c.Redirect(http.StatusSeeOther, post.Link()+"#engagement")
	}
	page, err := a.postPage(c, s, post)
	if err != nil {
		return err
	}
	page.Message = res.message
	page.Shared = res.shared
	page.Draft = res.draft
	if isHTMX(c) {
		return RenderStatus(c, res.status, a.Views.Engagement(page))
	}
	return RenderStatus(c, res.status, a.Views.Post(page))
}

func (a *App) handleLike(c echo.Context) error {
	return a.postAction(c, func(ctx context.Context, s *Session, post blog.Post) (actionResult, error) {
		if _, err := s.Engagement.ToggleLiked(ctx, post.Slug); err != nil {
			return actionResult{}, err
		}
		metrics.EngagementActions.WithLabelValues(string(engagement.KindLiked), "post").Inc()
		return actionResult{}, nil
	})
}

func (a *App) handleBookmark(c echo.Context) error {
	return a.postAction(c, func(ctx context.Context, s *Session, post blog.Post) (actionResult, error) {
		if _, err := s.Engagement.ToggleBookmarked(ctx, post.Slug); err != nil {
			return actionResult{}, err
		}
		metrics.EngagementActions.WithLabelValues(string(engagement.KindBookmarked), "post").Inc()
		return actionResult{}, nil
	})
}

func (a *App) handleShare(c echo.Context) error {
	return a.postAction(c, func(ctx context.Context, s *Session, post blog.Post) (actionResult, error) {
		if _, err := s.Engagement.IncrementShares(ctx, post.Slug); err != nil {
			return actionResult{}, err
		}
		metrics.EngagementActions.WithLabelValues(string(engagement.KindShared), "post").Inc()
		return actionResult{message: msgShared, shared: true}, nil
	})
}

func (a *App) handleComment(c echo.Context) error {
	return a.postAction(c, func(ctx context.Context, s *Session, post blog.Post) (actionResult, error) {
		draft := views.CommentDraft{Name: c.FormValue("name"), Text: c.FormValue("text")}
		rejected := func(reason, msg string) (actionResult, error) {
			metrics.CommentRejections.WithLabelValues(reason).Inc()
			return actionResult{status: http.StatusUnprocessableEntity, message: msg, draft: draft}, nil
		}
		// Invalid comments do not count against the rate limit.
		_, err := engagement.CheckCommentText(draft.Text)
		switch {
		case errors.Is(err, engagement.ErrCommentTooShort):
			return rejected("too_short", msgCommentTooShort)
		case errors.Is(err, engagement.ErrCommentTooLong):
			return rejected("too_long", msgCommentTooLong)
		}
		if !a.commentLimiter.Allow(c.RealIP()) {
			metrics.CommentRejections.WithLabelValues("rate_limited").Inc()
			return actionResult{status: http.StatusTooManyRequests, message: msgCommentLimited, draft: draft}, nil
		}
		if _, err := s.Engagement.AddComment(ctx, post.Slug, draft.Name, draft.Text); err != nil {
			return actionResult{}, err
		}
		metrics.EngagementActions.WithLabelValues(string(engagement.KindComments), "post").Inc()
		return actionResult{message: msgCommentAdded}, nil
	})
}

func (a *App) handleSitemap(c echo.Context) error {
	return a.renderSitemap(c, CurrentSession(c).Posts.All())
}

func (a *App) handleFeed(c echo.Context) error {
	return a.renderRSS(c, CurrentSession(c).Posts.All())
}

func handleRootRedirect(c echo.Context) error {
	return c.Redirect(http.StatusFound, "/blog/")
}

func handleFavicon(c echo.Context) error {
	data, err := EmbeddedAssets.ReadFile("embedded/favicon.svg")
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "image/svg+xml", data)
}

func handleHighlightCSS(c echo.Context) error {
	var buf bytes.Buffer
	if err := render.WriteHighlightCSS(&buf); err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "text/css; charset=utf-8", buf.Bytes())
}

func (a *App) handleRobots(c echo.Context) error {
	site := a.Config.View()
	body := fmt.Sprintf("User-agent: *\nAllow: /\nDisallow: /blog/manage/\n\nSitemap: %s\n",
		views.AbsoluteURL(site.URL, "/sitemap.xml"))
	return c.String(http.StatusOK, body)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = a.renderNotFound(c)
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.Logger.Error("server error", "method", c.Request().Method, "uri", c.Request().RequestURI, "err", err)
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
