package folio

import (
	"encoding/xml"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/devemco/folio/blog"
	"github.com/devemco/folio/render"
	"github.com/devemco/folio/views"
)

const (
	// feedLimit caps the number of items in the RSS feed.
	feedLimit = 20
	// feedSummaryRunes caps descriptions built from the post body.
	feedSummaryRunes = 280
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link"`
	Description string  `xml:"description"`
	Category    string  `xml:"category,omitempty"`
	PubDate     string  `xml:"pubDate"`
	GUID        rssGUID `xml:"guid"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

func buildFeed(site views.SiteConfig, posts []blog.Post) rssXML {
	recent := blog.Recent(posts, feedLimit)
	items := make([]rssItem, 0, len(recent))
	var latest time.Time
	for _, p := range recent {
		if m := p.Modified(); m.After(latest) {
			latest = m
		}
		postURL := views.PostURL(site, p)
		items = append(items, rssItem{
			Title:       p.Title,
			Link:        postURL,
			Description: feedDescription(p),
			Category:    p.Category.Name,
			PubDate:     p.PublishedAt.UTC().Format(time.RFC1123Z),
			GUID:        rssGUID{IsPermaLink: true, Value: postURL},
		})
	}
	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       site.Name,
			Link:        views.AbsoluteURL(site.URL, "/blog/"),
			Description: site.Description,
			Items:       items,
		},
	}
	if !latest.IsZero() {
		feed.Channel.LastBuildDate = latest.UTC().Format(time.RFC1123Z)
	}
	return feed
}

// feedDescription is the post excerpt, or the start of its body when the post
// has neither a hero summary nor an SEO description.
func feedDescription(p blog.Post) string {
	if s := blog.Excerpt(p); s != "" {
		return s
	}
	text := strings.Join(strings.Fields(render.PlainText(p.Content)), " ")
	if r := []rune(text); len(r) > feedSummaryRunes {
		text = strings.TrimSpace(string(r[:feedSummaryRunes])) + "…"
	}
	return text
}

func (a *App) renderRSS(c echo.Context, posts []blog.Post) error {
	feed := buildFeed(a.Config.View(), posts)
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	if _, err := c.Response().Write([]byte(xml.Header)); err != nil {
		return err
	}
	return xml.NewEncoder(c.Response()).Encode(feed)
}
