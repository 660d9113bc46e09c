package folio

import (
	"encoding/xml"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/devemco/folio/blog"
	"github.com/devemco/folio/views"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

func buildSitemap(site views.SiteConfig, posts []blog.Post) sitemapURLSet {
	urls := []sitemapURL{
		{Loc: views.AbsoluteURL(site.URL, "/blog/")},
	}
	for _, p := range blog.Sort(posts, blog.SortNewest) {
		urls = append(urls, sitemapURL{
			Loc:     views.PostURL(site, p),
			LastMod: p.Modified().UTC().Format("2006-01-02"),
		})
	}
	return sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
}

func (a *App) renderSitemap(c echo.Context, posts []blog.Post) error {
	sitemap := buildSitemap(a.Config.View(), posts)
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	if _, err := c.Response().Write([]byte(xml.Header)); err != nil {
		return err
	}
	return xml.NewEncoder(c.Response()).Encode(sitemap)
}
