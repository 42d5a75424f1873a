package site

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

type RouteKind string

const (
	RouteHome     RouteKind = "home"
	RouteIssues   RouteKind = "issues"
	RouteIssue    RouteKind = "issue"
	RouteArticles RouteKind = "articles"
	RouteArticle  RouteKind = "article"
	RouteSitemap  RouteKind = "sitemap"
	RouteNotFound RouteKind = "404"
)

// Route is one public page of the derived URL surface.
type Route struct {
	Kind   RouteKind
	Slug   string
	Number int
	Path   string
}

func (r Route) String() string {
	var parts []string
	parts = append(parts, string(r.Kind))
	if r.Number > 0 {
		parts = append(parts, fmt.Sprintf("number=%d", r.Number))
	}
	if r.Slug != "" {
		parts = append(parts, "slug="+r.Slug)
	}
	if r.Path != "" {
		parts = append(parts, "path="+r.Path)
	}
	return strings.Join(parts, " ")
}

func IssuePath(number int) string {
	return "/issues/" + strconv.Itoa(number)
}

func ArticlePath(slug string) string {
	return "/articles/" + slug
}

// ArticlesPath is the article list, optionally filtered to one pillar.
func ArticlesPath(pillar string) string {
	if pillar == "" {
		return "/articles"
	}
	return "/articles?pillar=" + url.QueryEscape(pillar)
}
