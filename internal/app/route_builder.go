package app

import (
	"context"

	"inflections/internal/domain/magazine"
	"inflections/internal/domain/site"
)

// Content is the part of the query facade the route builder reads.
type Content interface {
	ListIssues(ctx context.Context) []magazine.Issue
	ListAllArticles(ctx context.Context) []magazine.Article
}

type RouteBuilder struct {
	Content Content
}

func (rb *RouteBuilder) BuildStaticRoutes() []site.Route {
	return []site.Route{
		{Kind: site.RouteHome, Path: "/"},
		{Kind: site.RouteIssues, Path: "/issues"},
		{Kind: site.RouteArticles, Path: site.ArticlesPath("")},
	}
}

// BuildIssueRoutes skips numbers shared by several published issues, since
// those pages resolve to not found.
func (rb *RouteBuilder) BuildIssueRoutes(issues []magazine.Issue) []site.Route {
	count := make(map[int]int, len(issues))
	for _, is := range issues {
		count[is.Number]++
	}
	routes := make([]site.Route, 0, len(issues))
	for _, is := range issues {
		if count[is.Number] > 1 {
			continue
		}
		routes = append(routes, site.Route{
			Kind:   site.RouteIssue,
			Number: is.Number,
			Path:   site.IssuePath(is.Number),
		})
	}
	return routes
}

// BuildArticleRoutes emits one route per distinct slug. A slug shared by
// several issues resolves to the newest one, so it is listed once.
func (rb *RouteBuilder) BuildArticleRoutes(articles []magazine.Article) []site.Route {
	seen := make(map[string]struct{}, len(articles))
	routes := make([]site.Route, 0, len(articles))
	for _, a := range articles {
		if a.Slug == "" {
			continue
		}
		if _, dup := seen[a.Slug]; dup {
			continue
		}
		seen[a.Slug] = struct{}{}
		routes = append(routes, site.Route{
			Kind:   site.RouteArticle,
			Slug:   a.Slug,
			Number: a.IssueNumber,
			Path:   site.ArticlePath(a.Slug),
		})
	}
	return routes
}

// BuildPillarRoutes lists the filtered article pages in display order.
func (rb *RouteBuilder) BuildPillarRoutes(articles []magazine.Article) []site.Route {
	present := make(map[magazine.Pillar]bool)
	for _, p := range magazine.Pillars(articles) {
		present[p] = true
	}
	var routes []site.Route
	for _, p := range magazine.KnownPillars {
		if present[p] {
			routes = append(routes, site.Route{
				Kind: site.RouteArticles,
				Slug: string(p),
				Path: site.ArticlesPath(string(p)),
			})
		}
	}
	return routes
}

// BuildAll enumerates every public page currently reachable.
func (rb *RouteBuilder) BuildAll(ctx context.Context) []site.Route {
	routes := rb.BuildStaticRoutes()
	routes = append(routes, rb.BuildIssueRoutes(rb.Content.ListIssues(ctx))...)
	articles := rb.Content.ListAllArticles(ctx)
	routes = append(routes, rb.BuildPillarRoutes(articles)...)
	routes = append(routes, rb.BuildArticleRoutes(articles)...)
	return routes
}
