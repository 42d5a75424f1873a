package app

import (
	"context"
	"strconv"
	"strings"

	"inflections/internal/domain/config"
	"inflections/internal/domain/magazine"
	"inflections/internal/logger"
	mag "inflections/internal/magazine"
	"inflections/internal/render"
)

// Pages assembles page views from the query facade. The server and the
// static exporter share it so both produce the same pages.
type Pages struct {
	Site     config.SiteConfig
	Content  *mag.Service
	Markdown *render.MarkdownRenderer
	Log      *logger.Logger
}

func (p *Pages) Home(ctx context.Context) render.HomePage {
	page := render.HomePage{Site: p.Site}
	if issue, arts, ok := p.Content.Latest(ctx); ok {
		page.Latest = &issue
		page.Articles = arts
	}
	return page
}

func (p *Pages) Issues(ctx context.Context) render.IssuesPage {
	return render.IssuesPage{
		Site:   p.Site,
		Title:  "Issues",
		Issues: p.Content.ListIssues(ctx),
	}
}

// Issue reports false for anything that is not a unique published number,
// including values that do not parse.
func (p *Pages) Issue(ctx context.Context, number string) (render.IssuePage, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(number))
	if err != nil || n <= 0 {
		return render.IssuePage{}, false
	}
	issue, ok := p.Content.GetIssue(ctx, n)
	if !ok {
		return render.IssuePage{}, false
	}
	arts := p.Content.ListArticlesOfIssue(ctx, issue)
	nav := p.Content.Adjacent(ctx, issue.Number)
	return render.IssuePage{
		Site:   p.Site,
		Title:  issue.Title,
		Issue:  issue,
		Groups: magazine.GroupByPillar(arts),
		Count:  len(arts),
		Prev:   nav.Prev,
		Next:   nav.Next,
	}, true
}

func (p *Pages) Articles(ctx context.Context, pillar string) render.ArticlesPage {
	all := p.Content.ListAllArticles(ctx)
	pl := magazine.Pillar(strings.TrimSpace(pillar))
	title := "Articles"
	if pl != "" {
		title = string(pl)
	}
	return render.ArticlesPage{
		Site:     p.Site,
		Title:    title,
		Articles: magazine.FilterByPillar(all, pl),
		Pillars:  magazine.Pillars(all),
		Pillar:   pl,
	}
}

func (p *Pages) Article(ctx context.Context, slug string) (render.ArticlePage, bool) {
	a, ok := p.Content.GetArticleBySlug(ctx, slug)
	if !ok {
		return render.ArticlePage{}, false
	}
	body, err := p.Markdown.Render(a.Content)
	if err != nil {
		// the rest of the page is still worth showing
		p.Log.Error("render article body", "slug", a.Slug, "error", err)
	}
	return render.ArticlePage{
		Site:    p.Site,
		Title:   a.Title,
		Article: a,
		HTML:    body.HTML,
		TOC:     body.Headings,
	}, true
}

func (p *Pages) NotFound(path string) render.NotFoundPage {
	return render.NotFoundPage{Site: p.Site, Title: "Not found", Path: path}
}
