// Package build exports the site as static files for hosting without a
// running server.
package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"inflections/internal/app"
	"inflections/internal/domain/site"
	"inflections/internal/logger"
	"inflections/internal/render"
)

type Builder struct {
	Pages    *app.Pages
	Routes   *app.RouteBuilder
	Renderer render.Renderer
	OutDir   string
	Log      *logger.Logger
}

type Result struct {
	Pages   int
	Skipped []string
}

// Run renders every reachable route plus 404.html and sitemap.xml. Pillar
// filters are query strings and cannot be stored as files, so they are left
// to the live server.
func (b *Builder) Run(ctx context.Context) (*Result, error) {
	if strings.TrimSpace(b.OutDir) == "" {
		return nil, fmt.Errorf("build: missing output directory")
	}
	if err := os.MkdirAll(b.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir public: %w", err)
	}

	routes := b.Routes.BuildAll(ctx)
	res := &Result{}
	for _, r := range routes {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		rel, ok := outPath(r)
		if !ok {
			res.Skipped = append(res.Skipped, r.Path)
			continue
		}
		html, found, err := b.renderRoute(ctx, r)
		if err != nil {
			return res, fmt.Errorf("build %s: %w", r.Path, err)
		}
		if !found {
			// content changed between listing and rendering
			res.Skipped = append(res.Skipped, r.Path)
			continue
		}
		if err := writeFile(b.OutDir, rel, html); err != nil {
			return res, err
		}
		res.Pages++
	}

	notFound, err := b.Renderer.RenderNotFound(ctx, b.Pages.NotFound(""))
	if err != nil {
		return res, fmt.Errorf("build 404: %w", err)
	}
	if err := writeFile(b.OutDir, "404.html", notFound); err != nil {
		return res, err
	}

	sitemap, err := render.Sitemap(b.Pages.Site.SiteURL, routes)
	if err != nil {
		return res, fmt.Errorf("build sitemap: %w", err)
	}
	if err := writeFile(b.OutDir, "sitemap.xml", sitemap); err != nil {
		return res, err
	}

	if b.Log != nil {
		b.Log.Info("static export finished", "dir", b.OutDir, "pages", res.Pages, "skipped", len(res.Skipped))
	}
	return res, nil
}

func (b *Builder) renderRoute(ctx context.Context, r site.Route) ([]byte, bool, error) {
	switch r.Kind {
	case site.RouteHome:
		out, err := b.Renderer.RenderHome(ctx, b.Pages.Home(ctx))
		return out, true, err
	case site.RouteIssues:
		out, err := b.Renderer.RenderIssues(ctx, b.Pages.Issues(ctx))
		return out, true, err
	case site.RouteIssue:
		page, ok := b.Pages.Issue(ctx, strconv.Itoa(r.Number))
		if !ok {
			return nil, false, nil
		}
		out, err := b.Renderer.RenderIssue(ctx, page)
		return out, true, err
	case site.RouteArticles:
		out, err := b.Renderer.RenderArticles(ctx, b.Pages.Articles(ctx, r.Slug))
		return out, true, err
	case site.RouteArticle:
		page, ok := b.Pages.Article(ctx, r.Slug)
		if !ok {
			return nil, false, nil
		}
		out, err := b.Renderer.RenderArticle(ctx, page)
		return out, true, err
	}
	return nil, false, nil
}

// outPath maps a route onto index.html under its path.
func outPath(r site.Route) (string, bool) {
	if strings.Contains(r.Path, "?") {
		return "", false
	}
	switch r.Kind {
	case site.RouteHome:
		return "index.html", true
	case site.RouteIssues:
		return filepath.Join("issues", "index.html"), true
	case site.RouteIssue:
		return filepath.Join("issues", strconv.Itoa(r.Number), "index.html"), true
	case site.RouteArticles:
		return filepath.Join("articles", "index.html"), true
	case site.RouteArticle:
		return filepath.Join("articles", safePathSegment(r.Slug), "index.html"), true
	}
	return "", false
}

func writeFile(root, rel string, data []byte) error {
	full := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, data, 0o644)
}

// safePathSegment keeps slug characters and replaces anything else, so a
// slug can never escape its directory.
func safePathSegment(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "untitled"
	}
	repl := func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_':
			return r
		default:
			return '-'
		}
	}
	return strings.Map(repl, s)
}
