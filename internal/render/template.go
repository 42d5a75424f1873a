package render

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"inflections/internal/domain/magazine"
	"inflections/internal/domain/site"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var pageTemplates = []string{
	"home.tmpl",
	"issues.tmpl",
	"issue.tmpl",
	"articles.tmpl",
	"article.tmpl",
	"404.tmpl",
}

type TemplateRenderer struct {
	tpl *template.Template
}

var _ Renderer = (*TemplateRenderer)(nil)

func NewTemplateRenderer() (*TemplateRenderer, error) {
	tpl, err := template.New("").Funcs(templateFuncs()).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, err
	}
	for _, name := range pageTemplates {
		if tpl.Lookup(name) == nil {
			return nil, fmt.Errorf("missing template: %s", name)
		}
	}
	return &TemplateRenderer{tpl: tpl}, nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("January 2, 2006")
		},
		"nowYear": func() int {
			return time.Now().Year()
		},
		"issueURL": func(n int) string {
			return site.IssuePath(n)
		},
		"articleURL": func(a magazine.Article) string {
			return site.ArticlePath(a.Slug)
		},
		"pillarURL": func(p magazine.Pillar) string {
			return site.ArticlesPath(string(p))
		},
	}
}

func (r *TemplateRenderer) RenderHome(ctx context.Context, page HomePage) ([]byte, error) {
	return r.exec("home.tmpl", page)
}

func (r *TemplateRenderer) RenderIssues(ctx context.Context, page IssuesPage) ([]byte, error) {
	return r.exec("issues.tmpl", page)
}

func (r *TemplateRenderer) RenderIssue(ctx context.Context, page IssuePage) ([]byte, error) {
	return r.exec("issue.tmpl", page)
}

func (r *TemplateRenderer) RenderArticles(ctx context.Context, page ArticlesPage) ([]byte, error) {
	return r.exec("articles.tmpl", page)
}

func (r *TemplateRenderer) RenderArticle(ctx context.Context, page ArticlePage) ([]byte, error) {
	return r.exec("article.tmpl", page)
}

func (r *TemplateRenderer) RenderNotFound(ctx context.Context, page NotFoundPage) ([]byte, error) {
	return r.exec("404.tmpl", page)
}

func (r *TemplateRenderer) exec(name string, data interface{}) ([]byte, error) {
	t := r.tpl.Lookup(name)
	if t == nil {
		return nil, fmt.Errorf("template %s not found", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
