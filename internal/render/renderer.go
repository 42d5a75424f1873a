package render

import "context"

type Renderer interface {
	RenderHome(ctx context.Context, page HomePage) ([]byte, error)
	RenderIssues(ctx context.Context, page IssuesPage) ([]byte, error)
	RenderIssue(ctx context.Context, page IssuePage) ([]byte, error)
	RenderArticles(ctx context.Context, page ArticlesPage) ([]byte, error)
	RenderArticle(ctx context.Context, page ArticlePage) ([]byte, error)
	RenderNotFound(ctx context.Context, page NotFoundPage) ([]byte, error)
}
