package magazine

import (
	"context"
	"fmt"
	"strings"

	"inflections/internal/domain/magazine"
	"inflections/internal/logger"
	"inflections/internal/schema"
	"inflections/internal/store"
)

// Resolver finds the articles that belong to an issue.
type Resolver struct {
	store  store.Store
	schema schema.Schema
	log    *logger.Logger
}

func NewResolver(st store.Store, sc schema.Schema, log *logger.Logger) *Resolver {
	return &Resolver{store: st, schema: sc, log: log}
}

// ArticlesForIssue fetches the issue's articles and annotates each with the
// issue's id and number. Articles whose link does not point at issue, and
// articles without a title, are dropped. The result is ordered by title
// byte-wise whatever collation the store sorted with.
func (r *Resolver) ArticlesForIssue(ctx context.Context, issue magazine.Issue) ([]magazine.Article, error) {
	recs, err := r.store.Select(ctx, r.schema.ArticlesTable(), r.schema.ArticlesOf(issue))
	if err != nil {
		return nil, fmt.Errorf("articles of issue %d: %w", issue.Number, err)
	}

	out := make([]magazine.Article, 0, len(recs))
	seen := make(map[string]string, len(recs))
	for _, rec := range recs {
		a := r.schema.MapArticle(rec)
		if !r.schema.Links(a, issue) {
			continue
		}
		if !visibleIn(a, issue) {
			continue
		}
		if strings.TrimSpace(a.Title) == "" {
			r.log.Warn("article without title skipped", "article_id", a.ID, "issue", issue.Number)
			continue
		}
		if prev, dup := seen[a.Slug]; dup {
			r.log.Warn("duplicate slug within issue",
				"slug", a.Slug, "issue", issue.Number, "article_id", a.ID, "first_article_id", prev)
		} else {
			seen[a.Slug] = a.ID
		}
		a.IssueID = issue.ID
		a.IssueNumber = issue.Number
		out = append(out, a)
	}

	magazine.SortArticlesByTitle(out)
	return out, nil
}
