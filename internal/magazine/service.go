// Package magazine resolves raw content store records into published issues
// and their articles, and caches every query for a fixed window.
package magazine

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"inflections/internal/cache"
	domainerr "inflections/internal/domain/errors"
	"inflections/internal/domain/magazine"
	"inflections/internal/logger"
	"inflections/internal/metrics"
	"inflections/internal/schema"
	"inflections/internal/store"
)

// Operation names double as cache routes and metric labels.
const (
	OpListIssues      = "list_issues"
	OpGetIssue        = "get_issue"
	OpArticlesOfIssue = "articles_of_issue"
	OpArticleBySlug   = "article_by_slug"
	OpListArticles    = "list_articles"
)

const (
	latestArticleCount = 6
	fanOutLimit        = 4
)

type Service struct {
	store    store.Store
	schema   schema.Schema
	resolver *Resolver
	cache    *cache.Cache
	log      *logger.Logger
}

func NewService(st store.Store, sc schema.Schema, c *cache.Cache, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		store:    st,
		schema:   sc,
		resolver: NewResolver(st, sc, log),
		cache:    c,
		log:      log,
	}
}

type issueResult struct {
	Issue magazine.Issue
	Found bool
}

type articleResult struct {
	Article magazine.Article
	Found   bool
}

// ListIssues returns every published issue, newest first. Numbers shared by
// several published issues are left out, since GetIssue cannot resolve them.
// A store failure yields an empty list.
func (s *Service) ListIssues(ctx context.Context) []magazine.Issue {
	issues, err := s.publishedIssues(ctx)
	if err != nil {
		s.softFail(OpListIssues, err)
		return []magazine.Issue{}
	}
	return uniqueNumbers(issues)
}

// GetIssue returns the published issue with number n. It reports false when
// none exists or when several published issues share the number.
func (s *Service) GetIssue(ctx context.Context, n int) (magazine.Issue, bool) {
	if n <= 0 {
		return magazine.Issue{}, false
	}
	op := OpGetIssue
	res, err := cache.Remember(s.cache, op, cache.Key(op, strconv.Itoa(n)), func() (issueResult, error) {
		ctx := context.WithoutCancel(ctx)
		recs, err := s.store.Select(ctx, s.schema.IssuesTable(), s.schema.PublishedIssueByNumber(n))
		if err != nil {
			return issueResult{}, domainerr.Unavailable("get issue", err)
		}
		var matches []magazine.Issue
		for _, is := range FilterPublished(s.mapIssues(recs)) {
			if is.Number == n {
				matches = append(matches, is)
			}
		}
		switch len(matches) {
		case 0:
			return issueResult{}, nil
		case 1:
			return issueResult{Issue: matches[0], Found: true}, nil
		default:
			s.log.Warn("ambiguous issue number: several published issues share it",
				"issue", n, "issue_ids", issueIDs(matches))
			return issueResult{}, nil
		}
	})
	if err != nil {
		s.softFail(op, err)
		return magazine.Issue{}, false
	}
	return res.Issue, res.Found
}

// ListArticlesOfIssue returns the issue's articles ordered by title. A
// non-published issue has no visible articles.
func (s *Service) ListArticlesOfIssue(ctx context.Context, issue magazine.Issue) []magazine.Article {
	if !issue.Status.Published() {
		return []magazine.Article{}
	}
	arts, err := s.articlesOf(ctx, issue)
	if err != nil {
		s.softFail(OpArticlesOfIssue, err)
		return []magazine.Article{}
	}
	return arts
}

// ListArticlesOfIssueID looks the id up among published issues first.
func (s *Service) ListArticlesOfIssueID(ctx context.Context, issueID string) []magazine.Article {
	for _, is := range s.ListIssues(ctx) {
		if is.ID == issueID {
			return s.ListArticlesOfIssue(ctx, is)
		}
	}
	return []magazine.Article{}
}

// GetArticleBySlug searches published issues newest first and returns the
// first article with the slug. Slugs are only unique within an issue, so
// the newest issue wins.
func (s *Service) GetArticleBySlug(ctx context.Context, slug string) (magazine.Article, bool) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return magazine.Article{}, false
	}
	op := OpArticleBySlug
	res, err := cache.Remember(s.cache, op, cache.Key(op, slug), func() (articleResult, error) {
		issues, err := s.publishedIssues(ctx)
		if err != nil {
			return articleResult{}, err
		}
		for _, is := range issues {
			arts, err := s.articlesOf(ctx, is)
			if err != nil {
				return articleResult{}, err
			}
			for _, a := range arts {
				if a.Slug == slug {
					return articleResult{Article: a, Found: true}, nil
				}
			}
		}
		return articleResult{}, nil
	})
	if err != nil {
		s.softFail(op, err)
		return magazine.Article{}, false
	}
	return res.Article, res.Found
}

// ListAllArticles returns the articles of every published issue, newest
// first. Issues are fetched concurrently; a failed issue contributes nothing
// and the partial result is not cached.
func (s *Service) ListAllArticles(ctx context.Context) []magazine.Article {
	op := OpListArticles
	arts, err := cache.Remember(s.cache, op, cache.Key(op), func() ([]magazine.Article, error) {
		issues, err := s.publishedIssues(ctx)
		if err != nil {
			return nil, err
		}

		perIssue := make([][]magazine.Article, len(issues))
		failed := make([]error, len(issues))
		g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))
		g.SetLimit(fanOutLimit)
		for i, is := range issues {
			g.Go(func() error {
				arts, err := s.articlesOf(gctx, is)
				if err != nil {
					failed[i] = err
					return nil
				}
				perIssue[i] = arts
				return nil
			})
		}
		_ = g.Wait()

		var out []magazine.Article
		for _, arts := range perIssue {
			out = append(out, arts...)
		}
		magazine.SortArticlesByRecency(out)

		if err := errors.Join(failed...); err != nil {
			s.softFail(op, err)
			if out == nil {
				out = []magazine.Article{}
			}
			return out, cache.ErrSkip
		}
		if out == nil {
			out = []magazine.Article{}
		}
		return out, nil
	})
	if err != nil {
		s.softFail(op, err)
		return []magazine.Article{}
	}
	return arts
}

// Latest returns the newest published issue with the first few of its
// articles, for the home page.
func (s *Service) Latest(ctx context.Context) (magazine.Issue, []magazine.Article, bool) {
	issues := s.ListIssues(ctx)
	if len(issues) == 0 {
		return magazine.Issue{}, nil, false
	}
	arts := s.ListArticlesOfIssue(ctx, issues[0])
	if len(arts) > latestArticleCount {
		arts = arts[:latestArticleCount]
	}
	return issues[0], arts, true
}

// Nav holds the published neighbours of an issue.
type Nav struct {
	Prev *magazine.Issue
	Next *magazine.Issue
}

// Adjacent finds the closest published issues below and above number n.
func (s *Service) Adjacent(ctx context.Context, n int) Nav {
	var nav Nav
	for _, is := range s.ListIssues(ctx) {
		switch {
		case is.Number < n && (nav.Prev == nil || is.Number > nav.Prev.Number):
			nav.Prev = &is
		case is.Number > n && (nav.Next == nil || is.Number < nav.Next.Number):
			nav.Next = &is
		}
	}
	return nav
}

// RecordPublishedURL stores the public URL of an article once it has been
// published elsewhere. Writing the value already stored is a no-op. Errors
// are logged and returned; callers are not expected to fail a render on them.
func (s *Service) RecordPublishedURL(ctx context.Context, articleID, publishedURL string) error {
	articleID = strings.TrimSpace(articleID)
	publishedURL = strings.TrimSpace(publishedURL)

	var ve domainerr.ValidationError
	if articleID == "" {
		ve.Add("article_id", "must not be empty")
	}
	if !isAbsURL(publishedURL) {
		ve.Add("url", "must be an absolute http(s) URL")
	}
	if err := ve.Err(); err != nil {
		s.log.Warn("record published url rejected", "article_id", articleID, "error", err)
		return err
	}

	table, field := s.schema.ArticlesTable(), s.schema.PublishedURLField()
	rec, err := s.store.Find(ctx, table, articleID)
	if err != nil {
		s.log.Error("record published url: lookup failed", "article_id", articleID, "error", err)
		return fmt.Errorf("record published url: %w", err)
	}
	if rec.Fields.String(field) == publishedURL {
		s.log.Debug("published url unchanged", "article_id", articleID)
		return nil
	}
	if _, err := s.store.Update(ctx, table, articleID, store.Fields{field: publishedURL}); err != nil {
		s.log.Error("record published url: update failed", "article_id", articleID, "error", err)
		return fmt.Errorf("record published url: %w", err)
	}
	s.log.Info("published url recorded", "article_id", articleID, "url", publishedURL)
	return nil
}

func (s *Service) publishedIssues(ctx context.Context) ([]magazine.Issue, error) {
	op := OpListIssues
	return cache.Remember(s.cache, op, cache.Key(op), func() ([]magazine.Issue, error) {
		recs, err := s.store.Select(context.WithoutCancel(ctx), s.schema.IssuesTable(), s.schema.PublishedIssues())
		if err != nil {
			return nil, domainerr.Unavailable("list issues", err)
		}
		issues := FilterPublished(s.mapIssues(recs))
		s.warnDuplicateNumbers(issues)
		return issues, nil
	})
}

func (s *Service) articlesOf(ctx context.Context, issue magazine.Issue) ([]magazine.Article, error) {
	op := OpArticlesOfIssue
	key := cache.Key(op, issue.ID, strconv.Itoa(issue.Number))
	return cache.Remember(s.cache, op, key, func() ([]magazine.Article, error) {
		arts, err := s.resolver.ArticlesForIssue(context.WithoutCancel(ctx), issue)
		if err != nil {
			return nil, domainerr.Unavailable("resolve articles", err)
		}
		return arts, nil
	})
}

func (s *Service) mapIssues(recs []store.Record) []magazine.Issue {
	out := make([]magazine.Issue, 0, len(recs))
	for _, r := range recs {
		is := s.schema.MapIssue(r)
		if is.Number <= 0 {
			s.log.Warn("issue without number skipped", "issue_id", is.ID)
			continue
		}
		out = append(out, is)
	}
	return out
}

func (s *Service) warnDuplicateNumbers(issues []magazine.Issue) {
	byNumber := make(map[int][]magazine.Issue)
	for _, is := range issues {
		byNumber[is.Number] = append(byNumber[is.Number], is)
	}
	for n, group := range byNumber {
		if len(group) > 1 {
			s.log.Warn("duplicate published issue number", "issue", n, "issue_ids", issueIDs(group))
		}
	}
}

func uniqueNumbers(issues []magazine.Issue) []magazine.Issue {
	count := make(map[int]int, len(issues))
	for _, is := range issues {
		count[is.Number]++
	}
	out := make([]magazine.Issue, 0, len(issues))
	for _, is := range issues {
		if count[is.Number] == 1 {
			out = append(out, is)
		}
	}
	return out
}

func (s *Service) softFail(op string, err error) {
	metrics.RecordQueryFailure(op)
	s.log.Error("content query failed", "operation", op, "error", err)
}

func issueIDs(issues []magazine.Issue) []string {
	ids := make([]string, len(issues))
	for i, is := range issues {
		ids[i] = is.ID
	}
	return ids
}

func isAbsURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
