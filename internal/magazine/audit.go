package magazine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	domainerr "inflections/internal/domain/errors"
	"inflections/internal/domain/magazine"
	"inflections/internal/metrics"
)

type FindingKind string

const (
	FindingDuplicateNumber FindingKind = "duplicate_issue_number"
	FindingMissingNumber   FindingKind = "missing_issue_number"
	FindingDuplicateSlug   FindingKind = "duplicate_slug"
	FindingShadowedSlug    FindingKind = "shadowed_slug"
	FindingUntitled        FindingKind = "untitled_article"
	FindingOrphan          FindingKind = "orphan_article"
	FindingUnknownPillar   FindingKind = "unknown_pillar"
)

// AllFindingKinds lists every kind, so gauges can be reset between runs.
var AllFindingKinds = []FindingKind{
	FindingDuplicateNumber,
	FindingMissingNumber,
	FindingDuplicateSlug,
	FindingShadowedSlug,
	FindingUntitled,
	FindingOrphan,
	FindingUnknownPillar,
}

type Finding struct {
	Kind    FindingKind
	Message string
	IDs     []string
}

type Report struct {
	Issues   int
	Articles int
	Findings []Finding
}

func (r Report) Count(kind FindingKind) int {
	n := 0
	for _, f := range r.Findings {
		if f.Kind == kind {
			n++
		}
	}
	return n
}

// Audit reads every issue and article, bypassing the cache, and reports data
// that the read path silently tolerates.
func (s *Service) Audit(ctx context.Context) (Report, error) {
	issueRecs, err := s.store.Select(ctx, s.schema.IssuesTable(), s.schema.AllIssues())
	if err != nil {
		return Report{}, domainerr.Unavailable("audit issues", err)
	}
	articleRecs, err := s.store.Select(ctx, s.schema.ArticlesTable(), s.schema.AllArticles())
	if err != nil {
		return Report{}, domainerr.Unavailable("audit articles", err)
	}

	issues := make([]magazine.Issue, 0, len(issueRecs))
	for _, r := range issueRecs {
		issues = append(issues, s.schema.MapIssue(r))
	}
	articles := make([]magazine.Article, 0, len(articleRecs))
	for _, r := range articleRecs {
		articles = append(articles, s.schema.MapArticle(r))
	}

	rep := Report{Issues: len(issues), Articles: len(articles)}
	add := func(kind FindingKind, ids []string, format string, args ...any) {
		rep.Findings = append(rep.Findings, Finding{Kind: kind, Message: fmt.Sprintf(format, args...), IDs: ids})
	}

	published := make(map[int][]string)
	for _, is := range issues {
		if is.Number <= 0 {
			add(FindingMissingNumber, []string{is.ID}, "issue %s has no issue number", is.ID)
			continue
		}
		if is.Status.Published() {
			published[is.Number] = append(published[is.Number], is.ID)
		}
	}
	for _, n := range sortedKeys(published) {
		if ids := published[n]; len(ids) > 1 {
			add(FindingDuplicateNumber, ids, "issue number %d is published %d times", n, len(ids))
		}
	}

	// slug -> article ids, per issue
	owner := make(map[string]map[string][]string)
	for _, a := range articles {
		if strings.TrimSpace(a.Title) == "" {
			add(FindingUntitled, []string{a.ID}, "article %s has no title", a.ID)
			continue
		}
		if a.Pillar != "" && !a.Pillar.Known() {
			add(FindingUnknownPillar, []string{a.ID}, "article %q has unknown pillar %q", a.Title, a.Pillar)
		}
		is, ok := issueFor(a, issues, s.schema.Links)
		if !ok {
			if a.Link.Empty() {
				add(FindingOrphan, []string{a.ID}, "article %q has no issue link", a.Title)
			} else {
				add(FindingOrphan, []string{a.ID}, "article %q links to an unknown issue", a.Title)
			}
			continue
		}
		if !is.Status.Published() {
			continue
		}
		if owner[a.Slug] == nil {
			owner[a.Slug] = make(map[string][]string)
		}
		owner[a.Slug][is.ID] = append(owner[a.Slug][is.ID], a.ID)
	}

	slugs := make([]string, 0, len(owner))
	for sl := range owner {
		slugs = append(slugs, sl)
	}
	sort.Strings(slugs)
	for _, sl := range slugs {
		byIssue := owner[sl]
		owners := make([]string, 0, len(byIssue))
		for id := range byIssue {
			owners = append(owners, id)
		}
		sort.Strings(owners)
		var all []string
		for _, issueID := range owners {
			ids := byIssue[issueID]
			if len(ids) > 1 {
				add(FindingDuplicateSlug, ids, "slug %q appears %d times in issue %s", sl, len(ids), issueID)
			}
			all = append(all, ids...)
		}
		if len(byIssue) > 1 {
			sort.Strings(all)
			add(FindingShadowedSlug, all, "slug %q is used by %d issues; only the newest is reachable", sl, len(byIssue))
		}
	}

	for _, k := range AllFindingKinds {
		metrics.IntegrityIssues.WithLabelValues(string(k)).Set(float64(rep.Count(k)))
	}
	s.log.Info("content audit finished",
		"issues", rep.Issues, "articles", rep.Articles, "findings", len(rep.Findings))
	return rep, nil
}

func issueFor(a magazine.Article, issues []magazine.Issue, links func(magazine.Article, magazine.Issue) bool) (magazine.Issue, bool) {
	for _, is := range issues {
		if links(a, is) {
			return is, true
		}
	}
	return magazine.Issue{}, false
}

func sortedKeys(m map[int][]string) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
