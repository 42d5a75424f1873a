package magazine

import (
	"sort"
	"strings"
	"time"
)

type Status string

const (
	StatusDraft     Status = "Draft"
	StatusReview    Status = "In Review"
	StatusPublished Status = "Published"
	StatusArchived  Status = "Archived"
)

// ParseStatus maps a store value onto the known statuses, case-insensitively.
// Unknown values are kept verbatim so they never compare equal to Published.
func ParseStatus(s string) Status {
	s = strings.TrimSpace(s)
	for _, st := range []Status{StatusDraft, StatusReview, StatusPublished, StatusArchived} {
		if strings.EqualFold(s, string(st)) {
			return st
		}
	}
	return Status(s)
}

func (s Status) Published() bool { return s == StatusPublished }

type Pillar string

const (
	PillarTechLeadership          Pillar = "Tech Leadership"
	PillarDeliveryExcellence      Pillar = "Delivery Excellence"
	PillarWorkforceTransformation Pillar = "Workforce Transformation"
	PillarEmergingTalent          Pillar = "Emerging Talent"
	PillarHumanSide               Pillar = "Human Side"
	PillarUncategorized           Pillar = "Uncategorized"
)

// KnownPillars is the closed set of editorial pillars in display order.
var KnownPillars = []Pillar{
	PillarTechLeadership,
	PillarDeliveryExcellence,
	PillarWorkforceTransformation,
	PillarEmergingTalent,
	PillarHumanSide,
}

func (p Pillar) Known() bool {
	for _, k := range KnownPillars {
		if p == k {
			return true
		}
	}
	return false
}

type Issue struct {
	ID          string
	Number      int
	Title       string
	Description string
	PublishDate time.Time
	Status      Status
	CoverImage  string
}

func (i Issue) Scheduled() bool { return !i.PublishDate.IsZero() }

// IssueRef is the raw link from an article record to its issue, as found in
// the store. Which half is populated depends on the schema.
type IssueRef struct {
	ID     string
	Number int
}

func (r IssueRef) Empty() bool { return r.ID == "" && r.Number == 0 }

type Article struct {
	ID               string
	Title            string
	Slug             string
	Content          string
	Excerpt          string
	Author           string
	Pillar           Pillar
	PublishDate      time.Time
	FeaturedImageURL string
	PublishedURL     string

	// Status is optional; an empty status places no restriction on visibility.
	Status Status

	Link IssueRef

	// Filled at read time from the resolved issue, never read from the store.
	IssueID     string
	IssueNumber int
}

func (a Article) Visible() bool {
	return a.Status == "" || a.Status.Published()
}

// SortIssuesByNumberDesc orders issues newest first.
func SortIssuesByNumberDesc(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Number > issues[j].Number
	})
}

// SortArticlesByTitle orders articles by title using byte-wise comparison.
func SortArticlesByTitle(articles []Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].Title < articles[j].Title
	})
}

// SortArticlesByRecency orders dated articles first, newest first; undated
// articles follow. Ties fall back to issue number (descending) then title.
func SortArticlesByRecency(articles []Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		a, b := articles[i], articles[j]
		ad, bd := !a.PublishDate.IsZero(), !b.PublishDate.IsZero()
		if ad != bd {
			return ad
		}
		if ad && !a.PublishDate.Equal(b.PublishDate) {
			return a.PublishDate.After(b.PublishDate)
		}
		if a.IssueNumber != b.IssueNumber {
			return a.IssueNumber > b.IssueNumber
		}
		return a.Title < b.Title
	})
}

type PillarGroup struct {
	Pillar   Pillar
	Articles []Article
}

// GroupByPillar buckets articles by pillar, preserving the input order inside
// each bucket. Groups are sorted by pillar name; articles without a pillar land
// in Uncategorized.
func GroupByPillar(articles []Article) []PillarGroup {
	idx := make(map[Pillar]int)
	var groups []PillarGroup
	for _, a := range articles {
		p := a.Pillar
		if strings.TrimSpace(string(p)) == "" {
			p = PillarUncategorized
		}
		i, ok := idx[p]
		if !ok {
			i = len(groups)
			idx[p] = i
			groups = append(groups, PillarGroup{Pillar: p})
		}
		groups[i].Articles = append(groups[i].Articles, a)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Pillar < groups[j].Pillar
	})
	return groups
}

// Pillars returns the distinct non-empty pillars in first-seen order.
func Pillars(articles []Article) []Pillar {
	seen := make(map[Pillar]struct{})
	var out []Pillar
	for _, a := range articles {
		if a.Pillar == "" {
			continue
		}
		if _, ok := seen[a.Pillar]; ok {
			continue
		}
		seen[a.Pillar] = struct{}{}
		out = append(out, a.Pillar)
	}
	return out
}

// FilterByPillar keeps the articles in pillar p; an empty p keeps everything.
func FilterByPillar(articles []Article, p Pillar) []Article {
	if p == "" {
		return articles
	}
	out := make([]Article, 0, len(articles))
	for _, a := range articles {
		if a.Pillar == p {
			out = append(out, a)
		}
	}
	return out
}
