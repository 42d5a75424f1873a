package schema

import (
	"inflections/internal/domain/magazine"
	"inflections/internal/slug"
	"inflections/internal/store"
)

// LinkedRecordSchema is the current layout: articles link to their issue
// record, so renumbering an issue does not orphan its articles.
type LinkedRecordSchema struct{}

var _ Schema = LinkedRecordSchema{}

const (
	v2IssueTitle       = "Issue Title"
	v2ThemeDescription = "Theme Description"
	v2PublishDate      = "Publish Date"
	v2CoverImage       = "Cover Image"
	v2IssueLink        = "Issue"
	v2FeaturedImageURL = "Featured Image URL"
)

func (LinkedRecordSchema) Name() string { return VersionLinkedRecord }
func (LinkedRecordSchema) Strategy() LinkStrategy { return LinkByRecord }
func (LinkedRecordSchema) IssuesTable() string { return tableIssues }
func (LinkedRecordSchema) ArticlesTable() string { return tableArticles }
func (LinkedRecordSchema) PublishedURLField() string {
	return fPublishedURL
}

func (LinkedRecordSchema) MapIssue(r store.Record) magazine.Issue {
	f := r.Fields
	return magazine.Issue{
		ID:          r.ID,
		Number:      intField(f, fIssueNumber),
		Title:       f.String(v2IssueTitle),
		Description: f.String(v2ThemeDescription),
		PublishDate: f.Time(v2PublishDate),
		Status:      magazine.ParseStatus(f.String(fStatus)),
		CoverImage:  f.String(v2CoverImage),
	}
}

func (LinkedRecordSchema) MapArticle(r store.Record) magazine.Article {
	f := r.Fields
	title := f.String(fTitle)
	var link magazine.IssueRef
	if ids := f.Strings(v2IssueLink); len(ids) > 0 {
		link.ID = ids[0]
	}
	return magazine.Article{
		ID:               r.ID,
		Title:            title,
		Slug:             slug.Resolve(f.String(fSlug), title),
		Content:          f.String(fContent),
		Excerpt:          f.String(fExcerpt),
		Author:           f.String(fAuthor),
		Pillar:           magazine.Pillar(f.String(fPillar)),
		PublishDate:      f.Time(v2PublishDate),
		FeaturedImageURL: f.String(v2FeaturedImageURL),
		PublishedURL:     f.String(fPublishedURL),
		Status:           magazine.ParseStatus(f.String(fStatus)),
		Link:             link,
	}
}

func (LinkedRecordSchema) PublishedIssues() store.Query {
	return store.Query{Filter: publishedFilter(), Sort: byNumberDesc()}
}

func (LinkedRecordSchema) PublishedIssueByNumber(number int) store.Query {
	return store.Query{Filter: store.And(store.Eq(fIssueNumber, number), publishedFilter())}
}

func (LinkedRecordSchema) AllIssues() store.Query {
	return store.Query{Sort: byNumberDesc()}
}

func (LinkedRecordSchema) ArticlesOf(issue magazine.Issue) store.Query {
	return store.Query{Filter: store.LinkContains(v2IssueLink, issue.ID), Sort: byTitle()}
}

func (LinkedRecordSchema) AllArticles() store.Query {
	return store.Query{Sort: byTitle()}
}

func (LinkedRecordSchema) Links(a magazine.Article, issue magazine.Issue) bool {
	return a.Link.ID != "" && a.Link.ID == issue.ID
}
