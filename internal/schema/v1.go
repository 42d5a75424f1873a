package schema

import (
	"inflections/internal/domain/magazine"
	"inflections/internal/slug"
	"inflections/internal/store"
)

// IssueNumberSchema is the first layout: articles repeat their issue number
// and dates are called "Published Date".
type IssueNumberSchema struct{}

var _ Schema = IssueNumberSchema{}

const (
	v1IssueDescription = "Description"
	v1PublishedDate    = "Published Date"
	v1CoverImage       = "Cover Image"
)

func (IssueNumberSchema) Name() string { return VersionIssueNumber }
func (IssueNumberSchema) Strategy() LinkStrategy { return LinkByIssueNumber }
func (IssueNumberSchema) IssuesTable() string { return tableIssues }
func (IssueNumberSchema) ArticlesTable() string { return tableArticles }
func (IssueNumberSchema) PublishedURLField() string {
	return fPublishedURL
}

func (IssueNumberSchema) MapIssue(r store.Record) magazine.Issue {
	f := r.Fields
	return magazine.Issue{
		ID:          r.ID,
		Number:      intField(f, fIssueNumber),
		Title:       f.String(fTitle),
		Description: f.String(v1IssueDescription),
		PublishDate: f.Time(v1PublishedDate),
		Status:      magazine.ParseStatus(f.String(fStatus)),
		CoverImage:  f.String(v1CoverImage),
	}
}

func (IssueNumberSchema) MapArticle(r store.Record) magazine.Article {
	f := r.Fields
	title := f.String(fTitle)
	return magazine.Article{
		ID:               r.ID,
		Title:            title,
		Slug:             slug.Resolve(f.String(fSlug), title),
		Content:          f.String(fContent),
		Excerpt:          f.String(fExcerpt),
		Author:           f.String(fAuthor),
		Pillar:           magazine.Pillar(f.String(fPillar)),
		PublishDate:      f.Time(v1PublishedDate),
		FeaturedImageURL: f.String(v1CoverImage),
		PublishedURL:     f.String(fPublishedURL),
		Status:           magazine.ParseStatus(f.String(fStatus)),
		Link:             magazine.IssueRef{Number: intField(f, fIssueNumber)},
	}
}

func (IssueNumberSchema) PublishedIssues() store.Query {
	return store.Query{Filter: publishedFilter(), Sort: byNumberDesc()}
}

func (IssueNumberSchema) PublishedIssueByNumber(number int) store.Query {
	return store.Query{Filter: store.And(store.Eq(fIssueNumber, number), publishedFilter())}
}

func (IssueNumberSchema) AllIssues() store.Query {
	return store.Query{Sort: byNumberDesc()}
}

func (IssueNumberSchema) ArticlesOf(issue magazine.Issue) store.Query {
	return store.Query{Filter: store.Eq(fIssueNumber, issue.Number), Sort: byTitle()}
}

func (IssueNumberSchema) AllArticles() store.Query {
	return store.Query{Sort: byTitle()}
}

func (IssueNumberSchema) Links(a magazine.Article, issue magazine.Issue) bool {
	return a.Link.Number != 0 && a.Link.Number == issue.Number
}
