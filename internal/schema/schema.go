// Package schema binds store field names to the magazine model. It is the
// only package that knows how the content store names its tables and fields.
package schema

import (
	"fmt"
	"strings"

	"inflections/internal/domain/magazine"
	"inflections/internal/store"
)

// LinkStrategy says how an article record points at its issue.
type LinkStrategy string

const (
	// LinkByIssueNumber: articles carry a copy of the issue number.
	LinkByIssueNumber LinkStrategy = "issue-number"
	// LinkByRecord: articles carry a link field with the issue record id.
	LinkByRecord LinkStrategy = "linked-record"
)

// Schema maps raw records to entities and describes the queries the facade
// needs, all in terms of one store layout.
type Schema interface {
	Name() string
	Strategy() LinkStrategy

	IssuesTable() string
	ArticlesTable() string

	MapIssue(r store.Record) magazine.Issue
	MapArticle(r store.Record) magazine.Article

	PublishedIssues() store.Query
	PublishedIssueByNumber(number int) store.Query
	AllIssues() store.Query

	ArticlesOf(issue magazine.Issue) store.Query
	AllArticles() store.Query

	// Links reports whether an already mapped article belongs to issue.
	Links(a magazine.Article, issue magazine.Issue) bool

	PublishedURLField() string
}

const (
	VersionIssueNumber  = "v1"
	VersionLinkedRecord = "v2"
)

// ByName returns the schema registered for a config value.
func ByName(name string) (Schema, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case VersionIssueNumber, string(LinkByIssueNumber):
		return IssueNumberSchema{}, nil
	case "", VersionLinkedRecord, string(LinkByRecord):
		return LinkedRecordSchema{}, nil
	default:
		return nil, fmt.Errorf("schema: unknown version %q", name)
	}
}

// Fields shared by both layouts.
const (
	fStatus       = "Status"
	fIssueNumber  = "Issue Number"
	fTitle        = "Title"
	fSlug         = "Slug"
	fContent      = "Content"
	fExcerpt      = "Excerpt"
	fAuthor       = "Author"
	fPillar       = "Pillar"
	fPublishedURL = "Published URL"

	tableIssues   = "Issues"
	tableArticles = "Articles"
)

func publishedFilter() store.Filter {
	return store.Eq(fStatus, string(magazine.StatusPublished))
}

func byNumberDesc() []store.SortField {
	return []store.SortField{{Field: fIssueNumber, Desc: true}}
}

func byTitle() []store.SortField {
	return []store.SortField{{Field: fTitle}}
}

func intField(f store.Fields, name string) int {
	n, _ := f.Int(name)
	return n
}
