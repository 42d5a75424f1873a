package magazine

import (
	"inflections/internal/domain/magazine"
)

// FilterPublished keeps published issues only, newest number first. It is
// the single visibility gate: articles are reached through these issues.
func FilterPublished(issues []magazine.Issue) []magazine.Issue {
	out := make([]magazine.Issue, 0, len(issues))
	for _, is := range issues {
		if is.Status.Published() {
			out = append(out, is)
		}
	}
	magazine.SortIssuesByNumberDesc(out)
	return out
}

// visibleIn reports whether a is shown as part of issue: the issue must be
// published and the article must not carry a non-public status of its own.
func visibleIn(a magazine.Article, issue magazine.Issue) bool {
	return issue.Status.Published() && a.Visible()
}
