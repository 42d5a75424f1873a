package render

import (
	"html/template"

	"inflections/internal/domain/config"
	"inflections/internal/domain/magazine"
)

type Heading struct {
	Level int
	ID    string
	Text  string
}

type HomePage struct {
	Site     config.SiteConfig
	Title    string
	Latest   *magazine.Issue
	Articles []magazine.Article
}

type IssuesPage struct {
	Site   config.SiteConfig
	Title  string
	Issues []magazine.Issue
}

type IssuePage struct {
	Site   config.SiteConfig
	Title  string
	Issue  magazine.Issue
	Groups []magazine.PillarGroup
	Count  int
	Prev   *magazine.Issue
	Next   *magazine.Issue
}

type ArticlesPage struct {
	Site     config.SiteConfig
	Title    string
	Articles []magazine.Article
	Pillars  []magazine.Pillar
	Pillar   magazine.Pillar
}

type ArticlePage struct {
	Site    config.SiteConfig
	Title   string
	Article magazine.Article
	HTML    template.HTML
	TOC     []Heading
}

type NotFoundPage struct {
	Site  config.SiteConfig
	Title string
	Path  string
}
