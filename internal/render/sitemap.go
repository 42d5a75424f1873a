package render

import (
	"encoding/xml"
	"strings"

	"inflections/internal/domain/site"
)

type sitemapURL struct {
	Loc string `xml:"loc"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// Sitemap writes the routes as a sitemaps.org URL set rooted at baseURL.
func Sitemap(baseURL string, routes []site.Route) ([]byte, error) {
	base := strings.TrimRight(baseURL, "/")
	set := urlSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	for _, r := range routes {
		if r.Path == "" || r.Kind == site.RouteNotFound {
			continue
		}
		set.URLs = append(set.URLs, sitemapURL{Loc: base + r.Path})
	}
	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}
