package render

import (
	"bytes"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// MarkdownRenderer turns article bodies into HTML. Raw HTML in the source is
// dropped since bodies come from an editor-controlled store.
type MarkdownRenderer struct {
	md goldmark.Markdown
}

func NewMarkdownRenderer() *MarkdownRenderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
		),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)
	return &MarkdownRenderer{md: md}
}

type MarkdownResult struct {
	HTML     template.HTML
	Headings []Heading
}

func (r *MarkdownRenderer) Render(src string) (MarkdownResult, error) {
	if src == "" {
		return MarkdownResult{}, nil
	}
	raw := []byte(src)
	doc := r.md.Parser().Parse(text.NewReader(raw), parser.WithContext(parser.NewContext()))

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, raw, doc); err != nil {
		return MarkdownResult{}, err
	}
	return MarkdownResult{
		HTML:     template.HTML(buf.String()),
		Headings: collectHeadings(doc, raw),
	}, nil
}

// collectHeadings lists h2 and h3 for the article's table of contents.
func collectHeadings(doc ast.Node, src []byte) []Heading {
	var heads []Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		h, ok := n.(*ast.Heading)
		if !entering || !ok || h.Level < 2 || h.Level > 3 {
			return ast.WalkContinue, nil
		}
		var id string
		if v, ok := h.AttributeString("id"); ok {
			if b, ok := v.([]byte); ok {
				id = string(b)
			}
		}
		var label bytes.Buffer
		for c := h.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				label.Write(t.Segment.Value(src))
			}
		}
		heads = append(heads, Heading{Level: h.Level, ID: id, Text: label.String()})
		return ast.WalkSkipChildren, nil
	})
	return heads
}
