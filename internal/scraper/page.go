package scraper

import (
	"fmt"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"

	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/pkg/models"
)

// boilerplateHeadings are wiki navigation and appendix sections that
// carry no answerable content.
var boilerplateHeadings = map[string]bool{
	"contents":        true,
	"navigation":      true,
	"navigation menu": true,
	"references":      true,
	"external links":  true,
	"see also":        true,
	"gallery":         true,
	"issues":          true,
}

// maxGridDim is the largest crafting grid dimension a wiki table is
// treated as.
const maxGridDim = 3

// ParsePage parses a wiki page into a structured document. Content is
// split into sections at h2/h3 headings; tables become pipe-separated
// rows, and tables under a crafting heading become a bracketed recipe
// grid. Boilerplate sections are dropped.
func ParsePage(pageURL, body string) (models.Document, error) {
	root, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return models.Document{}, fmt.Errorf("parsing page HTML: %w", err)
	}

	p := &pageParser{
		current: section{heading: "Overview"},
	}
	p.walk(root)
	p.flush()

	title := p.title
	if title == "" {
		title = pageURL
	}

	doc := models.Document{
		ID:        models.GenerateDocumentID(pageURL),
		Title:     title,
		SourceURL: pageURL,
		ScrapedAt: time.Now(),
	}
	for _, s := range p.sections {
		doc.Sections = append(doc.Sections, models.Section{
			Heading: s.heading,
			Text:    s.text,
			Kind:    s.kind,
		})
	}
	return doc, nil
}

type section struct {
	heading string
	text    string
	kind    models.SectionKind
}

type pageParser struct {
	title    string
	current  section
	parts    []string
	kind     models.SectionKind
	sections []section
}

func (p *pageParser) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "nav", "footer", "header":
			return
		case "h1":
			if p.title == "" {
				p.title = headingText(n)
			}
			return
		case "h2", "h3":
			p.flush()
			p.current = section{heading: headingText(n)}
			return
		case "table":
			p.addTable(n)
			return
		case "p", "ul", "ol", "dl":
			p.addProse(n)
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.walk(c)
	}
}

// flush closes the current section, dropping it when empty or
// boilerplate.
func (p *pageParser) flush() {
	text := strings.TrimSpace(strings.Join(p.parts, "\n"))
	p.parts = nil
	kind := p.kind
	p.kind = models.KindText

	if text == "" || boilerplateHeadings[strings.ToLower(p.current.heading)] {
		return
	}
	p.sections = append(p.sections, section{
		heading: p.current.heading,
		text:    text,
		kind:    kind,
	})
}

func (p *pageParser) addProse(n *html.Node) {
	md, err := htmltomarkdown.ConvertString(renderNode(n))
	if err != nil || strings.TrimSpace(md) == "" {
		return
	}
	p.parts = append(p.parts, strings.TrimSpace(md))
}

// addTable renders a table as pipe-separated rows, or as a bracketed
// recipe grid when it sits under a crafting heading and fits the grid
// shape.
func (p *pageParser) addTable(n *html.Node) {
	rows := tableRows(n)
	if len(rows) == 0 {
		return
	}

	if isCraftingHeading(p.current.heading) {
		if grid, ok := asGrid(rows); ok {
			p.parts = append(p.parts, recipeText(grid))
			p.kind = models.KindRecipe
			return
		}
	}

	var lines []string
	for _, row := range rows {
		lines = append(lines, strings.Join(row, " | "))
	}
	p.parts = append(p.parts, strings.Join(lines, "\n"))
	if p.kind == models.KindText {
		p.kind = models.KindTable
	}
}

func isCraftingHeading(heading string) bool {
	return strings.Contains(strings.ToLower(heading), "crafting")
}

// asGrid accepts rectangular tables up to 3x3.
func asGrid(rows [][]string) ([][]string, bool) {
	if len(rows) == 0 || len(rows) > maxGridDim {
		return nil, false
	}
	width := len(rows[0])
	if width == 0 || width > maxGridDim {
		return nil, false
	}
	for _, row := range rows[1:] {
		if len(row) != width {
			return nil, false
		}
	}
	return rows, true
}

// recipeText renders a crafting grid in its canonical text form:
// ingredient list, grid marker, then one bracketed row per line.
func recipeText(grid [][]string) string {
	seen := make(map[string]bool)
	var ingredients []string
	for _, row := range grid {
		for _, cell := range row {
			if cell != "" && !seen[cell] {
				seen[cell] = true
				ingredients = append(ingredients, cell)
			}
		}
	}

	var b strings.Builder
	if len(ingredients) > 0 {
		b.WriteString("Ingredients: ")
		b.WriteString(strings.Join(ingredients, ", "))
		b.WriteString("\n")
	}
	b.WriteString("Crafting Grid:\n")
	for i, row := range grid {
		if i > 0 {
			b.WriteString("\n")
		}
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = fmt.Sprintf("[ %s ]", cell)
		}
		b.WriteString(strings.Join(cells, " "))
	}
	return b.String()
}

func tableRows(n *html.Node) [][]string {
	var rows [][]string
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && node.Data == "tr" {
			var cells []string
			for c := node.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
					cells = append(cells, collapseSpace(textContent(c)))
				}
			}
			if len(cells) > 0 {
				rows = append(rows, cells)
			}
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return rows
}

// headingText strips the trailing [edit] link wikis append to section
// headings.
func headingText(n *html.Node) string {
	text := collapseSpace(textContent(n))
	if i := strings.Index(text, "[edit]"); i >= 0 {
		text = strings.TrimSpace(text[:i])
	}
	return text
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return ""
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func renderNode(n *html.Node) string {
	var b strings.Builder
	if err := html.Render(&b, n); err != nil {
		return ""
	}
	return b.String()
}
