// Package recipe detects, validates, and renders crafting-grid
// structures. The wiki preprocessor emits recipes as bracketed rows
// ("[ Obsidian ] [ Book ] ..."); the generator asks the model to keep
// that shape and validates the result here rather than trusting
// free-form text.
package recipe

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMalformedGrid is returned when a response claims a grid but its
// rows do not form a valid rows × columns shape. Callers fall back to
// prose; the error never reaches the end user.
var ErrMalformedGrid = errors.New("malformed crafting grid")

// maxDim bounds grid dimensions; crafting grids are at most 3×3.
const maxDim = 3

// gridMarker precedes the bracketed rows in recipe chunks.
const gridMarker = "Crafting Grid:"

var cellPattern = regexp.MustCompile(`\[([^\[\]]*)\]`)

// Grid is rows × columns of ingredient slots. Empty strings are empty
// slots.
type Grid [][]string

// Response is the validated form of a model reply: either a structured
// recipe or plain prose. Exactly one branch is populated.
type Response struct {
	Recipe *Recipe
	Prose  string
}

// Recipe is a parsed crafting recipe: the prose lead-in (if any) plus
// the validated grid.
type Recipe struct {
	Intro string
	Grid  Grid
}

// Validate classifies a model reply that is expected to carry a
// crafting grid. A reply whose grid parses cleanly fills Recipe;
// anything else keeps the raw text as Prose.
func Validate(text string) Response {
	rec, err := Parse(text)
	if err != nil {
		return Response{Prose: text}
	}
	return Response{Recipe: rec}
}

// Detect reports whether any evidence text carries recipe-shaped
// structured data.
func Detect(texts ...string) bool {
	for _, t := range texts {
		if strings.Contains(t, gridMarker) {
			return true
		}
	}
	return false
}

// Parse validates a model reply that is expected to contain a crafting
// grid. On success the grid rows are rectangular and within crafting
// dimensions; any text before the grid is kept as the intro. A reply
// with no grid lines at all, or with inconsistent rows, fails with
// ErrMalformedGrid.
func Parse(text string) (*Recipe, error) {
	lines := strings.Split(text, "\n")

	var grid Grid
	var intro []string
	inGrid := false
	for _, line := range lines {
		cells := cellPattern.FindAllStringSubmatch(line, -1)
		if len(cells) == 0 {
			if inGrid {
				break
			}
			if trimmed := strings.TrimSpace(line); trimmed != "" && trimmed != gridMarker {
				intro = append(intro, trimmed)
			}
			continue
		}

		inGrid = true
		row := make([]string, len(cells))
		for i, c := range cells {
			row[i] = strings.TrimSpace(c[1])
		}
		grid = append(grid, row)
	}

	if err := validate(grid); err != nil {
		return nil, err
	}
	return &Recipe{Intro: strings.Join(intro, " "), Grid: grid}, nil
}

func validate(grid Grid) error {
	if len(grid) == 0 || len(grid) > maxDim {
		return fmt.Errorf("%w: %d rows", ErrMalformedGrid, len(grid))
	}
	width := len(grid[0])
	if width == 0 || width > maxDim {
		return fmt.Errorf("%w: %d columns", ErrMalformedGrid, width)
	}
	for i, row := range grid {
		if len(row) != width {
			return fmt.Errorf("%w: row %d has %d columns, want %d", ErrMalformedGrid, i, len(row), width)
		}
	}
	return nil
}

// Render formats the recipe as markdown: the intro paragraph followed
// by the aligned grid in a code block.
func (r *Recipe) Render() string {
	var b strings.Builder
	if r.Intro != "" {
		b.WriteString(r.Intro)
		b.WriteString("\n\n")
	}
	b.WriteString("```\n")
	b.WriteString(r.Grid.Render())
	b.WriteString("\n```")
	return b.String()
}

// Render formats the grid with columns padded to equal width so slots
// line up vertically.
func (g Grid) Render() string {
	widths := make([]int, len(g[0]))
	for _, row := range g {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	rows := make([]string, len(g))
	for i, row := range g {
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = fmt.Sprintf("[ %-*s ]", widths[j], cell)
		}
		rows[i] = strings.Join(cells, " ")
	}
	return strings.Join(rows, "\n")
}
