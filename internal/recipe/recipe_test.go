package recipe

import (
	"errors"
	"strings"
	"testing"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{
			"recipe chunk",
			"Ingredients: 4 Obsidian, 2 Diamonds, 1 Book\nCrafting Grid:\n[ Book ]",
			true,
		},
		{"plain prose", "Obsidian is created when water meets a lava source.", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.text); got != tt.want {
				t.Errorf("Detect() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParse_ValidGrid(t *testing.T) {
	text := "To craft an enchanting table you need 4 obsidian, 2 diamonds and a book.\n" +
		"Crafting Grid:\n" +
		"[      ] [ Book ] [      ]\n" +
		"[ Diamond ] [ Obsidian ] [ Diamond ]\n" +
		"[ Obsidian ] [ Obsidian ] [ Obsidian ]"

	rec, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(rec.Grid) != 3 {
		t.Fatalf("got %d rows, want 3", len(rec.Grid))
	}
	for i, row := range rec.Grid {
		if len(row) != 3 {
			t.Errorf("row %d has %d columns, want 3", i, len(row))
		}
	}
	if rec.Grid[0][1] != "Book" {
		t.Errorf("grid[0][1] = %q, want Book", rec.Grid[0][1])
	}
	if rec.Grid[0][0] != "" {
		t.Errorf("grid[0][0] = %q, want empty slot", rec.Grid[0][0])
	}
	if !strings.Contains(rec.Intro, "4 obsidian") {
		t.Errorf("intro = %q, want the lead-in text", rec.Intro)
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"no grid at all", "You mine obsidian with a diamond pickaxe."},
		{"ragged rows", "[ A ] [ B ]\n[ C ]"},
		{"too many rows", "[ A ]\n[ B ]\n[ C ]\n[ D ]"},
		{"too many columns", "[ A ] [ B ] [ C ] [ D ]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			if !errors.Is(err, ErrMalformedGrid) {
				t.Errorf("Parse() error = %v, want ErrMalformedGrid", err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	grid := "Crafting Grid:\n[ Stick ] [ Stick ]"
	resp := Validate(grid)
	if resp.Recipe == nil {
		t.Fatal("Validate() left Recipe empty for a well-formed grid")
	}
	if resp.Prose != "" {
		t.Errorf("Prose = %q, want empty alongside Recipe", resp.Prose)
	}
	if len(resp.Recipe.Grid) != 1 || len(resp.Recipe.Grid[0]) != 2 {
		t.Errorf("grid shape = %dx%d, want 1x2", len(resp.Recipe.Grid), len(resp.Recipe.Grid[0]))
	}

	prose := "You mine obsidian with a diamond pickaxe."
	resp = Validate(prose)
	if resp.Recipe != nil {
		t.Error("Validate() parsed a recipe out of plain prose")
	}
	if resp.Prose != prose {
		t.Errorf("Prose = %q, want the original text", resp.Prose)
	}
}

func TestGrid_RenderAligned(t *testing.T) {
	g := Grid{
		{"", "Book", ""},
		{"Diamond", "Obsidian", "Diamond"},
		{"Obsidian", "Obsidian", "Obsidian"},
	}

	out := g.Render()
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	for i := 1; i < len(lines); i++ {
		if len(lines[i]) != len(lines[0]) {
			t.Errorf("line %d width %d differs from line 0 width %d: columns not aligned",
				i, len(lines[i]), len(lines[0]))
		}
	}
	if !strings.Contains(lines[0], "[ Book") {
		t.Errorf("line 0 = %q, want Book slot", lines[0])
	}
}

func TestRecipe_Render(t *testing.T) {
	rec := &Recipe{
		Intro: "Combine the ingredients as shown.",
		Grid:  Grid{{"Book"}, {"Diamond"}, {"Obsidian"}},
	}

	out := rec.Render()
	if !strings.HasPrefix(out, "Combine the ingredients as shown.\n\n```\n") {
		t.Errorf("Render() = %q, want intro then code block", out)
	}
	if !strings.HasSuffix(out, "\n```") {
		t.Errorf("Render() should close the code block: %q", out)
	}
}
