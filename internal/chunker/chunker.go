// Package chunker splits cleaned wiki documents into overlapping,
// content-addressed chunks.
package chunker

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/pkg/models"
)

// ErrEmptyDocument is returned when no usable chunk survives filtering.
var ErrEmptyDocument = errors.New("document has no usable text")

// Config holds splitting parameters.
type Config struct {
	Window  int // target chunk length in characters
	Overlap int // characters shared between adjacent windows
}

// Splitter splits documents into chunks. Splitting is deterministic:
// the same document always yields chunks with identical IDs and text.
type Splitter struct {
	window  int
	overlap int
}

// New creates a Splitter. Overlap must be smaller than the window.
func New(config Config) (*Splitter, error) {
	if config.Window <= 0 {
		return nil, fmt.Errorf("window must be positive, got %d", config.Window)
	}
	if config.Overlap < 0 || config.Overlap >= config.Window {
		return nil, fmt.Errorf("overlap must be in [0, window), got %d", config.Overlap)
	}
	return &Splitter{window: config.Window, overlap: config.Overlap}, nil
}

// Split breaks a document into chunks. Each chunk carries its section
// heading as a prefix, stays inside a single section, and gets a
// content-derived ID. Table and recipe sections are kept whole so
// structured rows and crafting grids survive intact.
func (s *Splitter) Split(doc models.Document) ([]models.Chunk, error) {
	var chunks []models.Chunk

	// Absolute offset of each section's text within the document, so
	// char ranges stay stable across runs.
	offset := 0
	for _, section := range doc.Sections {
		heading := displayHeading(doc.Title, section.Heading, section.Kind)
		text := strings.TrimSpace(section.Text)
		if text == "" {
			offset += len(section.Text) + 1
			continue
		}

		if section.Kind == models.KindTable || section.Kind == models.KindRecipe || len(text) <= s.window {
			chunks = append(chunks, s.newChunk(doc, heading, text, offset, offset+len(text)))
		} else {
			for _, w := range s.windows(text) {
				chunks = append(chunks, s.newChunk(doc, heading, w.text, offset+w.start, offset+w.end))
			}
		}
		offset += len(section.Text) + 1
	}

	if len(chunks) == 0 {
		return nil, fmt.Errorf("%s: %w", doc.ID, ErrEmptyDocument)
	}

	slog.Debug("document split", "document_id", doc.ID, "chunks", len(chunks))
	return chunks, nil
}

func (s *Splitter) newChunk(doc models.Document, heading, text string, start, end int) models.Chunk {
	full := heading + "\n\n" + text
	return models.Chunk{
		ID:         models.ChunkID(doc.ID, start, end, full),
		DocumentID: doc.ID,
		Text:       full,
		Start:      start,
		End:        end,
		SourceURL:  doc.SourceURL,
	}
}

type window struct {
	text       string
	start, end int
}

// windows slides a fixed-size window over the text with the configured
// overlap, trimming each cut back to the previous space so words are
// not split where feasible. Empty windows are dropped.
func (s *Splitter) windows(text string) []window {
	var out []window
	start := 0
	for start < len(text) {
		end := start + s.window
		if end >= len(text) {
			end = len(text)
		} else if i := strings.LastIndexByte(text[start:end], ' '); i > 0 {
			end = start + i
		}

		piece := strings.TrimSpace(text[start:end])
		if piece != "" {
			out = append(out, window{text: piece, start: start, end: end})
		}

		if end == len(text) {
			break
		}
		next := end - s.overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return out
}

// displayHeading prefixes recipe sections with the page title so
// crafting chunks from different pages remain distinguishable.
func displayHeading(title, heading string, kind models.SectionKind) string {
	recipeHeading := kind == models.KindRecipe ||
		strings.EqualFold(strings.TrimSpace(heading), "crafting recipe")
	if recipeHeading && title != "" {
		return title + " - Crafting Recipe"
	}
	return heading
}
