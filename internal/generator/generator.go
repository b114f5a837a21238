// Package generator turns retrieved evidence into a grounded answer.
// The LLM is untrusted: it sees only retrieved evidence, its output is
// validated before rendering, and any failure degrades to the canonical
// refusal instead of surfacing an error to the user.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/internal/recipe"
	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/pkg/models"
)

// Completer is the external prompt → text function.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config holds generation parameters.
type Config struct {
	// RelevanceFloor is the similarity score below which evidence is
	// considered irrelevant. If no evidence clears the floor the
	// generator refuses without calling the LLM.
	RelevanceFloor float64
	// MaxPromptChars bounds the evidence portion of the prompt.
	MaxPromptChars int
	// RetryDelay is the backoff before the single retry of a failed
	// completion call.
	RetryDelay time.Duration
}

// Generator produces grounded answers from evidence.
type Generator struct {
	llm    Completer
	config Config
}

// New creates a Generator over the given completion client.
func New(llm Completer, config Config) *Generator {
	if config.MaxPromptChars == 0 {
		config.MaxPromptChars = 8000
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = 2 * time.Second
	}
	return &Generator{llm: llm, config: config}
}

// Generate answers the query strictly from the supplied evidence.
// With no evidence above the relevance floor it returns the refusal
// answer without invoking the LLM. A grounded answer always cites the
// top-scoring evidence source. Service failures are retried once and
// then degrade to the refusal answer.
func (g *Generator) Generate(ctx context.Context, query string, evidence []models.RetrievalResult) models.Answer {
	relevant := g.aboveFloor(evidence)
	if len(relevant) == 0 {
		slog.Debug("refusing: no relevant evidence", "query", query, "evidence", len(evidence))
		return models.Refusal()
	}

	wantGrid := hasRecipeEvidence(relevant)
	prompt := g.buildPrompt(query, relevant, wantGrid)

	response, err := g.completeWithRetry(ctx, prompt)
	if err != nil {
		slog.Warn("completion failed after retry, refusing", "query", query, "error", err)
		return models.Refusal()
	}

	// The model may correctly conclude the evidence is insufficient.
	if strings.Contains(response, models.RefusalText) || strings.Contains(response, "I don't know") {
		return models.Refusal()
	}

	text := response
	if wantGrid {
		text = renderStructured(response)
	}

	return models.Answer{
		Text:      text,
		SourceURL: relevant[0].SourceURL,
		Grounded:  true,
	}
}

// aboveFloor keeps evidence scoring at or above the relevance floor.
// The input is already sorted by descending score.
func (g *Generator) aboveFloor(evidence []models.RetrievalResult) []models.RetrievalResult {
	var out []models.RetrievalResult
	for _, ev := range evidence {
		if ev.Score >= g.config.RelevanceFloor {
			out = append(out, ev)
		}
	}
	return out
}

func hasRecipeEvidence(evidence []models.RetrievalResult) bool {
	for _, ev := range evidence {
		if recipe.Detect(ev.Text) {
			return true
		}
	}
	return false
}

// buildPrompt assembles the bounded evidence context, each block tagged
// with its source, followed by the grounding instructions.
func (g *Generator) buildPrompt(query string, evidence []models.RetrievalResult, wantGrid bool) string {
	var blocks strings.Builder
	for _, ev := range evidence {
		block := fmt.Sprintf("[source: %s]\n%s\n\n", ev.SourceURL, ev.Text)
		if blocks.Len()+len(block) > g.config.MaxPromptChars {
			break
		}
		blocks.WriteString(block)
	}

	var b strings.Builder
	b.WriteString("You are a knowledgeable assistant trained on the Minecraft Wiki.\n")
	b.WriteString("Answer strictly using the provided context. Do not add facts that are not in the context.\n")
	b.WriteString("If the answer is clearly not present in the context, reply exactly: I don't know.\n")
	if wantGrid {
		b.WriteString("The context contains a crafting recipe. Present it as a grid of bracketed slots,\n")
		b.WriteString("one row per line, exactly as laid out in the context, e.g. [ Diamond ] [ Obsidian ] [ Diamond ].\n")
	}
	b.WriteString("\nContext:\n")
	b.WriteString(blocks.String())
	b.WriteString("Query:\n")
	b.WriteString(query)
	return b.String()
}

// renderStructured validates the model's grid and re-renders it
// aligned. A malformed grid falls back to the prose reply; the user
// never sees an error.
func renderStructured(response string) string {
	validated := recipe.Validate(response)
	if validated.Recipe == nil {
		slog.Debug("grid validation failed, falling back to prose")
		return validated.Prose
	}
	return validated.Recipe.Render()
}

func (g *Generator) completeWithRetry(ctx context.Context, prompt string) (string, error) {
	response, err := g.llm.Complete(ctx, prompt)
	if err == nil {
		return response, nil
	}
	slog.Warn("completion call failed, retrying once", "error", err)

	select {
	case <-time.After(g.config.RetryDelay):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return g.llm.Complete(ctx, prompt)
}
