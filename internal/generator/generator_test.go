package generator

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/pkg/models"
)

type fakeCompleter struct {
	calls     atomic.Int64
	responses []string
	errs      []error
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	n := int(f.calls.Add(1)) - 1
	if n < len(f.errs) && f.errs[n] != nil {
		return "", f.errs[n]
	}
	if n < len(f.responses) {
		return f.responses[n], nil
	}
	return "", errors.New("no scripted response")
}

func newGenerator(llm Completer) *Generator {
	return New(llm, Config{
		RelevanceFloor: 0.60,
		RetryDelay:     time.Millisecond,
	})
}

func evidence(score float64, text, url string) models.RetrievalResult {
	return models.RetrievalResult{
		Text:      text,
		SourceURL: url,
		Score:     score,
	}
}

func TestGenerate_RefusesOnEmptyEvidence(t *testing.T) {
	llm := &fakeCompleter{}
	g := newGenerator(llm)

	answer := g.Generate(context.Background(), "what are liminal llamas?", nil)

	if answer.Grounded {
		t.Error("expected ungrounded refusal")
	}
	if answer.Text != models.RefusalText {
		t.Errorf("expected %q, got %q", models.RefusalText, answer.Text)
	}
	if llm.calls.Load() != 0 {
		t.Errorf("expected no completion calls, got %d", llm.calls.Load())
	}
}

func TestGenerate_RefusesBelowRelevanceFloor(t *testing.T) {
	llm := &fakeCompleter{}
	g := newGenerator(llm)

	answer := g.Generate(context.Background(), "irrelevant query", []models.RetrievalResult{
		evidence(0.41, "Pigs drop porkchops when killed.", "https://wiki/Pig"),
		evidence(0.30, "Cows can be milked with a bucket.", "https://wiki/Cow"),
	})

	if answer.Grounded {
		t.Error("expected ungrounded refusal")
	}
	if llm.calls.Load() != 0 {
		t.Errorf("expected no completion calls, got %d", llm.calls.Load())
	}
}

func TestGenerate_CitesTopScoringSource(t *testing.T) {
	llm := &fakeCompleter{responses: []string{"Diamond pickaxes mine obsidian."}}
	g := newGenerator(llm)

	answer := g.Generate(context.Background(), "how do I mine obsidian?", []models.RetrievalResult{
		evidence(0.92, "Obsidian can only be mined with a diamond or netherite pickaxe.", "https://wiki/Obsidian"),
		evidence(0.75, "Diamond ore generates deep underground.", "https://wiki/Diamond"),
	})

	if !answer.Grounded {
		t.Fatal("expected grounded answer")
	}
	if answer.SourceURL != "https://wiki/Obsidian" {
		t.Errorf("expected top source cited, got %q", answer.SourceURL)
	}
	if answer.Text != "Diamond pickaxes mine obsidian." {
		t.Errorf("unexpected answer text %q", answer.Text)
	}
}

func TestGenerate_NormalizesModelRefusal(t *testing.T) {
	llm := &fakeCompleter{responses: []string{"I don't know based on the provided context."}}
	g := newGenerator(llm)

	answer := g.Generate(context.Background(), "what is the meaning of life?", []models.RetrievalResult{
		evidence(0.65, "Beds explode in the Nether.", "https://wiki/Bed"),
	})

	if answer.Grounded {
		t.Error("expected ungrounded refusal")
	}
	if answer.Text != models.RefusalText {
		t.Errorf("expected canonical refusal, got %q", answer.Text)
	}
}

func TestGenerate_RendersValidRecipeGrid(t *testing.T) {
	llm := &fakeCompleter{responses: []string{
		"To craft an enchantment table you need:\n[  ] [ Book ] [  ]\n[ Diamond ] [ Obsidian ] [ Diamond ]\n[ Obsidian ] [ Obsidian ] [ Obsidian ]",
	}}
	g := newGenerator(llm)

	answer := g.Generate(context.Background(), "how do I craft an enchantment table?", []models.RetrievalResult{
		evidence(0.88, "Enchantment Table - Crafting Recipe\n\nIngredients: Book, Diamonds, Obsidian\nCrafting Grid:\n[  ] [ Book ] [  ]\n[ Diamond ] [ Obsidian ] [ Diamond ]\n[ Obsidian ] [ Obsidian ] [ Obsidian ]", "https://wiki/Enchantment_Table"),
	})

	if !answer.Grounded {
		t.Fatal("expected grounded answer")
	}
	if !strings.Contains(answer.Text, "```") {
		t.Errorf("expected rendered grid block, got %q", answer.Text)
	}
	if !strings.Contains(answer.Text, "Obsidian") {
		t.Errorf("expected grid cells in answer, got %q", answer.Text)
	}
	// Asking for a recipe steers the model toward grid output.
	if llm.calls.Load() != 1 {
		t.Errorf("expected exactly one completion call, got %d", llm.calls.Load())
	}
}

func TestGenerate_MalformedGridFallsBackToProse(t *testing.T) {
	prose := "Place obsidian across the bottom row, diamonds on the sides, and a book on top.\n[ Book ] [ Extra ]\n[ Obsidian ]"
	llm := &fakeCompleter{responses: []string{prose}}
	g := newGenerator(llm)

	answer := g.Generate(context.Background(), "how do I craft an enchantment table?", []models.RetrievalResult{
		evidence(0.81, "Enchantment Table - Crafting Recipe\n\nCrafting Grid:\n[  ] [ Book ] [  ]", "https://wiki/Enchantment_Table"),
	})

	if !answer.Grounded {
		t.Fatal("expected grounded answer")
	}
	if answer.Text != prose {
		t.Errorf("expected prose fallback, got %q", answer.Text)
	}
}

func TestGenerate_RetriesOnceThenSucceeds(t *testing.T) {
	llm := &fakeCompleter{
		errs:      []error{errors.New("temporary outage"), nil},
		responses: []string{"", "Creepers explode when close to players."},
	}
	g := newGenerator(llm)

	answer := g.Generate(context.Background(), "what do creepers do?", []models.RetrievalResult{
		evidence(0.90, "Creepers are hostile mobs that explode.", "https://wiki/Creeper"),
	})

	if !answer.Grounded {
		t.Fatal("expected grounded answer after retry")
	}
	if llm.calls.Load() != 2 {
		t.Errorf("expected 2 completion calls, got %d", llm.calls.Load())
	}
}

func TestGenerate_RefusesAfterPersistentFailure(t *testing.T) {
	outage := errors.New("persistent outage")
	llm := &fakeCompleter{errs: []error{outage, outage}}
	g := newGenerator(llm)

	answer := g.Generate(context.Background(), "what do creepers do?", []models.RetrievalResult{
		evidence(0.90, "Creepers are hostile mobs that explode.", "https://wiki/Creeper"),
	})

	if answer.Grounded {
		t.Error("expected refusal after persistent failure")
	}
	if answer.Text != models.RefusalText {
		t.Errorf("expected canonical refusal, got %q", answer.Text)
	}
	if llm.calls.Load() != 2 {
		t.Errorf("expected exactly 2 completion calls, got %d", llm.calls.Load())
	}
}

func TestBuildPrompt_BoundsEvidence(t *testing.T) {
	g := New(&fakeCompleter{}, Config{RelevanceFloor: 0.5, MaxPromptChars: 200, RetryDelay: time.Millisecond})

	long := strings.Repeat("obsidian ", 40)
	prompt := g.buildPrompt("q", []models.RetrievalResult{
		evidence(0.9, "first chunk fits", "https://wiki/A"),
		evidence(0.8, long, "https://wiki/B"),
	}, false)

	if !strings.Contains(prompt, "first chunk fits") {
		t.Error("expected first evidence block in prompt")
	}
	if strings.Contains(prompt, long) {
		t.Error("expected oversized evidence block dropped")
	}
	if !strings.Contains(prompt, "[source: https://wiki/A]") {
		t.Error("expected source tag on evidence block")
	}
}
