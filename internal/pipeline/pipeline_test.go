package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/pkg/models"
)

type fakeRetriever struct {
	results []models.RetrievalResult
	err     error
	gotTopK int
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query string, topK int) ([]models.RetrievalResult, error) {
	f.gotTopK = topK
	return f.results, f.err
}

type fakeGenerator struct {
	answer      models.Answer
	gotEvidence []models.RetrievalResult
}

func (f *fakeGenerator) Generate(ctx context.Context, query string, evidence []models.RetrievalResult) models.Answer {
	f.gotEvidence = evidence
	return f.answer
}

func TestProcessQuery_PassesEvidenceToGenerator(t *testing.T) {
	results := []models.RetrievalResult{
		{ChunkID: "a", Text: "obsidian", Score: 0.9},
		{ChunkID: "b", Text: "diamond", Score: 0.7},
	}
	retriever := &fakeRetriever{results: results}
	generator := &fakeGenerator{answer: models.Answer{Text: "answer", Grounded: true}}
	p := New(retriever, generator, Config{TopK: 3})

	answer, err := p.ProcessQuery(context.Background(), "how do I mine obsidian?")
	if err != nil {
		t.Fatalf("ProcessQuery failed: %v", err)
	}
	if !answer.Grounded {
		t.Error("expected grounded answer passed through")
	}
	if retriever.gotTopK != 3 {
		t.Errorf("expected topK 3, got %d", retriever.gotTopK)
	}
	if len(generator.gotEvidence) != 2 {
		t.Errorf("expected 2 evidence chunks forwarded, got %d", len(generator.gotEvidence))
	}
}

func TestProcessQuery_RetrievalErrorPropagates(t *testing.T) {
	retriever := &fakeRetriever{err: errors.New("index unavailable")}
	p := New(retriever, &fakeGenerator{}, Config{TopK: 5})

	if _, err := p.ProcessQuery(context.Background(), "anything"); err == nil {
		t.Fatal("expected retrieval error")
	}
}

func TestProcessQuery_EmptyStoreYieldsRefusal(t *testing.T) {
	retriever := &fakeRetriever{results: nil}
	generator := &fakeGenerator{answer: models.Refusal()}
	p := New(retriever, generator, Config{TopK: 5})

	answer, err := p.ProcessQuery(context.Background(), "what are liminal llamas?")
	if err != nil {
		t.Fatalf("ProcessQuery failed: %v", err)
	}
	if answer.Grounded {
		t.Error("expected refusal on empty store")
	}
	if answer.Text != models.RefusalText {
		t.Errorf("expected %q, got %q", models.RefusalText, answer.Text)
	}
}

func TestRetrieve_DefaultsTopK(t *testing.T) {
	retriever := &fakeRetriever{}
	p := New(retriever, &fakeGenerator{}, Config{TopK: 7})

	if _, err := p.Retrieve(context.Background(), "q", 0); err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if retriever.gotTopK != 7 {
		t.Errorf("expected configured topK 7, got %d", retriever.gotTopK)
	}
}
