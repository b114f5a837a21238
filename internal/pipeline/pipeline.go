// Package pipeline composes retrieval and generation into the
// query-answering flow.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/pkg/models"
)

// Retriever finds the evidence most relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]models.RetrievalResult, error)
}

// Generator produces an answer from a query and its evidence.
type Generator interface {
	Generate(ctx context.Context, query string, evidence []models.RetrievalResult) models.Answer
}

// Config holds query pipeline parameters.
type Config struct {
	// TopK is the number of evidence chunks retrieved per query.
	TopK int
}

// Pipeline answers queries by retrieving evidence and generating a
// grounded answer from it. It holds no per-query state; a single
// Pipeline serves concurrent queries.
type Pipeline struct {
	retriever Retriever
	generator Generator
	config    Config
}

// New creates a query Pipeline.
func New(retriever Retriever, generator Generator, config Config) *Pipeline {
	if config.TopK <= 0 {
		config.TopK = 5
	}
	return &Pipeline{retriever: retriever, generator: generator, config: config}
}

// ProcessQuery runs a query end to end: retrieve evidence, then
// generate an answer from it. Retrieval failure is an error; the
// generator itself never fails, it degrades to a refusal.
func (p *Pipeline) ProcessQuery(ctx context.Context, query string) (models.Answer, error) {
	start := time.Now()

	evidence, err := p.retriever.Retrieve(ctx, query, p.config.TopK)
	if err != nil {
		return models.Answer{}, fmt.Errorf("retrieving evidence: %w", err)
	}

	answer := p.generator.Generate(ctx, query, evidence)

	slog.Debug("query processed",
		"query", query,
		"evidence", len(evidence),
		"grounded", answer.Grounded,
		"duration", time.Since(start))
	return answer, nil
}

// Retrieve exposes raw evidence retrieval for callers that want ranked
// chunks without generation, such as the search tool.
func (p *Pipeline) Retrieve(ctx context.Context, query string, topK int) ([]models.RetrievalResult, error) {
	if topK <= 0 {
		topK = p.config.TopK
	}
	return p.retriever.Retrieve(ctx, query, topK)
}
