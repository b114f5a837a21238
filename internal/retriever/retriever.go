// Package retriever maps a natural-language query to ranked evidence
// from the embedding store.
package retriever

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/pkg/models"
)

// Embedder is the external text → vector function. It must be the same
// model used at index time; this is a documented precondition, not
// enforced at runtime.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Store is the similarity-search half of the embedding store.
type Store interface {
	Query(ctx context.Context, vector []float32, topK int) ([]models.EmbeddingHit, error)
}

// Retriever embeds queries and performs nearest-neighbor search.
type Retriever struct {
	store    Store
	embedder Embedder
}

// New creates a Retriever over the given store and embedder.
func New(store Store, embedder Embedder) *Retriever {
	return &Retriever{store: store, embedder: embedder}
}

// Retrieve returns at most topK results ordered by strictly
// non-increasing score, ties broken by chunk ID for determinism.
// An empty store yields an empty slice: that is a valid "no knowledge"
// state the generator answers with a refusal, not an error.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]models.RetrievalResult, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	hits, err := r.store.Query(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("querying store: %w", err)
	}

	results := make([]models.RetrievalResult, len(hits))
	for i, hit := range hits {
		results[i] = models.RetrievalResult{
			ChunkID:   hit.ChunkID,
			Text:      hit.Text,
			SourceURL: hit.SourceURL,
			Score:     hit.Score,
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ChunkID < results[j].ChunkID
	})

	slog.Debug("retrieved evidence", "query", query, "results", len(results))
	return results, nil
}
