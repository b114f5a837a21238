// Package store owns the consistency guarantees of the vector index:
// write-once deduplicated inserts and similarity queries. No other
// component writes to the index.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/internal/elasticsearch"
	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/pkg/models"
)

// Embedder is the external text → vector function. The same model must
// be used at index and query time.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Index is the narrow interface the store requires from the persisted
// vector index. Insert must fail with elasticsearch.ErrDuplicate when a
// record with the same chunk ID already exists, which is what makes
// concurrent upserts of the same chunk safe.
type Index interface {
	Exists(ctx context.Context, chunkID string) (bool, error)
	Insert(ctx context.Context, rec models.EmbeddingRecord) error
	Search(ctx context.Context, vector []float32, k int) ([]models.EmbeddingHit, error)
}

// embedRetryDelay is the backoff before the single retry of a failed
// embedding call.
const embedRetryDelay = 2 * time.Second

// EmbeddingStore persists one embedding record per distinct chunk ID.
// The index handle is explicitly injected; there is no ambient global.
type EmbeddingStore struct {
	index      Index
	embedder   Embedder
	retryDelay time.Duration
}

// New creates an EmbeddingStore over the given index and embedder.
func New(index Index, embedder Embedder) *EmbeddingStore {
	return &EmbeddingStore{index: index, embedder: embedder, retryDelay: embedRetryDelay}
}

// Upsert embeds and persists chunks that are not yet stored and returns
// the number of newly inserted records. Re-running over an unchanged
// chunk set inserts nothing. An embedding failure is retried once and
// then surfaced to the caller: silently dropping a chunk would be data
// loss.
func (s *EmbeddingStore) Upsert(ctx context.Context, chunks []models.Chunk) (int, error) {
	inserted := 0
	for _, chunk := range chunks {
		exists, err := s.index.Exists(ctx, chunk.ID)
		if err != nil {
			return inserted, fmt.Errorf("existence check for %s: %w", chunk.ID, err)
		}
		if exists {
			slog.Debug("skipping stored chunk", "chunk_id", chunk.ID)
			continue
		}

		vector, err := s.embedWithRetry(ctx, chunk.Text)
		if err != nil {
			return inserted, fmt.Errorf("embedding chunk %s: %w", chunk.ID, err)
		}

		rec := models.EmbeddingRecord{
			ChunkID:    chunk.ID,
			Vector:     vector,
			Text:       chunk.Text,
			DocumentID: chunk.DocumentID,
			SourceURL:  chunk.SourceURL,
		}
		err = s.index.Insert(ctx, rec)
		if errors.Is(err, elasticsearch.ErrDuplicate) {
			// A concurrent upsert won the race; the record exists.
			slog.Debug("concurrent insert lost race", "chunk_id", chunk.ID)
			continue
		}
		if err != nil {
			return inserted, fmt.Errorf("inserting chunk %s: %w", chunk.ID, err)
		}
		inserted++
	}
	return inserted, nil
}

// Query returns at most topK hits ordered by descending similarity.
// An empty index yields an empty slice, not an error.
func (s *EmbeddingStore) Query(ctx context.Context, vector []float32, topK int) ([]models.EmbeddingHit, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}
	return s.index.Search(ctx, vector, topK)
}

func (s *EmbeddingStore) embedWithRetry(ctx context.Context, text string) ([]float32, error) {
	vector, err := s.embedder.Embed(ctx, text)
	if err == nil {
		return vector, nil
	}
	slog.Warn("embedding call failed, retrying once", "error", err)

	select {
	case <-time.After(s.retryDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return s.embedder.Embed(ctx, text)
}
