package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/internal/elasticsearch"
	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/pkg/models"
)

// fakeIndex is an in-memory Index with create-if-absent semantics.
type fakeIndex struct {
	mu      sync.Mutex
	records map[string]models.EmbeddingRecord
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{records: make(map[string]models.EmbeddingRecord)}
}

func (f *fakeIndex) Exists(_ context.Context, chunkID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.records[chunkID]
	return ok, nil
}

func (f *fakeIndex) Insert(_ context.Context, rec models.EmbeddingRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[rec.ChunkID]; ok {
		return elasticsearch.ErrDuplicate
	}
	f.records[rec.ChunkID] = rec
	return nil
}

func (f *fakeIndex) Search(_ context.Context, _ []float32, k int) ([]models.EmbeddingHit, error) {
	return nil, nil
}

// fakeEmbedder counts calls and can fail a configured number of times.
type fakeEmbedder struct {
	mu       sync.Mutex
	calls    int
	failures int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("embedding service down")
	}
	return []float32{float32(len(text)), 0, 0}, nil
}

func testChunks(n int) []models.Chunk {
	chunks := make([]models.Chunk, n)
	for i := range chunks {
		text := fmt.Sprintf("chunk text %d", i)
		chunks[i] = models.Chunk{
			ID:         models.ChunkID("doc", i*100, i*100+100, text),
			DocumentID: "doc",
			Text:       text,
			SourceURL:  "https://minecraft.wiki/w/Test",
		}
	}
	return chunks
}

func TestUpsert_Idempotent(t *testing.T) {
	index := newFakeIndex()
	embedder := &fakeEmbedder{}
	s := New(index, embedder)
	chunks := testChunks(3)

	inserted, err := s.Upsert(context.Background(), chunks)
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if inserted != 3 {
		t.Errorf("first Upsert() inserted = %d, want 3", inserted)
	}

	inserted, err = s.Upsert(context.Background(), chunks)
	if err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}
	if inserted != 0 {
		t.Errorf("second Upsert() inserted = %d, want 0", inserted)
	}
	if embedder.calls != 3 {
		t.Errorf("embedder called %d times, want 3 (no re-embedding of stored chunks)", embedder.calls)
	}
}

func TestUpsert_EmbedRetryOnce(t *testing.T) {
	index := newFakeIndex()
	embedder := &fakeEmbedder{failures: 1}
	s := New(index, embedder)
	s.retryDelay = time.Millisecond

	inserted, err := s.Upsert(context.Background(), testChunks(1))
	if err != nil {
		t.Fatalf("Upsert() error = %v, want retry to succeed", err)
	}
	if inserted != 1 {
		t.Errorf("inserted = %d, want 1", inserted)
	}
	if embedder.calls != 2 {
		t.Errorf("embedder called %d times, want 2", embedder.calls)
	}
}

func TestUpsert_EmbedFailureSurfaced(t *testing.T) {
	index := newFakeIndex()
	embedder := &fakeEmbedder{failures: 2}
	s := New(index, embedder)
	s.retryDelay = time.Millisecond

	_, err := s.Upsert(context.Background(), testChunks(1))
	if err == nil {
		t.Fatal("Upsert() should surface a persistent embedding failure")
	}
}

func TestUpsert_ConcurrentSameChunk(t *testing.T) {
	index := newFakeIndex()
	s := New(index, &fakeEmbedder{})
	chunks := testChunks(1)

	var wg sync.WaitGroup
	insertedTotal := make(chan int, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := s.Upsert(context.Background(), chunks)
			if err != nil {
				t.Errorf("Upsert() error = %v", err)
			}
			insertedTotal <- n
		}()
	}
	wg.Wait()
	close(insertedTotal)

	total := 0
	for n := range insertedTotal {
		total += n
	}
	if total != 1 {
		t.Errorf("total inserted across concurrent upserts = %d, want 1", total)
	}
	if len(index.records) != 1 {
		t.Errorf("index holds %d records, want 1", len(index.records))
	}
}

func TestQuery_Validation(t *testing.T) {
	s := New(newFakeIndex(), &fakeEmbedder{})
	if _, err := s.Query(context.Background(), []float32{1}, 0); err == nil {
		t.Error("Query() should reject non-positive topK")
	}
}
