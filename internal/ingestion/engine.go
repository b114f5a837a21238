// Package ingestion turns scraped documents into indexed, embedded
// chunks.
package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/internal/chunker"
	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/pkg/models"
)

// Source lists and loads scraped documents.
type Source interface {
	ListDocuments(ctx context.Context, prefix string) ([]string, error)
	GetDocument(ctx context.Context, prefix, name string) (models.Document, error)
}

// Splitter divides a document into chunks.
type Splitter interface {
	Split(doc models.Document) ([]models.Chunk, error)
}

// Store embeds and persists chunks, skipping ones it already holds.
type Store interface {
	Upsert(ctx context.Context, chunks []models.Chunk) (int, error)
}

// Config holds ingestion engine configuration.
type Config struct {
	// Concurrency bounds the number of documents processed in parallel.
	Concurrency int
}

// Result holds ingestion execution results.
type Result struct {
	Prefix         string
	DocsProcessed  int
	DocsSkipped    int
	ChunksTotal    int
	ChunksInserted int
	Duration       time.Duration
	Errors         []string
}

// Engine reads scraped documents from storage, chunks them, and
// upserts the chunks into the embedding store.
type Engine struct {
	source   Source
	splitter Splitter
	store    Store
	config   Config
}

// New creates an ingestion engine.
func New(source Source, splitter Splitter, store Store, config Config) *Engine {
	if config.Concurrency <= 0 {
		config.Concurrency = 4
	}
	return &Engine{source: source, splitter: splitter, store: store, config: config}
}

// Ingest processes every document under a storage prefix. Documents
// are processed by a bounded worker pool; a failure on one document is
// recorded and does not stop the batch. Running Ingest twice over the
// same documents inserts nothing the second time.
func (e *Engine) Ingest(ctx context.Context, prefix string) (*Result, error) {
	start := time.Now()

	names, err := e.source.ListDocuments(ctx, prefix)
	if err != nil {
		return nil, err
	}
	slog.Info("starting ingestion", "prefix", prefix, "documents", len(names))

	result := &Result{Prefix: prefix}
	var mu sync.Mutex
	jobs := make(chan string)

	var wg sync.WaitGroup
	for i := 0; i < e.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range jobs {
				e.ingestOne(ctx, prefix, name, result, &mu)
			}
		}()
	}

	for _, name := range names {
		if ctx.Err() != nil {
			mu.Lock()
			result.Errors = append(result.Errors, ctx.Err().Error())
			mu.Unlock()
			break
		}
		jobs <- name
	}
	close(jobs)
	wg.Wait()

	result.Duration = time.Since(start)
	slog.Info("ingestion complete",
		"prefix", prefix,
		"docs_processed", result.DocsProcessed,
		"docs_skipped", result.DocsSkipped,
		"chunks_total", result.ChunksTotal,
		"chunks_inserted", result.ChunksInserted,
		"duration", result.Duration,
		"errors", len(result.Errors))
	return result, nil
}

// IngestDocuments chunks and upserts documents already in memory,
// bypassing storage. Used when scrape and ingest run in one process.
func (e *Engine) IngestDocuments(ctx context.Context, docs []models.Document) (*Result, error) {
	start := time.Now()
	result := &Result{}
	var mu sync.Mutex

	for _, doc := range docs {
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, ctx.Err().Error())
			break
		}
		e.processDocument(ctx, doc, result, &mu)
	}

	result.Duration = time.Since(start)
	return result, nil
}

func (e *Engine) ingestOne(ctx context.Context, prefix, name string, result *Result, mu *sync.Mutex) {
	doc, err := e.source.GetDocument(ctx, prefix, name)
	if err != nil {
		slog.Error("failed to load document", "name", name, "error", err)
		mu.Lock()
		result.Errors = append(result.Errors, err.Error())
		mu.Unlock()
		return
	}
	e.processDocument(ctx, doc, result, mu)
}

func (e *Engine) processDocument(ctx context.Context, doc models.Document, result *Result, mu *sync.Mutex) {
	chunks, err := e.splitter.Split(doc)
	if err != nil {
		if errors.Is(err, chunker.ErrEmptyDocument) {
			slog.Warn("skipping empty document", "id", doc.ID, "title", doc.Title)
			mu.Lock()
			result.DocsSkipped++
			mu.Unlock()
			return
		}
		slog.Error("failed to chunk document", "id", doc.ID, "error", err)
		mu.Lock()
		result.Errors = append(result.Errors, err.Error())
		mu.Unlock()
		return
	}

	inserted, err := e.store.Upsert(ctx, chunks)
	if err != nil {
		slog.Error("failed to upsert chunks", "id", doc.ID, "error", err)
		mu.Lock()
		result.Errors = append(result.Errors, err.Error())
		mu.Unlock()
		return
	}

	slog.Debug("document ingested", "id", doc.ID, "chunks", len(chunks), "inserted", inserted)
	mu.Lock()
	result.DocsProcessed++
	result.ChunksTotal += len(chunks)
	result.ChunksInserted += inserted
	mu.Unlock()
}
