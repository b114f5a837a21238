package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/internal/chunker"
	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/internal/ingestion"
	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/internal/store"
	"github.com/spf13/cobra"
)

var ingestPrefix string

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Chunk and embed stored documents into the index",
	Long: `Read scraped documents from object storage, split them into
overlapping chunks, embed each chunk, and write them to the vector
index. Chunks already present in the index are skipped, so re-running
ingest over the same documents inserts nothing.

Example:
  ragbot ingest --prefix scrapes/minecraft.wiki/2026-08-28T10-00-00-ab12cd34`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&ingestPrefix, "prefix", "", "Storage prefix of a scrape run (required)")
	ingestCmd.MarkFlagRequired("prefix")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()

	esClient, err := newESClient(cfg)
	if err != nil {
		return err
	}
	if err := esClient.CreateIndex(ctx); err != nil {
		return fmt.Errorf("creating index: %w", err)
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	storageClient, err := newStorage(cfg)
	if err != nil {
		return err
	}
	splitter, err := chunker.New(chunker.Config{
		Window:  cfg.Chunking.Window,
		Overlap: cfg.Chunking.Overlap,
	})
	if err != nil {
		return fmt.Errorf("configuring chunker: %w", err)
	}

	engine := ingestion.New(storageClient, splitter, store.New(esClient, embedder), ingestion.Config{
		Concurrency: cfg.Ingest.Concurrency,
	})

	fmt.Printf("Ingesting: %s\n", ingestPrefix)
	result, err := engine.Ingest(ctx, ingestPrefix)
	if err != nil {
		return err
	}

	// Make newly inserted chunks searchable right away.
	esClient.Refresh(ctx)

	fmt.Printf("  Documents: %d processed, %d skipped\n", result.DocsProcessed, result.DocsSkipped)
	fmt.Printf("  Chunks: %d seen, %d inserted\n", result.ChunksTotal, result.ChunksInserted)
	fmt.Printf("  Duration: %v\n", result.Duration)
	for _, e := range result.Errors {
		fmt.Printf("  Warning: %s\n", e)
	}
	return nil
}
