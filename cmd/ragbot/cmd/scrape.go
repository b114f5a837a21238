package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/internal/chunker"
	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/internal/config"
	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/internal/elasticsearch"
	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/internal/ingestion"
	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/internal/scraper"
	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/internal/store"
	"github.com/spf13/cobra"
)

var (
	scrapeURL    string
	scrapeSource string
	scrapeIngest bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape wiki pages into object storage",
	Long: `Scrape wiki pages from configured sources or a specific URL and
write the parsed documents to object storage.

Examples:
  # Scrape all configured sources
  ragbot scrape

  # Scrape a specific source by name
  ragbot scrape --source minecraft-wiki

  # Scrape a specific URL directly
  ragbot scrape --url https://minecraft.wiki/w/Enchantment_Table

  # Scrape and index in one run
  ragbot scrape --url https://minecraft.wiki/w/Enchantment_Table --ingest`,
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringVar(&scrapeURL, "url", "", "URL to scrape directly")
	scrapeCmd.Flags().StringVar(&scrapeSource, "source", "", "Source name from config to scrape")
	scrapeCmd.Flags().BoolVar(&scrapeIngest, "ingest", false, "Chunk and index scraped pages without a separate ingest run")
}

func runScrape(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()
	slog.Debug("scrape command starting", "verbose", verbose)

	urls, err := resolveSources(cfg.Sources, scrapeURL, scrapeSource)
	if err != nil {
		return err
	}

	storageClient, err := newStorage(cfg)
	if err != nil {
		return err
	}
	if err := storageClient.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("ensuring bucket: %w", err)
	}

	s := scraper.New(scraper.Config{
		Delay:       cfg.Scraper.Delay,
		MaxDepth:    cfg.Scraper.MaxDepth,
		FollowLinks: cfg.Scraper.FollowLinks,
		Timeout:     cfg.Scraper.Timeout,
		UserAgent:   cfg.Scraper.UserAgent,
	})

	var engine *ingestion.Engine
	var esClient *elasticsearch.Client
	if scrapeIngest {
		engine, esClient, err = newIngestEngine(ctx, cfg, storageClient)
		if err != nil {
			return err
		}
	}

	totalPages := 0
	for _, url := range urls {
		fmt.Printf("Scraping: %s\n", url)

		result, err := s.ScrapeToStorage(ctx, url, storageClient)
		if err != nil {
			fmt.Printf("  Error: %v\n", err)
			continue
		}

		totalPages += result.PageCount
		fmt.Printf("  Pages: %d, Prefix: %s\n", result.PageCount, result.Prefix)

		if engine != nil {
			ingested, err := engine.IngestDocuments(ctx, result.Documents)
			if err != nil {
				fmt.Printf("  Ingest error: %v\n", err)
				continue
			}
			fmt.Printf("  Chunks: %d seen, %d inserted\n", ingested.ChunksTotal, ingested.ChunksInserted)
			for _, e := range ingested.Errors {
				fmt.Printf("  Warning: %s\n", e)
			}
		}
	}

	if esClient != nil {
		// Make newly inserted chunks searchable right away.
		esClient.Refresh(ctx)
	}

	fmt.Printf("\nTotal: %d pages written to storage\n", totalPages)
	if !scrapeIngest {
		fmt.Println("Run 'ragbot ingest --prefix <prefix>' to index these documents")
	}
	return nil
}

// newIngestEngine builds the chunk-and-index engine used when scrape
// and ingest run in one process.
func newIngestEngine(ctx context.Context, cfg config.Config, source ingestion.Source) (*ingestion.Engine, *elasticsearch.Client, error) {
	esClient, err := newESClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := esClient.CreateIndex(ctx); err != nil {
		return nil, nil, fmt.Errorf("creating index: %w", err)
	}
	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, nil, err
	}
	splitter, err := chunker.New(chunker.Config{
		Window:  cfg.Chunking.Window,
		Overlap: cfg.Chunking.Overlap,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("configuring chunker: %w", err)
	}
	engine := ingestion.New(source, splitter, store.New(esClient, embedder), ingestion.Config{
		Concurrency: cfg.Ingest.Concurrency,
	})
	return engine, esClient, nil
}

// resolveSources picks the URLs to scrape from the --url flag or the
// configured sources, optionally filtered by --source.
func resolveSources(sources []config.Source, directURL, sourceName string) ([]string, error) {
	if directURL != "" {
		return []string{directURL}, nil
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources configured and no --url provided")
	}

	var urls []string
	for _, source := range sources {
		if sourceName != "" && source.Name != sourceName {
			continue
		}
		if source.URL != "" {
			urls = append(urls, source.URL)
		}
	}
	if len(urls) == 0 {
		if sourceName != "" {
			return nil, fmt.Errorf("source %q not found in config", sourceName)
		}
		return nil, fmt.Errorf("no valid sources found in config")
	}
	return urls, nil
}
