package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/internal/config"
	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/internal/eval"
	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/internal/generator"
	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/internal/retriever"
	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/internal/store"
	"github.com/spf13/cobra"
)

var (
	evalGroundTruth string
	evalArchive     bool
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Score the pipeline against a ground-truth question set",
	Long: `Run the evaluation harness over a ground-truth file of questions
and reference answers. Each query is retrieved and answered once, then
scored by the full metric set: lexical and embedding-based metrics plus
LLM-judged metrics. Scores are appended to a JSONL log.

The ground-truth file is a JSON array of {"question", "answer", "chunks"}
objects.

Examples:
  ragbot eval --ground-truth data/ground_truth.json
  ragbot eval --ground-truth data/ground_truth.json --archive`,
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().StringVar(&evalGroundTruth, "ground-truth", "", "Path to the ground-truth JSON file (required)")
	evalCmd.Flags().BoolVar(&evalArchive, "archive", false, "Upload the eval log to object storage after the run")
	evalCmd.MarkFlagRequired("ground-truth")
}

func runEval(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()

	set, err := eval.LoadGroundTruth(evalGroundTruth)
	if err != nil {
		return err
	}

	esClient, err := newESClient(cfg)
	if err != nil {
		return err
	}
	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	llmClient, err := newLLM(cfg)
	if err != nil {
		return err
	}

	embeddingStore := store.New(esClient, embedder)
	ret := retriever.New(embeddingStore, embedder)
	gen := generator.New(llmClient, generator.Config{
		RelevanceFloor: cfg.Pipeline.RelevanceFloor,
	})

	logger, err := eval.NewLogger(cfg.Eval.LogDir)
	if err != nil {
		return err
	}
	defer logger.Close()

	harness := eval.New(ret, gen, eval.DefaultMetrics(embedder, llmClient), logger, eval.Config{
		TopK:        cfg.Pipeline.TopK,
		Concurrency: cfg.Eval.Concurrency,
	})

	fmt.Printf("Evaluating %d queries...\n", len(set))
	results := harness.EvaluateSet(ctx, set)

	failed := 0
	for _, r := range results {
		if len(r.Scores) == 0 {
			failed++
		}
	}

	averages := eval.Summarize(results)
	names := make([]string, 0, len(averages))
	for name := range averages {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nAverage scores (0-10):")
	for _, name := range names {
		fmt.Printf("  %-28s %.2f\n", name, averages[name])
	}
	if failed > 0 {
		fmt.Printf("\n%d of %d queries failed to evaluate\n", failed, len(results))
	}
	fmt.Printf("\nLog: %s\n", logger.Path())

	if evalArchive {
		if err := archiveLog(ctx, cfg, logger.Path()); err != nil {
			return fmt.Errorf("archiving eval log: %w", err)
		}
		fmt.Println("Log archived to object storage")
	}
	return nil
}

func archiveLog(ctx context.Context, cfg config.Config, path string) error {
	storageClient, err := newStorage(cfg)
	if err != nil {
		return err
	}
	if err := storageClient.EnsureBucket(ctx); err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}
	return storageClient.ArchiveEvalLog(ctx, filepath.Base(path), file, info.Size())
}
