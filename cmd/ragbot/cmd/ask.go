package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a single question from the command line",
	Long: `Answer a question using the indexed wiki content. The answer is
grounded strictly in retrieved chunks and cites its source page; when
the wiki does not cover the question, ragbot says "I don't know."

Example:
  ragbot ask "How do I craft an enchantment table?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	query := strings.Join(args, " ")

	p, err := newQueryPipeline(GetConfig())
	if err != nil {
		return err
	}

	answer, err := p.ProcessQuery(ctx, query)
	if err != nil {
		return fmt.Errorf("answering %q: %w", query, err)
	}

	fmt.Println(answer.Text)
	if answer.Grounded && answer.SourceURL != "" {
		fmt.Printf("\nSource: %s\n", answer.SourceURL)
	}
	return nil
}
