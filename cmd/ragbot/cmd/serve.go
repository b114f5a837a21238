package cmd

import (
	"fmt"

	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/internal/mcp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the MCP server for wiki question answering.

The server communicates via stdio and provides two tools:
  - ask: Answer a question grounded in the indexed wiki
  - search_chunks: Search indexed chunks by semantic similarity

Example:
  ragbot serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	p, err := newQueryPipeline(cfg)
	if err != nil {
		return err
	}

	server := mcp.NewServer(mcp.Config{
		Name:    cfg.MCP.Name,
		Version: cfg.MCP.Version,
	}, p)

	fmt.Fprintln(cmd.ErrOrStderr(), "Starting MCP server...")
	return server.ServeStdio()
}
