// Package mcp exposes the question-answering pipeline over the Model
// Context Protocol.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/pkg/models"
)

// QueryPipeline answers queries and exposes raw evidence retrieval.
type QueryPipeline interface {
	ProcessQuery(ctx context.Context, query string) (models.Answer, error)
	Retrieve(ctx context.Context, query string, topK int) ([]models.RetrievalResult, error)
}

// Config holds MCP server configuration.
type Config struct {
	Name    string
	Version string
}

// Server wraps the MCP server around the query pipeline.
type Server struct {
	mcpServer *server.MCPServer
	pipeline  QueryPipeline
}

// NewServer creates an MCP server exposing ask and search_chunks
// tools.
func NewServer(config Config, pipeline QueryPipeline) *Server {
	mcpServer := server.NewMCPServer(
		config.Name,
		config.Version,
		server.WithToolCapabilities(true),
	)

	s := &Server{mcpServer: mcpServer, pipeline: pipeline}

	askTool := mcp.NewTool("ask",
		mcp.WithDescription("Ask a question about the wiki. Returns a grounded answer with its source URL, or a refusal when the wiki does not cover the question."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The question to answer"),
		),
	)
	mcpServer.AddTool(askTool, s.askHandler)

	searchTool := mcp.NewTool("search_chunks",
		mcp.WithDescription("Search indexed wiki chunks by semantic similarity. Returns ranked chunks with scores and source URLs."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query string"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of chunks to return (default: 5)"),
		),
	)
	mcpServer.AddTool(searchTool, s.searchHandler)

	return s
}

// askResponse is the JSON shape of an ask tool result.
type askResponse struct {
	Answer   string `json:"answer"`
	Source   string `json:"source,omitempty"`
	Grounded bool   `json:"grounded"`
}

func (s *Server) askHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query parameter is required"), nil
	}

	answer, err := s.pipeline.ProcessQuery(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}

	result, err := json.Marshal(askResponse{
		Answer:   answer.Text,
		Source:   answer.SourceURL,
		Grounded: answer.Grounded,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal answer: %v", err)), nil
	}
	return mcp.NewToolResultText(string(result)), nil
}

// chunkResult is the JSON shape of one search_chunks hit.
type chunkResult struct {
	ChunkID string  `json:"chunk_id"`
	Text    string  `json:"text"`
	Score   float64 `json:"score"`
	Source  string  `json:"source"`
}

func (s *Server) searchHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query parameter is required"), nil
	}
	limit := req.GetInt("limit", 5)

	evidence, err := s.pipeline.Retrieve(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	hits := make([]chunkResult, len(evidence))
	for i, ev := range evidence {
		hits[i] = chunkResult{
			ChunkID: ev.ChunkID,
			Text:    ev.Text,
			Score:   ev.Score,
			Source:  ev.SourceURL,
		}
	}

	result, err := json.Marshal(hits)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
	}
	return mcp.NewToolResultText(string(result)), nil
}

// ServeStdio starts the MCP server on stdio transport.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
