package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/pkg/models"
)

type fakePipeline struct {
	answer  models.Answer
	results []models.RetrievalResult
	err     error
	gotTopK int
}

func (f *fakePipeline) ProcessQuery(ctx context.Context, query string) (models.Answer, error) {
	if f.err != nil {
		return models.Answer{}, f.err
	}
	return f.answer, nil
}

func (f *fakePipeline) Retrieve(ctx context.Context, query string, topK int) ([]models.RetrievalResult, error) {
	f.gotTopK = topK
	return f.results, f.err
}

func callRequest(tool string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = tool
	req.Params.Arguments = args
	return req
}

func textContent(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("expected content in tool result")
	}
	text, ok := mcp.AsTextContent(result.Content[0])
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return text.Text
}

func TestAskTool_GroundedAnswer(t *testing.T) {
	p := &fakePipeline{answer: models.Answer{
		Text:      "You need a diamond pickaxe.",
		SourceURL: "https://wiki/Obsidian",
		Grounded:  true,
	}}
	s := NewServer(Config{Name: "ragbot", Version: "1.0.0"}, p)

	result, err := s.askHandler(context.Background(), callRequest("ask", map[string]any{
		"query": "how do I mine obsidian?",
	}))
	if err != nil {
		t.Fatalf("askHandler failed: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %v", result.Content)
	}

	var resp askResponse
	if err := json.Unmarshal([]byte(textContent(t, result)), &resp); err != nil {
		t.Fatalf("bad response JSON: %v", err)
	}
	if !resp.Grounded || resp.Source != "https://wiki/Obsidian" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestAskTool_Refusal(t *testing.T) {
	p := &fakePipeline{answer: models.Refusal()}
	s := NewServer(Config{Name: "ragbot", Version: "1.0.0"}, p)

	result, err := s.askHandler(context.Background(), callRequest("ask", map[string]any{
		"query": "what are liminal llamas?",
	}))
	if err != nil {
		t.Fatalf("askHandler failed: %v", err)
	}

	var resp askResponse
	if err := json.Unmarshal([]byte(textContent(t, result)), &resp); err != nil {
		t.Fatalf("bad response JSON: %v", err)
	}
	if resp.Grounded {
		t.Error("expected ungrounded refusal")
	}
	if resp.Answer != models.RefusalText {
		t.Errorf("expected refusal text, got %q", resp.Answer)
	}
	if resp.Source != "" {
		t.Errorf("refusal should carry no source, got %q", resp.Source)
	}
}

func TestAskTool_MissingQuery(t *testing.T) {
	s := NewServer(Config{Name: "ragbot", Version: "1.0.0"}, &fakePipeline{})

	result, err := s.askHandler(context.Background(), callRequest("ask", map[string]any{}))
	if err != nil {
		t.Fatalf("askHandler failed: %v", err)
	}
	if !result.IsError {
		t.Error("expected tool error for missing query")
	}
}

func TestSearchTool_RankedChunks(t *testing.T) {
	p := &fakePipeline{results: []models.RetrievalResult{
		{ChunkID: "c1", Text: "Obsidian requires a diamond pickaxe.", SourceURL: "https://wiki/Obsidian", Score: 0.92},
		{ChunkID: "c2", Text: "Diamond ore generates deep underground.", SourceURL: "https://wiki/Diamond", Score: 0.75},
	}}
	s := NewServer(Config{Name: "ragbot", Version: "1.0.0"}, p)

	result, err := s.searchHandler(context.Background(), callRequest("search_chunks", map[string]any{
		"query": "mining obsidian",
		"limit": 2,
	}))
	if err != nil {
		t.Fatalf("searchHandler failed: %v", err)
	}
	if p.gotTopK != 2 {
		t.Errorf("expected limit forwarded as topK 2, got %d", p.gotTopK)
	}

	var hits []chunkResult
	if err := json.Unmarshal([]byte(textContent(t, result)), &hits); err != nil {
		t.Fatalf("bad response JSON: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].ChunkID != "c1" || hits[0].Score != 0.92 {
		t.Errorf("unexpected top hit: %+v", hits[0])
	}
}

func TestSearchTool_PipelineError(t *testing.T) {
	p := &fakePipeline{err: errors.New("index unavailable")}
	s := NewServer(Config{Name: "ragbot", Version: "1.0.0"}, p)

	result, err := s.searchHandler(context.Background(), callRequest("search_chunks", map[string]any{
		"query": "anything",
	}))
	if err != nil {
		t.Fatalf("searchHandler failed: %v", err)
	}
	if !result.IsError {
		t.Error("expected tool error when retrieval fails")
	}
}
