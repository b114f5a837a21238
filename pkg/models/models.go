package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// SectionKind classifies a document section for chunking purposes.
type SectionKind string

const (
	KindText   SectionKind = "text"
	KindTable  SectionKind = "table"
	KindRecipe SectionKind = "recipe"
)

// Section is one heading-delimited block of a wiki page.
type Section struct {
	Heading string      `json:"heading"`
	Text    string      `json:"text"`
	Kind    SectionKind `json:"kind"`
}

// Document represents a cleaned wiki page handed to the pipeline.
// Documents are immutable once produced by the scraper.
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Sections  []Section `json:"sections"`
	SourceURL string    `json:"source_url"`
	ScrapedAt time.Time `json:"scraped_at,omitempty"`
}

// GenerateDocumentID creates a deterministic ID from URL.
// The ID is a SHA-256 hash (first 16 chars) of the URL.
func GenerateDocumentID(url string) string {
	hash := sha256.Sum256([]byte(url))
	return hex.EncodeToString(hash[:])[:16]
}

// Chunk is a bounded slice of a document's text, the unit of indexing
// and retrieval. Chunks are never mutated; re-ingesting changed text
// produces chunks with new IDs.
type Chunk struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	Text       string `json:"text"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
	SourceURL  string `json:"source_url"`
}

// ChunkID derives the content-addressed chunk identifier. Identical
// (document, range, text) always yields the same ID, which is the
// dedup key for re-ingestion runs.
func ChunkID(documentID string, start, end int, text string) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s:%d-%d:%s", documentID, start, end, text)))
	return hex.EncodeToString(hash[:])[:16]
}

// EmbeddingRecord is the persisted form of a chunk in the vector index.
// Exactly one record exists per distinct chunk ID.
type EmbeddingRecord struct {
	ChunkID    string    `json:"chunk_id"`
	Vector     []float32 `json:"embedding"`
	Text       string    `json:"text"`
	DocumentID string    `json:"document_id"`
	SourceURL  string    `json:"source_url"`
}

// EmbeddingHit is a (chunk, score) pair returned by a similarity search.
type EmbeddingHit struct {
	ChunkID    string
	Score      float64
	Text       string
	DocumentID string
	SourceURL  string
}

// RetrievalResult is ranked evidence for a single query. Ephemeral,
// never persisted.
type RetrievalResult struct {
	ChunkID   string  `json:"chunk_id"`
	Text      string  `json:"text"`
	SourceURL string  `json:"source_url"`
	Score     float64 `json:"score"`
}

// RefusalText is the canonical answer when no relevant evidence exists.
const RefusalText = "I don't know."

// Answer is the pipeline's response to a query. Grounded answers cite
// the source of their top-scoring evidence; the refusal answer carries
// no source.
type Answer struct {
	Text      string `json:"text"`
	SourceURL string `json:"source_url,omitempty"`
	Grounded  bool   `json:"grounded"`
}

// Refusal returns the canonical refusal answer.
func Refusal() Answer {
	return Answer{Text: RefusalText, Grounded: false}
}

// EvalMethod identifies which scoring methodology produced a metric.
type EvalMethod string

const (
	MethodLexical   EvalMethod = "lexical"
	MethodEmbedding EvalMethod = "embedding"
	MethodLLMJudged EvalMethod = "llm_judged"
)

// EvaluationRecord is one scored metric for one query in one run.
// Records are append-only; scores are on a 0-10 scale.
type EvaluationRecord struct {
	Query     string     `json:"query"`
	Metric    string     `json:"metric_name"`
	Method    EvalMethod `json:"method"`
	Score     float64    `json:"score"`
	Timestamp time.Time  `json:"timestamp"`
}
