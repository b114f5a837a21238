// Package elasticsearch implements the persisted vector index over an
// Elasticsearch dense_vector field.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/pkg/models"
)

// ErrUnavailable is returned when the index cannot be reached. Callers
// treat this as fatal: ingestion and retrieval cannot proceed without
// the index.
var ErrUnavailable = errors.New("vector index unavailable")

// ErrDuplicate is returned by Insert when a record with the same chunk
// ID already exists. The unique-constraint insert is what serializes
// concurrent upserts of the same chunk.
var ErrDuplicate = errors.New("embedding record already exists")

// Config holds Elasticsearch client configuration.
type Config struct {
	Addresses  []string
	Index      string
	Username   string
	Password   string
	Dimensions int
}

// Client wraps the Elasticsearch client with vector index operations.
// It is the only component with write access to the index.
type Client struct {
	es    *elasticsearch.Client
	index string
	dims  int
}

// New creates a new vector index client.
func New(config Config) (*Client, error) {
	if config.Dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", config.Dimensions)
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: config.Addresses,
		Username:  config.Username,
		Password:  config.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ES client: %w", err)
	}

	return &Client{es: es, index: config.Index, dims: config.Dimensions}, nil
}

// Ping checks if the index is reachable.
func (c *Client) Ping(ctx context.Context) bool {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return false
	}
	defer res.Body.Close()
	return !res.IsError()
}

const indexMapping = `{
	"mappings": {
		"properties": {
			"chunk_id": { "type": "keyword" },
			"document_id": { "type": "keyword" },
			"text": { "type": "text", "analyzer": "english" },
			"source_url": { "type": "keyword" },
			"embedding": {
				"type": "dense_vector",
				"dims": %d,
				"index": true,
				"similarity": "cosine"
			}
		}
	}
}`

// CreateIndex creates the index with the vector mapping. Idempotent.
func (c *Client) CreateIndex(ctx context.Context) error {
	res, err := c.es.Indices.Exists([]string{c.index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}

	mapping := fmt.Sprintf(indexMapping, c.dims)
	res, err = c.es.Indices.Create(
		c.index,
		c.es.Indices.Create.WithContext(ctx),
		c.es.Indices.Create.WithBody(bytes.NewReader([]byte(mapping))),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error creating index: %s", res.String())
	}
	return nil
}

// DeleteIndex removes the index (for testing/cleanup).
func (c *Client) DeleteIndex(ctx context.Context) error {
	res, err := c.es.Indices.Delete([]string{c.index}, c.es.Indices.Delete.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return nil
}

// Exists reports whether a record with the given chunk ID is stored.
func (c *Client) Exists(ctx context.Context, chunkID string) (bool, error) {
	res, err := c.es.Exists(c.index, chunkID, c.es.Exists.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()
	return res.StatusCode == http.StatusOK, nil
}

// Insert stores a new embedding record. The insert uses op_type=create,
// so a record that already exists fails with ErrDuplicate instead of
// being overwritten.
func (c *Client) Insert(ctx context.Context, rec models.EmbeddingRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	res, err := c.es.Create(
		c.index,
		rec.ChunkID,
		bytes.NewReader(data),
		c.es.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusConflict {
		return ErrDuplicate
	}
	if res.IsError() {
		return fmt.Errorf("error inserting record %s: %s", rec.ChunkID, res.String())
	}
	return nil
}

// Refresh forces an index refresh so inserts become searchable
// immediately (useful for testing).
func (c *Client) Refresh(ctx context.Context) error {
	res, err := c.es.Indices.Refresh(
		c.es.Indices.Refresh.WithContext(ctx),
		c.es.Indices.Refresh.WithIndex(c.index),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return nil
}

// Count returns the number of stored records.
func (c *Client) Count(ctx context.Context) (int, error) {
	res, err := c.es.Count(
		c.es.Count.WithContext(ctx),
		c.es.Count.WithIndex(c.index),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()

	var cr struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&cr); err != nil {
		return 0, fmt.Errorf("failed to decode count response: %w", err)
	}
	return cr.Count, nil
}

// searchResponse represents the ES kNN search response structure.
type searchResponse struct {
	Hits struct {
		Hits []struct {
			Score  float64                `json:"_score"`
			Source models.EmbeddingRecord `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search performs a kNN similarity search and returns at most k hits
// ordered by descending score. An empty index yields an empty slice,
// not an error.
func (c *Client) Search(ctx context.Context, vector []float32, k int) ([]models.EmbeddingHit, error) {
	searchQuery := map[string]interface{}{
		"knn": map[string]interface{}{
			"field":          "embedding",
			"query_vector":   vector,
			"k":              k,
			"num_candidates": k * 4,
		},
		"size": k,
	}

	data, err := json.Marshal(searchQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(data)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search error: %s", res.String())
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	hits := make([]models.EmbeddingHit, len(sr.Hits.Hits))
	for i, hit := range sr.Hits.Hits {
		hits[i] = models.EmbeddingHit{
			ChunkID:    hit.Source.ChunkID,
			Score:      hit.Score,
			Text:       hit.Source.Text,
			DocumentID: hit.Source.DocumentID,
			SourceURL:  hit.Source.SourceURL,
		}
	}
	return hits, nil
}
