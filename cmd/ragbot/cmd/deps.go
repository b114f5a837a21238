package cmd

import (
	"fmt"

	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/internal/config"
	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/internal/elasticsearch"
	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/internal/embeddings"
	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/internal/generator"
	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/internal/llm"
	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/internal/pipeline"
	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/internal/retriever"
	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/internal/storage"
	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/internal/store"
)

// newESClient builds the vector index client from config.
func newESClient(cfg config.Config) (*elasticsearch.Client, error) {
	client, err := elasticsearch.New(elasticsearch.Config{
		Addresses:  cfg.Elasticsearch.Addresses,
		Index:      cfg.Elasticsearch.Index,
		Username:   cfg.Elasticsearch.Username,
		Password:   cfg.Elasticsearch.Password,
		Dimensions: cfg.Elasticsearch.Dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("creating elasticsearch client: %w", err)
	}
	return client, nil
}

func newEmbedder(cfg config.Config) (*embeddings.Client, error) {
	client, err := embeddings.New(embeddings.Config{
		BaseURL: cfg.Embeddings.BaseURL,
		APIKey:  cfg.Embeddings.APIKey,
		Model:   cfg.Embeddings.Model,
		Timeout: cfg.Embeddings.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("creating embeddings client: %w", err)
	}
	return client, nil
}

func newLLM(cfg config.Config) (*llm.Client, error) {
	client, err := llm.New(llm.Config{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("creating llm client: %w", err)
	}
	return client, nil
}

func newStorage(cfg config.Config) (*storage.Client, error) {
	client, err := storage.New(storage.Config{
		Endpoint:        cfg.Storage.Endpoint,
		Bucket:          cfg.Storage.Bucket,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		UseSSL:          cfg.Storage.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	return client, nil
}

// newQueryPipeline wires the retrieval and generation stages used by
// ask, serve, and eval.
func newQueryPipeline(cfg config.Config) (*pipeline.Pipeline, error) {
	esClient, err := newESClient(cfg)
	if err != nil {
		return nil, err
	}
	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	llmClient, err := newLLM(cfg)
	if err != nil {
		return nil, err
	}

	embeddingStore := store.New(esClient, embedder)
	ret := retriever.New(embeddingStore, embedder)
	gen := generator.New(llmClient, generator.Config{
		RelevanceFloor: cfg.Pipeline.RelevanceFloor,
	})
	return pipeline.New(ret, gen, pipeline.Config{TopK: cfg.Pipeline.TopK}), nil
}
