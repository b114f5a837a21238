package config

import "time"

// Config holds all application configuration.
type Config struct {
	Elasticsearch Elasticsearch `mapstructure:"elasticsearch"`
	Embeddings    Embeddings    `mapstructure:"embeddings"`
	LLM           LLM           `mapstructure:"llm"`
	Chunking      Chunking      `mapstructure:"chunking"`
	Pipeline      Pipeline      `mapstructure:"pipeline"`
	Ingest        Ingest        `mapstructure:"ingest"`
	Eval          Eval          `mapstructure:"eval"`
	Scraper       Scraper       `mapstructure:"scraper"`
	Storage       Storage       `mapstructure:"storage"`
	MCP           MCP           `mapstructure:"mcp"`
	Sources       []Source      `mapstructure:"sources"`
}

// Elasticsearch holds vector index connection configuration.
type Elasticsearch struct {
	Addresses  []string `mapstructure:"addresses"`
	Index      string   `mapstructure:"index"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	Dimensions int      `mapstructure:"dimensions"`
}

// Embeddings holds embedding service configuration. The same model must
// be used at index time and query time.
type Embeddings struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LLM holds completion service configuration for answer generation and
// LLM-judged evaluation.
type LLM struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Chunking holds document splitting parameters.
type Chunking struct {
	Window  int `mapstructure:"window"`
	Overlap int `mapstructure:"overlap"`
}

// Pipeline holds per-query retrieval/generation parameters.
type Pipeline struct {
	TopK           int     `mapstructure:"top_k"`
	RelevanceFloor float64 `mapstructure:"relevance_floor"`
}

// Ingest holds batch ingestion parameters.
type Ingest struct {
	Concurrency int `mapstructure:"concurrency"`
}

// Eval holds evaluation harness parameters.
type Eval struct {
	Concurrency int    `mapstructure:"concurrency"`
	LogDir      string `mapstructure:"log_dir"`
}

// Scraper holds wiki scraping configuration.
type Scraper struct {
	Delay       time.Duration `mapstructure:"delay"`
	MaxDepth    int           `mapstructure:"max_depth"`
	FollowLinks bool          `mapstructure:"follow_links"`
	Timeout     time.Duration `mapstructure:"timeout"`
	UserAgent   string        `mapstructure:"user_agent"`
}

// Storage holds S3/MinIO storage configuration for scraped documents
// and archived evaluation logs.
type Storage struct {
	Endpoint        string `mapstructure:"endpoint"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// MCP holds MCP server configuration.
type MCP struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// Source defines a wiki page to scrape.
type Source struct {
	Name string `mapstructure:"name"`
	URL  string `mapstructure:"url"`
}

// Defaults returns a Config with sensible default values.
// The relevance floor of 0.60 was calibrated against the wiki corpus;
// see DESIGN.md.
func Defaults() Config {
	return Config{
		Elasticsearch: Elasticsearch{
			Addresses:  []string{"http://localhost:9200"},
			Index:      "ragbot-chunks",
			Dimensions: 768,
		},
		Embeddings: Embeddings{
			BaseURL: "http://localhost:11434/v1",
			Model:   "bge-base-en",
			Timeout: 30 * time.Second,
		},
		LLM: LLM{
			BaseURL: "http://localhost:11434/v1",
			Model:   "gemma3",
			Timeout: 60 * time.Second,
		},
		Chunking: Chunking{
			Window:  400,
			Overlap: 80,
		},
		Pipeline: Pipeline{
			TopK:           5,
			RelevanceFloor: 0.60,
		},
		Ingest: Ingest{
			Concurrency: 4,
		},
		Eval: Eval{
			Concurrency: 4,
			LogDir:      "data/eval",
		},
		Scraper: Scraper{
			Delay:       1 * time.Second,
			MaxDepth:    1,
			FollowLinks: false,
			Timeout:     30 * time.Second,
			UserAgent:   "ragbot/1.0",
		},
		Storage: Storage{
			Endpoint:        "localhost:9000",
			Bucket:          "ragbot",
			AccessKeyID:     "minioadmin",
			SecretAccessKey: "minioadmin",
			UseSSL:          false,
		},
		MCP: MCP{
			Name:    "ragbot",
			Version: "1.0.0",
		},
	}
}
