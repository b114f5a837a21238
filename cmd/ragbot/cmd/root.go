package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
	cfg     config.Config
)

// GetConfig returns the loaded configuration.
func GetConfig() config.Config {
	return cfg
}

var rootCmd = &cobra.Command{
	Use:   "ragbot",
	Short: "ragbot: a wiki question-answering pipeline",
	Long: `ragbot scrapes wiki pages, chunks and embeds their content into
Elasticsearch, and answers questions grounded strictly in the indexed
material, refusing when the wiki does not cover a question.

Commands:
  scrape  Scrape wiki pages into object storage
  ingest  Chunk and embed stored documents into the index
  ask     Answer a single question from the command line
  serve   Start the MCP server exposing ask and search tools
  eval    Score the pipeline against a ground-truth question set`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig, initLogger)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

func initLogger() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

func initConfig() {
	cfg = config.Defaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("/etc/ragbot")
		viper.AddConfigPath(".")
	}

	// Environment variable overrides
	// RAGBOT_ELASTICSEARCH_ADDRESSES -> elasticsearch.addresses
	viper.SetEnvPrefix("RAGBOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Explicitly bind nested env vars
	viper.BindEnv("elasticsearch.addresses", "RAGBOT_ELASTICSEARCH_ADDRESSES")
	viper.BindEnv("elasticsearch.index", "RAGBOT_ELASTICSEARCH_INDEX")
	viper.BindEnv("elasticsearch.username", "RAGBOT_ELASTICSEARCH_USERNAME")
	viper.BindEnv("elasticsearch.password", "RAGBOT_ELASTICSEARCH_PASSWORD")
	viper.BindEnv("elasticsearch.dimensions", "RAGBOT_ELASTICSEARCH_DIMENSIONS")
	viper.BindEnv("embeddings.base_url", "RAGBOT_EMBEDDINGS_BASE_URL")
	viper.BindEnv("embeddings.api_key", "RAGBOT_EMBEDDINGS_API_KEY")
	viper.BindEnv("embeddings.model", "RAGBOT_EMBEDDINGS_MODEL")
	viper.BindEnv("llm.base_url", "RAGBOT_LLM_BASE_URL")
	viper.BindEnv("llm.api_key", "RAGBOT_LLM_API_KEY")
	viper.BindEnv("llm.model", "RAGBOT_LLM_MODEL")
	viper.BindEnv("pipeline.top_k", "RAGBOT_PIPELINE_TOP_K")
	viper.BindEnv("pipeline.relevance_floor", "RAGBOT_PIPELINE_RELEVANCE_FLOOR")
	viper.BindEnv("scraper.delay", "RAGBOT_SCRAPER_DELAY")
	viper.BindEnv("scraper.max_depth", "RAGBOT_SCRAPER_MAX_DEPTH")
	viper.BindEnv("storage.endpoint", "RAGBOT_STORAGE_ENDPOINT")
	viper.BindEnv("storage.bucket", "RAGBOT_STORAGE_BUCKET")
	viper.BindEnv("storage.access_key_id", "RAGBOT_STORAGE_ACCESS_KEY_ID")
	viper.BindEnv("storage.secret_access_key", "RAGBOT_STORAGE_SECRET_ACCESS_KEY")
	viper.BindEnv("mcp.name", "RAGBOT_MCP_NAME")
	viper.BindEnv("mcp.version", "RAGBOT_MCP_VERSION")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("config file error", "error", err)
		}
		// No config file - use defaults + env vars
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		slog.Warn("failed to parse config", "error", err)
	}

	// Addresses may arrive as a comma-separated string from env
	if addrs := os.Getenv("RAGBOT_ELASTICSEARCH_ADDRESSES"); addrs != "" {
		cfg.Elasticsearch.Addresses = strings.Split(addrs, ",")
	}
}
