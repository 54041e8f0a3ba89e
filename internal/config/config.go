package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	// Postgres-backed idea corpus. When empty the corpus lives in memory
	// and does not survive restarts.
	DatabaseURL string `envconfig:"DATABASE_URL"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"ideaforge-exports"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	OpenAIAPIKey        string `envconfig:"OPENAI_API_KEY"`
	EmbeddingModel      string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-ada-002"`
	EmbeddingDimensions int    `envconfig:"EMBEDDING_DIMENSIONS" default:"1536"`
	CompletionModel     string `envconfig:"COMPLETION_MODEL" default:"gpt-4o"`

	// Input sources (JSON files; a missing file is an empty source)
	DocsPath    string `envconfig:"DOCS_PATH" default:"data/docs.json"`
	BacklogPath string `envconfig:"BACKLOG_PATH" default:"data/backlog.json"`
	MarketPath  string `envconfig:"MARKET_PATH" default:"data/market.json"`
	IdeasPath   string `envconfig:"IDEAS_PATH" default:"data/ideas.json"`

	// Retrieval tuning
	ChunkWindow       int     `envconfig:"CHUNK_WINDOW" default:"1200"`
	ChunkOverlap      int     `envconfig:"CHUNK_OVERLAP" default:"200"`
	IngestWorkers     int     `envconfig:"INGEST_WORKERS" default:"4"`
	RetrievalK        int     `envconfig:"RETRIEVAL_K" default:"8"`
	RetrievalMinScore float64 `envconfig:"RETRIEVAL_MIN_SCORE" default:"0.0"`

	// Deduplication thresholds on cosine similarity
	DuplicateThreshold float64 `envconfig:"DUPLICATE_THRESHOLD" default:"0.92"`
	MergeThreshold     float64 `envconfig:"MERGE_THRESHOLD" default:"0.80"`

	// Generation tuning
	DesiredIdeaCount int           `envconfig:"DESIRED_IDEA_COUNT" default:"3"`
	MaxRetries       int           `envconfig:"MAX_RETRIES" default:"3"`
	InitialBackoff   time.Duration `envconfig:"INITIAL_BACKOFF" default:"1s"`
	RequestTimeout   time.Duration `envconfig:"REQUEST_TIMEOUT" default:"60s"`

	// Scheduled runs; zero disables the background worker
	RunInterval time.Duration `envconfig:"RUN_INTERVAL" default:"0"`

	ExportDir string `envconfig:"EXPORT_DIR" default:"output"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("IDEAFORGE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}
