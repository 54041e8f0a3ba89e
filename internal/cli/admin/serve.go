// Package admin implements the ideaforged daemon commands.
package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cloo-solutions/ideaforge/internal/api/handlers"
	"github.com/cloo-solutions/ideaforge/internal/compose"
	"github.com/cloo-solutions/ideaforge/internal/config"
	"github.com/cloo-solutions/ideaforge/internal/corpus"
	"github.com/cloo-solutions/ideaforge/internal/database"
	"github.com/cloo-solutions/ideaforge/internal/dedup"
	"github.com/cloo-solutions/ideaforge/internal/domain"
	"github.com/cloo-solutions/ideaforge/internal/export"
	"github.com/cloo-solutions/ideaforge/internal/index"
	"github.com/cloo-solutions/ideaforge/internal/jobs"
	"github.com/cloo-solutions/ideaforge/internal/openai"
	"github.com/cloo-solutions/ideaforge/internal/pipeline"
	"github.com/cloo-solutions/ideaforge/internal/reasoning"
	"github.com/cloo-solutions/ideaforge/internal/retriever"
	"github.com/cloo-solutions/ideaforge/internal/server"
	"github.com/cloo-solutions/ideaforge/internal/sources"
	"github.com/cloo-solutions/ideaforge/internal/storage"
	"github.com/cloo-solutions/ideaforge/internal/telemetry"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
)

const corpusTable = "idea_corpus"

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the ideaforge API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	if !cfg.HasOpenAI() {
		return fmt.Errorf("OPENAI_API_KEY is required: the pipeline cannot embed or generate without it")
	}

	// Idea corpus index: pgvector when a database is configured, in-memory
	// otherwise.
	var corpusIndex index.Index
	if cfg.HasDatabase() {
		pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()
		log.Println("connected to database")

		noMigrate, _ := cmd.Flags().GetBool("no-migrate")
		if !noMigrate {
			if err := runMigrations(cfg.DatabaseURL); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		corpusIndex = index.NewPgvector(pool, corpusTable, cfg.EmbeddingDimensions)
	} else {
		log.Println("no DATABASE_URL set, idea corpus will not survive restarts")
		corpusIndex = index.NewMemoryWithDimensions(cfg.EmbeddingDimensions)
	}

	aiClient := openai.NewClientWithConfig(openai.Config{
		APIKey:              cfg.OpenAIAPIKey,
		EmbeddingModel:      openai.EmbeddingModel(cfg.EmbeddingModel),
		EmbeddingDimensions: cfg.EmbeddingDimensions,
		CompletionModel:     cfg.CompletionModel,
	})

	chunking := retriever.DefaultChunkConfig()
	chunking.MaxChars = cfg.ChunkWindow
	chunking.Overlap = cfg.ChunkOverlap
	retr := retriever.New(aiClient, index.NewMemoryWithDimensions(cfg.EmbeddingDimensions), retriever.Config{
		Chunking: chunking,
		Workers:  cfg.IngestWorkers,
	})

	engine := reasoning.NewEngineWithRetry(aiClient, reasoning.RetryConfig{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		Timeout:        cfg.RequestTimeout,
	})

	stage, err := dedup.NewStage(corpusIndex, dedup.Thresholds{
		Duplicate: cfg.DuplicateThreshold,
		Merge:     cfg.MergeThreshold,
	})
	if err != nil {
		return fmt.Errorf("invalid dedup thresholds: %w", err)
	}

	docSources := []sources.DocumentSource{
		sources.NewFileDocumentSource("docs", cfg.DocsPath, domain.SourceTypeDoc),
		sources.NewFileDocumentSource("backlog", cfg.BacklogPath, domain.SourceTypeBacklog),
		sources.NewFileDocumentSource("market", cfg.MarketPath, domain.SourceTypeMarket),
	}

	coordinator := pipeline.NewCoordinator(
		docSources,
		sources.NewFileIdeaSource(cfg.IdeasPath),
		corpus.NewLoader(aiClient, corpusIndex),
		retr,
		engine,
		stage,
		compose.NewComposer(corpusIndex, nil),
		aiClient,
		pipeline.Config{
			RetrievalK:        cfg.RetrievalK,
			RetrievalMinScore: cfg.RetrievalMinScore,
			DesiredCount:      cfg.DesiredIdeaCount,
		},
	)

	store := pipeline.NewStore()

	feedback, err := export.NewFeedbackStore(filepath.Join(cfg.ExportDir, "feedback.json"))
	if err != nil {
		return fmt.Errorf("failed to open feedback store: %w", err)
	}

	var sink *export.S3Sink
	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		sink = export.NewS3Sink(s3Client)
	}

	var runWorker *jobs.Worker
	if cfg.RunInterval > 0 {
		var workerSink jobs.ExportSink
		if sink != nil {
			workerSink = sink
		}
		runWorker = jobs.NewWorker(jobs.NewPipelineWorker(coordinator, store, workerSink), cfg.RunInterval)
		go runWorker.Start(ctx)
		log.Printf("scheduled run worker started (interval %v)", cfg.RunInterval)
	}

	router := server.NewRouter(server.RouterConfig{
		RunsHandler:  handlers.NewRunsHandler(coordinator, store),
		IdeasHandler: handlers.NewIdeasHandler(store, feedback),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if runWorker != nil {
		runWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

func runMigrations(databaseURL string) error {
	// Create a sql.DB connection for golang-migrate
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
