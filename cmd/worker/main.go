package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/rmenezes/jurisearch/internal/cache"
	"github.com/rmenezes/jurisearch/internal/config"
	"github.com/rmenezes/jurisearch/internal/consistency"
	"github.com/rmenezes/jurisearch/internal/database"
	"github.com/rmenezes/jurisearch/internal/document"
	"github.com/rmenezes/jurisearch/internal/embedding"
	"github.com/rmenezes/jurisearch/internal/ingest"
	"github.com/rmenezes/jurisearch/internal/lexical"
	"github.com/rmenezes/jurisearch/internal/queue"
	"github.com/rmenezes/jurisearch/internal/queue/workers"
	"github.com/rmenezes/jurisearch/internal/vectorstore"
	"github.com/rmenezes/jurisearch/pkg/chunker"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	producer, err := embedding.NewOpenAIProducer(
		cfg.Embedding.APIKey, cfg.Embedding.BaseURL,
		cfg.Embedding.Model, cfg.Embedding.BatchSize)
	if err != nil {
		slog.Error("embedding producer", "error", err)
		os.Exit(1)
	}

	dimension, _ := embedding.Dimensions(cfg.Embedding.Model)
	vs, err := vectorstore.NewPgStore(db, dimension,
		vectorstore.WithSearchBreadth(cfg.Search.SearchBreadth))
	if err != nil {
		slog.Error("vector store", "error", err)
		os.Exit(1)
	}
	lex := lexical.NewPgIndex(db)
	manager := consistency.NewManager(vs, lex, nil)
	docSvc := document.NewService(db, manager, nil)

	ck, err := chunker.New(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	if err != nil {
		slog.Error("chunker", "error", err)
		os.Exit(1)
	}

	var pipelineOpts []ingest.Option
	pipelineOpts = append(pipelineOpts,
		ingest.WithBatchSize(cfg.Embedding.BatchSize),
		ingest.WithRetry(cfg.Ingest.MaxRetries, 500*time.Millisecond))
	if cfg.Ingest.PoolSize > 0 {
		pipelineOpts = append(pipelineOpts, ingest.WithPoolSize(cfg.Ingest.PoolSize))
	}
	pipeline, err := ingest.NewPipeline(ck, producer, manager, pipelineOpts...)
	if err != nil {
		slog.Error("ingest pipeline", "error", err)
		os.Exit(1)
	}
	defer pipeline.Release()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	searchCache := cache.NewSearchCache(cache.NewCache(rdb), cfg.Search.CacheTTL, nil)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	registry := queue.NewHandlersRegistry()

	indexWorker := workers.NewIndexWorker(docSvc, pipeline, searchCache)
	purgeWorker := workers.NewPurgeWorker(docSvc, searchCache)

	registry.Register(queue.TypeDocumentIndex, asynq.HandlerFunc(indexWorker.ProcessTask))
	registry.Register(queue.TypeDocumentPurge, asynq.HandlerFunc(purgeWorker.ProcessDocumentPurge))
	registry.Register(queue.TypeCasePurge, asynq.HandlerFunc(purgeWorker.ProcessCasePurge))

	slog.Info("starting worker", "concurrency", 10, "model", cfg.Embedding.Model)
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
