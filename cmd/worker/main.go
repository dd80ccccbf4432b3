package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/inboxpilot/mailextract/internal/cache"
	"github.com/inboxpilot/mailextract/internal/config"
	"github.com/inboxpilot/mailextract/internal/database"
	"github.com/inboxpilot/mailextract/internal/extract"
	"github.com/inboxpilot/mailextract/internal/queue"
	"github.com/inboxpilot/mailextract/internal/queue/workers"
	"github.com/inboxpilot/mailextract/internal/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

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

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	blobs := newStorage(cfg.Storage)
	outcomes := cache.NewOutcomeCache(cache.NewCache(rdb))

	baseDelay := cfg.Queue.RetryBaseDelay
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: cfg.Queue.Concurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			// Linear backoff: base delay scaled by attempts so far.
			RetryDelayFunc: func(n int, err error, t *asynq.Task) time.Duration {
				return baseDelay * time.Duration(n+1)
			},
		},
	)

	opts := extract.Options{
		BatchSize:          cfg.Extraction.BatchSize,
		MaxErrorPercentage: cfg.Extraction.MaxErrorPercentage,
		TextThreshold:      cfg.Extraction.TextThreshold,
		Languages:          cfg.Extraction.Languages,
		RenderScale:        cfg.Extraction.RenderScale,
	}
	runner := workers.NewPooledRunner(db, blobs, opts, slog.Default())
	repo := extract.NewPGAttachmentRepo(db)
	extractWorker := workers.NewExtractWorker(runner, repo, outcomes, slog.Default())

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TypeAttachmentExtract, extractWorker.ProcessTask)

	slog.Info("starting worker",
		"concurrency", cfg.Queue.Concurrency,
		"max_retries", cfg.Queue.MaxRetries,
		"retry_base_delay", baseDelay.String())
	if err := srv.Run(mux); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}

func newStorage(cfg config.StorageConfig) storage.Storage {
	if cfg.Backend == "supabase" {
		return storage.NewSupabaseStorage(cfg.SupabaseURL, cfg.SupabaseKey, cfg.Bucket)
	}
	return storage.NewLocalStorage(cfg.LocalRoot)
}
