package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inboxpilot/mailextract/internal/extract"
	"github.com/inboxpilot/mailextract/internal/models"
	"github.com/inboxpilot/mailextract/internal/queue"
	"github.com/inboxpilot/mailextract/internal/storage"
)

// Runner executes one extraction attempt end to end.
type Runner interface {
	Run(ctx context.Context, attachmentID int64) (*extract.Outcome, error)
}

// OutcomeCache publishes the latest run outcome for cheap status reads.
type OutcomeCache interface {
	SetOutcome(ctx context.Context, attachmentID int64, o *extract.Outcome) error
}

// pooledRunner binds each run to one pooled connection, released exactly
// once on every exit path.
type pooledRunner struct {
	pool  *pgxpool.Pool
	blobs storage.Storage
	opts  extract.Options
	log   *slog.Logger
}

func NewPooledRunner(pool *pgxpool.Pool, blobs storage.Storage, opts extract.Options, log *slog.Logger) Runner {
	return &pooledRunner{pool: pool, blobs: blobs, opts: opts, log: log}
}

func (r *pooledRunner) Run(ctx context.Context, attachmentID int64) (*extract.Outcome, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire db session: %w", err)
	}
	defer conn.Release()

	orch := extract.NewOrchestrator(extract.Deps{
		Repo:  extract.NewPGAttachmentRepo(conn),
		Blobs: r.blobs,
		Pages: extract.NewPGPageStore(conn),
	}, r.opts, r.log)
	return orch.Run(ctx, attachmentID)
}

// ExtractWorker is the queue-facing wrapper around the orchestrator. It
// owns the retry decision: permanent failures consume the task, transient
// failures go back to the queue until retries run out, and partial success
// is terminal because rerunning cannot improve an already-degraded result.
type ExtractWorker struct {
	runner Runner
	repo   extract.AttachmentRepo
	cache  OutcomeCache
	log    *slog.Logger

	// retryState reads queue delivery metadata; overridable in tests.
	retryState func(ctx context.Context) (retried, maxRetry int)
}

func NewExtractWorker(runner Runner, repo extract.AttachmentRepo, cache OutcomeCache, log *slog.Logger) *ExtractWorker {
	if log == nil {
		log = slog.Default()
	}
	return &ExtractWorker{
		runner:     runner,
		repo:       repo,
		cache:      cache,
		log:        log,
		retryState: asynqRetryState,
	}
}

func asynqRetryState(ctx context.Context) (int, int) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	return retried, maxRetry
}

func (w *ExtractWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.AttachmentExtractPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	id := payload.AttachmentID

	w.log.Info("extraction started", "attachment_id", id)
	w.setStatus(ctx, id, models.ExtractionRunning)

	outcome, err := w.runner.Run(ctx, id)
	if err == nil {
		status := models.ExtractionSuccess
		if outcome.Status == extract.StatusPartialSuccess {
			status = models.ExtractionPartialSuccess
			w.log.Warn("extraction degraded", "attachment_id", id, "summary", outcome.Summary())
		}
		w.setStatus(ctx, id, status)
		w.publishOutcome(ctx, id, outcome)
		return nil
	}

	if extract.Permanent(err) {
		w.log.Error("extraction failed permanently", "attachment_id", id, "error", err)
		w.setStatus(ctx, id, models.ExtractionPermanentFailure)
		return fmt.Errorf("attachment %d: %v: %w", id, err, asynq.SkipRetry)
	}

	retried, maxRetry := w.retryState(ctx)
	if retried >= maxRetry {
		// Retries exhausted: report and consume rather than crash the task.
		w.log.Error("extraction failed after max retries",
			"attachment_id", id, "attempts", retried+1, "error", err)
		w.setStatus(ctx, id, models.ExtractionPermanentFailure)
		return nil
	}

	w.log.Warn("extraction failed, scheduling retry",
		"attachment_id", id, "attempt", retried+1, "error", err)
	w.setStatus(ctx, id, models.ExtractionRetryScheduled)
	return err
}

func (w *ExtractWorker) setStatus(ctx context.Context, id int64, status string) {
	if err := w.repo.UpdateExtractionStatus(ctx, id, status); err != nil {
		w.log.Error("failed to update extraction status",
			"attachment_id", id, "status", status, "error", err)
	}
}

func (w *ExtractWorker) publishOutcome(ctx context.Context, id int64, outcome *extract.Outcome) {
	if w.cache == nil {
		return
	}
	if err := w.cache.SetOutcome(ctx, id, outcome); err != nil {
		w.log.Warn("failed to cache extraction outcome", "attachment_id", id, "error", err)
	}
}
