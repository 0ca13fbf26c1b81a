package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-portal/internal/model"
	"github.com/stemsi/exstem-portal/internal/repository"
)

const (
	ResultBatchSize    = 50
	ResultBatchTimeout = 2 * time.Second
	ResultPollTimeout  = 1 * time.Second

	drainTimeout = 10 * time.Second
)

// Queue is the source the worker drains.
type Queue interface {
	Pop(ctx context.Context, timeout time.Duration) (*model.ExamResult, error)
	TryPop(ctx context.Context) (*model.ExamResult, error)
	Push(ctx context.Context, result *model.ExamResult) error
}

// ResultWriter is the durable store for results. Create returns an error wrapping
// repository.ErrRejected for rows that can never be stored.
type ResultWriter interface {
	BulkCreate(ctx context.Context, results []*model.ExamResult) error
	Create(ctx context.Context, result *model.ExamResult) error
}

// ResultWorker moves queued results into PostgreSQL in batches.
type ResultWorker struct {
	queue  Queue
	writer ResultWriter
	log    zerolog.Logger

	batchSize    int
	batchTimeout time.Duration
	pollTimeout  time.Duration
}

func NewResultWorker(queue Queue, writer ResultWriter, log zerolog.Logger) *ResultWorker {
	return &ResultWorker{
		queue:        queue,
		writer:       writer,
		log:          log.With().Str("component", "result_worker").Logger(),
		batchSize:    ResultBatchSize,
		batchTimeout: ResultBatchTimeout,
		pollTimeout:  ResultPollTimeout,
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

// Start runs until ctx is cancelled, then flushes and drains. Call in a goroutine.
func (w *ResultWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ResultWorker started")

	batch := make([]*model.ExamResult, 0, w.batchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= w.batchSize || time.Since(lastFlush) >= w.batchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
			w.flushSafe(drainCtx, batch)
			w.drain(drainCtx)
			cancel()
			w.log.Info().Msg("ResultWorker stopped")
			return

		default:
			res, err := w.queue.Pop(ctx, w.pollTimeout)
			if err != nil {
				if errors.Is(err, ErrMalformedPayload) {
					w.log.Error().Err(err).Msg("Dropping invalid payload")
				} else if ctx.Err() == nil {
					w.log.Error().Err(err).Msg("Queue pop error")
				}
				continue
			}
			if res == nil {
				continue
			}
			batch = append(batch, res)
		}
	}
}

// ----------------------------------------------------------------
// Batch insert with single-row fallback
// ----------------------------------------------------------------

func (w *ResultWorker) flushSafe(ctx context.Context, batch []*model.ExamResult) {
	if len(batch) == 0 {
		return
	}

	err := w.writer.BulkCreate(ctx, batch)
	if err == nil {
		w.log.Debug().Int("count", len(batch)).Msg("Results persisted")
		return
	}
	w.log.Warn().Err(err).Int("count", len(batch)).Msg("bulk insert failed, using fallback")

	for _, r := range batch {
		if err := w.writer.Create(ctx, r); err != nil {
			if errors.Is(err, repository.ErrRejected) {
				w.log.Error().Err(err).
					Str("result_id", r.ID.String()).
					Str("exam_id", r.ExamID.String()).
					Int("student_id", r.StudentID).
					Int("score", r.Score).
					Msg("result rejected, dropping")
				continue
			}
			w.log.Error().Err(err).
				Str("result_id", r.ID.String()).
				Str("exam_id", r.ExamID.String()).
				Msg("single insert failed, requeueing")
			if err := w.queue.Push(ctx, r); err != nil {
				w.log.Error().Err(err).Str("result_id", r.ID.String()).Msg("requeue failed, result lost")
			}
		}
	}
}

// drain writes whatever is still queued at shutdown, one batch at a time.
func (w *ResultWorker) drain(ctx context.Context) {
	drained := 0
	for ctx.Err() == nil {
		batch := make([]*model.ExamResult, 0, w.batchSize)
		for len(batch) < w.batchSize {
			res, err := w.queue.TryPop(ctx)
			if err != nil {
				if errors.Is(err, ErrMalformedPayload) {
					w.log.Error().Err(err).Msg("Drain dropping invalid payload")
					continue
				}
				break
			}
			if res == nil {
				break
			}
			batch = append(batch, res)
		}
		if len(batch) == 0 {
			break
		}

		if err := w.writer.BulkCreate(ctx, batch); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error, leaving rest queued")
			for _, r := range batch {
				_ = w.queue.Push(ctx, r)
			}
			break
		}
		drained += len(batch)
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
