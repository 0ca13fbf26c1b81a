package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/exstem-portal/internal/config"
	"github.com/stemsi/exstem-portal/internal/model"
)

// ErrMalformedPayload marks a queue entry that could not be decoded. The entry is dropped.
var ErrMalformedPayload = errors.New("malformed result payload")

// ResultQueue is a Redis list of finished results waiting to be written to PostgreSQL.
// Save makes it usable as the session's result sink.
type ResultQueue struct {
	rdb *redis.Client
	key string
}

// NewResultQueue creates a queue on the configured persist_results_queue key.
func NewResultQueue(rdb *redis.Client) *ResultQueue {
	return &ResultQueue{rdb: rdb, key: config.WorkerKey.PersistResultsQueue}
}

// Save enqueues a result. One attempt; the error goes back to the caller.
func (q *ResultQueue) Save(ctx context.Context, result *model.ExamResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := q.rdb.RPush(ctx, q.key, raw).Err(); err != nil {
		return fmt.Errorf("enqueue result %s: %w", result.ID, err)
	}
	return nil
}

// Push is Save under the name the worker uses for requeueing.
func (q *ResultQueue) Push(ctx context.Context, result *model.ExamResult) error {
	return q.Save(ctx, result)
}

// Pop blocks up to timeout for the next result. It returns nil, nil when the wait times out.
func (q *ResultQueue) Pop(ctx context.Context, timeout time.Duration) (*model.ExamResult, error) {
	item, err := q.rdb.BLPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(item) < 2 {
		return nil, nil
	}
	return decodeResult(item[1])
}

// TryPop returns the next result without blocking, or nil, nil when the queue is empty.
func (q *ResultQueue) TryPop(ctx context.Context) (*model.ExamResult, error) {
	raw, err := q.rdb.LPop(ctx, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return decodeResult(raw)
}

// Len reports the queue backlog.
func (q *ResultQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.key).Result()
}

func decodeResult(raw string) (*model.ExamResult, error) {
	var r model.ExamResult
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return &r, nil
}
