package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-portal/internal/model"
	"github.com/stemsi/exstem-portal/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memQueue struct {
	mu    sync.Mutex
	items []*model.ExamResult
}

func (q *memQueue) Pop(ctx context.Context, timeout time.Duration) (*model.ExamResult, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if r, _ := q.TryPop(ctx); r != nil {
			return r, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
	return nil, nil
}

func (q *memQueue) TryPop(context.Context) (*model.ExamResult, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, nil
	}
	r := q.items[0]
	q.items = q.items[1:]
	return r, nil
}

func (q *memQueue) Push(_ context.Context, r *model.ExamResult) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, r)
	return nil
}

func (q *memQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

type memWriter struct {
	mu        sync.Mutex
	bulkErr   error
	failIDs   map[uuid.UUID]bool
	rejectIDs map[uuid.UUID]bool
	bulkCalls int
	stored    map[uuid.UUID]*model.ExamResult
}

func newMemWriter() *memWriter {
	return &memWriter{
		failIDs:   map[uuid.UUID]bool{},
		rejectIDs: map[uuid.UUID]bool{},
		stored:    map[uuid.UUID]*model.ExamResult{},
	}
}

func (w *memWriter) BulkCreate(_ context.Context, rs []*model.ExamResult) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.bulkCalls++
	if w.bulkErr != nil {
		return w.bulkErr
	}
	for _, r := range rs {
		w.stored[r.ID] = r
	}
	return nil
}

func (w *memWriter) Create(_ context.Context, r *model.ExamResult) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.rejectIDs[r.ID] {
		return fmt.Errorf("%w: foreign key", repository.ErrRejected)
	}
	if w.failIDs[r.ID] {
		return errors.New("connection reset")
	}
	w.stored[r.ID] = r
	return nil
}

func (w *memWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.stored)
}

func newResult() *model.ExamResult {
	return &model.ExamResult{ID: uuid.New(), ExamID: uuid.New(), Score: 50}
}

func fastWorker(q Queue, w ResultWriter) *ResultWorker {
	rw := NewResultWorker(q, w, zerolog.Nop())
	rw.batchTimeout = 10 * time.Millisecond
	rw.pollTimeout = 5 * time.Millisecond
	return rw
}

func TestResultWorker_PersistsQueuedResults(t *testing.T) {
	q := &memQueue{}
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Push(context.Background(), newResult()))
	}
	w := newMemWriter()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		fastWorker(q, w).Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return w.count() == 5 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done
	assert.Equal(t, 0, q.len())
}

func TestResultWorker_FallbackRequeuesFailedRows(t *testing.T) {
	q := &memQueue{}
	w := newMemWriter()
	w.bulkErr = errors.New("batch failed")

	good, bad := newResult(), newResult()
	w.failIDs[bad.ID] = true

	fastWorker(q, w).flushSafe(context.Background(), []*model.ExamResult{good, bad})

	assert.Contains(t, w.stored, good.ID)
	assert.NotContains(t, w.stored, bad.ID)
	require.Equal(t, 1, q.len())
	r, _ := q.TryPop(context.Background())
	assert.Equal(t, bad.ID, r.ID)
}

func TestResultWorker_DropsRejectedRows(t *testing.T) {
	q := &memQueue{}
	w := newMemWriter()
	w.bulkErr = errors.New("batch failed")

	orphan := newResult()
	w.rejectIDs[orphan.ID] = true

	fastWorker(q, w).flushSafe(context.Background(), []*model.ExamResult{orphan})

	assert.Equal(t, 0, q.len())
	assert.Equal(t, 0, w.count())
}

func TestResultWorker_DrainsOnShutdown(t *testing.T) {
	q := &memQueue{}
	w := newMemWriter()
	rw := fastWorker(q, w)
	rw.batchSize = 2

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Push(context.Background(), newResult()))
	}

	rw.drain(context.Background())

	assert.Equal(t, 5, w.count())
	assert.Equal(t, 3, w.bulkCalls)
	assert.Equal(t, 0, q.len())
}

func TestResultWorker_DrainFailureKeepsItemsQueued(t *testing.T) {
	q := &memQueue{}
	w := newMemWriter()
	w.bulkErr = errors.New("db gone")

	for i := 0; i < 3; i++ {
		require.NoError(t, q.Push(context.Background(), newResult()))
	}

	fastWorker(q, w).drain(context.Background())

	assert.Equal(t, 0, w.count())
	assert.Equal(t, 3, q.len())
}

func TestResultWorker_EmptyFlushIsNoop(t *testing.T) {
	w := newMemWriter()
	fastWorker(&memQueue{}, w).flushSafe(context.Background(), nil)
	assert.Equal(t, 0, w.bulkCalls)
}
