package service

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-portal/internal/config"
	"github.com/stemsi/exstem-portal/internal/model"
	"github.com/stemsi/exstem-portal/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	mu    sync.Mutex
	exams map[uuid.UUID]*model.Exam
	hits  int
}

func (s *countingSource) GetExam(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits++
	e, ok := s.exams[id]
	if !ok {
		return nil, fmt.Errorf("exam %s: %w", id, session.ErrNotFound)
	}
	return e, nil
}

func (s *countingSource) ListIDs(context.Context) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(s.exams))
	for id := range s.exams {
		ids = append(ids, id)
	}
	return ids, nil
}

func openTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	if os.Getenv("EXSTEM_INTEGRATION") != "1" {
		t.Skip("set EXSTEM_INTEGRATION=1 to run integration tests")
	}
	url := os.Getenv("REDIS_URL")
	if url == "" {
		url = "redis://localhost:6379/15"
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)

	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, rdb.Ping(ctx).Err())
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestExamCatalogService_ReadThrough_RedisIntegration(t *testing.T) {
	rdb := openTestRedis(t)
	ctx := context.Background()

	exam := &model.Exam{
		ID:              uuid.New(),
		Title:           "Cached exam",
		DurationMinutes: 10,
		Questions:       []model.Question{{Text: "q", Options: []string{"a", "b"}, CorrectOption: 1}},
	}
	src := &countingSource{exams: map[uuid.UUID]*model.Exam{exam.ID: exam}}
	svc := NewExamCatalogService(src, rdb, time.Minute, zerolog.Nop())
	t.Cleanup(func() { _ = svc.Invalidate(ctx, exam.ID) })

	got, err := svc.GetExam(ctx, exam.ID)
	require.NoError(t, err)
	assert.Equal(t, exam.Title, got.Title)

	got, err = svc.GetExam(ctx, exam.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Questions[0].CorrectOption)
	assert.Equal(t, 1, src.hits, "second read is served from redis")

	ttl, err := rdb.TTL(ctx, config.CacheKey.ExamDefinitionKey(exam.ID.String())).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestExamCatalogService_Miss_RedisIntegration(t *testing.T) {
	rdb := openTestRedis(t)
	svc := NewExamCatalogService(&countingSource{exams: map[uuid.UUID]*model.Exam{}}, rdb, time.Minute, zerolog.Nop())

	_, err := svc.GetExam(context.Background(), uuid.New())
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestExamCatalogService_Warm_RedisIntegration(t *testing.T) {
	rdb := openTestRedis(t)
	ctx := context.Background()

	a := &model.Exam{ID: uuid.New(), Title: "A"}
	b := &model.Exam{ID: uuid.New(), Title: "B"}
	src := &countingSource{exams: map[uuid.UUID]*model.Exam{a.ID: a, b.ID: b}}
	svc := NewExamCatalogService(src, rdb, time.Minute, zerolog.Nop())
	t.Cleanup(func() {
		_ = svc.Invalidate(ctx, a.ID)
		_ = svc.Invalidate(ctx, b.ID)
	})

	require.NoError(t, svc.Warm(ctx))

	for _, id := range []uuid.UUID{a.ID, b.ID} {
		n, err := rdb.Exists(ctx, config.CacheKey.ExamDefinitionKey(id.String())).Result()
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	}
}

func TestExamCatalogService_CorruptEntryDropped_RedisIntegration(t *testing.T) {
	rdb := openTestRedis(t)
	ctx := context.Background()

	gone := uuid.New()
	key := config.CacheKey.ExamDefinitionKey(gone.String())
	require.NoError(t, rdb.Set(ctx, key, "{not json", time.Minute).Err())
	require.NoError(t, rdb.SAdd(ctx, config.CacheKey.ExamIndexKey(), gone.String()).Err())

	svc := NewExamCatalogService(&countingSource{exams: map[uuid.UUID]*model.Exam{}}, rdb, time.Minute, zerolog.Nop())
	t.Cleanup(func() { _ = svc.Invalidate(ctx, gone) })

	_, err := svc.GetExam(ctx, gone)
	assert.ErrorIs(t, err, session.ErrNotFound)

	n, err := rdb.Exists(ctx, key).Result()
	require.NoError(t, err)
	assert.Zero(t, n)

	member, err := rdb.SIsMember(ctx, config.CacheKey.ExamIndexKey(), gone.String()).Result()
	require.NoError(t, err)
	assert.False(t, member)
}
