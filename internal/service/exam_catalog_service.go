package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-portal/internal/config"
	"github.com/stemsi/exstem-portal/internal/model"
)

// ExamSource is the authoritative exam store behind the cache.
type ExamSource interface {
	GetExam(ctx context.Context, id uuid.UUID) (*model.Exam, error)
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
}

// ExamCatalogService is a Redis read-through cache in front of the exam store.
// It satisfies session.ExamCatalog.
type ExamCatalogService struct {
	source ExamSource
	rdb    *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// NewExamCatalogService creates a new ExamCatalogService.
func NewExamCatalogService(source ExamSource, rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *ExamCatalogService {
	return &ExamCatalogService{
		source: source,
		rdb:    rdb,
		ttl:    ttl,
		log:    log.With().Str("component", "exam_catalog").Logger(),
	}
}

// GetExam returns the exam from Redis, falling back to the store and re-caching on a miss.
// A corrupt cache entry is dropped before the store is consulted. Redis failures degrade to the
// store; they never fail the lookup on their own.
func (s *ExamCatalogService) GetExam(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	key := config.CacheKey.ExamDefinitionKey(id.String())

	data, err := s.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var exam model.Exam
		jsonErr := json.Unmarshal(data, &exam)
		if jsonErr == nil {
			return &exam, nil
		}
		s.log.Warn().Err(jsonErr).Str("exam_id", id.String()).Msg("Corrupt cached exam, reloading")
		if err := s.Invalidate(ctx, id); err != nil {
			s.log.Warn().Err(err).Str("exam_id", id.String()).Msg("Failed to drop corrupt cache entry")
		}
	case !errors.Is(err, redis.Nil):
		s.log.Warn().Err(err).Str("exam_id", id.String()).Msg("Redis read failed, using database")
	}

	exam, err := s.source.GetExam(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.Put(ctx, exam); err != nil {
		s.log.Warn().Err(err).Str("exam_id", id.String()).Msg("Failed to cache exam")
	}
	return exam, nil
}

// Put caches an exam definition.
func (s *ExamCatalogService) Put(ctx context.Context, exam *model.Exam) error {
	payload, err := json.Marshal(exam)
	if err != nil {
		return fmt.Errorf("marshal exam: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.ExamDefinitionKey(exam.ID.String()), payload, s.ttl)
	pipe.SAdd(ctx, config.CacheKey.ExamIndexKey(), exam.ID.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache to redis: %w", err)
	}
	return nil
}

// Invalidate drops a cached exam and its index entry.
func (s *ExamCatalogService) Invalidate(ctx context.Context, id uuid.UUID) error {
	pipe := s.rdb.Pipeline()
	pipe.Del(ctx, config.CacheKey.ExamDefinitionKey(id.String()))
	pipe.SRem(ctx, config.CacheKey.ExamIndexKey(), id.String())
	_, err := pipe.Exec(ctx)
	return err
}

// Warm loads every exam into Redis before traffic is accepted.
func (s *ExamCatalogService) Warm(ctx context.Context) error {
	ids, err := s.source.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("list exams: %w", err)
	}

	if len(ids) == 0 {
		s.log.Info().Msg("No exams to prewarm")
		return nil
	}

	warmed := 0
	for _, id := range ids {
		exam, err := s.source.GetExam(ctx, id)
		if err != nil {
			s.log.Warn().Err(err).Str("exam_id", id.String()).Msg("Failed to load exam, skipping")
			continue
		}
		if err := s.Put(ctx, exam); err != nil {
			s.log.Warn().Err(err).Str("exam_id", id.String()).Msg("Failed to warm exam, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().
		Int("warmed", warmed).
		Int("total", len(ids)).
		Msg("Prewarming complete")
	return nil
}
