package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-portal/internal/model"
	"github.com/stemsi/exstem-portal/internal/response"
)

// Domain Errors
var (
	ErrInvalidCorrectOption = errors.New("correct option is outside the question's options")
	ErrInvalidExam          = errors.New("invalid exam definition")
)

// ExamStore is the persistence the exam service needs.
type ExamStore interface {
	Create(ctx context.Context, e *model.Exam) error
	List(ctx context.Context, limit, offset int) ([]model.ExamSummary, int64, error)
	Count(ctx context.Context) (int64, error)
}

// ResultStore is the read side of stored results.
type ResultStore interface {
	ListByStudent(ctx context.Context, studentID int) ([]model.ExamResult, error)
	AttemptStats(ctx context.Context) (attempts int64, average int, err error)
}

// ExamCache receives newly created exams.
type ExamCache interface {
	Put(ctx context.Context, exam *model.Exam) error
}

// ExamService handles exam creation, listing and result reporting.
type ExamService struct {
	exams   ExamStore
	results ResultStore
	cache   ExamCache
	log     zerolog.Logger
}

// NewExamService creates a new ExamService. cache may be nil.
func NewExamService(exams ExamStore, results ResultStore, cache ExamCache, log zerolog.Logger) *ExamService {
	return &ExamService{
		exams:   exams,
		results: results,
		cache:   cache,
		log:     log.With().Str("component", "exam_service").Logger(),
	}
}

// BuildExam converts a validated request into an Exam.
func BuildExam(req *model.CreateExamRequest) (*model.Exam, error) {
	exam := &model.Exam{
		ID:              uuid.New(),
		Title:           req.Title,
		DurationMinutes: req.DurationMinutes,
		Questions:       make([]model.Question, len(req.Questions)),
	}
	if exam.DurationMinutes <= 0 {
		exam.DurationMinutes = model.DefaultDurationMinutes
	}

	for i, q := range req.Questions {
		if q.CorrectOption == nil || *q.CorrectOption < 0 || *q.CorrectOption >= len(q.Options) {
			return nil, fmt.Errorf("question %d: %w", i+1, ErrInvalidCorrectOption)
		}
		opts := make([]string, len(q.Options))
		copy(opts, q.Options)
		exam.Questions[i] = model.Question{
			Text:          q.Text,
			Options:       opts,
			CorrectOption: *q.CorrectOption,
		}
	}
	return exam, nil
}

// ValidateExam checks a definition loaded from outside the HTTP binding layer.
func ValidateExam(e *model.Exam) error {
	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidExam)
	}
	if e.DurationMinutes < 0 {
		return fmt.Errorf("%w: negative duration", ErrInvalidExam)
	}
	for i, q := range e.Questions {
		if strings.TrimSpace(q.Text) == "" {
			return fmt.Errorf("%w: question %d has no text", ErrInvalidExam, i+1)
		}
		if len(q.Options) < 2 {
			return fmt.Errorf("%w: question %d needs at least two options", ErrInvalidExam, i+1)
		}
		if q.CorrectOption < 0 || q.CorrectOption >= len(q.Options) {
			return fmt.Errorf("question %d: %w", i+1, ErrInvalidCorrectOption)
		}
	}
	return nil
}

// Create stores a new exam and primes the catalog cache.
func (s *ExamService) Create(ctx context.Context, req *model.CreateExamRequest) (*model.Exam, error) {
	exam, err := BuildExam(req)
	if err != nil {
		return nil, err
	}

	if err := s.exams.Create(ctx, exam); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, exam); err != nil {
			s.log.Warn().Err(err).Str("exam_id", exam.ID.String()).Msg("Failed to cache new exam")
		}
	}

	s.log.Info().
		Str("exam_id", exam.ID.String()).
		Int("questions", len(exam.Questions)).
		Msg("Exam created")
	return exam, nil
}

// List returns a page of exam summaries.
func (s *ExamService) List(ctx context.Context, page, perPage int) ([]model.ExamSummary, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	exams, total, err := s.exams.List(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if exams == nil {
		exams = []model.ExamSummary{}
	}

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: int(total),
		TotalPages: (int(total) + perPage - 1) / perPage,
	}
	return exams, pagination, nil
}

// Stats returns exam and attempt totals with the mean score.
func (s *ExamService) Stats(ctx context.Context) (*model.ExamStats, error) {
	totalExams, err := s.exams.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count exams: %w", err)
	}
	attempts, average, err := s.results.AttemptStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("attempt stats: %w", err)
	}
	return &model.ExamStats{
		TotalExams:    totalExams,
		TotalAttempts: attempts,
		AverageScore:  average,
	}, nil
}

// StudentResults returns a student's result history.
func (s *ExamService) StudentResults(ctx context.Context, studentID int) ([]model.ExamResult, error) {
	results, err := s.results.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []model.ExamResult{}
	}
	return results, nil
}
