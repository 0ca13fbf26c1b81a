package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-portal/internal/model"
	"github.com/stemsi/exstem-portal/internal/session"
)

// ExamRepository handles exam definition data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

// GetExam retrieves a full exam definition by id. A miss wraps session.ErrNotFound.
func (r *ExamRepository) GetExam(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	e := &model.Exam{}
	var questions []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, duration_minutes, questions, created_at
		 FROM exams WHERE id = $1`, id,
	).Scan(&e.ID, &e.Title, &e.DurationMinutes, &questions, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("exam %s: %w", id, session.ErrNotFound)
		}
		return nil, err
	}

	if err := json.Unmarshal(questions, &e.Questions); err != nil {
		return nil, fmt.Errorf("decode questions of exam %s: %w", id, err)
	}
	return e, nil
}

// Create inserts a new exam. ID is generated when unset.
func (r *ExamRepository) Create(ctx context.Context, e *model.Exam) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	questions, err := json.Marshal(e.Questions)
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}

	return r.pool.QueryRow(ctx,
		`INSERT INTO exams (id, title, duration_minutes, questions)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		e.ID, e.Title, e.DurationMinutes, questions,
	).Scan(&e.CreatedAt)
}

// Upsert inserts or replaces an exam by id. Used by the YAML importer.
func (r *ExamRepository) Upsert(ctx context.Context, e *model.Exam) error {
	questions, err := json.Marshal(e.Questions)
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO exams (id, title, duration_minutes, questions)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE
		 SET title = EXCLUDED.title,
		     duration_minutes = EXCLUDED.duration_minutes,
		     questions = EXCLUDED.questions`,
		e.ID, e.Title, e.DurationMinutes, questions)
	return err
}

// List returns exam summaries, newest first, with the total count.
func (r *ExamRepository) List(ctx context.Context, limit, offset int) ([]model.ExamSummary, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM exams`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, title, duration_minutes, jsonb_array_length(questions), created_at
		 FROM exams
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var exams []model.ExamSummary
	for rows.Next() {
		var s model.ExamSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.DurationMinutes, &s.QuestionCount, &s.CreatedAt); err != nil {
			return nil, 0, err
		}
		exams = append(exams, s)
	}
	return exams, total, rows.Err()
}

// ListIDs returns every exam id. Used for cache prewarming on startup.
func (r *ExamRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM exams ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Count returns the number of exams.
func (r *ExamRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM exams`).Scan(&n)
	return n, err
}
