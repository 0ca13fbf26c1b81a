package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-portal/internal/model"
)

// ErrRejected marks a row the database will never accept (integrity constraint violation).
var ErrRejected = errors.New("result rejected by database constraints")

// ExamResultRepository handles exam result data access.
type ExamResultRepository struct {
	pool *pgxpool.Pool
}

// NewExamResultRepository creates a new ExamResultRepository.
func NewExamResultRepository(pool *pgxpool.Pool) *ExamResultRepository {
	return &ExamResultRepository{pool: pool}
}

// insertResultSQL is idempotent on id so a requeued result is stored once.
const insertResultSQL = `
	INSERT INTO exam_results (
		id, exam_id, exam_title, student_id, score, correct_count,
		total_questions, time_spent_seconds, answers, cause, completed_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (id) DO NOTHING`

func resultArgs(r *model.ExamResult) ([]any, error) {
	answers, err := json.Marshal(r.Answers)
	if err != nil {
		return nil, fmt.Errorf("encode answers: %w", err)
	}
	return []any{
		r.ID, r.ExamID, r.ExamTitle, r.StudentID, r.Score, r.CorrectCount,
		r.TotalQuestions, r.TimeSpentSeconds, answers, string(r.Cause), r.CompletedAt,
	}, nil
}

// Create inserts a single result. It also satisfies session.ResultSink for direct writes.
func (r *ExamResultRepository) Create(ctx context.Context, res *model.ExamResult) error {
	args, err := resultArgs(res)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, insertResultSQL, args...)
	return classify(err)
}

func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23") {
		return fmt.Errorf("%w: %s (%s)", ErrRejected, pgErr.Message, pgErr.Code)
	}
	return err
}

// Save is Create under the ResultSink name.
func (r *ExamResultRepository) Save(ctx context.Context, res *model.ExamResult) error {
	return r.Create(ctx, res)
}

// BulkCreate inserts results in one transaction using a pgx batch.
func (r *ExamResultRepository) BulkCreate(ctx context.Context, results []*model.ExamResult) error {
	if len(results) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, res := range results {
		args, err := resultArgs(res)
		if err != nil {
			return err
		}
		batch.Queue(insertResultSQL, args...)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return tx.Commit(ctx)
}

// ListByStudent returns a student's results, newest first.
func (r *ExamResultRepository) ListByStudent(ctx context.Context, studentID int) ([]model.ExamResult, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_id, exam_title, student_id, score, correct_count,
		        total_questions, time_spent_seconds, answers, cause, completed_at
		 FROM exam_results
		 WHERE student_id = $1
		 ORDER BY completed_at DESC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.ExamResult
	for rows.Next() {
		var res model.ExamResult
		var answers []byte
		var cause string
		if err := rows.Scan(&res.ID, &res.ExamID, &res.ExamTitle, &res.StudentID, &res.Score,
			&res.CorrectCount, &res.TotalQuestions, &res.TimeSpentSeconds, &answers, &cause,
			&res.CompletedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(answers, &res.Answers); err != nil {
			return nil, fmt.Errorf("decode answers of result %s: %w", res.ID, err)
		}
		res.Cause = model.CompletionCause(cause)
		results = append(results, res)
	}
	return results, rows.Err()
}

// AttemptStats returns the attempt count and the rounded mean score across all results.
func (r *ExamResultRepository) AttemptStats(ctx context.Context) (attempts int64, average int, err error) {
	err = r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(ROUND(AVG(score)), 0)::int FROM exam_results`,
	).Scan(&attempts, &average)
	return attempts, average, err
}
