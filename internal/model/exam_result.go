package model

import (
	"time"

	"github.com/google/uuid"
)

// CompletionCause records what ended a session.
type CompletionCause string

const (
	CompletionManual  CompletionCause = "MANUAL"
	CompletionExpired CompletionCause = "EXPIRED"
)

// ExamResult is produced exactly once per session, at the terminal transition.
type ExamResult struct {
	ID               uuid.UUID       `json:"id"`
	ExamID           uuid.UUID       `json:"exam_id"`
	ExamTitle        string          `json:"exam_title"`
	StudentID        int             `json:"student_id"`
	Score            int             `json:"score"`
	CorrectCount     int             `json:"correct_count"`
	TotalQuestions   int             `json:"total_questions"`
	TimeSpentSeconds int             `json:"time_spent_seconds"`
	Answers          []*int          `json:"answers"`
	Cause            CompletionCause `json:"cause"`
	CompletedAt      time.Time       `json:"completed_at"`
}

// ExamStats aggregates results across all exams.
type ExamStats struct {
	TotalExams    int64 `json:"total_exams"`
	TotalAttempts int64 `json:"total_attempts"`
	AverageScore  int   `json:"average_score"`
}
