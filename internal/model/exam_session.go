package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates exam session states. Transitions only move forward.
type SessionStatus string

const (
	SessionStatusNotStarted SessionStatus = "NOT_STARTED"
	SessionStatusActive     SessionStatus = "ACTIVE"
	SessionStatusCompleted  SessionStatus = "COMPLETED"
)

// ExamSession is one attempt at an exam. Answers runs parallel to the exam's questions;
// a nil entry means the question is unanswered.
type ExamSession struct {
	ExamID           uuid.UUID     `json:"exam_id"`
	Status           SessionStatus `json:"status"`
	Answers          []*int        `json:"answers"`
	CurrentIndex     int           `json:"current_index"`
	RemainingSeconds int           `json:"remaining_seconds"`
	StartedAt        time.Time     `json:"started_at"`
}

// SessionSnapshot is the read-only view handed to the UI layer.
type SessionSnapshot struct {
	Status           SessionStatus       `json:"status"`
	CurrentIndex     int                 `json:"current_index"`
	RemainingSeconds int                 `json:"remaining_seconds"`
	TotalQuestions   int                 `json:"total_questions"`
	CurrentQuestion  *QuestionForStudent `json:"current_question,omitempty"`
	SelectedOption   *int                `json:"selected_option,omitempty"`
}
