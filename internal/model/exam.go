package model

import (
	"time"

	"github.com/google/uuid"
)

// DefaultDurationMinutes applies when an exam is stored without a duration.
const DefaultDurationMinutes = 30

// Exam is an immutable exam definition: an ordered list of multiple-choice questions under a time limit.
type Exam struct {
	ID              uuid.UUID  `json:"id" yaml:"id"`
	Title           string     `json:"title" yaml:"title"`
	DurationMinutes int        `json:"duration_minutes" yaml:"duration_minutes"`
	Questions       []Question `json:"questions" yaml:"questions"`
	CreatedAt       time.Time  `json:"created_at" yaml:"-"`
}

// EffectiveDuration returns the exam duration in minutes, falling back to DefaultDurationMinutes.
func (e *Exam) EffectiveDuration() int {
	if e.DurationMinutes <= 0 {
		return DefaultDurationMinutes
	}
	return e.DurationMinutes
}

// DurationSeconds is the full time budget of one session.
func (e *Exam) DurationSeconds() int {
	return e.EffectiveDuration() * 60
}

// ExamSummary is the list view of an exam.
type ExamSummary struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	DurationMinutes int       `json:"duration_minutes"`
	QuestionCount   int       `json:"question_count"`
	CreatedAt       time.Time `json:"created_at"`
}

// SummaryOf builds the list view of e.
func SummaryOf(e *Exam) ExamSummary {
	return ExamSummary{
		ID:              e.ID,
		Title:           e.Title,
		DurationMinutes: e.DurationMinutes,
		QuestionCount:   len(e.Questions),
		CreatedAt:       e.CreatedAt,
	}
}

// CreateExamRequest is the payload for creating a new exam.
type CreateExamRequest struct {
	Title           string                  `json:"title" binding:"required,min=3,max=255"`
	DurationMinutes int                     `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
	Questions       []CreateQuestionRequest `json:"questions" binding:"required,dive"`
}
