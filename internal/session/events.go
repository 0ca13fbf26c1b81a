package session

import (
	"github.com/google/uuid"
	"github.com/stemsi/exstem-portal/internal/model"
	"github.com/stemsi/exstem-portal/internal/scoring"
)

// Event is emitted by the Engine to its observers.
type Event interface {
	Name() string
}

// StartedEvent fires once when the session becomes active.
type StartedEvent struct {
	ExamID           uuid.UUID
	TotalQuestions   int
	RemainingSeconds int
}

// TickEvent carries the countdown after each tick.
type TickEvent struct {
	RemainingSeconds int
}

// NavigationEvent fires whenever the current question changes, including the first question on start.
type NavigationEvent struct {
	Index          int
	Question       *model.QuestionForStudent
	SelectedOption *int
}

// CompletionEvent fires exactly once per session.
type CompletionEvent struct {
	Result    *model.ExamResult
	Band      scoring.Band
	TimeSpent string
}

// WarningEvent fires when the result sink fails after completion.
type WarningEvent struct {
	Warning *PersistenceWarning
}

func (StartedEvent) Name() string    { return "started" }
func (TickEvent) Name() string       { return "tick" }
func (NavigationEvent) Name() string { return "navigation" }
func (CompletionEvent) Name() string { return "completed" }
func (WarningEvent) Name() string    { return "warning" }

// Observer receives engine events in the order the session changed. Observers run on the goroutine
// that caused the event, one delivery at a time, and must not call back into the Engine.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(ev Event) { f(ev) }
