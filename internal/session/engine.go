// Package session implements the exam-taking state machine.
//
// An Engine owns one ExamSession from NOT_STARTED through ACTIVE to COMPLETED. Navigation and
// answer calls are lenient (stale or out-of-range input is ignored), while lifecycle misuse such as
// starting twice returns ErrInvalidState. Completion happens exactly once, either from the clock
// reaching zero or from Submit, and is guarded by an atomic latch.
package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-portal/internal/clock"
	"github.com/stemsi/exstem-portal/internal/model"
	"github.com/stemsi/exstem-portal/internal/scoring"
)

// ExamCatalog supplies exam definitions by id. A miss must wrap ErrNotFound.
type ExamCatalog interface {
	GetExam(ctx context.Context, id uuid.UUID) (*model.Exam, error)
}

// ResultSink persists a finished result. The engine calls Save once and never retries.
type ResultSink interface {
	Save(ctx context.Context, result *model.ExamResult) error
}

const defaultSaveTimeout = 10 * time.Second

// Engine drives a single exam session. It is not reusable across exams.
type Engine struct {
	clock       clock.Clock
	scorer      scoring.Scorer
	sink        ResultSink
	log         zerolog.Logger
	now         func() time.Time
	studentID   int
	saveTimeout time.Duration
	observers   []Observer

	mu      sync.Mutex
	exam    *model.Exam
	state   model.ExamSession
	result  *model.ExamResult
	latched atomic.Bool

	// emitMu is taken before mu is released so observers see events in state order.
	emitMu  sync.Mutex
	pending sync.WaitGroup
}

// Option customizes an Engine.
type Option func(*Engine)

// WithStudentID stamps results with the owning student.
func WithStudentID(id int) Option {
	return func(e *Engine) { e.studentID = id }
}

// WithObserver subscribes an observer before the session starts.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observers = append(e.observers, o) }
}

// WithNow overrides the time source used for timestamps.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithSaveTimeout bounds a single ResultSink.Save call.
func WithSaveTimeout(d time.Duration) Option {
	return func(e *Engine) { e.saveTimeout = d }
}

// New creates an Engine in NOT_STARTED state.
func New(clk clock.Clock, scorer scoring.Scorer, sink ResultSink, log zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		clock:       clk,
		scorer:      scorer,
		sink:        sink,
		log:         log.With().Str("component", "exam_session").Logger(),
		now:         time.Now,
		saveTimeout: defaultSaveTimeout,
		state:       model.ExamSession{Status: model.SessionStatusNotStarted},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StartFromCatalog loads the exam and starts the session. On a catalog error the session stays NOT_STARTED.
func (e *Engine) StartFromCatalog(ctx context.Context, catalog ExamCatalog, examID uuid.UUID) error {
	if e.Status() != model.SessionStatusNotStarted {
		return ErrInvalidState
	}

	exam, err := catalog.GetExam(ctx, examID)
	if err != nil {
		return fmt.Errorf("load exam %s: %w", examID, err)
	}
	return e.Start(exam)
}

// Start activates the session for exam and starts the clock.
func (e *Engine) Start(exam *model.Exam) error {
	if exam == nil {
		return ErrNilExam
	}

	e.mu.Lock()
	if e.state.Status != model.SessionStatusNotStarted {
		e.mu.Unlock()
		return ErrInvalidState
	}

	e.exam = exam
	e.state = model.ExamSession{
		ExamID:           exam.ID,
		Status:           model.SessionStatusActive,
		Answers:          make([]*int, len(exam.Questions)),
		CurrentIndex:     0,
		RemainingSeconds: exam.DurationSeconds(),
		StartedAt:        e.now(),
	}

	events := []Event{StartedEvent{
		ExamID:           exam.ID,
		TotalQuestions:   len(exam.Questions),
		RemainingSeconds: e.state.RemainingSeconds,
	}}
	if len(exam.Questions) > 0 {
		events = append(events, e.navigationEventLocked())
	}
	e.unlockAndEmit(events)

	e.log.Info().
		Str("exam_id", exam.ID.String()).
		Int("student_id", e.studentID).
		Int("questions", len(exam.Questions)).
		Int("duration_seconds", exam.DurationSeconds()).
		Msg("Exam session started")

	e.clock.Start(e.Tick)
	return nil
}

// RecordAnswer stores option as the answer to the current question.
// Outside ACTIVE, or for an option the question does not have, the call is ignored.
func (e *Engine) RecordAnswer(option int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Status != model.SessionStatusActive || len(e.exam.Questions) == 0 {
		return
	}
	q := e.exam.Questions[e.state.CurrentIndex]
	if option < 0 || option >= len(q.Options) {
		return
	}
	v := option
	e.state.Answers[e.state.CurrentIndex] = &v
}

// GoTo moves to question index. Out-of-range indexes leave the position unchanged.
func (e *Engine) GoTo(index int) {
	e.mu.Lock()
	if e.state.Status != model.SessionStatusActive ||
		index < 0 || index >= len(e.exam.Questions) ||
		index == e.state.CurrentIndex {
		e.mu.Unlock()
		return
	}
	e.state.CurrentIndex = index
	e.unlockAndEmit([]Event{e.navigationEventLocked()})
}

// Next moves forward one question.
func (e *Engine) Next() {
	e.GoTo(e.CurrentIndex() + 1)
}

// Prev moves back one question.
func (e *Engine) Prev() {
	e.GoTo(e.CurrentIndex() - 1)
}

// Tick consumes one second. Reaching zero completes the session with cause EXPIRED.
func (e *Engine) Tick() {
	e.mu.Lock()
	if e.state.Status != model.SessionStatusActive {
		e.mu.Unlock()
		return
	}

	if e.state.RemainingSeconds > 0 {
		e.state.RemainingSeconds--
	}
	events := []Event{TickEvent{RemainingSeconds: e.state.RemainingSeconds}}
	var finished *model.ExamResult
	if e.state.RemainingSeconds == 0 {
		var done []Event
		done, finished = e.completeLocked(model.CompletionExpired)
		events = append(events, done...)
	}
	e.unlockAndEmit(events)

	e.persist(finished)
}

// Submit ends the session with cause MANUAL and returns the result.
// After completion it returns the existing result without emitting anything.
func (e *Engine) Submit() (*model.ExamResult, error) {
	e.mu.Lock()
	switch e.state.Status {
	case model.SessionStatusNotStarted:
		e.mu.Unlock()
		return nil, ErrInvalidState
	case model.SessionStatusCompleted:
		res := e.result
		e.mu.Unlock()
		return res, nil
	}

	events, finished := e.completeLocked(model.CompletionManual)
	res := e.result
	e.unlockAndEmit(events)

	e.persist(finished)
	return res, nil
}

// completeLocked performs the terminal transition. Only the caller that flips the latch does any work.
// The returned result must be passed to persist once the completion event has been delivered.
func (e *Engine) completeLocked(cause model.CompletionCause) ([]Event, *model.ExamResult) {
	if !e.latched.CompareAndSwap(false, true) {
		return nil, nil
	}

	e.clock.Cancel()
	e.state.Status = model.SessionStatusCompleted

	timeSpent := e.exam.DurationSeconds() - e.state.RemainingSeconds
	if timeSpent < 0 {
		timeSpent = 0
	}

	answers := copyAnswers(e.state.Answers)
	out := e.scorer.Score(e.exam, answers)

	e.result = &model.ExamResult{
		ID:               uuid.New(),
		ExamID:           e.exam.ID,
		ExamTitle:        e.exam.Title,
		StudentID:        e.studentID,
		Score:            out.Score,
		CorrectCount:     out.CorrectCount,
		TotalQuestions:   out.TotalQuestions,
		TimeSpentSeconds: timeSpent,
		Answers:          answers,
		Cause:            cause,
		CompletedAt:      e.now(),
	}

	e.log.Info().
		Str("exam_id", e.exam.ID.String()).
		Int("student_id", e.studentID).
		Str("cause", string(cause)).
		Int("score", out.Score).
		Int("correct", out.CorrectCount).
		Int("total", out.TotalQuestions).
		Int("time_spent_seconds", timeSpent).
		Msg("Exam session completed")

	var finished *model.ExamResult
	if e.sink != nil {
		e.pending.Add(1)
		finished = e.result
	}

	return []Event{CompletionEvent{
		Result:    e.result,
		Band:      scoring.BandFor(out.Score),
		TimeSpent: scoring.FormatTimeSpent(timeSpent),
	}}, finished
}

// persist hands the result to the sink without blocking the caller.
// The pending count was taken in completeLocked.
func (e *Engine) persist(result *model.ExamResult) {
	if result == nil {
		return
	}

	go func() {
		defer e.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), e.saveTimeout)
		defer cancel()

		if err := e.sink.Save(ctx, result); err != nil {
			w := &PersistenceWarning{ResultID: result.ID, ExamID: result.ExamID, Err: err}
			e.log.Warn().Err(err).
				Str("result_id", result.ID.String()).
				Str("exam_id", result.ExamID.String()).
				Msg("Result save failed, score stands")

			e.emitMu.Lock()
			defer e.emitMu.Unlock()
			e.emit([]Event{WarningEvent{Warning: w}})
		}
	}()
}

// Wait blocks until in-flight result saves have returned.
func (e *Engine) Wait() {
	e.pending.Wait()
}

// Abandon stops the clock of an unfinished session without producing a result.
func (e *Engine) Abandon() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Status == model.SessionStatusActive {
		e.clock.Cancel()
	}
}

// Snapshot returns a read-only view of the session.
func (e *Engine) Snapshot() model.SessionSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := model.SessionSnapshot{
		Status:           e.state.Status,
		CurrentIndex:     e.state.CurrentIndex,
		RemainingSeconds: e.state.RemainingSeconds,
	}
	if e.exam == nil {
		return snap
	}
	snap.TotalQuestions = len(e.exam.Questions)
	if len(e.exam.Questions) > 0 {
		snap.CurrentQuestion = e.exam.Questions[e.state.CurrentIndex].ForStudent(e.state.CurrentIndex)
		snap.SelectedOption = copyInt(e.state.Answers[e.state.CurrentIndex])
	}
	return snap
}

// Session returns a copy of the full session state.
func (e *Engine) Session() model.ExamSession {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.state
	s.Answers = copyAnswers(e.state.Answers)
	return s
}

// Result returns the result once the session has completed.
func (e *Engine) Result() (*model.ExamResult, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.result, e.result != nil
}

func (e *Engine) Status() model.SessionStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Status
}

func (e *Engine) CurrentIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.CurrentIndex
}

func (e *Engine) navigationEventLocked() NavigationEvent {
	i := e.state.CurrentIndex
	return NavigationEvent{
		Index:          i,
		Question:       e.exam.Questions[i].ForStudent(i),
		SelectedOption: copyInt(e.state.Answers[i]),
	}
}

// unlockAndEmit releases mu and delivers events. The caller must hold mu.
func (e *Engine) unlockAndEmit(events []Event) {
	e.emitMu.Lock()
	e.mu.Unlock()
	defer e.emitMu.Unlock()
	e.emit(events)
}

// emit calls observers in order. The caller must hold emitMu.
func (e *Engine) emit(events []Event) {
	for _, ev := range events {
		for _, o := range e.observers {
			o.OnEvent(ev)
		}
	}
}

func copyAnswers(src []*int) []*int {
	dst := make([]*int, len(src))
	for i, a := range src {
		dst[i] = copyInt(a)
	}
	return dst
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
