package session

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Domain errors
var (
	ErrInvalidState = errors.New("operation not valid in current session state")
	ErrNotFound     = errors.New("exam not found")
	ErrNilExam      = errors.New("exam is nil")
)

// PersistenceWarning reports that a result was scored but the sink failed to store it.
// It never invalidates the result that was already handed to the caller.
type PersistenceWarning struct {
	ResultID uuid.UUID
	ExamID   uuid.UUID
	Err      error
}

func (w *PersistenceWarning) Error() string {
	return fmt.Sprintf("save result %s for exam %s: %v", w.ResultID, w.ExamID, w.Err)
}

func (w *PersistenceWarning) Unwrap() error {
	return w.Err
}
