package websocket

import (
	"github.com/google/uuid"
	"github.com/stemsi/exstem-portal/internal/model"
	"github.com/stemsi/exstem-portal/internal/response"
	"github.com/stemsi/exstem-portal/internal/scoring"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer Action = "answer"
	ActionGoTo   Action = "goto"
	ActionNext   Action = "next"
	ActionPrev   Action = "prev"
	ActionSubmit Action = "submit"
	ActionState  Action = "state"
	ActionPing   Action = "ping"
)

// RequestPayload is every client message. Option is set for answer, Index for goto.
type RequestPayload struct {
	Action Action `json:"action"`
	Option *int   `json:"option,omitempty"`
	Index  *int   `json:"index,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventStarted    Event = "started"
	EventState      Event = "state"
	EventTick       Event = "tick"
	EventNavigation Event = "navigation"
	EventCompleted  Event = "completed"
	EventWarning    Event = "warning"
	EventError      Event = "error"
	EventPong       Event = "pong"
)

type StartedResponse struct {
	Event            Event     `json:"event"`
	ExamID           uuid.UUID `json:"exam_id"`
	TotalQuestions   int       `json:"total_questions"`
	RemainingSeconds int       `json:"remaining_seconds"`
}

type StateResponse struct {
	Event Event                 `json:"event"`
	State model.SessionSnapshot `json:"state"`
}

type TickResponse struct {
	Event            Event `json:"event"`
	RemainingSeconds int   `json:"remaining_seconds"`
}

type NavigationResponse struct {
	Event          Event                     `json:"event"`
	Index          int                       `json:"index"`
	Question       *model.QuestionForStudent `json:"question"`
	SelectedOption *int                      `json:"selected_option"`
}

type CompletedResponse struct {
	Event     Event             `json:"event"`
	Result    *model.ExamResult `json:"result"`
	Band      scoring.Band      `json:"band"`
	TimeSpent string            `json:"time_spent"`
}

type WarningResponse struct {
	Event    Event            `json:"event"`
	Code     response.ErrCode `json:"code"`
	Message  string           `json:"message"`
	ResultID uuid.UUID        `json:"result_id"`
}

type ErrorResponse struct {
	Event   Event            `json:"event"`
	Code    response.ErrCode `json:"code"`
	Message string           `json:"message"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
