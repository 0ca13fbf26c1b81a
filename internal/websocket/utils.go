package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stemsi/exstem-portal/internal/model"
	"github.com/stemsi/exstem-portal/internal/response"
	"github.com/stemsi/exstem-portal/internal/scoring"
	"github.com/stemsi/exstem-portal/internal/session"
)

const (
	writeWait = 10 * time.Second
	readWait  = 5 * time.Minute
)

// Conn serializes writes to a gorilla connection. Session events arrive from the
// clock goroutine while the read loop answers client actions.
type Conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func NewConn(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

// WriteTyped sends a strongly-typed response payload over the WebSocket.
func (c *Conn) WriteTyped(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(v)
}

// WriteError sends a typed ErrorResponse over the WebSocket.
func (c *Conn) WriteError(code response.ErrCode) error {
	return c.WriteTyped(ErrorResponse{
		Event:   EventError,
		Code:    code,
		Message: response.GetMessage(code),
	})
}

// ReadJSON reads and decodes a message into the provided structure.
// It sets a read deadline.
func (c *Conn) ReadJSON(v interface{}) error {
	_ = c.ws.SetReadDeadline(time.Now().Add(readWait))
	return c.ws.ReadJSON(v)
}

// Close sends a normal close frame and closes the socket.
func (c *Conn) Close() error {
	c.mu.Lock()
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.mu.Unlock()
	return c.ws.Close()
}

// FromSessionEvent maps an engine event to its wire message. Unknown events map to nil.
func FromSessionEvent(ev session.Event) interface{} {
	switch e := ev.(type) {
	case session.StartedEvent:
		return StartedResponse{
			Event:            EventStarted,
			ExamID:           e.ExamID,
			TotalQuestions:   e.TotalQuestions,
			RemainingSeconds: e.RemainingSeconds,
		}
	case session.TickEvent:
		return TickResponse{Event: EventTick, RemainingSeconds: e.RemainingSeconds}
	case session.NavigationEvent:
		return NavigationResponse{
			Event:          EventNavigation,
			Index:          e.Index,
			Question:       e.Question,
			SelectedOption: e.SelectedOption,
		}
	case session.CompletionEvent:
		return CompletedResponse{
			Event:     EventCompleted,
			Result:    e.Result,
			Band:      e.Band,
			TimeSpent: e.TimeSpent,
		}
	case session.WarningEvent:
		return WarningResponse{
			Event:    EventWarning,
			Code:     response.ErrResultNotSaved,
			Message:  response.GetMessage(response.ErrResultNotSaved),
			ResultID: e.Warning.ResultID,
		}
	}
	return nil
}

// CompletedFromResult rebuilds the completion message for a session that already finished.
func CompletedFromResult(r *model.ExamResult) CompletedResponse {
	return CompletedResponse{
		Event:     EventCompleted,
		Result:    r,
		Band:      scoring.BandFor(r.Score),
		TimeSpent: scoring.FormatTimeSpent(r.TimeSpentSeconds),
	}
}
