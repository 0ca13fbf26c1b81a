package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-portal/internal/clock"
	"github.com/stemsi/exstem-portal/internal/metrics"
	"github.com/stemsi/exstem-portal/internal/middleware"
	"github.com/stemsi/exstem-portal/internal/model"
	"github.com/stemsi/exstem-portal/internal/response"
	"github.com/stemsi/exstem-portal/internal/scoring"
	"github.com/stemsi/exstem-portal/internal/session"
	ws "github.com/stemsi/exstem-portal/internal/websocket"
)

const catalogTimeout = 5 * time.Second

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler runs one exam session per WebSocket connection.
type WSHandler struct {
	catalog  session.ExamCatalog
	sink     session.ResultSink
	scorer   scoring.Scorer
	metrics  *metrics.Metrics
	newClock func() clock.Clock
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// WSOption customizes a WSHandler.
type WSOption func(*WSHandler)

// WithClockFactory replaces the one-second ticker used for each session.
func WithClockFactory(f func() clock.Clock) WSOption {
	return func(h *WSHandler) { h.newClock = f }
}

// WithMetrics records session events on m.
func WithMetrics(m *metrics.Metrics) WSOption {
	return func(h *WSHandler) { h.metrics = m }
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(catalog session.ExamCatalog, sink session.ResultSink, log zerolog.Logger, allowedOrigins []string, opts ...WSOption) *WSHandler {
	h := &WSHandler{
		catalog:  catalog,
		sink:     sink,
		scorer:   scoring.NewDefault(),
		newClock: func() clock.Clock { return clock.NewTicker() },
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ExamSession godoc
// WS /ws/v1/exams/:exam_id/session?token=...
// Starts a timed session on connect. Closing the socket before completion abandons it.
func (h *WSHandler) ExamSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.NewConn(raw)
	defer conn.Close()

	wsLog := h.log.With().
		Int("student_id", claims.UserID).
		Str("exam_id", examID.String()).
		Logger()

	opts := []session.Option{
		session.WithStudentID(claims.UserID),
		session.WithObserver(session.ObserverFunc(func(ev session.Event) {
			if msg := ws.FromSessionEvent(ev); msg != nil {
				if err := conn.WriteTyped(msg); err != nil {
					wsLog.Debug().Err(err).Str("event", ev.Name()).Msg("Event write failed")
				}
			}
		})),
	}
	if h.metrics != nil {
		opts = append(opts, session.WithObserver(h.metrics.Observer()))
	}
	engine := session.New(h.newClock(), h.scorer, h.sink, wsLog, opts...)

	ctx, cancel := context.WithTimeout(c.Request.Context(), catalogTimeout)
	err = engine.StartFromCatalog(ctx, h.catalog, examID)
	cancel()
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			_ = conn.WriteError(response.ErrExamNotFound)
		} else {
			wsLog.Error().Err(err).Msg("Failed to start session")
			_ = conn.WriteError(response.ErrInternal)
		}
		return
	}

	defer func() {
		engine.Abandon()
		if engine.Status() == model.SessionStatusActive {
			wsLog.Info().Msg("Session abandoned")
			if h.metrics != nil {
				h.metrics.SessionAbandoned()
			}
		}
		engine.Wait()
	}()

	wsLog.Info().Msg("Student connected")

	for {
		var msg ws.RequestPayload
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		h.dispatch(conn, engine, &msg, wsLog)
	}
}

func (h *WSHandler) dispatch(conn *ws.Conn, engine *session.Engine, msg *ws.RequestPayload, wsLog zerolog.Logger) {
	switch msg.Action {
	case ws.ActionAnswer:
		if msg.Option == nil {
			_ = conn.WriteError(response.ErrInvalidPayload)
			return
		}
		engine.RecordAnswer(*msg.Option)
		_ = conn.WriteTyped(ws.StateResponse{Event: ws.EventState, State: engine.Snapshot()})

	case ws.ActionGoTo:
		if msg.Index == nil {
			_ = conn.WriteError(response.ErrInvalidPayload)
			return
		}
		engine.GoTo(*msg.Index)

	case ws.ActionNext:
		engine.Next()

	case ws.ActionPrev:
		engine.Prev()

	case ws.ActionSubmit:
		wasCompleted := engine.Status() == model.SessionStatusCompleted
		result, err := engine.Submit()
		if err != nil {
			_ = conn.WriteError(response.ErrSessionNotActive)
			return
		}
		if wasCompleted {
			_ = conn.WriteTyped(ws.CompletedFromResult(result))
		}

	case ws.ActionState:
		_ = conn.WriteTyped(ws.StateResponse{Event: ws.EventState, State: engine.Snapshot()})

	case ws.ActionPing:
		_ = conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})

	default:
		wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
		_ = conn.WriteError(response.ErrUnknownAction)
	}
}
