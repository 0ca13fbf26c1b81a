package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-portal/internal/response"
)

const healthTimeout = 2 * time.Second

// Pinger is a dependency whose reachability is reported by /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// BacklogFunc reports the number of results waiting to be written.
type BacklogFunc func(ctx context.Context) (int64, error)

// SystemHandler reports process and dependency health.
type SystemHandler struct {
	deps      map[string]Pinger
	backlog   BacklogFunc
	startTime time.Time
	log       zerolog.Logger
}

func NewSystemHandler(deps map[string]Pinger, backlog BacklogFunc, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		deps:      deps,
		backlog:   backlog,
		startTime: time.Now(),
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

type healthStatus struct {
	Status       string            `json:"status"`
	Uptime       string            `json:"uptime"`
	Goroutines   int               `json:"goroutines"`
	Dependencies map[string]string `json:"dependencies"`
	QueueResults *int64            `json:"queue_results,omitempty"`
}

// Health godoc
// GET /health
// Returns 200 when every dependency answers, 503 otherwise.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	status := healthStatus{
		Status:       "ok",
		Uptime:       time.Since(h.startTime).Truncate(time.Second).String(),
		Goroutines:   runtime.NumGoroutine(),
		Dependencies: make(map[string]string, len(h.deps)),
	}

	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			h.log.Warn().Err(err).Str("dependency", name).Msg("Health check failed")
			status.Dependencies[name] = "down"
			status.Status = "degraded"
			continue
		}
		status.Dependencies[name] = "up"
	}

	if h.backlog != nil {
		if n, err := h.backlog(ctx); err == nil {
			status.QueueResults = &n
		}
	}

	code := http.StatusOK
	if status.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	response.Success(c, code, status)
}
