// Package clock provides the periodic tick source that drives a session countdown.
package clock

import (
	"sync"
	"time"
)

// Clock delivers one tick per interval until cancelled.
// Cancel must be safe to call from inside onTick and more than once.
type Clock interface {
	Start(onTick func())
	Cancel()
}

// Ticker is the wall-clock implementation backed by time.Ticker.
type Ticker struct {
	interval time.Duration

	mu      sync.Mutex
	stop    chan struct{}
	stopped bool
}

// NewTicker returns a Ticker firing once per second.
func NewTicker() *Ticker {
	return NewTickerWithInterval(time.Second)
}

// NewTickerWithInterval returns a Ticker firing once per interval.
func NewTickerWithInterval(interval time.Duration) *Ticker {
	return &Ticker{interval: interval}
}

// Start launches the tick goroutine. Starting twice, or after Cancel, is a no-op.
func (t *Ticker) Start(onTick func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil || t.stopped {
		return
	}
	t.stop = make(chan struct{})

	go t.run(t.stop, onTick)
}

func (t *Ticker) run(stop <-chan struct{}, onTick func()) {
	tk := time.NewTicker(t.interval)
	defer tk.Stop()

	for {
		select {
		case <-stop:
			return
		case <-tk.C:
			// A cancel may race with the ticker channel; prefer stop.
			select {
			case <-stop:
				return
			default:
			}
			onTick()
		}
	}
}

// Cancel stops future ticks. It does not wait for an in-flight onTick to return.
func (t *Ticker) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.stopped = true
	if t.stop != nil {
		close(t.stop)
	}
}
