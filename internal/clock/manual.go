package clock

import "sync"

// Manual is a Clock driven by explicit Advance calls. Ticks run synchronously on the caller's goroutine.
type Manual struct {
	mu        sync.Mutex
	onTick    func()
	started   bool
	cancelled bool
	cancels   int
}

// NewManual returns an unstarted Manual clock.
func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) Start(onTick func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return
	}
	m.started = true
	m.onTick = onTick
}

func (m *Manual) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancels++
	m.cancelled = true
}

// Advance fires up to n ticks, stopping early once the clock is cancelled.
// It returns the number of ticks delivered.
func (m *Manual) Advance(n int) int {
	fired := 0
	for i := 0; i < n; i++ {
		m.mu.Lock()
		if !m.started || m.cancelled {
			m.mu.Unlock()
			return fired
		}
		fn := m.onTick
		m.mu.Unlock()

		fn()
		fired++
	}
	return fired
}

// Started reports whether Start has been called.
func (m *Manual) Started() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

// Cancels returns how many times Cancel has been called.
func (m *Manual) Cancels() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancels
}
