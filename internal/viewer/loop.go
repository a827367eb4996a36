package viewer

import (
	"sync/atomic"
	"time"
)

// Loop is the render loop state. It is started once, after the model queue
// completes, and runs until the window closes.
type Loop struct {
	started atomic.Bool
	frames  atomic.Uint64
	start   time.Time
}

// Start marks the loop as running. Only the first call has an effect; it reports
// whether this call started the loop.
func (l *Loop) Start() bool {
	if !l.started.CompareAndSwap(false, true) {
		return false
	}
	l.start = time.Now()
	return true
}

// Started reports whether Start has been called.
func (l *Loop) Started() bool {
	return l.started.Load()
}

// Tick counts one drawn frame.
func (l *Loop) Tick() {
	l.frames.Add(1)
}

// Frames returns the number of drawn frames.
func (l *Loop) Frames() uint64 {
	return l.frames.Load()
}

// Uptime returns the time since the loop started.
func (l *Loop) Uptime() time.Duration {
	if !l.Started() {
		return 0
	}
	return time.Since(l.start)
}
