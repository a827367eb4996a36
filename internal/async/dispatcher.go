package async

import (
	"context"
	"sync"
)

// Dispatcher runs continuations on the thread that owns scene and GPU state.
type Dispatcher interface {
	// Post schedules fn and returns immediately.
	Post(fn func())
	// Call schedules fn and waits until it has run or ctx is done.
	Call(ctx context.Context, fn func()) error
}

// Queue is a Dispatcher drained explicitly by the owning thread, once per frame.
type Queue struct {
	mu      sync.Mutex
	pending []func()
	ready   chan struct{}
}

// NewQueue creates an empty main-thread queue.
func NewQueue() *Queue {
	return &Queue{ready: make(chan struct{}, 1)}
}

// Post schedules fn for the next Drain.
func (q *Queue) Post(fn func()) {
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Call schedules fn and blocks until a Drain has run it.
// It must not be called from the draining thread.
func (q *Queue) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	q.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ready signals that work has been posted since the last Drain.
func (q *Queue) Ready() <-chan struct{} {
	return q.ready
}

// Drain runs every queued function in post order and returns how many ran.
// Functions posted while draining run on the next Drain.
func (q *Queue) Drain() int {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, fn := range batch {
		fn()
	}
	return len(batch)
}

// Len returns the number of queued functions.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// RunUntil drains work as it arrives until done is closed or ctx ends, then drains
// once more so continuations posted just before done are not lost. It lets a
// goroutine other than the render loop act as the owning thread, as in headless runs.
func (q *Queue) RunUntil(ctx context.Context, done <-chan struct{}) error {
	for {
		select {
		case <-q.ready:
			q.Drain()
		case <-done:
			q.Drain()
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
