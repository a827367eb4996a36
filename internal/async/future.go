// Package async provides awaitable load results and a main-thread work queue.
//
// Blocking work (network fetches, image and mesh decoding) runs on goroutines and is
// represented as a Future. Continuations that touch scene or GPU state are posted to a
// Dispatcher, which the render loop drains on the locked main thread.
package async

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrPanic wraps a panic recovered from a Go worker.
var ErrPanic = errors.New("async worker panicked")

// Future is the eventual result of one asynchronous operation.
// It completes exactly once, with either a value or an error.
type Future[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	err   error
}

// NewFuture returns an incomplete future and the function that completes it.
// Only the first call to complete has any effect.
func NewFuture[T any]() (*Future[T], func(T, error)) {
	f := &Future[T]{done: make(chan struct{})}
	return f, f.complete
}

// Go runs fn on a new goroutine and returns its future. A panic in fn fails the
// future with ErrPanic instead of crashing the process.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f, complete := NewFuture[T]()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				var zero T
				complete(zero, fmt.Errorf("%w: %v", ErrPanic, r))
			}
		}()
		complete(fn(ctx))
	}()
	return f
}

// Resolved returns a future already completed with v.
func Resolved[T any](v T) *Future[T] {
	f, complete := NewFuture[T]()
	complete(v, nil)
	return f
}

// Failed returns a future already completed with err.
func Failed[T any](err error) *Future[T] {
	f, complete := NewFuture[T]()
	var zero T
	complete(zero, err)
	return f
}

func (f *Future[T]) complete(v T, err error) {
	f.once.Do(func() {
		f.value = v
		f.err = err
		close(f.done)
	})
}

// Done is closed when the future completes.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the future completes or ctx is done.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Poll returns the result without blocking. ok is false while the future is pending.
func (f *Future[T]) Poll() (v T, err error, ok bool) {
	select {
	case <-f.done:
		return f.value, f.err, true
	default:
		var zero T
		return zero, nil, false
	}
}

// OnComplete posts fn to d once the future completes. fn therefore runs on the
// dispatcher's thread, never on the worker goroutine.
func OnComplete[T any](f *Future[T], d Dispatcher, fn func(T, error)) {
	go func() {
		<-f.done
		d.Post(func() { fn(f.value, f.err) })
	}()
}
