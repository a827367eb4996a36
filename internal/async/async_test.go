package async

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestFutureResolves(t *testing.T) {
	f := Go(context.Background(), func(context.Context) (int, error) {
		return 42, nil
	})

	v, err := f.Await(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 {
		t.Errorf("expected 42, got %d", v)
	}
}

func TestFutureFails(t *testing.T) {
	boom := errors.New("boom")
	f := Failed[string](boom)

	_, err := f.Await(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
}

func TestFutureCompletesOnce(t *testing.T) {
	f, complete := NewFuture[int]()
	complete(1, nil)
	complete(2, errors.New("late"))

	v, err, ok := f.Poll()
	if !ok {
		t.Fatal("expected completed future")
	}
	if v != 1 || err != nil {
		t.Errorf("expected first completion (1, nil), got (%d, %v)", v, err)
	}
}

func TestFuturePollPending(t *testing.T) {
	f, _ := NewFuture[int]()
	if _, _, ok := f.Poll(); ok {
		t.Error("expected pending future")
	}
}

func TestAwaitHonorsContext(t *testing.T) {
	f, _ := NewFuture[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Await(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestQueueDrainOrder(t *testing.T) {
	q := NewQueue()
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		q.Post(func() { order = append(order, i) })
	}

	if n := q.Drain(); n != 3 {
		t.Errorf("expected 3 drained, got %d", n)
	}
	if len(order) != 3 || order[0] != 0 || order[2] != 2 {
		t.Errorf("unexpected order %v", order)
	}
	if q.Len() != 0 {
		t.Errorf("expected empty queue, got %d", q.Len())
	}
}

func TestQueuePostDuringDrainDefers(t *testing.T) {
	q := NewQueue()
	ran := 0
	q.Post(func() {
		ran++
		q.Post(func() { ran++ })
	})

	q.Drain()
	if ran != 1 {
		t.Errorf("expected nested post deferred, ran=%d", ran)
	}
	q.Drain()
	if ran != 2 {
		t.Errorf("expected nested post on second drain, ran=%d", ran)
	}
}

func TestQueueCallWaitsForDrain(t *testing.T) {
	q := NewQueue()
	var ran atomic.Bool

	errCh := make(chan error, 1)
	go func() {
		errCh <- q.Call(context.Background(), func() { ran.Store(true) })
	}()

	select {
	case <-q.Ready():
	case <-time.After(time.Second):
		t.Fatal("call was never posted")
	}
	if ran.Load() {
		t.Fatal("call ran before drain")
	}
	q.Drain()

	if err := <-errCh; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ran.Load() {
		t.Error("expected call to have run")
	}
}

func TestQueueCallCancelled(t *testing.T) {
	q := NewQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := q.Call(ctx, func() {}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected canceled, got %v", err)
	}
}

func TestOnCompleteRunsOnDispatcher(t *testing.T) {
	q := NewQueue()
	f, complete := NewFuture[string]()

	got := make(chan string, 1)
	OnComplete(f, q, func(v string, err error) { got <- v })
	complete("texture.png", nil)

	select {
	case <-q.Ready():
	case <-time.After(time.Second):
		t.Fatal("continuation never posted")
	}
	select {
	case <-got:
		t.Fatal("continuation ran off the dispatcher")
	default:
	}

	q.Drain()
	if v := <-got; v != "texture.png" {
		t.Errorf("expected texture.png, got %s", v)
	}
}

func TestRunUntilPumpsWork(t *testing.T) {
	q := NewQueue()
	done := make(chan struct{})
	var calls atomic.Int32

	go func() {
		defer close(done)
		for i := 0; i < 5; i++ {
			if err := q.Call(context.Background(), func() { calls.Add(1) }); err != nil {
				t.Errorf("call %d: %v", i, err)
			}
		}
	}()

	if err := q.RunUntil(context.Background(), done); err != nil {
		t.Fatalf("RunUntil: %v", err)
	}
	if calls.Load() != 5 {
		t.Errorf("expected 5 calls, got %d", calls.Load())
	}
}

func TestGoRecoversPanic(t *testing.T) {
	f := Go(context.Background(), func(context.Context) (int, error) {
		var s []int
		return s[3], nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := f.Await(ctx)
	if !errors.Is(err, ErrPanic) {
		t.Fatalf("expected ErrPanic, got %v", err)
	}
}
