package viewer

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Faultbox/matview/internal/async"
	"github.com/Faultbox/matview/internal/engine/scene"
	"github.com/Faultbox/matview/internal/logger"
)

// ModelLoader starts an asynchronous model load. *loader.GLTFLoader satisfies it.
type ModelLoader interface {
	Load(ctx context.Context, path string) *async.Future[*scene.Model]
}

// Sequencer loads the queue strictly in order. Each model is loaded, awaited, and
// handed to add on the main thread; the next load starts only after that add has
// run. finalize runs on the main thread once, after the last add.
type Sequencer struct {
	queue    *ModelQueue
	loader   ModelLoader
	dispatch async.Dispatcher
	add      func(*scene.Model)
	finalize func()
	log      *zap.Logger

	done   atomic.Int32
	failed atomic.Int32
}

// NewSequencer creates a sequencer. add and finalize run through d.
func NewSequencer(q *ModelQueue, l ModelLoader, d async.Dispatcher, add func(*scene.Model), finalize func()) *Sequencer {
	return &Sequencer{
		queue:    q,
		loader:   l,
		dispatch: d,
		add:      add,
		finalize: finalize,
		log:      logger.Named("sequencer"),
	}
}

// Run processes the whole queue. A model that fails to load is logged and replaced
// by a placeholder so the queue never stalls. Only context cancellation stops the
// run early.
func (s *Sequencer) Run(ctx context.Context) error {
	for {
		p, ok := s.queue.Next()
		if !ok {
			break
		}

		m, err := s.loader.Load(ctx, p).Await(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Error("model load failed, adding placeholder", zap.String("path", p), zap.Error(err))
			m = scene.Placeholder(p)
			s.failed.Add(1)
		}

		if err := s.dispatch.Call(ctx, func() { s.add(m) }); err != nil {
			return err
		}
		s.done.Add(1)
	}

	s.log.Info("model queue complete",
		zap.Int32("loaded", s.done.Load()-s.failed.Load()),
		zap.Int32("failed", s.failed.Load()),
	)
	return s.dispatch.Call(ctx, s.finalize)
}

// Progress returns how many queue entries have been added to the scene.
func (s *Sequencer) Progress() (done, total int) {
	return int(s.done.Load()), s.queue.Len()
}

// Failed returns how many entries were replaced by placeholders.
func (s *Sequencer) Failed() int {
	return int(s.failed.Load())
}
