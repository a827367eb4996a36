package texture

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/matview/internal/async"
	"github.com/Faultbox/matview/internal/logger"
)

// Source loads raw bytes. *assets.Manager satisfies it.
type Source interface {
	Load(ctx context.Context, path string) ([]byte, error)
}

// Loader decodes textures on worker goroutines. Each path is loaded once; later
// requests share the first request's future, including its failure.
type Loader struct {
	ctx context.Context
	src Source
	log *zap.Logger

	mu    sync.Mutex
	cache map[string]*async.Future[image.Image]
}

// NewLoader creates a loader whose loads are cancelled with ctx.
func NewLoader(ctx context.Context, src Source) *Loader {
	return &Loader{
		ctx:   ctx,
		src:   src,
		log:   logger.Named("texture"),
		cache: make(map[string]*async.Future[image.Image]),
	}
}

// Load starts or joins the load of path. The image is converted to RGBA off the
// main thread. Failures are logged here and surface as the future's error.
func (l *Loader) Load(path string) *async.Future[image.Image] {
	l.mu.Lock()
	defer l.mu.Unlock()

	if f, ok := l.cache[path]; ok {
		return f
	}
	f := async.Go(l.ctx, func(ctx context.Context) (image.Image, error) {
		start := time.Now()
		img, err := l.decode(ctx, path)
		if err != nil {
			l.log.Warn("texture load failed", zap.String("path", path), zap.Error(err))
			return nil, err
		}
		l.log.Debug("texture loaded",
			zap.String("path", path),
			zap.Int("width", img.Bounds().Dx()),
			zap.Int("height", img.Bounds().Dy()),
			zap.Duration("took", time.Since(start)),
		)
		return img, nil
	})
	l.cache[path] = f
	return f
}

func (l *Loader) decode(ctx context.Context, path string) (image.Image, error) {
	data, err := l.src.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	img, err := Decode(data, path)
	if err != nil {
		return nil, err
	}
	if _, ok := img.(*HDR); ok {
		return img, nil
	}
	return ToRGBA(img), nil
}

// LoadHDR loads a Radiance environment map. HDR maps are not cached.
func (l *Loader) LoadHDR(path string) *async.Future[*HDR] {
	return async.Go(l.ctx, func(ctx context.Context) (*HDR, error) {
		img, err := l.decode(ctx, path)
		if err != nil {
			l.log.Warn("environment map load failed", zap.String("path", path), zap.Error(err))
			return nil, err
		}
		hdr, ok := img.(*HDR)
		if !ok {
			return nil, fmt.Errorf("%s is not a Radiance HDR image", path)
		}
		return hdr, nil
	})
}

// Len returns the number of distinct paths requested.
func (l *Loader) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.cache)
}
