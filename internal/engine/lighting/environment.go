package lighting

import (
	"context"
	"path"

	"github.com/Faultbox/matview/internal/async"
	"github.com/Faultbox/matview/internal/engine/scene"
	"github.com/Faultbox/matview/internal/engine/texture"
)

// HDRLoader loads Radiance environment maps. *texture.Loader satisfies it.
type HDRLoader interface {
	LoadHDR(path string) *async.Future[*texture.HDR]
}

// LoadEnvironment starts loading an equirectangular HDR map.
func LoadEnvironment(ctx context.Context, l HDRLoader, p string, intensity float32) *async.Future[*scene.Environment] {
	hdr := l.LoadHDR(p)
	return async.Go(ctx, func(ctx context.Context) (*scene.Environment, error) {
		img, err := hdr.Await(ctx)
		if err != nil {
			return nil, err
		}
		return &scene.Environment{
			Name:      path.Base(p),
			Map:       img,
			Intensity: intensity,
		}, nil
	})
}
