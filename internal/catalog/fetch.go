package catalog

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/matview/internal/assets"
	"github.com/Faultbox/matview/internal/logger"
)

// Source loads raw document bytes. *assets.Manager satisfies it.
type Source interface {
	Load(ctx context.Context, path string) ([]byte, error)
}

// Fetch issues a single load of the catalog at src and parses it.
// There is no retry; callers log the error and carry on without materials.
func Fetch(ctx context.Context, src Source, path string) (*Catalog, error) {
	start := time.Now()
	data, err := src.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("loading catalog %s: %w", path, err)
	}

	c, err := Parse(data, assets.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}

	logger.Named("catalog").Info("catalog loaded",
		zap.String("path", path),
		zap.Int("presets", c.Len()),
		zap.Duration("took", time.Since(start)),
	)
	return c, nil
}
