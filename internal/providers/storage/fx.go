package storage

import (
	"context"
	"fmt"

	"github.com/smallbiznis/frontdesk/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Provide(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (Storage, error) {
	switch cfg.Storage.Backend {
	case config.StorageBackendGCS:
		s, err := NewGCSStorage(context.Background(), cfg.Storage.Bucket, cfg.Storage.CredentialsJSON)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{OnStop: func(context.Context) error { return s.Close() }})
		log.Info("storage.backend", zap.String("backend", s.Backend()), zap.String("bucket", cfg.Storage.Bucket))
		return s, nil
	case config.StorageBackendLocal, "":
		s, err := NewLocalStorage(cfg.Storage.Dir)
		if err != nil {
			return nil, err
		}
		log.Info("storage.backend", zap.String("backend", s.Backend()), zap.String("dir", s.root))
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}
}

var Module = fx.Module("storage",
	fx.Provide(Provide),
)
