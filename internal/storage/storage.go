package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iamtanmay-ui/riftbattle-sub000/internal/config"
)

// ErrNotFound is returned by Load when no entry exists.
var ErrNotFound = errors.New("storage entry not found")

// Store persists named entries per browser profile, the server-side
// counterpart of the browser's local storage.
type Store interface {
	Load(ctx context.Context, profileID, key string) ([]byte, error)
	Save(ctx context.Context, profileID, key string, value []byte) error
	Delete(ctx context.Context, profileID, key string) error
	Close() error
}

// Pruner is implemented by stores that do not expire entries on their own.
type Pruner interface {
	Prune(ctx context.Context, maxAge time.Duration) (int64, error)
}

// Toucher is implemented by stores that track when a profile was last seen.
type Toucher interface {
	Touch(ctx context.Context, profileID string) error
}

// Open builds the store selected by STORAGE_DRIVER. Entries named in
// sealedKeys are encrypted at rest with the configured secret.
func Open(ctx context.Context, cfg *config.Config, sealedKeys ...string) (Store, error) {
	var (
		store Store
		err   error
	)

	switch cfg.StorageDriver {
	case "", "sqlite":
		store, err = OpenSQLite(cfg.DatabasePath)
	case "redis":
		store, err = OpenRedis(ctx, cfg.RedisAddr)
	case "postgres":
		store, err = OpenPostgres(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
	if err != nil {
		return nil, err
	}

	if len(sealedKeys) == 0 {
		return store, nil
	}
	return NewSealed(store, cfg.SecretKey, sealedKeys...), nil
}
