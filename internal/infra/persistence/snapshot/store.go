// Package snapshot implements the SnapshotStore contract over gocloud.dev
// blob buckets: a file bucket for durable client storage, a memory bucket
// for tests and ephemeral runs.
package snapshot

import (
	"context"
	"log/slog"
	"os"

	"go.uber.org/fx"
	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	"gocloud.dev/blob/memblob"
	"gocloud.dev/gcerrors"

	"bazaar/config"
	"bazaar/internal/domain/service"
	"bazaar/internal/errors"
)

const (
	providerFile = "file"
	providerMem  = "mem"
)

type store struct {
	bucket *blob.Bucket
	logger *slog.Logger
}

// Params holds dependencies for the snapshot store, injected by Fx.
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// New opens the configured bucket and registers its shutdown hook.
func New(params Params) (service.SnapshotStore, error) {
	bucket, err := openBucket(params.Config.Storage)
	if err != nil {
		return nil, err
	}

	params.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return errors.WithStack(bucket.Close())
		},
	})

	return &store{bucket: bucket, logger: params.Logger}, nil
}

// NewMemory returns a memory-backed store for tests.
func NewMemory(logger *slog.Logger) service.SnapshotStore {
	return &store{bucket: memblob.OpenBucket(nil), logger: logger}
}

func openBucket(cfg *config.StorageConfig) (*blob.Bucket, error) {
	if cfg == nil {
		return nil, errors.New("storage config is required")
	}

	switch cfg.Provider {
	case providerMem:
		return memblob.OpenBucket(nil), nil
	case providerFile, "":
		if err := os.MkdirAll(cfg.Path, 0o700); err != nil {
			return nil, errors.Wrap(err, "failed to create storage directory")
		}
		bucket, err := fileblob.OpenBucket(cfg.Path, nil)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open file bucket")
		}

		return bucket, nil
	default:
		return nil, errors.Errorf("unknown storage provider: %s", cfg.Provider)
	}
}

// Save writes the blob under the given key, replacing any prior value.
func (s *store) Save(ctx context.Context, key string, data []byte) error {
	if err := s.bucket.WriteAll(ctx, key, data, nil); err != nil {
		return errors.Wrapf(err, "failed to write snapshot %s", key)
	}
	s.logger.Debug("Snapshot saved", slog.String("key", key), slog.Int("bytes", len(data)))

	return nil
}

// Load reads the blob under the given key.
func (s *store) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.bucket.ReadAll(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, errors.Wrapf(service.ErrSnapshotNotFound, "no snapshot under %s", key)
		}

		return nil, errors.Wrapf(err, "failed to read snapshot %s", key)
	}

	return data, nil
}

// Delete removes the key. Deleting an absent key is a no-op.
func (s *store) Delete(ctx context.Context, key string) error {
	if err := s.bucket.Delete(ctx, key); err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil
		}

		return errors.Wrapf(err, "failed to delete snapshot %s", key)
	}

	return nil
}
