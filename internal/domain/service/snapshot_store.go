package service

import (
	"context"

	"bazaar/internal/errors"
)

// Snapshot keys. The stores own their serialization; the adapter only moves
// opaque blobs under these keys.
const (
	// SnapshotKeySession is the durable key of the session projection.
	SnapshotKeySession = "session"
	// SnapshotKeyCart is the durable key of the cart projection.
	SnapshotKeyCart = "cart"

	// LegacyKeyAccessToken and LegacyKeyRefreshToken are plain token blobs
	// written by older releases outside the structured session snapshot.
	// They are folded into the session snapshot once at startup and removed.
	LegacyKeyAccessToken  = "accessToken"
	LegacyKeyRefreshToken = "refreshToken"
)

// ErrSnapshotNotFound is returned by Load when no snapshot exists under the
// requested key. Stores treat it as "start from the empty default".
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotStore persists whitelisted store projections to durable client
// storage. Persistence is a projection, not a second source of truth: when
// memory and snapshot disagree, memory wins and overwrites the snapshot on
// its next mutation.
type SnapshotStore interface {
	// Save writes the blob under the given key, replacing any prior value.
	Save(ctx context.Context, key string, data []byte) error

	// Load reads the blob under the given key. Returns ErrSnapshotNotFound
	// when the key does not exist.
	Load(ctx context.Context, key string) ([]byte, error)

	// Delete removes the key. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error
}
