package snapshot

import (
	"context"
	"encoding/json"
	"log/slog"

	"bazaar/internal/domain/service"
	"bazaar/internal/errors"
)

// MigrateLegacySession folds plain accessToken/refreshToken blobs written
// by older releases into the structured session snapshot, then removes the
// legacy keys. It runs once at startup, before rehydration; there is no
// ongoing dual-write. A structured snapshot that already carries tokens
// wins over the legacy values.
func MigrateLegacySession(ctx context.Context, snapshots service.SnapshotStore, logger *slog.Logger) error {
	access, accessFound := loadLegacyKey(ctx, snapshots, service.LegacyKeyAccessToken, logger)
	refresh, refreshFound := loadLegacyKey(ctx, snapshots, service.LegacyKeyRefreshToken, logger)
	if !accessFound && !refreshFound {
		return nil
	}

	logger.Info("Migrating legacy token keys into session snapshot")

	// Work on the raw JSON object so this migration stays decoupled from
	// the session projection's full shape.
	blob := map[string]any{}
	if data, err := snapshots.Load(ctx, service.SnapshotKeySession); err == nil {
		if err := json.Unmarshal(data, &blob); err != nil {
			logger.Warn("Malformed session snapshot during migration, rebuilding", slog.Any("error", err))
			blob = map[string]any{}
		}
	} else if !errors.Is(err, service.ErrSnapshotNotFound) {
		return errors.Wrap(err, "failed to load session snapshot for migration")
	}

	if stringValue(blob["accessToken"]) == "" && access != "" {
		blob["accessToken"] = access
	}
	if stringValue(blob["refreshToken"]) == "" && refresh != "" {
		blob["refreshToken"] = refresh
	}

	data, err := json.Marshal(blob)
	if err != nil {
		return errors.Wrap(err, "failed to marshal migrated session snapshot")
	}
	if err := snapshots.Save(ctx, service.SnapshotKeySession, data); err != nil {
		return errors.Wrap(err, "failed to save migrated session snapshot")
	}

	// Legacy keys are gone after a successful fold; this path never runs again.
	if err := snapshots.Delete(ctx, service.LegacyKeyAccessToken); err != nil {
		logger.Warn("Failed to delete legacy access token key", slog.Any("error", err))
	}
	if err := snapshots.Delete(ctx, service.LegacyKeyRefreshToken); err != nil {
		logger.Warn("Failed to delete legacy refresh token key", slog.Any("error", err))
	}

	return nil
}

func loadLegacyKey(ctx context.Context, snapshots service.SnapshotStore, key string, logger *slog.Logger) (string, bool) {
	data, err := snapshots.Load(ctx, key)
	if err != nil {
		if !errors.Is(err, service.ErrSnapshotNotFound) {
			logger.Warn("Failed to read legacy key", slog.String("key", key), slog.Any("error", err))
		}

		return "", false
	}

	// Older releases stored the bare token string, some JSON-quoted.
	var quoted string
	if err := json.Unmarshal(data, &quoted); err == nil {
		return quoted, true
	}

	return string(data), true
}

func stringValue(v any) string {
	s, _ := v.(string)

	return s
}
