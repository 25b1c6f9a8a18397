package snapshot

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazaar/internal/domain/service"
	"bazaar/internal/errors"
)

func TestMigrateLegacySession_NoLegacyKeys(t *testing.T) {
	s := NewMemory(newDiscardLogger())
	ctx := context.Background()

	require.NoError(t, MigrateLegacySession(ctx, s, newDiscardLogger()))

	// Nothing was created.
	_, err := s.Load(ctx, service.SnapshotKeySession)
	assert.True(t, errors.Is(err, service.ErrSnapshotNotFound))
}

func TestMigrateLegacySession_FoldsTokensAndRemovesLegacyKeys(t *testing.T) {
	s := NewMemory(newDiscardLogger())
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, service.LegacyKeyAccessToken, []byte("legacy-access")))
	require.NoError(t, s.Save(ctx, service.LegacyKeyRefreshToken, []byte(`"legacy-refresh"`)))

	require.NoError(t, MigrateLegacySession(ctx, s, newDiscardLogger()))

	data, err := s.Load(ctx, service.SnapshotKeySession)
	require.NoError(t, err)

	var blob map[string]any
	require.NoError(t, json.Unmarshal(data, &blob))
	assert.Equal(t, "legacy-access", blob["accessToken"])
	assert.Equal(t, "legacy-refresh", blob["refreshToken"])

	// One-time migration: the legacy keys are gone.
	_, err = s.Load(ctx, service.LegacyKeyAccessToken)
	assert.True(t, errors.Is(err, service.ErrSnapshotNotFound))
	_, err = s.Load(ctx, service.LegacyKeyRefreshToken)
	assert.True(t, errors.Is(err, service.ErrSnapshotNotFound))
}

func TestMigrateLegacySession_StructuredSnapshotWins(t *testing.T) {
	s := NewMemory(newDiscardLogger())
	ctx := context.Background()

	existing := map[string]any{
		"accessToken":     "structured-access",
		"refreshToken":    "structured-refresh",
		"isAuthenticated": true,
	}
	data, err := json.Marshal(existing)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, service.SnapshotKeySession, data))
	require.NoError(t, s.Save(ctx, service.LegacyKeyAccessToken, []byte("legacy-access")))

	require.NoError(t, MigrateLegacySession(ctx, s, newDiscardLogger()))

	migrated, err := s.Load(ctx, service.SnapshotKeySession)
	require.NoError(t, err)

	var blob map[string]any
	require.NoError(t, json.Unmarshal(migrated, &blob))
	assert.Equal(t, "structured-access", blob["accessToken"])
	assert.Equal(t, "structured-refresh", blob["refreshToken"])
	assert.Equal(t, true, blob["isAuthenticated"])

	_, err = s.Load(ctx, service.LegacyKeyAccessToken)
	assert.True(t, errors.Is(err, service.ErrSnapshotNotFound))
}
