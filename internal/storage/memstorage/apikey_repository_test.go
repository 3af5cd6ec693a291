package memstorage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carboni123/nanobanana/internal/domain/apikey"
	"github.com/carboni123/nanobanana/internal/ierr"
)

func TestAPIKeyRepository_CreateAndFindByHash(t *testing.T) {
	repo := NewAPIKeyRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, &apikey.APIKey{
		UserID:   uuid.New(),
		KeyHash:  "hash-1",
		Name:     "test key",
		Prefix:   "nb_live_",
		IsActive: true,
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)

	found, err := repo.FindByHash(ctx, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = repo.FindByHash(ctx, "no-such-hash")
	assert.ErrorIs(t, err, ierr.ErrAPIKeyNotFound)
}

func TestAPIKeyRepository_DuplicateHashConflicts(t *testing.T) {
	repo := NewAPIKeyRepository()
	ctx := context.Background()

	_, err := repo.Create(ctx, &apikey.APIKey{UserID: uuid.New(), KeyHash: "same", IsActive: true})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &apikey.APIKey{UserID: uuid.New(), KeyHash: "same", IsActive: true})
	assert.ErrorIs(t, err, ierr.ErrConflict)
}

func TestAPIKeyRepository_Revoke(t *testing.T) {
	repo := NewAPIKeyRepository()
	ctx := context.Background()
	owner := uuid.New()

	key, err := repo.Create(ctx, &apikey.APIKey{UserID: owner, KeyHash: "h", IsActive: true})
	require.NoError(t, err)

	// A different owner cannot revoke, and the key stays active.
	revoked, err := repo.Revoke(ctx, key.ID, uuid.New())
	require.NoError(t, err)
	assert.False(t, revoked)

	found, err := repo.FindByHash(ctx, "h")
	require.NoError(t, err)
	assert.True(t, found.IsActive)

	revoked, err = repo.Revoke(ctx, key.ID, owner)
	require.NoError(t, err)
	assert.True(t, revoked)

	found, err = repo.FindByHash(ctx, "h")
	require.NoError(t, err)
	assert.False(t, found.IsActive)

	// Unknown key is indistinguishable from not-owned.
	revoked, err = repo.Revoke(ctx, uuid.New(), owner)
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestAPIKeyRepository_FindByUserNewestFirst(t *testing.T) {
	repo := NewAPIKeyRepository()
	ctx := context.Background()
	owner := uuid.New()

	for i := 0; i < 3; i++ {
		_, err := repo.Create(ctx, &apikey.APIKey{UserID: owner, KeyHash: uuid.NewString(), IsActive: true})
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}
	_, err := repo.Create(ctx, &apikey.APIKey{UserID: uuid.New(), KeyHash: uuid.NewString(), IsActive: true})
	require.NoError(t, err)

	keys, err := repo.FindByUser(ctx, owner)
	require.NoError(t, err)
	require.Len(t, keys, 3)
	for i := 1; i < len(keys); i++ {
		assert.False(t, keys[i].CreatedAt.After(keys[i-1].CreatedAt))
	}
}

func TestAPIKeyRepository_DisableExpired(t *testing.T) {
	repo := NewAPIKeyRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	expired, err := repo.Create(ctx, &apikey.APIKey{UserID: uuid.New(), KeyHash: "expired", IsActive: true, ExpiresAt: &past})
	require.NoError(t, err)
	fresh, err := repo.Create(ctx, &apikey.APIKey{UserID: uuid.New(), KeyHash: "fresh", IsActive: true, ExpiresAt: &future})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &apikey.APIKey{UserID: uuid.New(), KeyHash: "no-expiry", IsActive: true})
	require.NoError(t, err)

	affected, err := repo.DisableExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	found, err := repo.FindByHash(ctx, "expired")
	require.NoError(t, err)
	assert.False(t, found.IsActive)
	assert.Equal(t, expired.ID, found.ID)

	found, err = repo.FindByHash(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, found.IsActive)
	assert.Equal(t, fresh.ID, found.ID)
}
