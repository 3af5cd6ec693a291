package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/carboni123/nanobanana/internal/domain/apikey"
	"github.com/carboni123/nanobanana/internal/handler/dto"
	"github.com/carboni123/nanobanana/internal/ierr"
	"github.com/carboni123/nanobanana/internal/storage/memstorage"
	"github.com/carboni123/nanobanana/internal/util"
)

func TestCreateAPIKey_ReturnsPlaintextOnce(t *testing.T) {
	repo := memstorage.NewAPIKeyRepository()
	svc := NewAPIKeyService(repo, zap.NewNop())
	ctx := context.Background()
	owner := uuid.New()

	resp, err := svc.CreateAPIKey(ctx, owner, &dto.CreateKeyRequest{Name: "ci key"})
	require.NoError(t, err)

	assert.Len(t, resp.Key, apikey.KeyTotalLen)
	assert.True(t, util.ValidKeyFormat(resp.Key))
	assert.Equal(t, resp.Key[:apikey.KeyDisplayLen], resp.Prefix)
	assert.Equal(t, "ci key", resp.Name)

	// The stored record carries only the hash; the plaintext is gone after
	// this response.
	stored, err := repo.FindByHash(ctx, util.HashAPIKey(resp.Key))
	require.NoError(t, err)
	assert.Equal(t, resp.ID, stored.ID)
	assert.NotEqual(t, resp.Key, stored.KeyHash)

	list, err := svc.ListAPIKeys(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list.Keys, 1)
	assert.Equal(t, resp.Prefix, list.Keys[0].Prefix)
}

func TestCreateAPIKey_DefaultName(t *testing.T) {
	svc := NewAPIKeyService(memstorage.NewAPIKeyRepository(), zap.NewNop())

	resp, err := svc.CreateAPIKey(context.Background(), uuid.New(), &dto.CreateKeyRequest{})
	require.NoError(t, err)
	assert.Equal(t, apikey.DefaultKeyName, resp.Name)
}

func TestRevokeAPIKey_OwnershipEnforced(t *testing.T) {
	repo := memstorage.NewAPIKeyRepository()
	svc := NewAPIKeyService(repo, zap.NewNop())
	ctx := context.Background()
	owner := uuid.New()

	resp, err := svc.CreateAPIKey(ctx, owner, &dto.CreateKeyRequest{})
	require.NoError(t, err)

	// A stranger revoking gets the same not-found as a bogus id.
	err = svc.RevokeAPIKey(ctx, resp.ID, uuid.New())
	assert.ErrorIs(t, err, ierr.ErrNotFound)
	err = svc.RevokeAPIKey(ctx, uuid.New(), owner)
	assert.ErrorIs(t, err, ierr.ErrNotFound)

	stored, err := repo.FindByHash(ctx, util.HashAPIKey(resp.Key))
	require.NoError(t, err)
	assert.True(t, stored.IsActive)

	require.NoError(t, svc.RevokeAPIKey(ctx, resp.ID, owner))

	stored, err = repo.FindByHash(ctx, util.HashAPIKey(resp.Key))
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
}
