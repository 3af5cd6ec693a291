package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/carboni123/nanobanana/internal/domain/apikey"
	"github.com/carboni123/nanobanana/internal/domain/usage"
	"github.com/carboni123/nanobanana/internal/handler/dto"
	"github.com/carboni123/nanobanana/internal/ierr"
	"github.com/carboni123/nanobanana/internal/storage/memstorage"
)

type usageFixture struct {
	keys    *memstorage.APIKeyRepository
	ledger  *memstorage.UsageRepository
	svc     *UsageService
	ownerID uuid.UUID
}

func newUsageFixture(t *testing.T) *usageFixture {
	t.Helper()
	keys := memstorage.NewAPIKeyRepository()
	ledger := memstorage.NewUsageRepository(keys)
	return &usageFixture{
		keys:    keys,
		ledger:  ledger,
		svc:     NewUsageService(ledger, zap.NewNop()),
		ownerID: uuid.New(),
	}
}

func (f *usageFixture) addKey(t *testing.T, name string, active bool) *apikey.APIKey {
	t.Helper()
	created, err := f.keys.Create(context.Background(), &apikey.APIKey{
		UserID:   f.ownerID,
		KeyHash:  "hash-" + uuid.NewString(),
		Name:     name,
		Prefix:   "nb_live_",
		IsActive: active,
	})
	require.NoError(t, err)
	return created
}

func TestGetSummary(t *testing.T) {
	f := newUsageFixture(t)
	ctx := context.Background()
	today := usage.Day(time.Now())

	busy := f.addKey(t, "busy", true)
	idle := f.addKey(t, "idle", true)
	f.addKey(t, "revoked", false)

	require.NoError(t, f.ledger.Increment(ctx, busy.ID, today, 7))
	require.NoError(t, f.ledger.Increment(ctx, idle.ID, today, 2))

	resp, err := f.svc.GetSummary(ctx, f.ownerID)
	require.NoError(t, err)

	assert.Equal(t, int64(9), resp.TotalImages)
	assert.Equal(t, int64(3), resp.TotalKeys)
	assert.Equal(t, int64(2), resp.ActiveKeys)
	require.Len(t, resp.TopKeys, 3)
	assert.Equal(t, busy.ID, resp.TopKeys[0].KeyID)
	assert.Equal(t, "busy", resp.TopKeys[0].KeyName)
	assert.Equal(t, int64(7), resp.TopKeys[0].ImageCount)
}

func TestGetSummary_EmptyAccount(t *testing.T) {
	f := newUsageFixture(t)

	resp, err := f.svc.GetSummary(context.Background(), f.ownerID)
	require.NoError(t, err)

	assert.Zero(t, resp.TotalImages)
	assert.Zero(t, resp.TotalKeys)
	assert.Empty(t, resp.TopKeys)
}

func TestGetDaily_WindowAndFormat(t *testing.T) {
	f := newUsageFixture(t)
	ctx := context.Background()
	key := f.addKey(t, "k", true)

	today := usage.Day(time.Now())
	yesterday := today.AddDate(0, 0, -1)
	ancient := today.AddDate(0, 0, -40)

	require.NoError(t, f.ledger.Increment(ctx, key.ID, today, 3))
	require.NoError(t, f.ledger.Increment(ctx, key.ID, yesterday, 1))
	require.NoError(t, f.ledger.Increment(ctx, key.ID, ancient, 50))

	// Default 30-day window excludes the 40-day-old record.
	resp, err := f.svc.GetDaily(ctx, f.ownerID, 0)
	require.NoError(t, err)
	require.Len(t, resp.Days, 2)
	assert.Equal(t, dto.FormatUsageDate(today), resp.Days[0].UsageDate)
	assert.Equal(t, int64(3), resp.Days[0].ImageCount)
	assert.Equal(t, dto.FormatUsageDate(yesterday), resp.Days[1].UsageDate)

	// A wide enough window picks it up; requests beyond the max are clamped
	// rather than rejected.
	resp, err = f.svc.GetDaily(ctx, f.ownerID, 100000)
	require.NoError(t, err)
	assert.Len(t, resp.Days, 3)
}

func TestGetKeyUsage(t *testing.T) {
	f := newUsageFixture(t)
	ctx := context.Background()
	key := f.addKey(t, "prod", true)
	today := usage.Day(time.Now())

	require.NoError(t, f.ledger.Increment(ctx, key.ID, today, 4))

	resp, err := f.svc.GetKeyUsage(ctx, key.ID, f.ownerID)
	require.NoError(t, err)
	assert.Equal(t, key.ID, resp.KeyID)
	assert.Equal(t, "prod", resp.KeyName)
	assert.Equal(t, int64(4), resp.TotalImages)
	require.Len(t, resp.DailyUsage, 1)
	assert.Equal(t, dto.FormatUsageDate(today), resp.DailyUsage[0].UsageDate)

	// Unknown key and someone else's key look the same.
	_, err = f.svc.GetKeyUsage(ctx, uuid.New(), f.ownerID)
	assert.ErrorIs(t, err, ierr.ErrNotFound)
	_, err = f.svc.GetKeyUsage(ctx, key.ID, uuid.New())
	assert.ErrorIs(t, err, ierr.ErrNotFound)
}
