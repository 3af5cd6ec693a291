package memstorage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carboni123/nanobanana/internal/domain/apikey"
	"github.com/carboni123/nanobanana/internal/domain/usage"
	"github.com/carboni123/nanobanana/internal/ierr"
)

func newTestKey(t *testing.T, keyRepo *APIKeyRepository, userID uuid.UUID, name string) *apikey.APIKey {
	t.Helper()
	key, err := keyRepo.Create(context.Background(), &apikey.APIKey{
		UserID:   userID,
		KeyHash:  uuid.NewString(),
		Name:     name,
		Prefix:   "nb_live_",
		IsActive: true,
	})
	require.NoError(t, err)
	return key
}

func TestIncrement_ConcurrentSamePair(t *testing.T) {
	keyRepo := NewAPIKeyRepository()
	repo := NewUsageRepository(keyRepo)
	key := newTestKey(t, keyRepo, uuid.New(), "race key")

	const workers = 64
	today := time.Now()

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_ = repo.Increment(context.Background(), key.ID, today, 1)
		}()
	}
	wg.Wait()

	count, err := repo.CountForDay(context.Background(), key.ID, today)
	require.NoError(t, err)
	assert.Equal(t, int64(workers), count)
	assert.Equal(t, 1, repo.RecordCount(key.ID), "expected a single record per (key, day) pair")
}

func TestCountForDay_NoRecord(t *testing.T) {
	keyRepo := NewAPIKeyRepository()
	repo := NewUsageRepository(keyRepo)

	count, err := repo.CountForDay(context.Background(), uuid.New(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestRangeForKey_DescendingWithinWindow(t *testing.T) {
	keyRepo := NewAPIKeyRepository()
	repo := NewUsageRepository(keyRepo)
	key := newTestKey(t, keyRepo, uuid.New(), "range key")

	today := usage.Day(time.Now())
	ctx := context.Background()
	require.NoError(t, repo.Increment(ctx, key.ID, today.AddDate(0, 0, -2), 2))
	require.NoError(t, repo.Increment(ctx, key.ID, today.AddDate(0, 0, -1), 3))
	require.NoError(t, repo.Increment(ctx, key.ID, today, 5))
	require.NoError(t, repo.Increment(ctx, key.ID, today.AddDate(0, 0, -10), 7))

	entries, err := repo.RangeForKey(ctx, key.ID, today.AddDate(0, 0, -2), today)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, today, entries[0].Date)
	assert.Equal(t, int64(5), entries[0].Count)
	assert.Equal(t, int64(3), entries[1].Count)
	assert.Equal(t, int64(2), entries[2].Count)
}

func TestSummaryForOwner_NoCrossContamination(t *testing.T) {
	keyRepo := NewAPIKeyRepository()
	repo := NewUsageRepository(keyRepo)
	ctx := context.Background()

	ownerA, ownerB := uuid.New(), uuid.New()
	keyA := newTestKey(t, keyRepo, ownerA, "a key")
	keyB := newTestKey(t, keyRepo, ownerB, "b key")

	today := time.Now()
	require.NoError(t, repo.Increment(ctx, keyA.ID, today, 4))
	require.NoError(t, repo.Increment(ctx, keyB.ID, today, 9))

	summaryA, err := repo.SummaryForOwner(ctx, ownerA, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(4), summaryA.TotalCount)
	assert.Equal(t, int64(1), summaryA.TotalKeys)
	assert.Equal(t, int64(1), summaryA.ActiveKeys)
	require.Len(t, summaryA.TopKeys, 1)
	assert.Equal(t, keyA.ID, summaryA.TopKeys[0].KeyID)

	summaryB, err := repo.SummaryForOwner(ctx, ownerB, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(9), summaryB.TotalCount)
}

func TestSummaryForOwner_TopNLimit(t *testing.T) {
	keyRepo := NewAPIKeyRepository()
	repo := NewUsageRepository(keyRepo)
	ctx := context.Background()
	owner := uuid.New()

	today := time.Now()
	for i := 1; i <= 7; i++ {
		key := newTestKey(t, keyRepo, owner, "key")
		require.NoError(t, repo.Increment(ctx, key.ID, today, int64(i)))
	}

	summary, err := repo.SummaryForOwner(ctx, owner, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(28), summary.TotalCount)
	require.Len(t, summary.TopKeys, 5)
	assert.Equal(t, int64(7), summary.TopKeys[0].Count)
	assert.Equal(t, int64(3), summary.TopKeys[4].Count)
}

func TestKeyUsage_NotOwned(t *testing.T) {
	keyRepo := NewAPIKeyRepository()
	repo := NewUsageRepository(keyRepo)
	ctx := context.Background()

	owner, stranger := uuid.New(), uuid.New()
	key := newTestKey(t, keyRepo, owner, "private key")
	require.NoError(t, repo.Increment(ctx, key.ID, time.Now(), 3))

	_, err := repo.KeyUsage(ctx, key.ID, stranger)
	assert.ErrorIs(t, err, ierr.ErrNotFound)

	detail, err := repo.KeyUsage(ctx, key.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(3), detail.TotalCount)
	require.Len(t, detail.Daily, 1)
}
