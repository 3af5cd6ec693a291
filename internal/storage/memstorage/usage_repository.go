package memstorage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carboni123/nanobanana/internal/domain/usage"
	"github.com/carboni123/nanobanana/internal/ierr"
)

type usagePair struct {
	keyID uuid.UUID
	day   time.Time
}

// UsageRepository is an in-memory usage.Repository used by tests. It joins
// against an APIKeyRepository for the owner-scoped aggregations, the way the
// postgres implementation joins api_keys.
type UsageRepository struct {
	mu      sync.RWMutex
	counts  map[usagePair]int64
	keyRepo *APIKeyRepository
}

func NewUsageRepository(keyRepo *APIKeyRepository) *UsageRepository {
	return &UsageRepository{
		counts:  make(map[usagePair]int64),
		keyRepo: keyRepo,
	}
}

var _ usage.Repository = (*UsageRepository)(nil)

func (r *UsageRepository) Increment(_ context.Context, keyID uuid.UUID, day time.Time, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	pair := usagePair{keyID: keyID, day: usage.Day(day)}
	r.counts[pair] += delta
	return nil
}

func (r *UsageRepository) CountForDay(_ context.Context, keyID uuid.UUID, day time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.counts[usagePair{keyID: keyID, day: usage.Day(day)}], nil
}

func (r *UsageRepository) RangeForKey(_ context.Context, keyID uuid.UUID, from, to time.Time) ([]usage.DayCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fromDay, toDay := usage.Day(from), usage.Day(to)
	entries := make([]usage.DayCount, 0)
	for pair, count := range r.counts {
		if pair.keyID == keyID && !pair.day.Before(fromDay) && !pair.day.After(toDay) {
			entries = append(entries, usage.DayCount{Date: pair.day, Count: count})
		}
	}
	sortDayCountsDesc(entries)
	return entries, nil
}

func (r *UsageRepository) SummaryForOwner(ctx context.Context, userID uuid.UUID, topN int) (*usage.OwnerSummary, error) {
	keys, err := r.keyRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	summary := &usage.OwnerSummary{TopKeys: make([]usage.KeyTotal, 0)}
	summary.TotalKeys = int64(len(keys))

	totals := make([]usage.KeyTotal, 0, len(keys))
	for _, key := range keys {
		if key.IsActive {
			summary.ActiveKeys++
		}
		var keyTotal int64
		for pair, count := range r.counts {
			if pair.keyID == key.ID {
				keyTotal += count
			}
		}
		summary.TotalCount += keyTotal
		totals = append(totals, usage.KeyTotal{
			KeyID:   key.ID,
			KeyName: key.Name,
			Prefix:  key.Prefix,
			Count:   keyTotal,
		})
	}

	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].Count > totals[j].Count
	})
	if len(totals) > topN {
		totals = totals[:topN]
	}
	summary.TopKeys = totals

	return summary, nil
}

func (r *UsageRepository) DailyForOwner(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]usage.DayCount, error) {
	keys, err := r.keyRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	owned := make(map[uuid.UUID]bool, len(keys))
	for _, key := range keys {
		owned[key.ID] = true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	fromDay, toDay := usage.Day(from), usage.Day(to)
	byDay := make(map[time.Time]int64)
	for pair, count := range r.counts {
		if owned[pair.keyID] && !pair.day.Before(fromDay) && !pair.day.After(toDay) {
			byDay[pair.day] += count
		}
	}

	entries := make([]usage.DayCount, 0, len(byDay))
	for day, count := range byDay {
		entries = append(entries, usage.DayCount{Date: day, Count: count})
	}
	sortDayCountsDesc(entries)
	return entries, nil
}

func (r *UsageRepository) KeyUsage(ctx context.Context, keyID, userID uuid.UUID) (*usage.KeyUsage, error) {
	keys, err := r.keyRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var owned bool
	detail := &usage.KeyUsage{Daily: make([]usage.DayCount, 0)}
	for _, key := range keys {
		if key.ID == keyID {
			owned = true
			detail.KeyID = key.ID
			detail.KeyName = key.Name
			detail.Prefix = key.Prefix
			break
		}
	}
	if !owned {
		return nil, ierr.ErrNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for pair, count := range r.counts {
		if pair.keyID == keyID {
			detail.TotalCount += count
			detail.Daily = append(detail.Daily, usage.DayCount{Date: pair.day, Count: count})
		}
	}
	sortDayCountsDesc(detail.Daily)
	return detail, nil
}

// RecordCount reports how many distinct (key, day) records exist for keyID.
// Test helper for the one-record-per-pair invariant.
func (r *UsageRepository) RecordCount(keyID uuid.UUID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for pair := range r.counts {
		if pair.keyID == keyID {
			n++
		}
	}
	return n
}

func sortDayCountsDesc(entries []usage.DayCount) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Date.After(entries[j].Date)
	})
}
