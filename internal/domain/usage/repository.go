package usage

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	// Increment adds delta to the counter for (keyID, day), creating the
	// record if it does not exist. Concurrent calls for the same pair must
	// never lose an update or produce a duplicate record: the final count
	// equals the sum of all deltas.
	Increment(ctx context.Context, keyID uuid.UUID, day time.Time, delta int64) error

	// CountForDay returns 0 when no record exists.
	CountForDay(ctx context.Context, keyID uuid.UUID, day time.Time) (int64, error)

	// RangeForKey returns day counts within [from, to], newest first.
	RangeForKey(ctx context.Context, keyID uuid.UUID, from, to time.Time) ([]DayCount, error)

	// SummaryForOwner aggregates across all keys owned by userID, with a
	// top-N per-key breakdown.
	SummaryForOwner(ctx context.Context, userID uuid.UUID, topN int) (*OwnerSummary, error)

	// DailyForOwner returns per-day totals across all the user's keys
	// within [from, to], newest first.
	DailyForOwner(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]DayCount, error)

	// KeyUsage returns the usage detail for one key, or ierr.ErrNotFound
	// when the key does not exist or is not owned by userID.
	KeyUsage(ctx context.Context, keyID, userID uuid.UUID) (*KeyUsage, error)
}
