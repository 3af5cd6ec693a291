package usage

import (
	"time"

	"github.com/google/uuid"
)

// Record is the per-key per-day counter. At most one record exists per
// (APIKeyID, Date) pair; the storage layer enforces this under concurrent
// writers.
type Record struct {
	ID        uuid.UUID `db:"id"`
	APIKeyID  uuid.UUID `db:"api_key_id"`
	Date      time.Time `db:"usage_date"`
	Count     int64     `db:"image_count"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// DayCount is one entry of a daily breakdown.
type DayCount struct {
	Date  time.Time `db:"usage_date"`
	Count int64     `db:"image_count"`
}

// KeyTotal is one entry of a per-key usage ranking.
type KeyTotal struct {
	KeyID   uuid.UUID `db:"key_id"`
	KeyName string    `db:"key_name"`
	Prefix  string    `db:"prefix"`
	Count   int64     `db:"image_count"`
}

// OwnerSummary aggregates usage across all keys of one user.
type OwnerSummary struct {
	TotalCount int64
	TotalKeys  int64
	ActiveKeys int64
	TopKeys    []KeyTotal
}

// KeyUsage is the usage detail for a single key.
type KeyUsage struct {
	KeyID      uuid.UUID
	KeyName    string
	Prefix     string
	TotalCount int64
	Daily      []DayCount
}

// Day truncates t to a calendar date in UTC. All ledger operations use it
// so a key's counters roll over at the same instant everywhere.
func Day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
