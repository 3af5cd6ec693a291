package dto

import (
	"time"

	"github.com/google/uuid"
)

type UsageSummaryResponse struct {
	TotalImages int64         `json:"total_images"`
	TotalKeys   int64         `json:"total_keys"`
	ActiveKeys  int64         `json:"active_keys"`
	TopKeys     []TopKeyUsage `json:"top_keys"`
}

type TopKeyUsage struct {
	KeyID      uuid.UUID `json:"key_id"`
	KeyName    string    `json:"key_name"`
	KeyPrefix  string    `json:"key_prefix"`
	ImageCount int64     `json:"image_count"`
}

type DailyUsageResponse struct {
	Days []DailyUsageEntry `json:"days"`
}

type DailyUsageEntry struct {
	UsageDate  string `json:"usage_date"`
	ImageCount int64  `json:"image_count"`
}

type KeyUsageResponse struct {
	KeyID       uuid.UUID         `json:"key_id"`
	KeyName     string            `json:"key_name"`
	KeyPrefix   string            `json:"key_prefix"`
	TotalImages int64             `json:"total_images"`
	DailyUsage  []DailyUsageEntry `json:"daily_usage"`
}

// UsageDateLayout renders calendar days without a time component.
const UsageDateLayout = "2006-01-02"

func FormatUsageDate(t time.Time) string {
	return t.UTC().Format(UsageDateLayout)
}
