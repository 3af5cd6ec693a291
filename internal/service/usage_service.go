package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carboni123/nanobanana/internal/domain/usage"
	"github.com/carboni123/nanobanana/internal/handler/dto"
)

const (
	// TopKeysLimit bounds the per-key breakdown in the owner summary.
	TopKeysLimit = 5

	DefaultDailyWindowDays = 30
	MaxDailyWindowDays     = 365
)

type UsageService struct {
	ledger usage.Repository
	logger *zap.Logger
}

func NewUsageService(ledger usage.Repository, logger *zap.Logger) *UsageService {
	return &UsageService{
		ledger: ledger,
		logger: logger.Named("UsageService"),
	}
}

func (s *UsageService) GetSummary(ctx context.Context, userID uuid.UUID) (*dto.UsageSummaryResponse, error) {
	summary, err := s.ledger.SummaryForOwner(ctx, userID, TopKeysLimit)
	if err != nil {
		s.logger.Error("Failed to aggregate usage summary", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, fmt.Errorf("ledger error aggregating summary: %w", err)
	}

	resp := &dto.UsageSummaryResponse{
		TotalImages: summary.TotalCount,
		TotalKeys:   summary.TotalKeys,
		ActiveKeys:  summary.ActiveKeys,
		TopKeys:     make([]dto.TopKeyUsage, len(summary.TopKeys)),
	}
	for i, kt := range summary.TopKeys {
		resp.TopKeys[i] = dto.TopKeyUsage{
			KeyID:      kt.KeyID,
			KeyName:    kt.KeyName,
			KeyPrefix:  kt.Prefix,
			ImageCount: kt.Count,
		}
	}
	return resp, nil
}

// GetDaily returns day totals for the trailing window of `days` days,
// clamped to [1, MaxDailyWindowDays].
func (s *UsageService) GetDaily(ctx context.Context, userID uuid.UUID, days int) (*dto.DailyUsageResponse, error) {
	if days < 1 {
		days = DefaultDailyWindowDays
	}
	if days > MaxDailyWindowDays {
		days = MaxDailyWindowDays
	}

	to := usage.Day(time.Now())
	from := to.AddDate(0, 0, -(days - 1))

	entries, err := s.ledger.DailyForOwner(ctx, userID, from, to)
	if err != nil {
		s.logger.Error("Failed to query daily usage", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, fmt.Errorf("ledger error querying daily usage: %w", err)
	}

	return &dto.DailyUsageResponse{Days: toDailyEntries(entries)}, nil
}

func (s *UsageService) GetKeyUsage(ctx context.Context, keyID, userID uuid.UUID) (*dto.KeyUsageResponse, error) {
	detail, err := s.ledger.KeyUsage(ctx, keyID, userID)
	if err != nil {
		// ierr.ErrNotFound passes through untouched so the handler can map
		// unknown and unowned keys to the same 404.
		return nil, err
	}

	return &dto.KeyUsageResponse{
		KeyID:       detail.KeyID,
		KeyName:     detail.KeyName,
		KeyPrefix:   detail.Prefix,
		TotalImages: detail.TotalCount,
		DailyUsage:  toDailyEntries(detail.Daily),
	}, nil
}

func toDailyEntries(entries []usage.DayCount) []dto.DailyUsageEntry {
	out := make([]dto.DailyUsageEntry, len(entries))
	for i, dc := range entries {
		out[i] = dto.DailyUsageEntry{
			UsageDate:  dto.FormatUsageDate(dc.Date),
			ImageCount: dc.Count,
		}
	}
	return out
}
