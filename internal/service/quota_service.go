package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carboni123/nanobanana/internal/domain/usage"
)

// QuotaService gates metered operations against the per-key daily usage
// counter. All state lives in the ledger; nothing is cached in-process so
// every decision reflects the latest recorded count.
type QuotaService struct {
	ledger usage.Repository
	logger *zap.Logger
}

func NewQuotaService(ledger usage.Repository, logger *zap.Logger) *QuotaService {
	return &QuotaService{
		ledger: ledger,
		logger: logger.Named("QuotaService"),
	}
}

// CheckLimit reads today's count for the key. Pure read: safe to call
// speculatively before attempting the metered operation.
func (s *QuotaService) CheckLimit(ctx context.Context, keyID uuid.UUID, dailyLimit int64) (bool, int64, error) {
	current, err := s.ledger.CountForDay(ctx, keyID, time.Now())
	if err != nil {
		return false, 0, fmt.Errorf("ledger error reading daily count: %w", err)
	}
	return current < dailyLimit, current, nil
}

// RecordUse adds one unit of consumption for the key for the current day.
// Call it only after the metered operation has succeeded.
func (s *QuotaService) RecordUse(ctx context.Context, keyID uuid.UUID) error {
	if err := s.ledger.Increment(ctx, keyID, time.Now(), 1); err != nil {
		s.logger.Error("Failed to record usage", zap.String("api_key_id", keyID.String()), zap.Error(err))
		return fmt.Errorf("ledger error recording use: %w", err)
	}
	return nil
}
