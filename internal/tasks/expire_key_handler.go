package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/carboni123/nanobanana/internal/domain/apikey"
)

// APIKeyExpireHandler deactivates keys whose expires_at has passed. Keys
// without an expiry are never touched.
type APIKeyExpireHandler struct {
	repo   apikey.Repository
	logger *zap.Logger
}

func NewAPIKeyExpireHandler(repo apikey.Repository, logger *zap.Logger) *APIKeyExpireHandler {
	return &APIKeyExpireHandler{
		repo:   repo,
		logger: logger.Named("APIKeyExpireHandler"),
	}
}

func (h *APIKeyExpireHandler) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	now := time.Now().UTC()

	affected, err := h.repo.DisableExpired(ctx, now)
	if err != nil {
		h.logger.Error("Failed to disable expired api keys", zap.Error(err))
		return fmt.Errorf("disabling expired api keys: %w", err)
	}

	if affected > 0 {
		h.logger.Info("Disabled expired api keys", zap.Int64("count", affected))
	} else {
		h.logger.Debug("No expired api keys found")
	}

	return nil
}
