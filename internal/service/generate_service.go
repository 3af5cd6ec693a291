package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carboni123/nanobanana/internal/domain/apikey"
	"github.com/carboni123/nanobanana/internal/generate"
	"github.com/carboni123/nanobanana/internal/handler/dto"
	"github.com/carboni123/nanobanana/internal/ierr"
	"github.com/carboni123/nanobanana/internal/metrics"
)

// GenerateService drives the metered image-generation flow: quota check,
// provider call, upload (with base64 fallback), then usage recording.
// Usage is recorded only after the provider call succeeds, so a failed
// generation never consumes quota.
type GenerateService struct {
	provider   generate.Provider
	uploader   generate.Uploader
	quota      *QuotaService
	dailyLimit int64
	logger     *zap.Logger
}

func NewGenerateService(provider generate.Provider, uploader generate.Uploader, quota *QuotaService, dailyLimit int64, logger *zap.Logger) *GenerateService {
	return &GenerateService{
		provider:   provider,
		uploader:   uploader,
		quota:      quota,
		dailyLimit: dailyLimit,
		logger:     logger.Named("GenerateService"),
	}
}

func (s *GenerateService) Generate(ctx context.Context, key *apikey.APIKey, req *dto.GenerateRequest) (*dto.GenerateResponse, error) {
	if s.dailyLimit > 0 {
		within, current, err := s.quota.CheckLimit(ctx, key.ID, s.dailyLimit)
		if err != nil {
			return nil, err
		}
		if !within {
			metrics.QuotaRejectedTotal.Inc()
			s.logger.Warn("Generation rejected by daily limit",
				zap.String("api_key_id", key.ID.String()),
				zap.Int64("current", current),
				zap.Int64("limit", s.dailyLimit),
			)
			return nil, ierr.ErrQuotaExceeded
		}
	}

	imageBytes, err := s.provider.Generate(ctx, req.Prompt, req.Style)
	if err != nil {
		return nil, err
	}

	genID := "gen_" + uuid.NewString()
	url := s.uploadOrInline(ctx, imageBytes, genID+".png")

	if err := s.quota.RecordUse(ctx, key.ID); err != nil {
		// The image was produced and is already on its way to the caller;
		// losing one count is preferable to failing the request.
		s.logger.Error("Failed to record usage after successful generation",
			zap.String("api_key_id", key.ID.String()),
			zap.Error(err),
		)
	}

	metrics.GeneratedImagesTotal.Inc()
	s.logger.Info("Image generated",
		zap.String("id", genID),
		zap.String("api_key_id", key.ID.String()),
	)

	return &dto.GenerateResponse{
		ID:        genID,
		URL:       url,
		Prompt:    req.Prompt,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (s *GenerateService) uploadOrInline(ctx context.Context, imageBytes []byte, filename string) string {
	if s.uploader == nil {
		return generate.Base64URL(imageBytes)
	}

	url, err := s.uploader.Upload(ctx, imageBytes, filename)
	if err != nil {
		s.logger.Warn("Image upload failed, falling back to inline data URL",
			zap.String("filename", filename),
			zap.Error(err),
		)
		return generate.Base64URL(imageBytes)
	}
	if url == "" {
		return generate.Base64URL(imageBytes)
	}
	return url
}
