package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carboni123/nanobanana/internal/domain/apikey"
	"github.com/carboni123/nanobanana/internal/handler/dto"
	"github.com/carboni123/nanobanana/internal/ierr"
	"github.com/carboni123/nanobanana/internal/util"
)

type APIKeyService struct {
	repo   apikey.Repository
	logger *zap.Logger
}

func NewAPIKeyService(repo apikey.Repository, logger *zap.Logger) *APIKeyService {
	return &APIKeyService{
		repo:   repo,
		logger: logger.Named("APIKeyService"),
	}
}

// CreateAPIKey issues a new key for userID. The returned response is the
// only time the plaintext key leaves the service.
func (s *APIKeyService) CreateAPIKey(ctx context.Context, userID uuid.UUID, req *dto.CreateKeyRequest) (*dto.CreateKeyResponse, error) {
	fullKey, keyHash, prefix, err := util.GenerateAPIKey()
	if err != nil {
		s.logger.Error("Failed to generate api key components", zap.Error(err))
		return nil, fmt.Errorf("%w: failed generating key: %v", ierr.ErrInternalServer, err)
	}

	name := req.Name
	if name == "" {
		name = apikey.DefaultKeyName
	}

	newKey := &apikey.APIKey{
		UserID:    userID,
		KeyHash:   keyHash,
		Name:      name,
		Prefix:    prefix,
		IsActive:  true,
		ExpiresAt: req.ExpiresAt,
	}

	created, err := s.repo.Create(ctx, newKey)
	if err != nil {
		s.logger.Error("Failed to save new api key", zap.Error(err))
		return nil, fmt.Errorf("repository error creating api key: %w", err)
	}

	s.logger.Info("API key created",
		zap.String("id", created.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("prefix", prefix),
	)

	return &dto.CreateKeyResponse{
		ID:        created.ID,
		Key:       fullKey,
		Name:      created.Name,
		Prefix:    created.Prefix,
		CreatedAt: created.CreatedAt,
	}, nil
}

func (s *APIKeyService) ListAPIKeys(ctx context.Context, userID uuid.UUID) (*dto.KeyListResponse, error) {
	keys, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to list api keys from repository", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, fmt.Errorf("repository error listing api keys: %w", err)
	}

	resp := &dto.KeyListResponse{Keys: make([]dto.KeyResponse, len(keys))}
	for i, key := range keys {
		resp.Keys[i] = dto.KeyResponse{
			ID:         key.ID,
			Name:       key.Name,
			Prefix:     key.Prefix,
			IsActive:   key.IsActive,
			LastUsedAt: key.LastUsedAt,
			ExpiresAt:  key.ExpiresAt,
			CreatedAt:  key.CreatedAt,
		}
	}
	return resp, nil
}

// RevokeAPIKey disables a key the user owns. Unknown and foreign keys both
// surface as ErrNotFound so callers cannot probe for other users' key ids.
func (s *APIKeyService) RevokeAPIKey(ctx context.Context, keyID, userID uuid.UUID) error {
	revoked, err := s.repo.Revoke(ctx, keyID, userID)
	if err != nil {
		s.logger.Error("Failed to revoke api key via repository", zap.String("id", keyID.String()), zap.Error(err))
		return fmt.Errorf("repository error revoking api key %s: %w", keyID, err)
	}
	if !revoked {
		return ierr.ErrNotFound
	}

	s.logger.Info("API key revoked", zap.String("id", keyID.String()), zap.String("user_id", userID.String()))
	return nil
}
