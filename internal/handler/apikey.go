package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carboni123/nanobanana/internal/handler/dto"
	"github.com/carboni123/nanobanana/internal/handler/middleware"
	"github.com/carboni123/nanobanana/internal/ierr"
	"github.com/carboni123/nanobanana/internal/service"
)

type APIKeyHandler struct {
	service *service.APIKeyService
	logger  *zap.Logger
}

func NewAPIKeyHandler(service *service.APIKeyService, logger *zap.Logger) *APIKeyHandler {
	return &APIKeyHandler{
		service: service,
		logger:  logger.Named("APIKeyHandler"),
	}
}

// Create issues a new key. The response is the only place the full key is
// ever returned; it cannot be retrieved again.
func (h *APIKeyHandler) Create(c *gin.Context) {
	var req dto.CreateKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind create key request", zap.Error(err))
		_ = c.Error(fmt.Errorf("%w: %v", ierr.ErrValidation, err))
		return
	}

	userID := middleware.GetUserID(c)
	resp, err := h.service.CreateAPIKey(c.Request.Context(), userID, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *APIKeyHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)

	resp, err := h.service.ListAPIKeys(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *APIKeyHandler) Revoke(c *gin.Context) {
	idStr := c.Param("id")
	keyID, err := uuid.Parse(idStr)
	if err != nil {
		h.logger.Warn("Invalid UUID format for revoke api key", zap.String("id_param", idStr))
		_ = c.Error(fmt.Errorf("%w: invalid api key id format", ierr.ErrValidation))
		return
	}

	userID := middleware.GetUserID(c)
	if err := h.service.RevokeAPIKey(c.Request.Context(), keyID, userID); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}
