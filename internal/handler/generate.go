package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/carboni123/nanobanana/internal/handler/dto"
	"github.com/carboni123/nanobanana/internal/handler/middleware"
	"github.com/carboni123/nanobanana/internal/ierr"
	"github.com/carboni123/nanobanana/internal/service"
)

type GenerateHandler struct {
	service *service.GenerateService
	logger  *zap.Logger
}

func NewGenerateHandler(service *service.GenerateService, logger *zap.Logger) *GenerateHandler {
	return &GenerateHandler{
		service: service,
		logger:  logger.Named("GenerateHandler"),
	}
}

func (h *GenerateHandler) Generate(c *gin.Context) {
	var req dto.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(fmt.Errorf("%w: %v", ierr.ErrValidation, err))
		return
	}
	if req.Style == "" {
		req.Style = "natural"
	}

	key := middleware.GetAPIKey(c)
	if key == nil {
		_ = c.Error(ierr.ErrUnauthorized)
		return
	}

	resp, err := h.service.Generate(c.Request.Context(), key, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}
