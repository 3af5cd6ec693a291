package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carboni123/nanobanana/internal/handler/middleware"
	"github.com/carboni123/nanobanana/internal/ierr"
	"github.com/carboni123/nanobanana/internal/service"
)

type UsageHandler struct {
	service *service.UsageService
	logger  *zap.Logger
}

func NewUsageHandler(service *service.UsageService, logger *zap.Logger) *UsageHandler {
	return &UsageHandler{
		service: service,
		logger:  logger.Named("UsageHandler"),
	}
}

func (h *UsageHandler) Summary(c *gin.Context) {
	userID := middleware.GetUserID(c)

	resp, err := h.service.GetSummary(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *UsageHandler) Daily(c *gin.Context) {
	days := service.DefaultDailyWindowDays
	if daysStr := c.Query("days"); daysStr != "" {
		parsed, err := strconv.Atoi(daysStr)
		if err != nil || parsed < 1 || parsed > service.MaxDailyWindowDays {
			_ = c.Error(fmt.Errorf("%w: days must be an integer between 1 and %d", ierr.ErrValidation, service.MaxDailyWindowDays))
			return
		}
		days = parsed
	}

	userID := middleware.GetUserID(c)
	resp, err := h.service.GetDaily(c.Request.Context(), userID, days)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *UsageHandler) KeyUsage(c *gin.Context) {
	idStr := c.Param("id")
	keyID, err := uuid.Parse(idStr)
	if err != nil {
		_ = c.Error(fmt.Errorf("%w: invalid api key id format", ierr.ErrValidation))
		return
	}

	userID := middleware.GetUserID(c)
	resp, err := h.service.GetKeyUsage(c.Request.Context(), keyID, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
