package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carboni123/nanobanana/internal/domain/apikey"
	"github.com/carboni123/nanobanana/internal/ierr"
	"github.com/carboni123/nanobanana/internal/metrics"
	"github.com/carboni123/nanobanana/internal/util"
)

const apiKeyContextKey = "apiKey"

// unauthorizedBody is what every authentication failure looks like from the
// outside: missing, malformed, unknown and revoked keys are deliberately
// indistinguishable so the endpoint cannot be used as an oracle.
var unauthorizedBody = gin.H{"error": "Invalid or missing API key"}

// APIKeyAuthMiddleware authenticates requests by opaque bearer key. A token
// passes through, in order: presence, format, hash resolution, active
// status. Any failure aborts with a generic 401. The format check runs
// before the digest and the store lookup so obviously invalid input never
// costs a database round trip.
func APIKeyAuthMiddleware(keyRepo apikey.Repository, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("APIKeyAuthMiddleware")
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			metrics.APIKeyAuthTotal.WithLabelValues("missing").Inc()
			log.Debug("API key bearer token is missing")
			abortUnauthorized(c)
			return
		}

		if !util.ValidKeyFormat(token) {
			metrics.APIKeyAuthTotal.WithLabelValues("malformed").Inc()
			log.Debug("API key has invalid format")
			abortUnauthorized(c)
			return
		}

		keyHash := util.HashAPIKey(token)
		keyRecord, err := keyRepo.FindByHash(c.Request.Context(), keyHash)
		if err != nil {
			if errors.Is(err, ierr.ErrAPIKeyNotFound) {
				metrics.APIKeyAuthTotal.WithLabelValues("unknown").Inc()
				log.Debug("API key not found by hash")
				abortUnauthorized(c)
				return
			}
			metrics.APIKeyAuthTotal.WithLabelValues("error").Inc()
			log.Error("Failed to query API key repository", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error during API key validation"})
			return
		}

		if !keyRecord.IsActive {
			metrics.APIKeyAuthTotal.WithLabelValues("revoked").Inc()
			log.Debug("API key is revoked", zap.String("key_id", keyRecord.ID.String()))
			abortUnauthorized(c)
			return
		}

		// The hourly sweep deactivates expired keys eventually; reject here
		// so an expired key never authenticates in the interim.
		if keyRecord.ExpiresAt != nil && !keyRecord.ExpiresAt.After(time.Now().UTC()) {
			metrics.APIKeyAuthTotal.WithLabelValues("expired").Inc()
			log.Debug("API key is expired", zap.String("key_id", keyRecord.ID.String()))
			abortUnauthorized(c)
			return
		}

		// Best effort: a failed touch must never fail or slow the request.
		go func(id uuid.UUID) {
			touchCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := keyRepo.UpdateLastUsed(touchCtx, id, time.Now().UTC()); err != nil {
				log.Warn("Failed to update API key last used time", zap.String("key_id", id.String()), zap.Error(err))
			}
		}(keyRecord.ID)

		metrics.APIKeyAuthTotal.WithLabelValues("ok").Inc()
		c.Set(apiKeyContextKey, keyRecord)
		c.Next()
	}
}

// GetAPIKey returns the authenticated key record set by
// APIKeyAuthMiddleware, or nil outside an authenticated request.
func GetAPIKey(c *gin.Context) *apikey.APIKey {
	value, exists := c.Get(apiKeyContextKey)
	if !exists {
		return nil
	}
	key, ok := value.(*apikey.APIKey)
	if !ok {
		return nil
	}
	return key
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader(authorizationHeader)
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", false
	}
	token := strings.TrimPrefix(authHeader, bearerPrefix)
	if token == "" {
		return "", false
	}
	return token, true
}

func abortUnauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, unauthorizedBody)
}
