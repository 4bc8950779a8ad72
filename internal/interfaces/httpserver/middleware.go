package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"taskpilot/chat-api/internal/infrastructure/auth"
	"taskpilot/chat-api/internal/interfaces/httpserver/dto"
	"taskpilot/chat-api/internal/interfaces/httpserver/handlers"
)

// requestIDMiddleware assigns each request an id, echoed in the response
// header and attached to the request context for error correlation.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)
		c.Request = c.Request.WithContext(
			contextWithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

// authMiddleware verifies bearer tokens when a validator is configured.
// Without one, requests proceed as the guest identity.
func authMiddleware(validator *auth.Validator, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if validator == nil {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "missing bearer token"})
			return
		}

		claims, err := validator.Validate(token)
		if err != nil {
			logger.Debug().Err(err).Msg("token rejected")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid token"})
			return
		}

		handlers.SetOwnerID(c, claims.Subject)
		c.Next()
	}
}

// accessLogMiddleware writes one structured line per request.
func accessLogMiddleware(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}

func contextWithRequestID(ctx context.Context, requestID string) context.Context {
	//nolint:staticcheck // key matches the error package's context lookup
	return context.WithValue(ctx, "requestID", requestID)
}
