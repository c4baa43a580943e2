package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-relay/internal/auth"
)

// ContextKeySubject is the context key for the access token subject.
const ContextKeySubject = "subject"

// AccessMiddleware requires a valid operator access token.
func AccessMiddleware(jwtConfig *auth.JWTConfig, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.TokenFromRequest(c.Request)
		if err != nil {
			msg := "invalid authorization header format"
			if errors.Is(err, auth.ErrMissingToken) {
				msg = "missing access token"
			}
			logger.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("access denied")
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: msg})
			return
		}

		claims, err := auth.ValidateToken(jwtConfig, token)
		if err != nil {
			logger.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("invalid token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid token"})
			return
		}

		c.Set(ContextKeySubject, claims.Subject)
		c.Next()
	}
}

// LoggerMiddleware creates a middleware that logs HTTP requests.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Process request
		c.Next()

		ev := logger.Info()
		if c.Request.URL.Path == "/health" {
			ev = logger.Debug()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Str("subject", c.GetString(ContextKeySubject)).
			Msg("http request")
	}
}
