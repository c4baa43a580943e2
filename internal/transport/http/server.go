package http

import (
	stdhttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-relay/internal/auth"
	"github.com/vovakirdan/wirechat-relay/internal/config"
	"github.com/vovakirdan/wirechat-relay/internal/core"
)

// NewServer builds the HTTP server: /health, /ws and /api/users.
// When an access secret is configured, /ws and /api require a token.
func NewServer(hub *core.Hub, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	api := NewAPIHandlers(hub)
	router.GET("/health", api.Health)

	protected := router.Group("/")
	if cfg.AccessEnabled() {
		protected.Use(AccessMiddleware(JWTConfigFrom(cfg), logger))
	}
	protected.GET("/ws", gin.WrapH(NewWSHandler(hub, cfg, logger)))
	protected.GET("/api/users", api.ListUsers)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// JWTConfigFrom derives access token settings from server configuration.
func JWTConfigFrom(cfg *config.Config) *auth.JWTConfig {
	return &auth.JWTConfig{
		Secret:   []byte(cfg.AccessSecret),
		Issuer:   cfg.AccessIssuer,
		Audience: cfg.AccessAudience,
		TTL:      24 * time.Hour,
	}
}
