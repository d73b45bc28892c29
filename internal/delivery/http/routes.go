package http

import (
	"github.com/gin-gonic/gin"
	"github.com/pokefinder/backend/config"
	"github.com/pokefinder/backend/internal/infrastructure/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, log *zap.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	log = logger.OrNop(log).Named("http")
	router := gin.New()

	// Only listed proxies may set X-Forwarded-For; with none, ClientIP is the peer address
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		log.Warn("Invalid trusted proxies, trusting none", zap.Error(err))
		_ = router.SetTrustedProxies(nil)
	}

	// Global middleware
	router.Use(RecoveryMiddleware(log))
	router.Use(LoggerMiddleware(log))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check and metrics endpoints
	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", handler.CreateSession)
			sessions.DELETE("/:id", handler.DeleteSession)
			sessions.POST("/:id/search", handler.Search)
			sessions.GET("/:id/outcome", handler.GetOutcome)
			sessions.POST("/:id/sprite/toggle", handler.ToggleSprite)
			sessions.GET("/:id/stream", handler.StreamOutcome)
		}

		v1.GET("/pokemon/:name", handler.LookupPokemon)
	}

	return router
}
