package http

import (
	"github.com/gin-gonic/gin"
	"github.com/sotc/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		analyze := []gin.HandlerFunc{}
		if cfg.RateLimit.PerIP > 0 {
			analyze = append(analyze, RateLimitMiddleware(NewIPRateLimiter(cfg.RateLimit.PerIP, cfg.RateLimit.Window)))
		}
		analyze = append(analyze, handler.Analyze)
		v1.POST("/analyze", analyze...)

		cards := v1.Group("/cards")
		{
			cards.POST("/view", handler.BuildCardView)
			cards.GET("/:id", handler.GetCard)
			cards.GET("/:id/view", handler.GetCardView)
		}
	}

	return router
}
